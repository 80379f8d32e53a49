package dataset

import (
	"time"
)

// Frame is a cleaned, columnar in-memory table. It is built once by
// Load and never mutated afterwards; every column has exactly Len
// values.
type Frame struct {
	schema Schema
	order  []string // column order: declared, then derived

	numeric map[string][]float64
	text    map[string][]string
	dates   map[string][]time.Time
	kinds   map[string]Kind

	rows int
}

// Len returns the number of cleaned rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns every column name in load order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Kind returns the kind of a column and whether it exists.
func (f *Frame) Kind(name string) (Kind, bool) {
	k, ok := f.kinds[name]
	return k, ok
}

// NumericColumns returns the names of all numeric columns (ints,
// floats, mapped binaries and derived calendar numbers) in load order.
func (f *Frame) NumericColumns() []string {
	var out []string
	for _, name := range f.order {
		if _, ok := f.numeric[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Floats returns the values of a numeric column.
func (f *Frame) Floats(name string) ([]float64, error) {
	vals, ok := f.numeric[name]
	if !ok {
		return nil, &SchemaError{Column: name, Reason: "not a numeric column"}
	}
	return vals, nil
}

// Strings returns the values of a text column.
func (f *Frame) Strings(name string) ([]string, error) {
	vals, ok := f.text[name]
	if !ok {
		return nil, &SchemaError{Column: name, Reason: "not a text column"}
	}
	return vals, nil
}

// Dates returns the values of a date column.
func (f *Frame) Dates(name string) ([]time.Time, error) {
	vals, ok := f.dates[name]
	if !ok {
		return nil, &SchemaError{Column: name, Reason: "not a date column"}
	}
	return vals, nil
}

// DistinctCount returns the number of distinct values in a text column.
func (f *Frame) DistinctCount(name string) (int, error) {
	vals, err := f.Strings(name)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen), nil
}

func (f *Frame) addNumeric(name string, vals []float64) {
	f.numeric[name] = vals
	f.kinds[name] = KindFloat
	f.order = append(f.order, name)
}

func (f *Frame) addText(name string, vals []string) {
	f.text[name] = vals
	f.kinds[name] = KindString
	f.order = append(f.order, name)
}
