// Package analysis is the middle stage of the batch pipeline: given a
// cleaned dataset frame it computes grouped summary tables, the
// correlation matrix and the significance tests a profile asks for.
// The output is consumed only by the report package.
package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"medpulse/internal/dataset"
	"medpulse/internal/stats"
)

// AggFn names a summary statistic computed per group.
type AggFn string

const (
	AggSum      AggFn = "sum"
	AggMean     AggFn = "mean"
	AggCount    AggFn = "count"
	AggMin      AggFn = "min"
	AggMax      AggFn = "max"
	AggDistinct AggFn = "distinct"
)

// Agg binds a statistic to a column. AggCount ignores the column value
// and counts rows; AggDistinct counts distinct values of a text column.
type Agg struct {
	Column string
	Fn     AggFn
}

// Header returns the flattened column header for this aggregate, in
// the <column>_<fn> convention the spreadsheets use.
func (a Agg) Header() string {
	switch a.Fn {
	case AggCount:
		return a.Column + "_count"
	case AggDistinct:
		return a.Column + "_nunique"
	default:
		return a.Column + "_" + string(a.Fn)
	}
}

// Table is one grouped summary: a set of rows keyed by the grouping
// dimension(s), each carrying the aggregate cells in header order.
type Table struct {
	Name    string
	Dims    []string
	Headers []string
	Rows    []GroupRow
}

// GroupRow is a single group's aggregates.
type GroupRow struct {
	Key   string
	Cells []float64
}

// Row returns the row for the given key, if present.
func (t *Table) Row(key string) (GroupRow, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return GroupRow{}, false
}

// Cell returns one aggregate value by key and header.
func (t *Table) Cell(key, header string) (float64, error) {
	row, ok := t.Row(key)
	if !ok {
		return 0, fmt.Errorf("analysis: table %s has no group %q", t.Name, key)
	}
	for i, h := range t.Headers {
		if h == header {
			return row.Cells[i], nil
		}
	}
	return 0, fmt.Errorf("analysis: table %s has no header %q", t.Name, header)
}

// Top returns the key of the row with the largest value under the
// given header.
func (t *Table) Top(header string) (string, error) {
	idx := -1
	for i, h := range t.Headers {
		if h == header {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("analysis: table %s has no header %q", t.Name, header)
	}
	best := ""
	bestVal := 0.0
	for i, r := range t.Rows {
		if i == 0 || r.Cells[idx] > bestVal {
			best = r.Key
			bestVal = r.Cells[idx]
		}
	}
	if best == "" && len(t.Rows) == 0 {
		return "", fmt.Errorf("analysis: table %s is empty", t.Name)
	}
	return best, nil
}

// GroupBy computes aggs over f grouped by one or more dimensions.
// Multi-dimension keys are joined with "-" (e.g. "2022-5" for
// year+month). Rows come back sorted descending by the first
// aggregate; ties keep first-seen group order.
func GroupBy(f *dataset.Frame, name string, dims []string, aggs []Agg) (*Table, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("analysis: group-by with no dimensions")
	}
	if len(aggs) == 0 {
		return nil, fmt.Errorf("analysis: group-by with no aggregates")
	}
	keys, err := groupKeys(f, dims)
	if err != nil {
		return nil, err
	}
	return groupByKeys(f, name, dims, keys, aggs)
}

// GroupByKeys is GroupBy with a caller-supplied key per row; it backs
// derived dimensions such as age buckets that are not frame columns.
func GroupByKeys(f *dataset.Frame, name, dim string, keys []string, aggs []Agg) (*Table, error) {
	if len(keys) != f.Len() {
		return nil, fmt.Errorf("analysis: %d keys for %d rows", len(keys), f.Len())
	}
	return groupByKeys(f, name, []string{dim}, keys, aggs)
}

func groupByKeys(f *dataset.Frame, name string, dims []string, keys []string, aggs []Agg) (*Table, error) {
	groups := make(map[string][]int)
	var order []string
	for i, k := range keys {
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	table := &Table{
		Name: name,
		Dims: dims,
	}
	for _, a := range aggs {
		table.Headers = append(table.Headers, a.Header())
	}

	for _, key := range order {
		idx := groups[key]
		row := GroupRow{Key: key, Cells: make([]float64, 0, len(aggs))}
		for _, a := range aggs {
			cell, err := aggregate(f, a, idx)
			if err != nil {
				return nil, fmt.Errorf("analysis: table %s: %w", name, err)
			}
			row.Cells = append(row.Cells, cell)
		}
		table.Rows = append(table.Rows, row)
	}

	// Descending by the primary statistic for reporting; stable so tie
	// groups keep their first-seen order.
	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Cells[0] > table.Rows[j].Cells[0]
	})

	return table, nil
}

func aggregate(f *dataset.Frame, a Agg, idx []int) (float64, error) {
	switch a.Fn {
	case AggCount:
		return float64(len(idx)), nil
	case AggDistinct:
		vals, err := f.Strings(a.Column)
		if err != nil {
			return 0, err
		}
		seen := make(map[string]struct{}, len(idx))
		for _, i := range idx {
			seen[vals[i]] = struct{}{}
		}
		return float64(len(seen)), nil
	}

	vals, err := f.Floats(a.Column)
	if err != nil {
		return 0, err
	}
	sub := make([]float64, 0, len(idx))
	for _, i := range idx {
		sub = append(sub, vals[i])
	}
	switch a.Fn {
	case AggSum:
		return stats.Sum(sub), nil
	case AggMean:
		return stats.Mean(sub), nil
	case AggMin:
		min := sub[0]
		for _, v := range sub[1:] {
			if v < min {
				min = v
			}
		}
		return min, nil
	case AggMax:
		max := sub[0]
		for _, v := range sub[1:] {
			if v > max {
				max = v
			}
		}
		return max, nil
	default:
		return 0, fmt.Errorf("unknown aggregate %q", a.Fn)
	}
}

// groupKeys builds the per-row group key for the given dimensions.
func groupKeys(f *dataset.Frame, dims []string) ([]string, error) {
	parts := make([][]string, len(dims))
	for d, dim := range dims {
		kind, ok := f.Kind(dim)
		if !ok {
			return nil, &dataset.SchemaError{Column: dim, Reason: "grouping dimension not in frame"}
		}
		switch kind {
		case dataset.KindString:
			vals, err := f.Strings(dim)
			if err != nil {
				return nil, err
			}
			parts[d] = vals
		default:
			vals, err := f.Floats(dim)
			if err != nil {
				return nil, err
			}
			strs := make([]string, len(vals))
			for i, v := range vals {
				strs[i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
			parts[d] = strs
		}
	}
	keys := make([]string, f.Len())
	for i := range keys {
		if len(dims) == 1 {
			keys[i] = parts[0][i]
			continue
		}
		segs := make([]string, len(dims))
		for d := range dims {
			segs[d] = parts[d][i]
		}
		keys[i] = strings.Join(segs, "-")
	}
	return keys, nil
}

// AgeBuckets maps ages onto the fixed demographic bins the reports
// use. Ages at or below zero fall into the first bucket.
func AgeBuckets(ages []float64) []string {
	out := make([]string, len(ages))
	for i, a := range ages {
		switch {
		case a <= 25:
			out[i] = "18-25"
		case a <= 35:
			out[i] = "26-35"
		case a <= 45:
			out[i] = "36-45"
		case a <= 55:
			out[i] = "46-55"
		default:
			out[i] = "55+"
		}
	}
	return out
}
