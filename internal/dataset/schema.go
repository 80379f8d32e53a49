package dataset

import "fmt"

// Kind identifies the parsed type of a column.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindDate   Kind = "date"
	// KindBinary is a Yes/No text column mapped to 1/0 on load.
	KindBinary Kind = "binary"
)

// Column describes a single input column.
type Column struct {
	Name string
	Kind Kind
}

// Product derives a new numeric column as the product of two loaded
// numeric columns (e.g. total_amount = quantity * price).
type Product struct {
	Name  string
	Left  string
	Right string
}

// Schema declares the expected shape of a delimited input file.
// Loading validates the header against the schema up front, so a
// missing or renamed column fails with a SchemaError instead of a
// panic deep inside the aggregation code.
type Schema struct {
	Columns []Column

	// DateColumn, when set, must name a KindDate column. Loading parses
	// it with DateLayout and derives year, month, quarter and
	// day_of_week columns from it.
	DateColumn string
	DateLayout string

	// Products are derived multiplicative columns computed after parsing.
	Products []Product
}

// Derived column names added when Schema.DateColumn is set.
const (
	DerivedYear      = "year"
	DerivedMonth     = "month"
	DerivedQuarter   = "quarter"
	DerivedDayOfWeek = "day_of_week"
)

// SchemaError reports a mismatch between the schema and the input file.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset: column %q: %s", e.Column, e.Reason)
}

// Validate checks the schema for internal consistency.
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return &SchemaError{Reason: "schema has no columns"}
	}
	seen := make(map[string]Kind, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return &SchemaError{Reason: "column with empty name"}
		}
		if _, dup := seen[c.Name]; dup {
			return &SchemaError{Column: c.Name, Reason: "duplicate column"}
		}
		seen[c.Name] = c.Kind
	}
	if s.DateColumn != "" {
		kind, ok := seen[s.DateColumn]
		if !ok {
			return &SchemaError{Column: s.DateColumn, Reason: "date column not declared"}
		}
		if kind != KindDate {
			return &SchemaError{Column: s.DateColumn, Reason: "date column must have kind date"}
		}
		if s.DateLayout == "" {
			return &SchemaError{Column: s.DateColumn, Reason: "date layout not set"}
		}
	}
	for _, p := range s.Products {
		for _, dep := range []string{p.Left, p.Right} {
			kind, ok := seen[dep]
			if !ok {
				return &SchemaError{Column: dep, Reason: fmt.Sprintf("product %q references unknown column", p.Name)}
			}
			if kind != KindInt && kind != KindFloat {
				return &SchemaError{Column: dep, Reason: fmt.Sprintf("product %q references non-numeric column", p.Name)}
			}
		}
	}
	return nil
}
