package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Matrix is a labelled pairwise correlation matrix. Data is square,
// symmetric, with 1.0 on the diagonal.
type Matrix struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

// At returns the correlation between two named columns.
func (m *Matrix) At(a, b string) (float64, error) {
	ai, bi := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ai = i
		}
		if c == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0, fmt.Errorf("stats: correlation matrix has no pair (%s, %s)", a, b)
	}
	return m.Data[ai][bi], nil
}

// Column returns the labelled correlations of one column against all
// columns in the matrix, in matrix order.
func (m *Matrix) Column(name string) ([]Correlation, error) {
	idx := -1
	for i, c := range m.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("stats: correlation matrix has no column %s", name)
	}
	out := make([]Correlation, 0, len(m.Columns))
	for i, c := range m.Columns {
		out = append(out, Correlation{Column: c, R: m.Data[idx][i]})
	}
	return out, nil
}

// Correlation pairs a column name with a Pearson r value.
type Correlation struct {
	Column string  `json:"column"`
	R      float64 `json:"r"`
}

// CorrelationMatrix computes the Pearson correlation of every column
// pair. Columns must all have the same length.
func CorrelationMatrix(names []string, columns [][]float64) (*Matrix, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("stats: %d names for %d columns", len(names), len(columns))
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("stats: correlation over zero columns")
	}
	n := len(columns[0])
	for i, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("stats: column %s has %d values, want %d", names[i], len(col), n)
		}
	}

	data := make([][]float64, len(columns))
	for i := range data {
		data[i] = make([]float64, len(columns))
		data[i][i] = 1.0
	}
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			r := stat.Correlation(columns[i], columns[j], nil)
			if !isFinite(r) {
				// Zero-variance column; pandas reports NaN here, but a
				// zero keeps the spreadsheet and diagram writers simple.
				r = 0
			}
			data[i][j] = r
			data[j][i] = r
		}
	}
	return &Matrix{Columns: names, Data: data}, nil
}
