package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "age", Kind: KindInt},
			{Name: "price", Kind: KindFloat},
			{Name: "member", Kind: KindBinary},
			{Name: "when", Kind: KindDate},
		},
		DateColumn: "when",
		DateLayout: "2006-01-02",
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_CleanInput(t *testing.T) {
	path := writeCSV(t, `id,age,price,member,when
a1,34,19.99,Yes,2023-01-15
a2,28,5.50,No,2023-02-03
`)

	f, err := Load(path, testSchema(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, f.Len())

	ages, err := f.Floats("age")
	require.NoError(t, err)
	assert.Equal(t, []float64{34, 28}, ages)

	members, err := f.Floats("member")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, members)

	years, err := f.Floats(DerivedYear)
	require.NoError(t, err)
	assert.Equal(t, []float64{2023, 2023}, years)

	months, err := f.Floats(DerivedMonth)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, months)

	quarters, err := f.Floats(DerivedQuarter)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, quarters)

	days, err := f.Strings(DerivedDayOfWeek)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sunday", "Friday"}, days)
}

func TestLoad_DropsIncompleteRows(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want int
	}{
		{
			name: "blank value dropped",
			csv: `id,age,price,member,when
a1,34,19.99,Yes,2023-01-15
a2,,5.50,No,2023-02-03
`,
			want: 1,
		},
		{
			name: "unmapped binary dropped",
			csv: `id,age,price,member,when
a1,34,19.99,Maybe,2023-01-15
a2,28,5.50,no,2023-02-03
`,
			want: 1,
		},
		{
			name: "short record dropped",
			csv: `id,age,price,member,when
a1,34,19.99
a2,28,5.50,No,2023-02-03
`,
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(writeCSV(t, tt.csv), testSchema(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Len())
		})
	}
}

func TestLoad_BinaryCaseInsensitive(t *testing.T) {
	path := writeCSV(t, `id,age,price,member,when
a1,34,19.99,YES,2023-01-15
a2,28,5.50,no,2023-02-03
`)
	f, err := Load(path, testSchema(), nil)
	require.NoError(t, err)

	members, err := f.Floats("member")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, members)
}

func TestLoad_MalformedValueFails(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			name: "bad int",
			csv: `id,age,price,member,when
a1,thirty,19.99,Yes,2023-01-15
`,
		},
		{
			name: "bad date",
			csv: `id,age,price,member,when
a1,34,19.99,Yes,15/01/2023
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCSV(t, tt.csv), testSchema(), nil)
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
		})
	}
}

func TestLoad_MissingColumnFails(t *testing.T) {
	path := writeCSV(t, `id,age,price,member
a1,34,19.99,Yes
`)
	_, err := Load(path, testSchema(), nil)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "when", schemaErr.Column)
}

func TestLoad_ProductColumn(t *testing.T) {
	schema := Schema{
		Columns: []Column{
			{Name: "quantity", Kind: KindInt},
			{Name: "price", Kind: KindFloat},
		},
		Products: []Product{{Name: "total", Left: "quantity", Right: "price"}},
	}
	path := writeCSV(t, `quantity,price
3,2.50
2,10
`)
	f, err := Load(path, schema, nil)
	require.NoError(t, err)

	totals, err := f.Floats("total")
	require.NoError(t, err)
	assert.Equal(t, []float64{7.5, 20}, totals)
}

func TestLoad_ThousandsSeparator(t *testing.T) {
	schema := Schema{
		Columns: []Column{{Name: "price", Kind: KindFloat}},
	}
	path := writeCSV(t, `price
"1,250.75"
`)
	f, err := Load(path, schema, nil)
	require.NoError(t, err)

	prices, err := f.Floats("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{1250.75}, prices)
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Schema)
		wantErr string
	}{
		{
			name:    "valid",
			mutate:  func(*Schema) {},
			wantErr: "",
		},
		{
			name: "duplicate column",
			mutate: func(s *Schema) {
				s.Columns = append(s.Columns, Column{Name: "id", Kind: KindString})
			},
			wantErr: "duplicate",
		},
		{
			name: "date column without layout",
			mutate: func(s *Schema) {
				s.DateLayout = ""
			},
			wantErr: "layout",
		},
		{
			name: "product over text column",
			mutate: func(s *Schema) {
				s.Products = []Product{{Name: "x", Left: "id", Right: "age"}}
			},
			wantErr: "numeric",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := testSchema()
			tt.mutate(&schema)
			err := schema.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
