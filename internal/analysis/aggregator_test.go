package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medpulse/internal/dataset"
)

func salesFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	schema := dataset.Schema{
		Columns: []dataset.Column{
			{Name: "customer", Kind: dataset.KindString},
			{Name: "category", Kind: dataset.KindString},
			{Name: "age", Kind: dataset.KindInt},
			{Name: "amount", Kind: dataset.KindFloat},
			{Name: "when", Kind: dataset.KindDate},
		},
		DateColumn: "when",
		DateLayout: "2006-01-02",
	}
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(`customer,category,age,amount,when
c1,Clothing,30,100,2023-01-10
c2,Clothing,52,50,2023-02-11
c1,Shoes,30,200,2023-01-20
c3,Books,24,40,2023-03-05
c3,Shoes,24,60,2023-03-06
`), 0o644))
	f, err := dataset.Load(path, schema, nil)
	require.NoError(t, err)
	return f
}

func TestGroupBy_SingleDim(t *testing.T) {
	f := salesFrame(t)

	table, err := GroupBy(f, "Category_Analysis", []string{"category"}, []Agg{
		{Column: "amount", Fn: AggSum},
		{Column: "amount", Fn: AggMean},
		{Column: "amount", Fn: AggCount},
		{Column: "customer", Fn: AggDistinct},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"amount_sum", "amount_mean", "amount_count", "customer_nunique"}, table.Headers)

	// Sorted descending by the first aggregate: Shoes 260, Clothing 150, Books 40.
	keys := make([]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"Shoes", "Clothing", "Books"}, keys)

	sum, err := table.Cell("Clothing", "amount_sum")
	require.NoError(t, err)
	assert.Equal(t, 150.0, sum)

	mean, err := table.Cell("Clothing", "amount_mean")
	require.NoError(t, err)
	assert.Equal(t, 75.0, mean)

	distinct, err := table.Cell("Shoes", "customer_nunique")
	require.NoError(t, err)
	assert.Equal(t, 2.0, distinct)
}

func TestGroupBy_MultiDim(t *testing.T) {
	f := salesFrame(t)

	table, err := GroupBy(f, "Monthly_Analysis", []string{"year", "month"}, []Agg{
		{Column: "amount", Fn: AggSum},
	})
	require.NoError(t, err)

	jan, err := table.Cell("2023-1", "amount_sum")
	require.NoError(t, err)
	assert.Equal(t, 300.0, jan)

	mar, err := table.Cell("2023-3", "amount_sum")
	require.NoError(t, err)
	assert.Equal(t, 100.0, mar)
}

func TestGroupBy_SumsCoverColumn(t *testing.T) {
	f := salesFrame(t)

	amounts, err := f.Floats("amount")
	require.NoError(t, err)
	var total float64
	for _, v := range amounts {
		total += v
	}

	for _, dims := range [][]string{{"category"}, {"customer"}, {"year", "month"}} {
		table, err := GroupBy(f, "coverage", dims, []Agg{
			{Column: "amount", Fn: AggSum},
		})
		require.NoError(t, err)

		var grouped float64
		for _, row := range table.Rows {
			cell, err := table.Cell(row.Key, "amount_sum")
			require.NoError(t, err)
			grouped += cell
		}
		assert.InDelta(t, total, grouped, 1e-9, "dims %v", dims)
	}
}

func TestGroupBy_MinMax(t *testing.T) {
	f := salesFrame(t)

	table, err := GroupBy(f, "Category_Analysis", []string{"category"}, []Agg{
		{Column: "amount", Fn: AggMin},
		{Column: "amount", Fn: AggMax},
	})
	require.NoError(t, err)

	min, err := table.Cell("Shoes", "amount_min")
	require.NoError(t, err)
	max, err2 := table.Cell("Shoes", "amount_max")
	require.NoError(t, err2)
	assert.Equal(t, 60.0, min)
	assert.Equal(t, 200.0, max)
}

func TestGroupBy_UnknownDim(t *testing.T) {
	f := salesFrame(t)

	_, err := GroupBy(f, "bad", []string{"nope"}, []Agg{{Column: "amount", Fn: AggSum}})
	var schemaErr *dataset.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestGroupByKeys_AgeBuckets(t *testing.T) {
	f := salesFrame(t)

	ages, err := f.Floats("age")
	require.NoError(t, err)

	table, err := GroupByKeys(f, "Age_Analysis", "age_group", AgeBuckets(ages), []Agg{
		{Column: "amount", Fn: AggSum},
		{Column: "amount", Fn: AggCount},
	})
	require.NoError(t, err)

	y26, err := table.Cell("26-35", "amount_sum")
	require.NoError(t, err)
	assert.Equal(t, 300.0, y26)

	y18, err := table.Cell("18-25", "amount_count")
	require.NoError(t, err)
	assert.Equal(t, 2.0, y18)

	y46, err := table.Cell("46-55", "amount_sum")
	require.NoError(t, err)
	assert.Equal(t, 50.0, y46)
}

func TestAgeBuckets(t *testing.T) {
	got := AgeBuckets([]float64{18, 25, 26, 35, 36, 45, 46, 55, 56, 80})
	want := []string{"18-25", "18-25", "26-35", "26-35", "36-45", "36-45", "46-55", "46-55", "55+", "55+"}
	assert.Equal(t, want, got)
}

func TestTableTop(t *testing.T) {
	f := salesFrame(t)

	table, err := GroupBy(f, "Category_Analysis", []string{"category"}, []Agg{
		{Column: "amount", Fn: AggSum},
	})
	require.NoError(t, err)

	top, err := table.Top("amount_sum")
	require.NoError(t, err)
	assert.Equal(t, "Shoes", top)
}
