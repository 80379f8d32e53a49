package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medpulse/internal/dataset"
)

func studentsFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	var b strings.Builder
	b.WriteString("College_ID,IQ,Prev_Sem_Result,CGPA,Academic_Performance,Internship_Experience,Extra_Curricular_Score,Communication_Skills,Projects_Completed,Placement\n")
	// Placed students score visibly higher, with spread inside each
	// group, so the factor direction and significance are deterministic.
	for i := 0; i < 20; i++ {
		internship := "Yes"
		if i%5 == 0 {
			internship = "No"
		}
		b.WriteString(fmt.Sprintf("CLG%03d,%d,%0.1f,%0.1f,%d,%s,%d,%d,%d,Yes\n",
			i, 110+i%7, 7.5+float64(i%4)*0.2, 8.0+float64(i%3)*0.3, 8+i%2,
			internship, 7+i%3, 8+i%2, 4+i%2))
	}
	for i := 20; i < 40; i++ {
		internship := "No"
		if i%5 == 0 {
			internship = "Yes"
		}
		b.WriteString(fmt.Sprintf("CLG%03d,%d,%0.1f,%0.1f,%d,%s,%d,%d,%d,No\n",
			i, 90+i%7, 6.0+float64(i%4)*0.2, 6.2+float64(i%3)*0.3, 5+i%2,
			internship, 4+i%3, 5+i%2, 1+i%2))
	}
	path := filepath.Join(t.TempDir(), "students.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	f, err := dataset.Load(path, StudentsProfile().Schema, nil)
	require.NoError(t, err)
	return f
}

func TestRun_StudentsProfile(t *testing.T) {
	p := StudentsProfile()
	f := studentsFrame(t)

	res, err := Run(context.Background(), nil, f, p)
	require.NoError(t, err)

	// Every numeric column gets a descriptive summary.
	assert.Len(t, res.Descriptive, len(f.NumericColumns()))

	// Factor analysis covers every numeric predictor except the outcome.
	assert.Len(t, res.Factors, len(f.NumericColumns())-1)
	for _, factor := range res.Factors {
		assert.NotEqual(t, p.Outcome, factor.Name)
		assert.Greater(t, factor.PositiveMean, factor.NegativeMean,
			"placed students were generated with higher %s", factor.Name)
		assert.True(t, factor.Test.Significant, "clear separation on %s", factor.Name)
	}

	// Outcome correlations are sorted descending and exclude the outcome.
	require.NotEmpty(t, res.OutcomeCorrelations)
	for i := 1; i < len(res.OutcomeCorrelations); i++ {
		assert.GreaterOrEqual(t, res.OutcomeCorrelations[i-1].R, res.OutcomeCorrelations[i].R)
	}
	for _, c := range res.OutcomeCorrelations {
		assert.NotEqual(t, p.Outcome, c.Column)
	}

	assert.NotEmpty(t, res.Extras)
	assert.Positive(t, res.SignificantCount())
}

func TestRun_NonBinaryOutcomeFails(t *testing.T) {
	// An outcome column with a third value is a data error, not a
	// silently skipped group.
	schema := dataset.Schema{
		Columns: []dataset.Column{
			{Name: "score", Kind: dataset.KindFloat},
			{Name: "outcome", Kind: dataset.KindInt},
		},
	}
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte(`score,outcome
1.0,0
2.0,1
3.0,2
`), 0o644))
	f, err := dataset.Load(path, schema, nil)
	require.NoError(t, err)

	p := &Profile{Name: "test", Schema: schema, Outcome: "outcome"}
	_, err = Run(context.Background(), nil, f, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-binary")
}

func TestRun_SingleOutcomeGroupFails(t *testing.T) {
	schema := dataset.Schema{
		Columns: []dataset.Column{
			{Name: "score", Kind: dataset.KindFloat},
			{Name: "outcome", Kind: dataset.KindInt},
		},
	}
	path := filepath.Join(t.TempDir(), "onegroup.csv")
	require.NoError(t, os.WriteFile(path, []byte(`score,outcome
1.0,1
2.0,1
3.0,1
`), 0o644))
	f, err := dataset.Load(path, schema, nil)
	require.NoError(t, err)

	p := &Profile{Name: "test", Schema: schema, Outcome: "outcome"}
	_, err = Run(context.Background(), nil, f, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only one group")
}

func TestRun_EmptyFrameFails(t *testing.T) {
	schema := dataset.Schema{
		Columns: []dataset.Column{{Name: "v", Kind: dataset.KindFloat}},
	}
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("v\n"), 0o644))
	f, err := dataset.Load(path, schema, nil)
	require.NoError(t, err)

	_, err = Run(context.Background(), nil, f, &Profile{Name: "test", Schema: schema})
	assert.Error(t, err)
}

func retailFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	var b strings.Builder
	b.WriteString("Transaction ID,Date,Customer ID,Gender,Age,Product Category,Quantity,Price per Unit,Total Amount\n")
	categories := []string{"Beauty", "Clothing", "Electronics"}
	for i := 0; i < 30; i++ {
		gender := "Male"
		amount := 100.0 + float64(i)
		if i%2 == 0 {
			gender = "Female"
			amount = 300.0 + float64(i)
		}
		b.WriteString(fmt.Sprintf("T%03d,2023-%02d-15,CUST%02d,%s,%d,%s,%d,%0.2f,%0.2f\n",
			i, i%12+1, i%10, gender, 20+i, categories[i%3], i%4+1, amount/float64(i%4+1), amount))
	}
	path := filepath.Join(t.TempDir(), "retail.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	f, err := dataset.Load(path, RetailProfile().Schema, nil)
	require.NoError(t, err)
	return f
}

func TestRun_RetailProfile(t *testing.T) {
	p := RetailProfile()
	f := retailFrame(t)

	res, err := Run(context.Background(), nil, f, p)
	require.NoError(t, err)

	// The configured correlation columns bound the matrix.
	assert.Equal(t, p.CorrColumns, res.Correlation.Columns)

	// Every configured grouping produced a table.
	for _, g := range p.Groupings {
		_, ok := res.Table(g.Name)
		assert.True(t, ok, "missing table %s", g.Name)
	}

	// The gender t-test ran and found the generated gap.
	var gender *NamedTest
	for i := range res.Tests {
		if res.Tests[i].Name == "Gender_Spending_Difference" {
			gender = &res.Tests[i]
		}
	}
	require.NotNil(t, gender)
	assert.False(t, gender.HasR)
	assert.True(t, gender.Test.Significant)

	// Both Pearson pairs ran and carry a coefficient.
	pearson := 0
	for _, test := range res.Tests {
		if test.HasR {
			pearson++
			assert.GreaterOrEqual(t, test.R, -1.0)
			assert.LessOrEqual(t, test.R, 1.0)
		}
	}
	assert.Equal(t, len(p.PearsonPairs), pearson)
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"students", "istanbul", "retail"} {
		p, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
		require.NoError(t, p.Schema.Validate())
	}

	_, err := Lookup("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
}
