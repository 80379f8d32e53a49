package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"medpulse/internal/dataset"
	"medpulse/internal/stats"
)

// KV is a formatted metric for the Additional_Statistics and
// Key_Insights sheets.
type KV struct {
	Name  string
	Value string
}

// ColumnSummary labels a descriptive summary with its column.
type ColumnSummary struct {
	Column  string
	Summary stats.Summary
}

// Factor compares a numeric predictor across the two outcome groups.
type Factor struct {
	Name         string
	PositiveMean float64
	NegativeMean float64
	Difference   float64
	Test         stats.TestResult
}

// NamedTest is a standalone significance test with an optional
// correlation coefficient (Pearson tests carry one, t-tests do not).
type NamedTest struct {
	Name string
	R    float64
	HasR bool
	Test stats.TestResult
}

// Result is everything the aggregation stage produces for one run.
// It is immutable once returned; the reporter only reads it.
type Result struct {
	Profile     *Profile
	Frame       *dataset.Frame
	Descriptive []ColumnSummary
	Extras      []KV
	Correlation *stats.Matrix
	Tables      []*Table
	Factors     []Factor
	Tests       []NamedTest

	// OutcomeCorrelations holds every predictor's correlation with the
	// profile's outcome column, sorted descending. Empty when the
	// profile has no outcome.
	OutcomeCorrelations []stats.Correlation
}

// Table returns a named grouped table from the result.
func (r *Result) Table(name string) (*Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// SignificantCount returns how many of the run's tests cleared the
// significance threshold.
func (r *Result) SignificantCount() int {
	n := 0
	for _, f := range r.Factors {
		if f.Test.Significant {
			n++
		}
	}
	for _, t := range r.Tests {
		if t.Test.Significant {
			n++
		}
	}
	return n
}

// Run executes the aggregation stage for a profile over a loaded frame.
func Run(ctx context.Context, logger *slog.Logger, f *dataset.Frame, p *Profile) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if f.Len() == 0 {
		return nil, fmt.Errorf("analysis: frame is empty after cleaning")
	}

	logger.InfoContext(ctx, "running aggregation",
		slog.String("profile", p.Name),
		slog.Int("rows", f.Len()))

	res := &Result{Profile: p, Frame: f}

	// Descriptive statistics over every numeric column.
	for _, col := range f.NumericColumns() {
		vals, err := f.Floats(col)
		if err != nil {
			return nil, err
		}
		summary, err := stats.Describe(vals)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", col, err)
		}
		res.Descriptive = append(res.Descriptive, ColumnSummary{Column: col, Summary: summary})
	}

	// Profile-specific headline metrics.
	if p.Extras != nil {
		extras, err := p.Extras(f)
		if err != nil {
			return nil, fmt.Errorf("extras: %w", err)
		}
		res.Extras = extras
	}

	// Correlation matrix over the profile's columns (all numeric when
	// the profile does not narrow the set).
	corrCols := p.CorrColumns
	if len(corrCols) == 0 {
		corrCols = f.NumericColumns()
	}
	columns := make([][]float64, 0, len(corrCols))
	for _, col := range corrCols {
		vals, err := f.Floats(col)
		if err != nil {
			return nil, err
		}
		columns = append(columns, vals)
	}
	matrix, err := stats.CorrelationMatrix(corrCols, columns)
	if err != nil {
		return nil, err
	}
	res.Correlation = matrix

	// Grouped tables.
	for _, spec := range p.Groupings {
		table, err := buildTable(f, p, spec)
		if err != nil {
			return nil, err
		}
		res.Tables = append(res.Tables, table)
	}

	// Outcome factor analysis and t-tests.
	if p.Outcome != "" {
		if err := runOutcome(f, p, res); err != nil {
			return nil, err
		}
	}

	// Standalone Pearson tests.
	for _, pair := range p.PearsonPairs {
		x, err := f.Floats(pair.X)
		if err != nil {
			return nil, err
		}
		y, err := f.Floats(pair.Y)
		if err != nil {
			return nil, err
		}
		r, test, err := stats.PearsonTest(x, y)
		if err != nil {
			return nil, fmt.Errorf("pearson test %s: %w", pair.Name, err)
		}
		res.Tests = append(res.Tests, NamedTest{Name: pair.Name, R: r, HasR: true, Test: test})
	}

	// Standalone two-group t-tests (e.g. spending by gender).
	for _, spec := range p.TTests {
		test, err := runSplitTTest(f, spec)
		if err != nil {
			return nil, err
		}
		res.Tests = append(res.Tests, test)
	}

	logger.InfoContext(ctx, "aggregation complete",
		slog.String("profile", p.Name),
		slog.Int("tables", len(res.Tables)),
		slog.Int("factors", len(res.Factors)),
		slog.Int("tests", len(res.Tests)))

	return res, nil
}

func buildTable(f *dataset.Frame, p *Profile, spec GroupingSpec) (*Table, error) {
	if spec.AgeBucketed {
		if p.AgeColumn == "" {
			return nil, fmt.Errorf("analysis: profile %s has no age column for table %s", p.Name, spec.Name)
		}
		ages, err := f.Floats(p.AgeColumn)
		if err != nil {
			return nil, err
		}
		return GroupByKeys(f, spec.Name, "age_group", AgeBuckets(ages), spec.Aggs)
	}
	return GroupBy(f, spec.Name, spec.Dims, spec.Aggs)
}

// runOutcome validates the binary outcome column, splits every other
// numeric predictor by it and runs the per-predictor t-tests.
func runOutcome(f *dataset.Frame, p *Profile, res *Result) error {
	outcome, err := f.Floats(p.Outcome)
	if err != nil {
		return err
	}
	var pos, neg []int
	for i, v := range outcome {
		switch v {
		case 1:
			pos = append(pos, i)
		case 0:
			neg = append(neg, i)
		default:
			// The source scripts silently mis-computed here; a third
			// outcome value is a data error and stops the run.
			return fmt.Errorf("analysis: outcome column %s holds non-binary value %v", p.Outcome, v)
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return fmt.Errorf("analysis: outcome column %s has only one group", p.Outcome)
	}

	for _, col := range f.NumericColumns() {
		if col == p.Outcome {
			continue
		}
		vals, err := f.Floats(col)
		if err != nil {
			return err
		}
		a := take(vals, pos)
		b := take(vals, neg)
		test, err := stats.TTestInd(a, b)
		if err != nil {
			return fmt.Errorf("t-test %s: %w", col, err)
		}
		posMean := stats.Mean(a)
		negMean := stats.Mean(b)
		res.Factors = append(res.Factors, Factor{
			Name:         col,
			PositiveMean: posMean,
			NegativeMean: negMean,
			Difference:   posMean - negMean,
			Test:         test,
		})
	}

	correlations, err := res.Correlation.Column(p.Outcome)
	if err != nil {
		return err
	}
	filtered := correlations[:0]
	for _, c := range correlations {
		if c.Column != p.Outcome {
			filtered = append(filtered, c)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].R > filtered[j].R })
	res.OutcomeCorrelations = filtered
	return nil
}

// runSplitTTest compares a numeric column between rows matching the
// two configured values of a text column.
func runSplitTTest(f *dataset.Frame, spec TTestSpec) (NamedTest, error) {
	split, err := f.Strings(spec.SplitColumn)
	if err != nil {
		return NamedTest{}, err
	}
	vals, err := f.Floats(spec.ValueColumn)
	if err != nil {
		return NamedTest{}, err
	}
	var a, b []float64
	for i, s := range split {
		switch s {
		case spec.GroupA:
			a = append(a, vals[i])
		case spec.GroupB:
			b = append(b, vals[i])
		}
	}
	test, err := stats.TTestInd(a, b)
	if err != nil {
		return NamedTest{}, fmt.Errorf("t-test %s: %w", spec.Name, err)
	}
	return NamedTest{Name: spec.Name, Test: test}, nil
}

func take(vals []float64, idx []int) []float64 {
	out := make([]float64, 0, len(idx))
	for _, i := range idx {
		out = append(out, vals[i])
	}
	return out
}
