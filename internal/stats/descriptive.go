// Package stats wraps the small set of statistical routines the
// analysis pipeline needs: per-column descriptive summaries, Pearson
// correlation and two-sample significance tests. All heavy lifting is
// delegated to gonum; this package fixes the conventions (two-sided
// p-values, the 0.05 significance threshold) in one place.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SignificanceLevel is the fixed threshold below which a p-value marks
// a test result as significant.
const SignificanceLevel = 0.05

// Summary holds describe()-style statistics for one numeric column.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe computes a Summary over the given values.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("stats: describe on empty column")
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
	}
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	return s, nil
}

// Mean is a convenience wrapper used by the aggregator.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Sum adds up the values.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// variance returns the unbiased sample variance.
func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.Variance(values, nil)
}

// isFinite reports whether v is a usable statistic value.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
