package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is the outcome of a significance test.
type TestResult struct {
	Statistic   float64 `json:"statistic"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// TTestInd runs an independent two-sample t-test with pooled variance
// (equal variances assumed, matching the scipy default the reports
// were built on). Both samples need at least two observations.
func TTestInd(a, b []float64) (TestResult, error) {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return TestResult{}, fmt.Errorf("stats: t-test needs at least 2 observations per group, got %d and %d", na, nb)
	}

	meanA, meanB := Mean(a), Mean(b)
	varA, varB := variance(a), variance(b)

	dof := float64(na + nb - 2)
	pooled := (float64(na-1)*varA + float64(nb-1)*varB) / dof
	se := math.Sqrt(pooled * (1/float64(na) + 1/float64(nb)))
	if se == 0 {
		return TestResult{}, fmt.Errorf("stats: t-test with zero pooled variance")
	}

	t := (meanA - meanB) / se
	p := twoSidedP(t, dof)

	return TestResult{
		Statistic:   t,
		PValue:      p,
		Significant: p < SignificanceLevel,
	}, nil
}

// PearsonTest computes the Pearson correlation of x and y together
// with the two-sided p-value of the hypothesis r == 0.
func PearsonTest(x, y []float64) (r float64, res TestResult, err error) {
	if len(x) != len(y) {
		return 0, TestResult{}, fmt.Errorf("stats: pearson test on unequal lengths %d and %d", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return 0, TestResult{}, fmt.Errorf("stats: pearson test needs at least 3 observations, got %d", n)
	}

	m, err := CorrelationMatrix([]string{"x", "y"}, [][]float64{x, y})
	if err != nil {
		return 0, TestResult{}, err
	}
	r = m.Data[0][1]

	if math.Abs(r) >= 1 {
		// Degenerate perfectly collinear input.
		return r, TestResult{Statistic: math.Inf(int(math.Copysign(1, r))), PValue: 0, Significant: true}, nil
	}

	dof := float64(n - 2)
	t := r * math.Sqrt(dof/(1-r*r))
	p := twoSidedP(t, dof)

	return r, TestResult{Statistic: t, PValue: p, Significant: p < SignificanceLevel}, nil
}

// twoSidedP returns the two-sided p-value for a t statistic with the
// given degrees of freedom.
func twoSidedP(t, dof float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	p := 2 * dist.CDF(-math.Abs(t))
	if p > 1 {
		p = 1
	}
	return p
}
