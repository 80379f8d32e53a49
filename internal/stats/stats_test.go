package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)

	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.138089935, s.Std, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, 4.5, s.Median, 1e-12)
	assert.InDelta(t, 4.0, s.Q25, 1e-12)
	assert.InDelta(t, 5.5, s.Q75, 1e-12)
}

func TestDescribe_Empty(t *testing.T) {
	_, err := Describe(nil)
	assert.Error(t, err)
}

func TestCorrelationMatrix(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}  // perfectly correlated with x
	z := []float64{5, 4, 3, 2, 1}   // perfectly anti-correlated
	c := []float64{7, 7, 7, 7, 7}   // zero variance

	m, err := CorrelationMatrix([]string{"x", "y", "z", "c"}, [][]float64{x, y, z, c})
	require.NoError(t, err)

	xy, err := m.At("x", "y")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, xy, 1e-12)

	xz, err := m.At("x", "z")
	require.NoError(t, err)
	assert.InDelta(t, -1.0, xz, 1e-12)

	xx, err := m.At("x", "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, xx)

	// A constant column correlates with nothing; the matrix reports 0
	// rather than NaN so downstream sheets stay well formed.
	xc, err := m.At("x", "c")
	require.NoError(t, err)
	assert.Equal(t, 0.0, xc)
}

func TestCorrelationMatrix_LengthMismatch(t *testing.T) {
	_, err := CorrelationMatrix([]string{"a", "b"}, [][]float64{{1, 2}, {1, 2, 3}})
	assert.Error(t, err)
}

func TestTTestInd(t *testing.T) {
	// Pooled-variance t: both groups have variance 2.5, so the
	// statistic is exactly -3 with 8 degrees of freedom.
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{4, 5, 6, 7, 8}

	res, err := TTestInd(a, b)
	require.NoError(t, err)

	assert.InDelta(t, -3.0, res.Statistic, 1e-12)
	assert.InDelta(t, 0.017072, res.PValue, 1e-4)
	assert.True(t, res.Significant)
}

func TestTTestInd_EqualMeans(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{3, 3, 1, 5, 3}

	res, err := TTestInd(a, b)
	require.NoError(t, err)

	assert.InDelta(t, 0, res.Statistic, 1e-12)
	assert.InDelta(t, 1, res.PValue, 1e-12)
	assert.False(t, res.Significant)
}

func TestTTestInd_Errors(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
	}{
		{name: "one observation", a: []float64{1}, b: []float64{1, 2, 3}},
		{name: "zero variance both", a: []float64{2, 2, 2}, b: []float64{2, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TTestInd(tt.a, tt.b)
			assert.Error(t, err)
		})
	}
}

func TestPearsonTest(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 1, 4, 3, 6}

	r, res, err := PearsonTest(x, y)
	require.NoError(t, err)

	assert.InDelta(t, 0.7412, r, 1e-4)
	assert.False(t, res.Significant)
	assert.Greater(t, res.PValue, SignificanceLevel)
}

func TestPearsonTest_Perfect(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{10, 20, 30, 40}

	r, res, err := PearsonTest(x, y)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, r, 1e-12)
	assert.Equal(t, 0.0, res.PValue)
	assert.True(t, res.Significant)
}

func TestPearsonTest_TooFew(t *testing.T) {
	_, _, err := PearsonTest([]float64{1, 2}, []float64{3, 4})
	assert.Error(t, err)
}
