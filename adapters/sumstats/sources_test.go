package sumstats

import (
	"math/rand"
	"testing"

	"gofinemap/domain/core"
	"gofinemap/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewSummaryDataValidates(t *testing.T) {
	r := mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 1})

	_, err := NewSummaryData(nil, r, 0)
	assert.True(t, core.IsInvalidInputError(err))

	_, err = NewSummaryData([]float64{1, 2, 3}, r, 0)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestSummaryDataPassesStatsThrough(t *testing.T) {
	z := []float64{1.5, -0.2}
	r := mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 1})

	src, err := NewSummaryData(z, r, 500)
	require.NoError(t, err)

	stats, err := src.SufficientStats()
	require.NoError(t, err)
	assert.Equal(t, ports.ModeSummary, stats.Mode)
	assert.Equal(t, z, stats.Z)
	assert.Equal(t, 500, stats.SampleSize)
	assert.True(t, mat.Equal(r, stats.R))
}

func TestNewIndividualDataValidates(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	_, err := NewIndividualData(x, []float64{1, 2})
	assert.True(t, core.IsInvalidInputError(err), "too few observations")

	x = mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	_, err = NewIndividualData(x, []float64{1, 2})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestIndividualDataDerivesSufficientStats(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n, p := 200, 4

	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
		// Column 0 drives the outcome.
		y[i] = 0.8*x.At(i, 0) + rng.NormFloat64()
	}

	src, err := NewIndividualData(x, y)
	require.NoError(t, err)

	stats, err := src.SufficientStats()
	require.NoError(t, err)
	assert.Equal(t, ports.ModeIndividual, stats.Mode)
	assert.Equal(t, n, stats.SampleSize)
	require.Len(t, stats.Z, p)

	assert.Greater(t, stats.Z[0], 5.0, "causal column should carry a strong z-score")
	for j := 1; j < p; j++ {
		assert.Less(t, stats.Z[j], stats.Z[0])
	}

	rows, cols := stats.R.Dims()
	assert.Equal(t, p, rows)
	assert.Equal(t, p, cols)
	for j := 0; j < p; j++ {
		assert.Equal(t, 1.0, stats.R.At(j, j))
	}
}

func TestIndividualDataRejectsConstantColumn(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
		4, 7,
	})
	src, err := NewIndividualData(x, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	_, err = src.SufficientStats()
	assert.True(t, core.IsInvalidInputError(err))
}

func TestUnivariateRegressionRecoversSlope(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1}

	beta, se, err := univariateRegression(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, beta, 0.1)
	assert.Greater(t, se, 0.0)
}
