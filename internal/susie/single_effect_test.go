package susie

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleEffectPosteriorNormalizes(t *testing.T) {
	xtr := []float64{0.5, 3.0, -1.0, 0.2}
	res := singleEffectPosterior(xtr, 1.0, 1.0, 0)

	sum := 0.0
	for _, a := range res.Alpha {
		sum += a
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// The strongest residual signal carries the most posterior mass.
	best := 0
	for j, a := range res.Alpha {
		if a > res.Alpha[best] {
			best = j
		}
	}
	assert.Equal(t, 1, best)
}

func TestSingleEffectPosteriorZeroPriorIsUniform(t *testing.T) {
	xtr := []float64{5, -3, 2}
	res := singleEffectPosterior(xtr, 0, 1.0, 0)

	for j := range xtr {
		assert.InDelta(t, 1.0/3, res.Alpha[j], 1e-12)
		assert.Zero(t, res.Mu[j])
		assert.Zero(t, res.PostVar[j])
		assert.Zero(t, res.LBF[j])
	}
	assert.Zero(t, res.LBFModel)
}

func TestSingleEffectPosteriorShrinkage(t *testing.T) {
	xtr := []float64{4.0}
	res := singleEffectPosterior(xtr, 2.0, 1.0, 0)

	// mu = betahat * tau2/(tau2+sigma2), postVar = tau2*sigma2/(tau2+sigma2)
	assert.InDelta(t, 4.0*2.0/3.0, res.Mu[0], 1e-12)
	assert.InDelta(t, 2.0/3.0, res.PostVar[0], 1e-12)
}

func TestSingleEffectPosteriorExtremeEvidence(t *testing.T) {
	// A z-score far into the tail must not underflow the softmax.
	xtr := make([]float64, 100)
	xtr[42] = 60

	res := singleEffectPosterior(xtr, 50, 1.0, 0)
	require.False(t, math.IsNaN(res.Alpha[42]))
	assert.InDelta(t, 1.0, res.Alpha[42], 1e-9)
	assert.True(t, math.IsInf(res.LBFModel, 0) == false)
}

func TestSingleEffectPosteriorParallelMatchesSerial(t *testing.T) {
	p := parallelThreshold + 512
	xtr := make([]float64, p)
	for j := range xtr {
		xtr[j] = math.Sin(float64(j)) * 3
	}

	serial := singleEffectPosterior(xtr, 10, 1.0, 1)
	parallel := singleEffectPosterior(xtr, 10, 1.0, 8)

	for j := 0; j < p; j++ {
		assert.Equal(t, serial.Alpha[j], parallel.Alpha[j])
		assert.Equal(t, serial.Mu[j], parallel.Mu[j])
		assert.Equal(t, serial.LBF[j], parallel.LBF[j])
	}
	assert.Equal(t, serial.LBFModel, parallel.LBFModel)
}

func TestEstimatePriorVarianceClampsToZeroOnNoise(t *testing.T) {
	// Residuals well inside the null distribution give tau2 no support.
	xtr := []float64{0.1, -0.2, 0.05, 0.15, -0.1}
	tau2 := estimatePriorVariance(xtr, 1.0, 50)
	assert.Zero(t, tau2)
}

func TestEstimatePriorVarianceFindsSignal(t *testing.T) {
	xtr := []float64{12, 0.1, -0.3, 0.2, 0.05}
	tau2 := estimatePriorVariance(xtr, 1.0, 50)
	assert.Greater(t, tau2, 0.0)

	// The optimum must beat both the null and the starting value.
	ll := layerLogLik(tau2, xtr, 1.0)
	assert.Greater(t, ll, 0.0)
	assert.GreaterOrEqual(t, ll, layerLogLik(50, xtr, 1.0)-1e-9)
}
