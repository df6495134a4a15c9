package susie

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Bounds for the prior-variance search on the log scale.
const (
	logTau2Lower = -30
	logTau2Upper = 15
)

// minResidualVariance keeps the residual variance strictly positive after
// re-estimation.
const minResidualVariance = 1e-8

// layerLogLik is the layer-level log Bayes factor as a function of the prior
// variance, holding the observed per-variable effects fixed. Maximizing it
// over tau2 is the empirical-Bayes prior update for one layer.
func layerLogLik(tau2 float64, xtr []float64, sigma2 float64) float64 {
	p := len(xtr)
	maxLBF := math.Inf(-1)
	lbf := make([]float64, p)
	for j := 0; j < p; j++ {
		lbf[j] = logBF(xtr[j], sigma2, tau2)
		if lbf[j] > maxLBF {
			maxLBF = lbf[j]
		}
	}
	sum := 0.0
	for j := 0; j < p; j++ {
		sum += math.Exp(lbf[j] - maxLBF)
	}
	return maxLBF + math.Log(sum/float64(p))
}

// estimatePriorVariance re-estimates one layer's prior variance by bounded
// 1-D optimization of the layer log-likelihood over log(tau2). When the
// optimum does no better than tau2 = 0, the layer is deactivated by
// returning 0; this is a valid state, never an error.
func estimatePriorVariance(xtr []float64, sigma2, tau2Init float64) float64 {
	// Start at the method-of-moments guess max(betahat^2 - shat2),
	// floored at 1.
	start := 1.0
	for _, b := range xtr {
		if v := b*b - sigma2; v > start {
			start = v
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			lv := x[0]
			if lv < logTau2Lower {
				lv = logTau2Lower
			} else if lv > logTau2Upper {
				lv = logTau2Upper
			}
			return -layerLogLik(math.Exp(lv), xtr, sigma2)
		},
	}
	best := math.Log(start)
	result, err := optimize.Minimize(problem, []float64{best}, nil, &optimize.NelderMead{})
	if err == nil && result != nil && !math.IsNaN(result.X[0]) {
		best = result.X[0]
	}
	if best < logTau2Lower {
		best = logTau2Lower
	} else if best > logTau2Upper {
		best = logTau2Upper
	}

	tau2 := math.Exp(best)
	ll := layerLogLik(tau2, xtr, sigma2)

	// Keep the incoming value when the optimizer failed to beat it.
	if tau2Init > 0 {
		if llInit := layerLogLik(tau2Init, xtr, sigma2); llInit > ll {
			tau2, ll = tau2Init, llInit
		}
	}

	// tau2 = 0 has log-likelihood exactly 0; clamp when it wins.
	if ll <= 0 {
		return 0
	}
	return tau2
}

// estimateResidualVariance is the closed-form update sigma2 = ER2 / n from
// the aggregate expected residual sum of squares.
func estimateResidualVariance(er2 float64, n float64) float64 {
	s := er2 / n
	if s < minResidualVariance {
		return minResidualVariance
	}
	return s
}
