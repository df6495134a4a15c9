package susie

import (
	"math"
)

// expectedResidualSS is the expected residual sum of squares E||y - XB||^2
// under the current variational posterior, in the unit-diagonal
// sufficient-statistics parameterization:
//
//	ER2 = yty - 2 b'z + b'Rb - sum_l b_l'Rb_l + sum_l sum_j alpha_lj (mu^2 + s^2)_lj
//
// where b_l = alpha_l o mu_l and b = sum_l b_l.
func (fc *fitContext) expectedResidualSS() float64 {
	er2 := fc.yty
	for j := 0; j < fc.p; j++ {
		betabar := 0.0
		for l := range fc.layers {
			betabar += fc.layers[l].alpha[j] * fc.layers[l].mu[j]
		}
		er2 += betabar * (fc.rb[j] - 2*fc.z[j])
	}
	for l := range fc.layers {
		ly := &fc.layers[l]
		for j := 0; j < fc.p; j++ {
			b := ly.alpha[j] * ly.mu[j]
			er2 -= b * fc.rbl[l][j]
			er2 += ly.alpha[j] * (ly.mu[j]*ly.mu[j] + ly.postVar[j])
		}
	}
	return er2
}

// elbo computes the evidence lower bound for the current state:
// the expected log-likelihood minus the per-layer KL terms.
func (fc *fitContext) elbo() float64 {
	eloglik := -0.5*fc.n*math.Log(2*math.Pi*fc.sigma2) - fc.expectedResidualSS()/(2*fc.sigma2)
	for l := range fc.layers {
		eloglik -= fc.layers[l].kl
	}
	return eloglik
}

// layerKL is the KL divergence bookkeeping term for one freshly updated
// layer, evaluated against the residual vector it was fit to. Constant
// terms shared with the layer log Bayes factor cancel and are omitted.
func layerKL(res *serResult, xtr []float64, sigma2 float64) float64 {
	partial := 0.0
	for j := range xtr {
		eb := res.Alpha[j] * res.Mu[j]
		eb2 := res.Alpha[j] * (res.Mu[j]*res.Mu[j] + res.PostVar[j])
		partial += -2*eb*xtr[j] + eb2
	}
	return -res.LBFModel - 0.5*partial/sigma2
}

// converged reports whether the latest sweep improved the ELBO by less than
// the configured tolerance.
func converged(trace []float64, tol float64) bool {
	n := len(trace)
	if n < 2 {
		return false
	}
	return trace[n-1]-trace[n-2] < tol
}
