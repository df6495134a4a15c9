package susie

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// parallelThreshold is the variable count above which the per-variable
// Bayes-factor loop is split across workers. Below it the serial path wins.
const parallelThreshold = 4096

// serResult holds the refreshed posterior for one effect layer
type serResult struct {
	Alpha    []float64 // single-effect inclusion probabilities, sums to 1
	Mu       []float64 // posterior mean effect conditional on inclusion
	PostVar  []float64 // posterior variance conditional on inclusion
	LBF      []float64 // per-variable log Bayes factor
	LBFModel float64   // layer-level log Bayes factor against the null
	Tau2     float64   // prior variance actually used
}

// logBF is the log Bayes factor of a single variable with observed effect
// betahat and sampling variance shat2 under a N(0, tau2) effect prior.
func logBF(betahat, shat2, tau2 float64) float64 {
	if tau2 <= 0 {
		return 0
	}
	total := tau2 + shat2
	return 0.5*math.Log(shat2/total) + 0.5*betahat*betahat*tau2/(shat2*total)
}

// singleEffectPosterior solves the single-effect regression sub-problem for
// one layer. xtr is the residual correlation-weighted z-score vector; under
// the unit-diagonal sufficient-statistics parameterization the per-variable
// observed effect is xtr[j] with sampling variance sigma2.
//
// A zero tau2 means the layer is deactivated: the posterior is uniform and
// contributes no signal.
func singleEffectPosterior(xtr []float64, tau2, sigma2 float64, workers int) *serResult {
	p := len(xtr)
	res := &serResult{
		Alpha:   make([]float64, p),
		Mu:      make([]float64, p),
		PostVar: make([]float64, p),
		LBF:     make([]float64, p),
		Tau2:    tau2,
	}

	if tau2 <= 0 {
		uniform := 1 / float64(p)
		for j := range res.Alpha {
			res.Alpha[j] = uniform
		}
		return res
	}

	postVar := tau2 * sigma2 / (tau2 + sigma2)
	shrink := tau2 / (tau2 + sigma2)

	fill := func(lo, hi int) {
		for j := lo; j < hi; j++ {
			res.LBF[j] = logBF(xtr[j], sigma2, tau2)
			res.Mu[j] = shrink * xtr[j]
			res.PostVar[j] = postVar
		}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if p >= parallelThreshold && workers > 1 {
		var g errgroup.Group
		chunk := (p + workers - 1) / workers
		for lo := 0; lo < p; lo += chunk {
			lo, hi := lo, lo+chunk
			if hi > p {
				hi = p
			}
			g.Go(func() error {
				fill(lo, hi)
				return nil
			})
		}
		// Workers never return errors; Wait only synchronizes.
		_ = g.Wait()
	} else {
		fill(0, p)
	}

	// Softmax over log Bayes factors with a uniform prior, via log-sum-exp
	// so concentrated evidence cannot underflow.
	maxLBF := floats.Max(res.LBF)
	sum := 0.0
	for j := 0; j < p; j++ {
		w := math.Exp(res.LBF[j] - maxLBF)
		res.Alpha[j] = w
		sum += w
	}
	for j := 0; j < p; j++ {
		res.Alpha[j] /= sum
	}
	res.LBFModel = maxLBF + math.Log(sum/float64(p))
	return res
}
