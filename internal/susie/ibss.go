package susie

import (
	"context"
	"math"

	"gofinemap/domain/core"
	"gofinemap/domain/susie"

	"gonum.org/v1/gonum/mat"
)

// layerState is the mutable working copy of one effect layer during a fit
type layerState struct {
	alpha    []float64
	mu       []float64
	postVar  []float64
	lbf      []float64
	tau2     float64
	lbfModel float64
	kl       float64
}

// fitContext carries all mutable state for one fit. It is created by FitRSS,
// owned by the sweep loop, and snapshotted into an immutable FitResult at
// the end; nothing else may touch it.
type fitContext struct {
	p, numLayers int
	z            []float64 // working z, possibly sample-size adjusted
	R            *mat.Dense
	opts         susie.Options
	layers       []layerState
	sigma2       float64
	rb           []float64   // R * sum_l (alpha_l o mu_l), maintained incrementally
	rbl          [][]float64 // R * (alpha_l o mu_l) per layer
	n, yty       float64     // nominal sample size and y'y for the ELBO scale
	trace        []float64
}

// FitRSS runs Sum of Single Effects fine-mapping on summary statistics:
// an observed z-score vector and a correlation matrix over the same P
// variables. Input validation, the optional consistency check, and the
// optional LD regularization all happen eagerly before the first sweep.
//
// Reaching the iteration budget without convergence is reported on the
// result, not returned as an error. The context is consulted between
// sweeps only, since a half-updated sweep is not a reportable state.
func FitRSS(ctx context.Context, z []float64, R *mat.Dense, numLayers int, opts susie.Options) (*susie.FitResult, error) {
	if numLayers <= 0 {
		return nil, core.NewInvalidInputError("L", "layer count must be positive")
	}
	if err := ValidateZ(z); err != nil {
		return nil, err
	}
	if err := ValidateCorrelation(R, len(z)); err != nil {
		return nil, err
	}
	if opts.ResidualVariance <= 0 {
		opts.ResidualVariance = 1
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-3
	}

	var outliers []int
	if opts.CheckZ {
		report, err := CheckZ(z, R, 0.05)
		if err != nil {
			return nil, err
		}
		outliers = report.Outliers
		if opts.StrictZ && len(outliers) > 0 {
			return nil, core.NewInconsistencyError(outliers)
		}
	}

	if opts.ZLDWeight > 0 {
		regularized, err := RegularizeLD(R, z, opts.ZLDWeight)
		if err != nil {
			return nil, err
		}
		R = regularized
	}

	fc := newFitContext(z, R, numLayers, opts)

	convergedAt := -1
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := fc.sweep(); err != nil {
			return nil, err
		}
		fc.trace = append(fc.trace, fc.elbo())
		if converged(fc.trace, opts.Tolerance) {
			convergedAt = iter
			break
		}
		if opts.EstimateResidualVariance {
			fc.sigma2 = estimateResidualVariance(fc.expectedResidualSS(), fc.n)
		}
	}

	return fc.snapshot(convergedAt >= 0, outliers), nil
}

// newFitContext initializes all layers uniform/zero with the configured
// starting prior variance.
func newFitContext(z []float64, R *mat.Dense, numLayers int, opts susie.Options) *fitContext {
	p := len(z)
	fc := &fitContext{
		p:         p,
		numLayers: numLayers,
		R:         R,
		opts:      opts,
		sigma2:    opts.ResidualVariance,
		rb:        make([]float64, p),
		rbl:       make([][]float64, numLayers),
		layers:    make([]layerState, numLayers),
	}

	// Nominal scale for the z-score parameterization; with a known GWAS
	// sample size the z-scores are shrunk toward their implied effects and
	// the scale follows the sample size.
	fc.z = make([]float64, p)
	if opts.SampleSize > 1 {
		n := float64(opts.SampleSize)
		for j, v := range z {
			adj := (n - 1) / (v*v + n - 2)
			fc.z[j] = math.Sqrt(adj) * v
		}
		fc.n = n
		fc.yty = n - 1
	} else {
		copy(fc.z, z)
		fc.n = 2
		fc.yty = 1
	}

	// A prior variance of exactly 0 deactivates every layer, which is a
	// legitimate degenerate configuration; only negative values fall back
	// to the default.
	tau2 := opts.PriorVariance
	if tau2 < 0 {
		tau2 = susie.DefaultOptions().PriorVariance
	}
	uniform := 1 / float64(p)
	for l := 0; l < numLayers; l++ {
		ls := &fc.layers[l]
		ls.alpha = make([]float64, p)
		ls.mu = make([]float64, p)
		ls.postVar = make([]float64, p)
		ls.lbf = make([]float64, p)
		ls.tau2 = tau2
		for j := 0; j < p; j++ {
			ls.alpha[j] = uniform
		}
		fc.rbl[l] = make([]float64, p)
	}
	return fc
}

// sweep runs one full pass over all layers in fixed order, refreshing each
// against the residual signal left by the others.
func (fc *fitContext) sweep() error {
	xtr := make([]float64, fc.p)
	for l := range fc.layers {
		ls := &fc.layers[l]

		// Residual z-scores: remove every other layer's fitted signal
		// through the correlation structure, not by plain subtraction.
		for j := 0; j < fc.p; j++ {
			xtr[j] = fc.z[j] - (fc.rb[j] - fc.rbl[l][j])
		}

		tau2 := ls.tau2
		if fc.opts.EstimatePriorVariance {
			tau2 = estimatePriorVariance(xtr, fc.sigma2, tau2)
		}

		res := singleEffectPosterior(xtr, tau2, fc.sigma2, fc.opts.Workers)
		if j := firstNonFinite(res.Alpha, res.Mu); j >= 0 {
			return core.NewInstabilityError(l, j)
		}

		ls.alpha = res.Alpha
		ls.mu = res.Mu
		ls.postVar = res.PostVar
		ls.lbf = res.LBF
		ls.tau2 = res.Tau2
		ls.lbfModel = res.LBFModel
		ls.kl = layerKL(res, xtr, fc.sigma2)

		fc.refreshLayerFit(l)
	}
	return nil
}

// refreshLayerFit recomputes R * b_l for layer l and folds the delta into
// the running total.
func (fc *fitContext) refreshLayerFit(l int) {
	ls := &fc.layers[l]
	b := make([]float64, fc.p)
	for j := 0; j < fc.p; j++ {
		b[j] = ls.alpha[j] * ls.mu[j]
	}
	updated := mat.NewVecDense(fc.p, nil)
	updated.MulVec(fc.R, mat.NewVecDense(fc.p, b))
	for j := 0; j < fc.p; j++ {
		v := updated.AtVec(j)
		fc.rb[j] += v - fc.rbl[l][j]
		fc.rbl[l][j] = v
	}
}

// snapshot freezes the fit context into an immutable result, including the
// derived marginal PIP and purity-filtered credible sets.
func (fc *fitContext) snapshot(didConverge bool, outliers []int) *susie.FitResult {
	layers := make([]susie.EffectLayer, fc.numLayers)
	for l := range fc.layers {
		ls := &fc.layers[l]
		layers[l] = susie.EffectLayer{
			Alpha:         append([]float64(nil), ls.alpha...),
			Mu:            append([]float64(nil), ls.mu...),
			PosteriorVar:  append([]float64(nil), ls.postVar...),
			LBF:           append([]float64(nil), ls.lbf...),
			LBFModel:      ls.lbfModel,
			PriorVariance: ls.tau2,
			KL:            ls.kl,
		}
	}

	result := &susie.FitResult{
		ID:               core.FitID(core.NewID()),
		NumVariables:     fc.p,
		NumLayers:        fc.numLayers,
		Layers:           layers,
		ResidualVariance: fc.sigma2,
		ELBOTrace:        append([]float64(nil), fc.trace...),
		Converged:        didConverge,
		Iterations:       len(fc.trace),
		Outliers:         outliers,
		CreatedAt:        core.Now(),
	}
	result.PIP = MarginalPIP(layers)
	result.CredibleSets = ExtractCredibleSets(layers, fc.R, fc.opts.Coverage, fc.opts.MinPurity)
	return result
}

// firstNonFinite returns the index of the first NaN or Inf across the given
// vectors, or -1 when everything is finite.
func firstNonFinite(vecs ...[]float64) int {
	for _, v := range vecs {
		for j, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return j
			}
		}
	}
	return -1
}
