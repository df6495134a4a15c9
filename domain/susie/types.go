package susie

import (
	"gofinemap/domain/core"
)

// Options configures a fine-mapping fit
type Options struct {
	EstimateResidualVariance bool    `json:"estimate_residual_variance"`
	EstimatePriorVariance    bool    `json:"estimate_prior_variance"`
	PriorVariance            float64 `json:"prior_variance"`    // initial per-layer prior effect variance
	ResidualVariance         float64 `json:"residual_variance"` // initial residual variance
	MaxIterations            int     `json:"max_iterations"`
	Tolerance                float64 `json:"tolerance"`
	Coverage                 float64 `json:"coverage"`
	MinPurity                float64 `json:"min_purity"`
	ZLDWeight                float64 `json:"z_ld_weight"` // > 0 shrinks the reference LD toward z*z'
	CheckZ                   bool    `json:"check_z"`
	StrictZ                  bool    `json:"strict_z"`    // fail on inconsistent z-scores instead of warning
	SampleSize               int     `json:"sample_size"` // GWAS sample size when known; 0 uses a nominal value
	Workers                  int     `json:"workers"`     // Bayes-factor workers; 0 means GOMAXPROCS
}

// DefaultOptions returns the standard fine-mapping configuration
func DefaultOptions() Options {
	return Options{
		EstimateResidualVariance: true,
		EstimatePriorVariance:    true,
		PriorVariance:            50.0,
		ResidualVariance:         1.0,
		MaxIterations:            100,
		Tolerance:                1e-3,
		Coverage:                 0.95,
		MinPurity:                0.5,
		ZLDWeight:                0,
		CheckZ:                   true,
	}
}

// EffectLayer holds the posterior state of one single-effect component
type EffectLayer struct {
	Alpha         []float64 `json:"alpha"`          // P(this layer's effect is variable j)
	Mu            []float64 `json:"mu"`             // posterior mean effect, conditional on inclusion
	PosteriorVar  []float64 `json:"posterior_var"`  // posterior variance, conditional on inclusion
	LBF           []float64 `json:"lbf"`            // per-variable log Bayes factor
	LBFModel      float64   `json:"lbf_model"`      // log Bayes factor of the whole layer vs the null
	PriorVariance float64   `json:"prior_variance"` // tau2 for this layer; 0 means deactivated
	KL            float64   `json:"kl"`             // KL divergence term for the ELBO
}

// Active reports whether the layer carries a live effect
func (l *EffectLayer) Active() bool {
	return l.PriorVariance > 0
}

// CredibleSet is a minimal set of variables covering one effect layer's posterior mass
type CredibleSet struct {
	Layer     int     `json:"layer"`
	Variables []int   `json:"variables"` // ascending variable indices
	Coverage  float64 `json:"coverage"`  // attained cumulative posterior mass
	Purity    float64 `json:"purity"`    // minimum pairwise |correlation| among members
}

// FitResult is the immutable outcome of one fine-mapping fit
type FitResult struct {
	ID               core.FitID     `json:"id"`
	NumVariables     int            `json:"num_variables"`
	NumLayers        int            `json:"num_layers"`
	Layers           []EffectLayer  `json:"layers"`
	ResidualVariance float64        `json:"residual_variance"`
	ELBOTrace        []float64      `json:"elbo_trace"` // one entry per completed sweep
	Converged        bool           `json:"converged"`
	Iterations       int            `json:"iterations"`
	PIP              []float64      `json:"pip"`
	CredibleSets     []CredibleSet  `json:"credible_sets"`
	Outliers         []int          `json:"outliers,omitempty"` // flagged by the consistency check, when run
	CreatedAt        core.Timestamp `json:"created_at"`
}

// Summary is the caller-facing projection of a fit
type Summary struct {
	PIP          []float64     `json:"pip"`
	CredibleSets []CredibleSet `json:"credible_sets"`
}

// Summarize projects PIP and credible sets out of a fit result without recomputation
func Summarize(result *FitResult) Summary {
	pip := make([]float64, len(result.PIP))
	copy(pip, result.PIP)
	sets := make([]CredibleSet, len(result.CredibleSets))
	for i, cs := range result.CredibleSets {
		vars := make([]int, len(cs.Variables))
		copy(vars, cs.Variables)
		sets[i] = CredibleSet{Layer: cs.Layer, Variables: vars, Coverage: cs.Coverage, Purity: cs.Purity}
	}
	return Summary{PIP: pip, CredibleSets: sets}
}
