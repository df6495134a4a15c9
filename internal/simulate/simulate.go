package simulate

import (
	"math"
	"math/rand"

	"gofinemap/domain/core"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Config describes a synthetic fine-mapping problem
type Config struct {
	NumVariables  int     // P
	NumEffects    int     // true nonzero effects, placed evenly across the range
	SampleSize    int     // rows of the analysis panel
	RefSampleSize int     // rows of the independent reference panel
	EffectSize    float64 // true effect magnitude per causal variable
	Rho           float64 // AR(1) correlation between adjacent variables
	BlockSize     int     // variables per LD block; 0 means one block
}

// DefaultConfig mirrors the scale of a typical single-locus analysis
func DefaultConfig() Config {
	return Config{
		NumVariables:  1000,
		NumEffects:    3,
		SampleSize:    800,
		RefSampleSize: 500,
		EffectSize:    0.6,
		Rho:           0.9,
		BlockSize:     50,
	}
}

// Dataset is a generated problem with known truth, carrying both the
// in-sample correlation matrix and an independently resampled
// reference-panel matrix for mismatch experiments.
type Dataset struct {
	Z           []float64
	R           *mat.Dense // correlation of the panel that produced Z
	RefR        *mat.Dense // correlation from an independent reference panel
	TrueEffects []int      // ascending causal indices
	Config      Config
}

// Generate builds a synthetic dataset: AR(1)-correlated genotype-style
// columns in blocks, a sparse true effect vector, a Gaussian outcome, and
// univariate-regression z-scores computed the way a GWAS would.
func Generate(cfg Config, rng *rand.Rand) (*Dataset, error) {
	if cfg.NumVariables <= 0 {
		return nil, core.NewInvalidInputError("NumVariables", "must be positive")
	}
	if cfg.SampleSize < 10 || cfg.RefSampleSize < 10 {
		return nil, core.NewInvalidInputError("SampleSize", "panels need at least 10 rows")
	}
	if cfg.NumEffects < 0 || cfg.NumEffects > cfg.NumVariables {
		return nil, core.NewInvalidInputError("NumEffects", "must lie in [0, NumVariables]")
	}
	if cfg.Rho < 0 || cfg.Rho >= 1 {
		return nil, core.NewInvalidInputError("Rho", "must lie in [0,1)")
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = cfg.NumVariables
	}

	p := cfg.NumVariables
	x := samplePanel(cfg, cfg.SampleSize, rng)
	refX := samplePanel(cfg, cfg.RefSampleSize, rng)

	// Causal indices spread evenly, offset into each segment so they never
	// sit on block edges.
	truth := make([]int, 0, cfg.NumEffects)
	if cfg.NumEffects > 0 {
		stride := p / cfg.NumEffects
		for k := 0; k < cfg.NumEffects; k++ {
			truth = append(truth, k*stride+stride/2)
		}
	}

	// y = X beta + noise
	n := cfg.SampleSize
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := rng.NormFloat64()
		for _, j := range truth {
			v += cfg.EffectSize * x.At(i, j)
		}
		y[i] = v
	}

	z := UnivariateZ(x, y)

	return &Dataset{
		Z:           z,
		R:           CorrelationMatrix(x),
		RefR:        CorrelationMatrix(refX),
		TrueEffects: truth,
		Config:      cfg,
	}, nil
}

// samplePanel draws an n x P matrix of standardized columns with AR(1)
// dependence inside each block and independence across blocks.
func samplePanel(cfg Config, n int, rng *rand.Rand) *mat.Dense {
	p := cfg.NumVariables
	x := mat.NewDense(n, p, nil)
	carry := math.Sqrt(1 - cfg.Rho*cfg.Rho)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			if j%cfg.BlockSize == 0 {
				x.Set(i, j, rng.NormFloat64())
			} else {
				x.Set(i, j, cfg.Rho*x.At(i, j-1)+carry*rng.NormFloat64())
			}
		}
	}
	return x
}

// UnivariateZ computes the per-variable association z-score of each column
// of x against y via the marginal correlation: z = r * sqrt((n-2)/(1-r^2)).
func UnivariateZ(x *mat.Dense, y []float64) []float64 {
	n, p := x.Dims()
	z := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		r := stat.Correlation(col, y, nil)
		denom := 1 - r*r
		if denom < 1e-12 {
			denom = 1e-12
		}
		z[j] = r * math.Sqrt(float64(n-2)/denom)
	}
	return z
}

// CorrelationMatrix computes the sample correlation matrix of the columns
// of x as a dense matrix with an exact unit diagonal.
func CorrelationMatrix(x *mat.Dense) *mat.Dense {
	_, p := x.Dims()
	sym := mat.NewSymDense(p, nil)
	stat.CorrelationMatrix(sym, x, nil)
	out := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			if i == j {
				out.Set(i, j, 1)
			} else {
				out.Set(i, j, sym.At(i, j))
			}
		}
	}
	return out
}
