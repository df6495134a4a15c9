package sumstats

import (
	"math"

	"gofinemap/domain/core"
	"gofinemap/ports"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SummaryData wraps pre-computed summary statistics: z-scores and an LD
// correlation matrix from the same or a reference panel.
type SummaryData struct {
	z          []float64
	r          *mat.Dense
	sampleSize int
}

// NewSummaryData builds a summary-statistics source. sampleSize is the GWAS
// sample size when known, 0 otherwise.
func NewSummaryData(z []float64, r *mat.Dense, sampleSize int) (*SummaryData, error) {
	if len(z) == 0 {
		return nil, core.NewInvalidInputError("z", "empty vector")
	}
	rows, cols := r.Dims()
	if rows != cols || rows != len(z) {
		return nil, core.ErrDimensionMismatch
	}
	return &SummaryData{z: z, r: r, sampleSize: sampleSize}, nil
}

// SufficientStats returns the wrapped statistics unchanged
func (d *SummaryData) SufficientStats() (*ports.SufficientStats, error) {
	return &ports.SufficientStats{
		Mode:       ports.ModeSummary,
		Z:          d.z,
		R:          d.r,
		SampleSize: d.sampleSize,
	}, nil
}

// IndividualData wraps raw per-individual data: an n x P design matrix and
// a length-n outcome vector.
type IndividualData struct {
	x *mat.Dense
	y []float64
}

// NewIndividualData validates shapes and wraps the raw data
func NewIndividualData(x *mat.Dense, y []float64) (*IndividualData, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, core.NewInvalidInputError("X", "empty matrix")
	}
	if rows != len(y) {
		return nil, core.ErrDimensionMismatch
	}
	if rows < 3 {
		return nil, core.NewInvalidInputError("X", "need at least 3 observations")
	}
	return &IndividualData{x: x, y: y}, nil
}

// SufficientStats derives the summary-statistics equivalent of the raw
// data: per-variable univariate regression z-scores (betahat over its
// standard error) and the sample correlation matrix of the columns of X.
func (d *IndividualData) SufficientStats() (*ports.SufficientStats, error) {
	n, p := d.x.Dims()

	z := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, d.x)
		beta, se, err := univariateRegression(col, d.y)
		if err != nil {
			return nil, err
		}
		z[j] = beta / se
	}

	sym := mat.NewSymDense(p, nil)
	stat.CorrelationMatrix(sym, d.x, nil)
	r := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			if i == j {
				r.Set(i, j, 1)
			} else {
				r.Set(i, j, sym.At(i, j))
			}
		}
	}

	return &ports.SufficientStats{
		Mode:       ports.ModeIndividual,
		Z:          z,
		R:          r,
		SampleSize: n,
	}, nil
}

// univariateRegression fits y = a + b*x by least squares and returns the
// slope estimate with its standard error.
func univariateRegression(x, y []float64) (beta, se float64, err error) {
	n := float64(len(x))
	meanX := stat.Mean(x, nil)
	meanY := stat.Mean(y, nil)

	sxx, sxy := 0.0, 0.0
	for i := range x {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}
	if sxx == 0 {
		return 0, 0, core.NewInvalidInputError("X", "constant column cannot be regressed")
	}
	beta = sxy / sxx

	rss := 0.0
	a := meanY - beta*meanX
	for i := range x {
		resid := y[i] - a - beta*x[i]
		rss += resid * resid
	}
	sigma2 := rss / (n - 2)
	se = math.Sqrt(sigma2 / sxx)
	if se == 0 || math.IsNaN(se) {
		return 0, 0, core.NewInvalidInputError("X", "degenerate regression")
	}
	return beta, se, nil
}
