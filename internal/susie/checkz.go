package susie

import (
	"math"

	"gofinemap/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// eigTolRatio drops eigenvalues below this fraction of the largest one when
// pseudo-inverting a near-singular correlation matrix.
const eigTolRatio = 1e-8

// ZCheckReport describes how well the observed z-scores agree with the null
// multivariate normal model implied by the correlation matrix.
type ZCheckReport struct {
	Residuals   []float64 `json:"residuals"` // standardized residual per variable
	Outliers    []int     `json:"outliers"`  // indices exceeding the threshold, ascending
	Threshold   float64   `json:"threshold"`
	MaxResidual float64   `json:"max_residual"`
	MedianAbs   float64   `json:"median_abs"`
}

// CheckZ flags z-scores that are statistical outliers relative to what R
// predicts. Under the null, z ~ N(0, R); the standardized residual of each
// variable given the others is (Omega z)_j / sqrt(Omega_jj) with Omega the
// pseudo-inverse of R. The detection threshold is a two-sided Bonferroni
// bound at level alpha across the P variables.
func CheckZ(z []float64, R *mat.Dense, alpha float64) (*ZCheckReport, error) {
	if err := ValidateZ(z); err != nil {
		return nil, err
	}
	p := len(z)
	if err := ValidateCorrelation(R, p); err != nil {
		return nil, err
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	omega, err := pseudoInverse(R)
	if err != nil {
		return nil, err
	}

	// t_j = (Omega z)_j / sqrt(Omega_jj)
	oz := make([]float64, p)
	zv := mat.NewVecDense(p, z)
	ozv := mat.NewVecDense(p, oz)
	ozv.MulVec(omega, zv)

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	threshold := norm.Quantile(1 - alpha/(2*float64(p)))

	report := &ZCheckReport{
		Residuals: make([]float64, p),
		Threshold: threshold,
	}
	absResiduals := make([]float64, p)
	for j := 0; j < p; j++ {
		ojj := omega.At(j, j)
		if ojj <= 0 {
			// Variable is entirely explained by the dropped eigenspace;
			// nothing to test.
			report.Residuals[j] = 0
			continue
		}
		t := oz[j] / math.Sqrt(ojj)
		report.Residuals[j] = t
		absResiduals[j] = math.Abs(t)
		if math.Abs(t) > threshold {
			report.Outliers = append(report.Outliers, j)
		}
	}

	report.MaxResidual, _ = stats.Max(absResiduals)
	report.MedianAbs, _ = stats.Median(absResiduals)
	return report, nil
}

// pseudoInverse computes the eigendecomposition-based pseudo-inverse of a
// symmetric matrix, truncating near-zero eigenvalues.
func pseudoInverse(R *mat.Dense) (*mat.Dense, error) {
	p, _ := R.Dims()
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sym.SetSym(i, j, (R.At(i, j)+R.At(j, i))/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, core.NewInvalidInputError("R", "eigendecomposition failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	maxVal := 0.0
	for _, v := range vals {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		return nil, core.NewInvalidInputError("R", "correlation matrix has no positive eigenvalues")
	}
	tol := maxVal * eigTolRatio

	// Omega = V diag(1/lambda) V' over the retained eigenspace.
	inv := make([]float64, len(vals))
	for i, v := range vals {
		if v > tol {
			inv[i] = 1 / v
		}
	}
	omega := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sum := 0.0
			for k := range vals {
				if inv[k] != 0 {
					sum += vecs.At(i, k) * inv[k] * vecs.At(j, k)
				}
			}
			omega.Set(i, j, sum)
			omega.Set(j, i, sum)
		}
	}
	return omega, nil
}
