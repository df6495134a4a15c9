package susie

import (
	"math"

	"gofinemap/domain/core"

	"gonum.org/v1/gonum/mat"
)

// symmetryTolerance is the maximum |R[i][j]-R[j][i]| accepted before the
// matrix is rejected as asymmetric.
const symmetryTolerance = 1e-8

// ValidateCorrelation checks that R is a usable correlation matrix for a
// P-variable problem: square, P x P, symmetric within tolerance, finite,
// entries in [-1,1] and unit diagonal within tolerance.
func ValidateCorrelation(R *mat.Dense, p int) error {
	rows, cols := R.Dims()
	if rows != cols {
		return core.ErrNotSquare
	}
	if rows != p {
		return core.NewInvalidInputError("R", "dimension does not match z")
	}
	for i := 0; i < rows; i++ {
		if math.Abs(R.At(i, i)-1) > 1e-6 {
			return core.NewInvalidInputError("R", "diagonal entries must be 1")
		}
		for j := i; j < cols; j++ {
			v := R.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.ErrNonFiniteInput
			}
			if math.Abs(v-R.At(j, i)) > symmetryTolerance {
				return core.ErrNotSymmetric
			}
			if v < -1-1e-6 || v > 1+1e-6 {
				return core.NewInvalidInputError("R", "entries must lie in [-1,1]")
			}
		}
	}
	return nil
}

// ValidateZ checks that the z-score vector is non-empty and finite.
func ValidateZ(z []float64) error {
	if len(z) == 0 {
		return core.NewInvalidInputError("z", "empty vector")
	}
	for _, v := range z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.ErrNonFiniteInput
		}
	}
	return nil
}

// Cov2Cor rescales a covariance-shaped matrix to unit-diagonal correlation
// form. It fails when any diagonal entry is non-positive, since the rescale
// is degenerate there.
func Cov2Cor(S *mat.Dense) (*mat.Dense, error) {
	rows, cols := S.Dims()
	if rows != cols {
		return nil, core.ErrNotSquare
	}
	d := make([]float64, rows)
	for i := 0; i < rows; i++ {
		v := S.At(i, i)
		if v <= 0 || math.IsNaN(v) {
			return nil, core.NewInvalidInputError("S", "non-positive diagonal in cov2cor rescale")
		}
		d[i] = math.Sqrt(v)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, S.At(i, j)/(d[i]*d[j]))
		}
	}
	return out, nil
}

// RegularizeLD shrinks a reference-panel correlation matrix toward the
// rank-one structure implied by the observed z-scores:
//
//	R~ = cov2cor((1-w)*R_ref + w*z*z')
//
// The weight w is supplied by the caller, typically 1/n_ref for a reference
// panel of n_ref samples. The input matrix is never modified.
func RegularizeLD(rRef *mat.Dense, z []float64, w float64) (*mat.Dense, error) {
	if w <= 0 || w > 1 {
		return nil, core.NewInvalidInputError("w", "weight must lie in (0,1]")
	}
	if err := ValidateZ(z); err != nil {
		return nil, err
	}
	if err := ValidateCorrelation(rRef, len(z)); err != nil {
		return nil, err
	}
	p := len(z)
	combined := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			combined.Set(i, j, (1-w)*rRef.At(i, j)+w*z[i]*z[j])
		}
	}
	return Cov2Cor(combined)
}
