package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotSquare         = fmt.Errorf("%w: matrix is not square", ErrInvalidInput)
	ErrNotSymmetric      = fmt.Errorf("%w: matrix is not symmetric", ErrInvalidInput)
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrInvalidInput)
	ErrNonFiniteInput    = fmt.Errorf("%w: non-finite value", ErrInvalidInput)

	// Summary-statistics consistency errors
	ErrInconsistentSumStats = errors.New("summary statistics inconsistent with correlation matrix")

	// Numerical errors arising mid-fit
	ErrNumericalInstability = errors.New("numerical instability during fit")

	// Repository errors
	ErrNotFound    = errors.New("resource not found")
	ErrFitNotFound = fmt.Errorf("%w: fit", ErrNotFound)
)

// Error constructors with context
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

func NewInconsistencyError(indices []int) error {
	return fmt.Errorf("%w: outlier z-scores at indices %v", ErrInconsistentSumStats, indices)
}

func NewInstabilityError(layer, variable int) error {
	return fmt.Errorf("%w: layer %d, variable %d", ErrNumericalInstability, layer, variable)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsInconsistencyError(err error) bool {
	return errors.Is(err, ErrInconsistentSumStats)
}

func IsInstabilityError(err error) bool {
	return errors.Is(err, ErrNumericalInstability)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
