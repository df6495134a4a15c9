package ports

import (
	"context"

	"gofinemap/domain/core"
	"gofinemap/domain/susie"
)

// FitRepository persists completed fit results
type FitRepository interface {
	// Save stores an immutable fit result snapshot
	Save(ctx context.Context, result *susie.FitResult) error

	// GetByID retrieves a fit result by its identifier
	GetByID(ctx context.Context, id core.FitID) (*susie.FitResult, error)

	// List returns the most recent fit results, newest first
	List(ctx context.Context, limit, offset int) ([]*susie.FitResult, error)

	// Delete removes a stored fit result
	Delete(ctx context.Context, id core.FitID) error
}
