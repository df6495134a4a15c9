package memory

import (
	"context"
	"sort"
	"sync"

	"gofinemap/domain/core"
	"gofinemap/domain/susie"
	"gofinemap/ports"
)

// FitRepository is an in-memory FitRepository used when no database is
// configured and in tests.
type FitRepository struct {
	mu   sync.RWMutex
	fits map[core.FitID]*susie.FitResult
}

// NewFitRepository creates an empty in-memory repository
func NewFitRepository() ports.FitRepository {
	return &FitRepository{fits: make(map[core.FitID]*susie.FitResult)}
}

// Save stores a fit result snapshot keyed by ID
func (r *FitRepository) Save(ctx context.Context, result *susie.FitResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits[result.ID] = result
	return nil
}

// GetByID retrieves a fit result by its identifier
func (r *FitRepository) GetByID(ctx context.Context, id core.FitID) (*susie.FitResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.fits[id]
	if !ok {
		return nil, core.NewNotFoundError("fit", id.String())
	}
	return result, nil
}

// List returns stored fits newest first
func (r *FitRepository) List(ctx context.Context, limit, offset int) ([]*susie.FitResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*susie.FitResult, 0, len(r.fits))
	for _, f := range r.fits {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Time().After(all[j].CreatedAt.Time())
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Delete removes a stored fit result
func (r *FitRepository) Delete(ctx context.Context, id core.FitID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fits[id]; !ok {
		return core.NewNotFoundError("fit", id.String())
	}
	delete(r.fits, id)
	return nil
}
