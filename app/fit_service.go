package app

import (
	"context"
	"time"

	"gofinemap/adapters/sumstats"
	"gofinemap/domain/core"
	"gofinemap/domain/susie"
	"gofinemap/internal"
	"gofinemap/internal/errors"
	susiecore "gofinemap/internal/susie"
	"gofinemap/ports"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"
)

// FitService runs fine-mapping fits and optionally persists the results.
// A weighted semaphore bounds how many fits run at once, since each fit is
// CPU-bound over dense P x P matrices.
type FitService struct {
	repo   ports.FitRepository // nil disables persistence
	logger *internal.Logger
	sem    *semaphore.Weighted
}

// NewFitService creates a fit service. maxConcurrency must be positive.
func NewFitService(repo ports.FitRepository, logger *internal.Logger, maxConcurrency int) *FitService {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &FitService{
		repo:   repo,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(maxConcurrency)),
	}
}

// FitRSS fine-maps summary statistics: z-scores plus a correlation matrix
func (s *FitService) FitRSS(ctx context.Context, z []float64, r *mat.Dense, numLayers int, opts susie.Options) (*susie.FitResult, error) {
	source, err := sumstats.NewSummaryData(z, r, opts.SampleSize)
	if err != nil {
		return nil, err
	}
	return s.FitSource(ctx, source, numLayers, opts)
}

// FitIndividual fine-maps raw individual-level data by deriving the
// summary-statistics equivalent and delegating to the same core
func (s *FitService) FitIndividual(ctx context.Context, x *mat.Dense, y []float64, numLayers int, opts susie.Options) (*susie.FitResult, error) {
	source, err := sumstats.NewIndividualData(x, y)
	if err != nil {
		return nil, err
	}
	return s.FitSource(ctx, source, numLayers, opts)
}

// FitSource runs a fit against any sufficient-statistics source
func (s *FitService) FitSource(ctx context.Context, source ports.SufficientStatsSource, numLayers int, opts susie.Options) (*susie.FitResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "waiting for fit slot")
	}
	defer s.sem.Release(1)

	stats, err := source.SufficientStats()
	if err != nil {
		return nil, errors.Wrap(err, "deriving sufficient statistics")
	}
	if stats.SampleSize > 0 && opts.SampleSize == 0 {
		opts.SampleSize = stats.SampleSize
	}

	start := time.Now()
	s.logger.Info("starting fit: mode=%s P=%d L=%d", stats.Mode, len(stats.Z), numLayers)

	result, err := susiecore.FitRSS(ctx, stats.Z, stats.R, numLayers, opts)
	if err != nil {
		s.logger.Error("fit failed: %v", err)
		return nil, err
	}

	s.logger.Info("fit %s finished in %s: converged=%t sweeps=%d credible_sets=%d",
		result.ID, time.Since(start).Round(time.Millisecond),
		result.Converged, result.Iterations, len(result.CredibleSets))
	if !result.Converged {
		s.logger.Warn("fit %s exhausted its iteration budget without converging", result.ID)
	}
	if len(result.Outliers) > 0 {
		s.logger.Warn("fit %s: %d z-scores flagged as inconsistent with R: %v",
			result.ID, len(result.Outliers), result.Outliers)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, result); err != nil {
			// Persistence is best-effort; the computed result is still valid.
			s.logger.Error("failed to persist fit %s: %v", result.ID, err)
		}
	}
	return result, nil
}

// Summarize projects PIP and credible sets out of a completed fit
func (s *FitService) Summarize(result *susie.FitResult) susie.Summary {
	return susie.Summarize(result)
}

// GetFit retrieves a persisted fit by ID
func (s *FitService) GetFit(ctx context.Context, id core.FitID) (*susie.FitResult, error) {
	if s.repo == nil {
		return nil, core.NewNotFoundError("fit", id.String())
	}
	return s.repo.GetByID(ctx, id)
}

// ListFits returns recent persisted fits, newest first
func (s *FitService) ListFits(ctx context.Context, limit, offset int) ([]*susie.FitResult, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx, limit, offset)
}
