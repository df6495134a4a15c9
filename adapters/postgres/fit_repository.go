package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gofinemap/domain/core"
	"gofinemap/domain/susie"
	"gofinemap/ports"

	"github.com/jmoiron/sqlx"
)

// FitRepositoryImpl implements FitRepository for PostgreSQL
type FitRepositoryImpl struct {
	db *sqlx.DB
}

// NewFitRepository creates a new PostgreSQL fit repository
func NewFitRepository(db *sqlx.DB) ports.FitRepository {
	return &FitRepositoryImpl{db: db}
}

// fitRow maps the fit_results table
type fitRow struct {
	ID               string  `db:"id"`
	NumVariables     int     `db:"num_variables"`
	NumLayers        int     `db:"num_layers"`
	ResidualVariance float64 `db:"residual_variance"`
	Converged        bool    `db:"converged"`
	Iterations       int     `db:"iterations"`
	Payload          []byte  `db:"payload"`
}

// Save stores an immutable fit result snapshot, upserting on ID
func (r *FitRepositoryImpl) Save(ctx context.Context, result *susie.FitResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal fit result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO fit_results (
			id, num_variables, num_layers, residual_variance,
			converged, iterations, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			num_variables = EXCLUDED.num_variables,
			num_layers = EXCLUDED.num_layers,
			residual_variance = EXCLUDED.residual_variance,
			converged = EXCLUDED.converged,
			iterations = EXCLUDED.iterations,
			payload = EXCLUDED.payload`,
		result.ID.String(), result.NumVariables, result.NumLayers,
		result.ResidualVariance, result.Converged, result.Iterations,
		payload, result.CreatedAt.Time())
	if err != nil {
		return fmt.Errorf("save fit result: %w", err)
	}
	return nil
}

// GetByID retrieves a fit result by its identifier
func (r *FitRepositoryImpl) GetByID(ctx context.Context, id core.FitID) (*susie.FitResult, error) {
	var row fitRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, num_variables, num_layers, residual_variance,
		        converged, iterations, payload
		 FROM fit_results WHERE id = $1`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("fit", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get fit result: %w", err)
	}
	return row.toResult()
}

// List returns the most recent fit results, newest first
func (r *FitRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*susie.FitResult, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []fitRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, num_variables, num_layers, residual_variance,
		        converged, iterations, payload
		 FROM fit_results ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list fit results: %w", err)
	}
	results := make([]*susie.FitResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Delete removes a stored fit result
func (r *FitRepositoryImpl) Delete(ctx context.Context, id core.FitID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fit_results WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete fit result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("fit", id.String())
	}
	return nil
}

func (row *fitRow) toResult() (*susie.FitResult, error) {
	var result susie.FitResult
	if err := json.Unmarshal(row.Payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal fit payload: %w", err)
	}
	return &result, nil
}
