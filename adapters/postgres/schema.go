package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Schema is the DDL for fit persistence
const Schema = `
CREATE TABLE IF NOT EXISTS fit_results (
	id                UUID PRIMARY KEY,
	num_variables     INTEGER NOT NULL,
	num_layers        INTEGER NOT NULL,
	residual_variance DOUBLE PRECISION NOT NULL,
	converged         BOOLEAN NOT NULL,
	iterations        INTEGER NOT NULL,
	payload           JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fit_results_created_at ON fit_results (created_at DESC);
`

// Migrate applies the schema to the connected database
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
