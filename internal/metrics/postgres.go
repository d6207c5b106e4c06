// Package metrics - postgres.go persists run records to PostgreSQL.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder stores one row per finished run.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// ConnectRecorder establishes a connection pool for run-record persistence.
func ConnectRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

// Close closes the connection pool
func (r *PostgresRecorder) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Record implements Recorder. The full record is stored as JSON alongside the
// columns the analysis tooling filters on.
func (r *PostgresRecorder) Record(ctx context.Context, rec RunRecord) error {
	document, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	runID, err := uuid.Parse(rec.RunID)
	if err != nil {
		runID = uuid.New()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO application_runs (id, user_id, job_url, board, final_status, failure_point,
		 fields_filled, fields_total, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		runID, rec.UserID, rec.JobURL, rec.Board, rec.FinalStatus, rec.FailurePoint,
		rec.FieldsFilled, rec.FieldsTotal, document,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", rec.RunID, err)
	}
	return nil
}
