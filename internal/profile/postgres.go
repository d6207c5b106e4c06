// Package profile - postgres.go provides the PostgreSQL-backed profile store.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/apply-pilot/internal/schemas"
	"github.com/jonathan/apply-pilot/internal/types"
)

// Store wraps a PostgreSQL connection pool holding applicant profiles.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the profile database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetProfile fetches the profile document for an applicant. The identifier is
// matched as an opaque string. Documents are schema-validated before use so a
// malformed row surfaces here instead of mid-run.
func (s *Store) GetProfile(ctx context.Context, userID string) (*types.ApplicantProfile, error) {
	var document []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM applicant_profiles WHERE user_id = $1`,
		userID,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", userID, err)
	}

	if err := schemas.ValidateApplicantProfile(document); err != nil {
		return nil, fmt.Errorf("stored profile for %s is invalid: %w", userID, err)
	}

	var p types.ApplicantProfile
	if err := json.Unmarshal(document, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile for %s: %w", userID, err)
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	return &p, nil
}

// SaveProfile stores or replaces the profile document for an applicant.
func (s *Store) SaveProfile(ctx context.Context, p *types.ApplicantProfile) error {
	document, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := schemas.ValidateApplicantProfile(document); err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO applicant_profiles (user_id, document)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET document = $2, updated_at = NOW()`,
		p.UserID, document,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile for %s: %w", p.UserID, err)
	}
	return nil
}
