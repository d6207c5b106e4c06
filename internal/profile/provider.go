// Package profile resolves applicant identifiers to structured applicant data.
package profile

import (
	"context"
	"errors"

	"github.com/jonathan/apply-pilot/internal/types"
)

// ErrNotFound is returned when no profile exists for the given identifier.
var ErrNotFound = errors.New("profile not found")

// Provider resolves an applicant identifier to a profile snapshot. The
// identifier is an opaque stable string; callers must never rely on numeric
// semantics.
type Provider interface {
	GetProfile(ctx context.Context, userID string) (*types.ApplicantProfile, error)
}
