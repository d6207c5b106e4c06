// Package profile - file.go provides a JSON-file-backed provider so the CLI
// can run without a database.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/apply-pilot/internal/schemas"
	"github.com/jonathan/apply-pilot/internal/types"
)

// FileProvider resolves profiles from a single JSON document on disk. The
// document must validate against the applicant profile schema.
type FileProvider struct {
	Path string
}

// NewFileProvider creates a provider for the given profile document.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// GetProfile loads and validates the profile document. When the document
// carries a user_id, it must match the requested identifier.
func (f *FileProvider) GetProfile(_ context.Context, userID string) (*types.ApplicantProfile, error) {
	document, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read profile file %s: %w", f.Path, err)
	}

	if err := schemas.ValidateApplicantProfile(document); err != nil {
		return nil, err
	}

	var p types.ApplicantProfile
	if err := json.Unmarshal(document, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file %s: %w", f.Path, err)
	}

	if p.UserID != "" && userID != "" && p.UserID != userID {
		return nil, ErrNotFound
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	return &p, nil
}
