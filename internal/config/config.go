// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Identity
	UserID      string `json:"user_id,omitempty"`      // Applicant identifier (opaque string, required)
	ProfilePath string `json:"profile_path,omitempty"` // Path to applicant profile JSON (alternative to DB)
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL (profile store + run records)

	// Presentation
	Headful         bool `json:"headful,omitempty"`           // Prefer a visible browser window over headless mode
	SlowMotionMs    int  `json:"slow_motion_ms,omitempty"`    // Pause after each interaction, milliseconds
	KeepSessionOpen bool `json:"keep_session_open,omitempty"` // Leave the browser open after completion for handoff
	Verbose         bool `json:"verbose,omitempty"`           // Print detailed debug information

	// Policy
	AutoSubmit          bool    `json:"auto_submit,omitempty"`                                            // Enable the opt-in auto-submit policy
	AutoSubmitThreshold float64 `json:"auto_submit_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`  // Minimum fill ratio for auto-submit
	MaxBlockerRetries   int     `json:"max_blocker_retries,omitempty" validate:"omitempty,min=1,max=10"` // Resolve attempts per blocker kind
	MaxRetries          int     `json:"max_retries,omitempty" validate:"omitempty,min=1,max=10"`         // Interaction-error retries per state
	Parallelism         int     `json:"parallelism,omitempty" validate:"omitempty,min=1,max=8"`          // Concurrent runs

	// Session credentials (in-session use only, never persisted)
	LoginEmail    string `json:"login_email,omitempty" validate:"omitempty,email"`
	LoginPassword string `json:"login_password,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config error: field %q fails %q constraint", first.Field(), first.Tag())
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.SlowMotionMs < 0 {
		return fmt.Errorf("config error: 'slow_motion_ms' must be non-negative")
	}

	if c.ProfilePath != "" {
		if _, err := os.Stat(c.ProfilePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.ProfilePath)
		}
	}

	// A password without an email (or the reverse) is never usable.
	if (c.LoginEmail == "") != (c.LoginPassword == "") {
		return fmt.Errorf("config error: 'login_email' and 'login_password' must be set together")
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.UserID == "" {
		result.UserID = defaults.UserID
	}
	if result.ProfilePath == "" {
		result.ProfilePath = defaults.ProfilePath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.SlowMotionMs == 0 {
		result.SlowMotionMs = defaults.SlowMotionMs
	}
	if result.MaxBlockerRetries == 0 {
		result.MaxBlockerRetries = defaults.MaxBlockerRetries
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.Parallelism == 0 {
		result.Parallelism = defaults.Parallelism
	}

	// Float fields
	if result.AutoSubmitThreshold == 0 {
		if defaults.AutoSubmitThreshold > 0 {
			result.AutoSubmitThreshold = defaults.AutoSubmitThreshold
		} else {
			result.AutoSubmitThreshold = 0.9 // Default to 90% fill ratio
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
