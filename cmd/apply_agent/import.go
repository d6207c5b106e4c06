package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/profile"
)

var importCommand = &cobra.Command{
	Use:   "import-profile",
	Short: "Validate a profile JSON document and store it in the profile database",
	Long: `Reads an applicant profile document, validates it against the profile schema and upserts it into the configured PostgreSQL database keyed by its user_id.

After importing, apply runs can resolve the profile with --db-url instead of carrying the file around.`,
	RunE: runImportCmd,
}

var (
	importProfilePath string
	importDatabaseURL string
)

func init() {
	importCommand.Flags().StringVarP(&importProfilePath, "profile", "p", "", "Path to the applicant profile JSON document (required)")
	importCommand.Flags().StringVar(&importDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	_ = importCommand.MarkFlagRequired("profile")

	rootCmd.AddCommand(importCommand)
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	databaseURL := importDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("--db-url (or DATABASE_URL env var) is required")
	}

	// The file provider performs schema validation; an empty identifier
	// accepts whichever user_id the document carries.
	p, err := profile.NewFileProvider(importProfilePath).GetProfile(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load profile document: %w", err)
	}
	if p.UserID == "" {
		return fmt.Errorf("profile document carries no user_id")
	}

	store, err := profile.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to profile store: %w", err)
	}
	defer store.Close()

	if err := store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}

	fmt.Printf("Imported profile for user %s from %s\n", p.UserID, importProfilePath)
	return nil
}
