// Package main provides the entry point for the apply-pilot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apply_agent",
	Short: "Automated job application agent",
	Long:  "Apply Pilot automates job application forms across ATS platforms: it finds the apply action, discovers and classifies form fields, fills them from a stored applicant profile, and stops before submission for human review.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
