package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/blockers"
	"github.com/jonathan/apply-pilot/internal/browser"
	"github.com/jonathan/apply-pilot/internal/config"
	"github.com/jonathan/apply-pilot/internal/engine"
	"github.com/jonathan/apply-pilot/internal/metrics"
	"github.com/jonathan/apply-pilot/internal/observability"
	"github.com/jonathan/apply-pilot/internal/profile"
	"github.com/jonathan/apply-pilot/internal/runner"
	"github.com/jonathan/apply-pilot/internal/visibility"
)

var applyCommand = &cobra.Command{
	Use:   "apply [job-url...]",
	Short: "Run the application engine against one or more job postings",
	Long: `Processes each job URL through the application state machine: locate apply -> discover form -> classify -> fill -> resolve blockers -> stop before submit (default policy).

Each run gets its own browser session. On a headless host the session is rendered into a virtual display and streamed over VNC so a human can watch and take over; the stream endpoint is printed at run start.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApplyCmd,
}

var (
	applyConfigPath    string
	applyUserID        string
	applyProfilePath   string
	applyDatabaseURL   string
	applyHeadful       bool
	applySlowMotionMs  int
	applyKeepOpen      bool
	applyVerbose       bool
	applyAutoSubmit    bool
	applyThreshold     float64
	applyParallelism   int
	applyLoginEmail    string
	applyLoginPassword string
)

func init() {
	// Config file flag (processed first)
	applyCommand.Flags().StringVar(&applyConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	applyCommand.Flags().StringVarP(&applyUserID, "user-id", "u", "", "Applicant identifier (opaque string)")
	applyCommand.Flags().StringVarP(&applyProfilePath, "profile", "p", "", "Path to applicant profile JSON (alternative to --db-url)")
	applyCommand.Flags().StringVar(&applyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	applyCommand.Flags().BoolVar(&applyHeadful, "headful", false, "Show the browser window when a display is attached")
	applyCommand.Flags().IntVar(&applySlowMotionMs, "slow-mo", 0, "Pause after each interaction, in milliseconds")
	applyCommand.Flags().BoolVar(&applyKeepOpen, "keep-open", false, "Leave the browser session open after completion for handoff")
	applyCommand.Flags().BoolVarP(&applyVerbose, "verbose", "v", false, "Print detailed debug information")
	applyCommand.Flags().BoolVar(&applyAutoSubmit, "auto-submit", false, "Enable auto-submission when the fill-ratio threshold is met")
	applyCommand.Flags().Float64Var(&applyThreshold, "auto-submit-threshold", 0, "Minimum fields-filled ratio required for auto-submit (default 0.9)")
	applyCommand.Flags().IntVar(&applyParallelism, "parallelism", 1, "Number of concurrent runs (each with its own session)")
	applyCommand.Flags().StringVar(&applyLoginEmail, "login-email", "", "ATS login email for this session only (never stored)")
	applyCommand.Flags().StringVar(&applyLoginPassword, "login-password", "", "ATS login password for this session only (never stored)")

	rootCmd.AddCommand(applyCommand)
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	// Ctrl-C delivers a cancellation signal to the running state machine,
	// which finalizes a best-effort outcome instead of dying mid-update.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadAndMergeConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.UserID == "" {
		return fmt.Errorf("--user-id is required (via flag or config)")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.ProfilePath == "" && cfg.DatabaseURL == "" {
		return fmt.Errorf("either --profile or --db-url (or DATABASE_URL env var) is required")
	}

	// Profile provider: file when given, else the Postgres store.
	var provider profile.Provider
	var recorder metrics.Recorder = metrics.NopRecorder{}
	if cfg.ProfilePath != "" {
		provider = profile.NewFileProvider(cfg.ProfilePath)
	} else {
		store, err := profile.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to profile store: %w", err)
		}
		defer store.Close()
		provider = store
	}
	if cfg.DatabaseURL != "" {
		pgRecorder, err := metrics.ConnectRecorder(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: failed to connect metrics recorder: %v\n", err)
			fmt.Printf("Continuing without run-record persistence...\n")
		} else {
			defer pgRecorder.Close()
			recorder = pgRecorder
		}
	}

	env := visibility.ProbeEnvironment()
	bridge := visibility.NewBridge(env, visibility.NewXvfbProvisioner(cfg.Verbose), cfg.Verbose)
	if cfg.Verbose {
		fmt.Printf("[VERBOSE] Host environment: %s\n", env)
	}

	engineCfg := engine.DefaultConfig()
	engineCfg.AutoSubmit = cfg.AutoSubmit
	engineCfg.AutoSubmitThreshold = cfg.AutoSubmitThreshold
	if cfg.MaxBlockerRetries > 0 {
		engineCfg.MaxBlockerRetries = cfg.MaxBlockerRetries
	}
	if cfg.MaxRetries > 0 {
		engineCfg.MaxInteractionRetries = cfg.MaxRetries
	}
	engineCfg.Verbose = cfg.Verbose

	factory := func(ctx context.Context, display string) (runner.Session, error) {
		return browser.NewSession(ctx, browser.Options{
			// A provisioned virtual display implies a headful browser
			// rendering into it; otherwise the flag decides.
			Headful:    cfg.Headful || display != "",
			Display:    display,
			SlowMotion: time.Duration(cfg.SlowMotionMs) * time.Millisecond,
			Verbose:    cfg.Verbose,
		})
	}

	coordinator := runner.New(provider, recorder, bridge, factory, runner.Options{
		Credentials: blockers.Credentials{
			Email:    cfg.LoginEmail,
			Password: cfg.LoginPassword,
		},
		Engine:          engineCfg,
		Parallelism:     cfg.Parallelism,
		KeepSessionOpen: cfg.KeepSessionOpen,
		Verbose:         cfg.Verbose,
	})

	fmt.Printf("Processing %d job posting(s) for user %s...\n", len(args), cfg.UserID)
	outcomes, err := coordinator.Run(ctx, cfg.UserID, args)
	if err != nil {
		// Only configuration errors reach here; per-job failures are
		// normal terminal outcomes below.
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	for i, out := range outcomes {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(outcomes), engine.Describe(out))
		printer.PrintOutcome(out)
		if cfg.Verbose {
			printer.PrintSections(out.Sections)
		}
	}

	// Sessions kept open for handoff would die with the process, so hold the
	// process until the user is done with them.
	if n := coordinator.HandoffCount(); n > 0 {
		fmt.Printf("\n%d session(s) left open for handoff. Press Ctrl-C when done to close them and exit.\n", n)
		<-ctx.Done()
		coordinator.CloseHandoffs()
	}

	return nil
}

// loadAndMergeConfig applies the usual precedence: config file first,
// explicit CLI flags override, then defaults for anything still unset.
func loadAndMergeConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if applyConfigPath != "" {
		loaded, err := config.LoadConfig(applyConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
		if applyVerbose {
			fmt.Printf("Loaded config from: %s\n", applyConfigPath)
		}
	}

	// Apply CLI overrides only when the flag was explicitly set.
	if cmd.Flags().Changed("user-id") {
		cfg.UserID = applyUserID
	}
	if cmd.Flags().Changed("profile") {
		cfg.ProfilePath = applyProfilePath
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = applyDatabaseURL
	}
	if cmd.Flags().Changed("headful") {
		cfg.Headful = applyHeadful
	}
	if cmd.Flags().Changed("slow-mo") {
		cfg.SlowMotionMs = applySlowMotionMs
	}
	if cmd.Flags().Changed("keep-open") {
		cfg.KeepSessionOpen = applyKeepOpen
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = applyVerbose
	}
	if cmd.Flags().Changed("auto-submit") {
		cfg.AutoSubmit = applyAutoSubmit
	}
	if cmd.Flags().Changed("auto-submit-threshold") {
		cfg.AutoSubmitThreshold = applyThreshold
	}
	if cmd.Flags().Changed("parallelism") {
		cfg.Parallelism = applyParallelism
	}
	if cmd.Flags().Changed("login-email") {
		cfg.LoginEmail = applyLoginEmail
	}
	if cmd.Flags().Changed("login-password") {
		cfg.LoginPassword = applyLoginPassword
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		Parallelism: 1,
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
