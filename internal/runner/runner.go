// Package runner sequences job URLs through the application engine, giving
// each run its own browser session, visibility resources and run context.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/apply-pilot/internal/blockers"
	"github.com/jonathan/apply-pilot/internal/engine"
	"github.com/jonathan/apply-pilot/internal/metrics"
	"github.com/jonathan/apply-pilot/internal/observability"
	"github.com/jonathan/apply-pilot/internal/profile"
	"github.com/jonathan/apply-pilot/internal/types"
	"github.com/jonathan/apply-pilot/internal/visibility"
)

// ConfigError is a fatal pre-run configuration problem (missing identifier,
// unreachable profile store). It is the only error kind that stops the whole
// coordinator; per-job failures are normal terminal outcomes.
type ConfigError struct {
	Reason string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Session is the browser session surface the coordinator manages per run.
type Session interface {
	engine.Page
	WindowID() string
	Close()
}

// SessionFactory creates one exclusive browser session, rendering into the
// given virtual display when one is provided.
type SessionFactory func(ctx context.Context, display string) (Session, error)

// Options configures the coordinator.
type Options struct {
	// Credentials are optional session-scoped login credentials.
	Credentials blockers.Credentials
	// Engine is the state machine policy configuration.
	Engine engine.Config
	// Parallelism bounds concurrent runs. Zero or one means sequential.
	Parallelism int
	// KeepSessionOpen leaves the browser running after a run whose outcome
	// preserved session state, so the user can take over.
	KeepSessionOpen bool
	Verbose         bool
}

// Coordinator owns the per-process pieces shared across runs: the profile
// provider, the visibility bridge and the metrics recorder. Runs themselves
// share nothing except the read-only profile.
type Coordinator struct {
	provider   profile.Provider
	recorder   metrics.Recorder
	bridge     *visibility.Bridge
	newSession SessionFactory
	opts       Options

	mu       sync.Mutex
	handoffs []handoff
}

// handoff is a session deliberately left running after its run, together with
// the visibility resources that stay provisioned while a human takes over.
type handoff struct {
	session Session
	sv      *visibility.SessionVisibility
}

// New creates a coordinator.
func New(provider profile.Provider, recorder metrics.Recorder, bridge *visibility.Bridge, factory SessionFactory, opts Options) *Coordinator {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Coordinator{
		provider:   provider,
		recorder:   recorder,
		bridge:     bridge,
		newSession: factory,
		opts:       opts,
	}
}

// Run processes each job URL through the engine and returns one outcome per
// URL, in input order. Only configuration errors return a non-nil error; a
// failed run is a normal terminal state.
func (c *Coordinator) Run(ctx context.Context, userID string, jobURLs []string) ([]*types.Outcome, error) {
	if userID == "" {
		return nil, &ConfigError{Reason: "user identifier is required"}
	}
	if len(jobURLs) == 0 {
		return nil, &ConfigError{Reason: "at least one job URL is required"}
	}

	applicant, err := c.provider.GetProfile(ctx, userID)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("failed to resolve profile for %s", userID), Cause: err}
	}

	outcomes := make([]*types.Outcome, len(jobURLs))

	g, gCtx := errgroup.WithContext(ctx)
	limit := c.opts.Parallelism
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, jobURL := range jobURLs {
		i, jobURL := i, jobURL
		g.Go(func() error {
			outcomes[i] = c.runOne(gCtx, userID, jobURL, applicant)
			return nil
		})
	}

	// Workers never return errors; per-job failures land in their outcomes.
	_ = g.Wait()
	return outcomes, nil
}

// runOne executes a single job application run with its own session and
// visibility resources. Resources are released on every exit path except a
// handoff, where they stay alive with the open session until CloseHandoffs.
func (c *Coordinator) runOne(ctx context.Context, userID, jobURL string, applicant *types.ApplicantProfile) *types.Outcome {
	runID := uuid.New().String()

	sv := c.bridge.Establish(ctx, runID)
	handedOff := false
	defer func() {
		if !handedOff {
			sv.Release()
		}
	}()

	session, err := c.newSession(ctx, sv.Display())
	if err != nil {
		rc := types.NewRunContext(jobURL)
		rc.RecordError("failed to start browser session: %v", err)
		out := types.FinalizeOutcome(rc, types.StatusFailed, types.FailOther, false)
		c.record(ctx, runID, userID, rc, out, sv.Handle())
		return out
	}
	sv.AttachWindow(session.WindowID())

	if c.opts.Verbose {
		log.Printf("[RUNNER] Run %s: %s", runID, jobURL)
		observability.NewPrinter(os.Stdout).PrintVisibility(sv.Handle())
	}

	eng := engine.New(session, blockers.DefaultResolvers(c.opts.Credentials), c.opts.Engine)
	out, rc := eng.Run(ctx, jobURL, applicant)

	c.record(ctx, runID, userID, rc, out, sv.Handle())

	if c.opts.KeepSessionOpen && out.SessionPreserved {
		handedOff = true
		c.mu.Lock()
		c.handoffs = append(c.handoffs, handoff{session: session, sv: sv})
		c.mu.Unlock()
		log.Printf("[RUNNER] Run %s: session left open for handoff (visibility: %s %s)",
			runID, sv.Handle().Mode, sv.Handle().Locator)
	} else {
		session.Close()
	}
	return out
}

// HandoffCount reports how many sessions were left open for the user after
// their runs finished.
func (c *Coordinator) HandoffCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handoffs)
}

// CloseHandoffs closes every session left open for handoff and releases its
// visibility resources. Called once the user is done taking over, typically
// when the process is asked to exit.
func (c *Coordinator) CloseHandoffs() {
	c.mu.Lock()
	pending := c.handoffs
	c.handoffs = nil
	c.mu.Unlock()

	for _, h := range pending {
		h.session.Close()
		h.sv.Release()
	}
}

// record forwards the flat run record; collector failures are logged, never
// surfaced into an outcome.
func (c *Coordinator) record(ctx context.Context, runID, userID string, rc *types.RunContext, out *types.Outcome, handle types.VisibilityHandle) {
	rec := metrics.BuildRecord(runID, userID, rc, out, handle)
	if err := c.recorder.Record(ctx, rec); err != nil {
		log.Printf("[RUNNER] Warning: failed to record run %s: %v", runID, err)
	}
}
