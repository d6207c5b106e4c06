// Package engine implements the ATS-agnostic state machine that drives one
// job application run: locate apply, discover the form, classify and fill
// fields, resolve blockers, and decide whether to submit or hold for human
// review. The caller always receives a well-formed Outcome; no internal error
// escapes the engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/apply-pilot/internal/blockers"
	"github.com/jonathan/apply-pilot/internal/browser"
	"github.com/jonathan/apply-pilot/internal/classify"
	"github.com/jonathan/apply-pilot/internal/fill"
	"github.com/jonathan/apply-pilot/internal/types"
)

// State is one node of the application state machine.
type State string

const (
	// StateStart loads the job posting page
	StateStart State = "start"
	// StateLocatingApply finds and triggers the apply action
	StateLocatingApply State = "locating_apply"
	// StateDiscoveringForm scans the page and builds the form snapshot
	StateDiscoveringForm State = "discovering_form"
	// StateResolvingBlockers clears login walls, popups and CAPTCHAs
	StateResolvingBlockers State = "resolving_blockers"
	// StateFilling writes profile values into classified fields
	StateFilling State = "filling"
	// StateDeciding makes the terminal submit-or-hold choice
	StateDeciding State = "deciding"
)

// Page is the full browser surface the state machine drives. The live
// chromedp session satisfies it; engine tests inject a scripted fake.
type Page interface {
	fill.Page
	blockers.Page
	Navigate(ctx context.Context, url string) error
	ClickApply(ctx context.Context, board types.JobBoardType) (found, externalRedirect bool, err error)
	Submit(ctx context.Context, board types.JobBoardType) error
}

// Config holds the engine's policy and retry parameters. The retry budgets
// are deliberately small; the source behavior is bounded, not persistent.
type Config struct {
	// MaxLocateAttempts bounds apply-action discovery.
	MaxLocateAttempts int
	// MaxBlockerRetries bounds resolve attempts per blocker kind.
	MaxBlockerRetries int
	// MaxInteractionRetries bounds retries of a state after a transient
	// interaction error.
	MaxInteractionRetries int
	// AutoSubmit enables the opt-in auto-submit policy. The default policy
	// always halts before the platform's final submission action.
	AutoSubmit bool
	// AutoSubmitThreshold is the minimum fields-filled ratio required before
	// auto-submit is allowed.
	AutoSubmitThreshold float64
	Verbose             bool
}

// DefaultConfig returns the stock policy: stop before submit, three attempts
// everywhere, 0.9 auto-submit threshold if auto-submit is later enabled.
func DefaultConfig() Config {
	return Config{
		MaxLocateAttempts:     3,
		MaxBlockerRetries:     3,
		MaxInteractionRetries: 3,
		AutoSubmit:            false,
		AutoSubmitThreshold:   0.9,
	}
}

// ClassifierFactory builds the strategy registry for a detected board.
type ClassifierFactory func(board types.JobBoardType) *classify.Registry

// Engine runs the state machine for one job posting at a time. One engine
// owns one page/session exclusively for the duration of a run.
type Engine struct {
	page       Page
	resolvers  []blockers.Blocker
	cfg        Config
	classifier ClassifierFactory
}

// New creates an engine over an exclusive page. Resolvers are consulted in
// priority order (login wall, popup, CAPTCHA by default).
func New(page Page, resolvers []blockers.Blocker, cfg Config) *Engine {
	return &Engine{
		page:       page,
		resolvers:  resolvers,
		cfg:        cfg,
		classifier: classify.DefaultRegistry,
	}
}

// WithClassifier overrides the classifier factory, used by tests and by
// callers registering extra vendor strategies.
func (e *Engine) WithClassifier(factory ClassifierFactory) *Engine {
	e.classifier = factory
	return e
}

// run-scoped mutable machine state beyond the RunContext itself.
type runState struct {
	rc             *types.RunContext
	filler         *fill.Filler
	registry       *classify.Registry
	fillIndex      int
	blockerRetries map[blockers.Kind]int
	stateRetries   map[State]int
}

// Run executes one application run. It always returns a finalized Outcome
// plus the run context it was built from (for metrics forwarding):
// cancellation, blocker walls and internal errors are all captured, never
// propagated.
func (e *Engine) Run(ctx context.Context, jobURL string, profile *types.ApplicantProfile) (outcome *types.Outcome, runCtx *types.RunContext) {
	rc := types.NewRunContext(jobURL)
	runCtx = rc
	rc.Board = browser.DetectBoard(jobURL)

	rs := &runState{
		rc:             rc,
		filler:         fill.New(e.page, profile, rc, e.cfg.Verbose),
		registry:       e.classifier(rc.Board),
		blockerRetries: make(map[blockers.Kind]int),
		stateRetries:   make(map[State]int),
	}

	defer func() {
		if r := recover(); r != nil {
			rc.RecordError("internal error: %v", r)
			outcome = e.finalize(rc, types.StatusFailed, types.FailOther, false)
		}
	}()

	state := StateStart
	for {
		if ctx.Err() != nil {
			rc.RecordError("run cancelled: %v", ctx.Err())
			return e.finalize(rc, types.StatusStoppedBeforeSubmit, "", true), rc
		}
		if e.cfg.Verbose {
			log.Printf("[ENGINE] %s state=%s filled=%d/%d", rc.JobURL, state, rc.FieldsFilled, rc.FieldsTotal)
		}

		var next State
		var out *types.Outcome
		switch state {
		case StateStart:
			next, out = e.start(ctx, rs)
		case StateLocatingApply:
			next, out = e.locateApply(ctx, rs)
		case StateDiscoveringForm:
			next, out = e.discoverForm(ctx, rs)
		case StateResolvingBlockers:
			next, out = e.resolveBlockers(ctx, rs)
		case StateFilling:
			next, out = e.fillForm(ctx, rs)
		case StateDeciding:
			out = e.decide(ctx, rs)
		default:
			rc.RecordError("unknown state %q", state)
			out = e.finalize(rc, types.StatusFailed, types.FailOther, false)
		}
		if out != nil {
			return out, rc
		}
		state = next
	}
}

// start loads the job posting page.
func (e *Engine) start(ctx context.Context, rs *runState) (State, *types.Outcome) {
	if err := e.page.Navigate(ctx, rs.rc.JobURL); err != nil {
		return e.retryState(ctx, rs, StateStart, types.FailOther, err)
	}
	return StateLocatingApply, nil
}

// locateApply finds and triggers the job's apply action within a bounded
// number of attempts. An external-site redirect after the click is recorded
// but is not a failure.
func (e *Engine) locateApply(ctx context.Context, rs *runState) (State, *types.Outcome) {
	rc := rs.rc
	for attempt := 0; attempt < e.cfg.MaxLocateAttempts; attempt++ {
		if ctx.Err() != nil {
			return StateLocatingApply, nil // outer loop finalizes cancellation
		}
		found, external, err := e.page.ClickApply(ctx, rc.Board)
		if err != nil {
			return e.retryState(ctx, rs, StateLocatingApply, types.FailOther, err)
		}
		if found {
			if external {
				rc.ExternalRedirect = true
				if e.cfg.Verbose {
					log.Printf("[ENGINE] Apply click redirected to an external site")
				}
			}
			return StateDiscoveringForm, nil
		}
	}
	rc.RecordError("no apply action found after %d attempts", e.cfg.MaxLocateAttempts)
	return "", e.finalize(rc, types.StatusFailed, types.FailOther, false)
}

// discoverForm scans the page for form controls, classifies them, and builds
// the snapshot with its complexity bucket. Authentication gating the form
// routes to blocker resolution before any fields are counted.
func (e *Engine) discoverForm(ctx context.Context, rs *runState) (State, *types.Outcome) {
	rc := rs.rc

	gated, err := e.page.HasLoginWall(ctx)
	if err != nil {
		return e.retryState(ctx, rs, StateDiscoveringForm, types.FailFieldDetection, err)
	}
	if gated {
		rc.LoginRequired = true
		return StateResolvingBlockers, nil
	}

	fields, err := e.page.ScanFields(ctx)
	if err != nil {
		return e.retryState(ctx, rs, StateDiscoveringForm, types.FailFieldDetection, err)
	}
	if len(fields) == 0 {
		popup, perr := e.page.HasPopup(ctx)
		if perr == nil && popup {
			return StateResolvingBlockers, nil
		}
		return e.retryState(ctx, rs, StateDiscoveringForm, types.FailFieldDetection,
			errors.New("no form controls discovered"))
	}

	for i := range fields {
		kind, confidence := rs.registry.Classify(&fields[i])
		fields[i].Kind = kind
		fields[i].Confidence = confidence
	}

	rc.Snapshot = types.NewFormSnapshot(fields)
	rc.FieldsTotal = len(fields)
	if e.cfg.Verbose {
		log.Printf("[ENGINE] Discovered %d fields (%s form)", len(fields), rc.Snapshot.Complexity)
	}
	return StateResolvingBlockers, nil
}

// resolveBlockers processes detected blockers in priority order: login wall,
// then popup, then CAPTCHA. Unresolvable blockers terminate the run; attempts
// that leave a blocker in place count against the per-kind retry budget.
func (e *Engine) resolveBlockers(ctx context.Context, rs *runState) (State, *types.Outcome) {
	rc := rs.rc
	for _, b := range e.resolvers {
		if ctx.Err() != nil {
			return StateResolvingBlockers, nil
		}
		present, err := b.Detect(ctx, e.page)
		if err != nil {
			return e.retryState(ctx, rs, StateResolvingBlockers, types.FailOther, err)
		}
		if !present {
			continue
		}
		e.noteBlocker(rc, b.Kind())

		resolution, err := b.AttemptResolve(ctx, e.page)
		if err != nil {
			rc.RecordError("blocker %s resolve attempt: %v", b.Kind(), err)
		}
		switch resolution {
		case blockers.Resolved:
			if b.Kind() == blockers.KindPopup {
				rc.PopupResolved = true
			}
		case blockers.Unresolvable:
			rc.RecordError("blocker %s is unresolvable", b.Kind())
			preserved := b.Kind() == blockers.KindCaptcha
			return "", e.finalize(rc, types.StatusFailed, blockers.FailurePointFor(b.Kind()), preserved)
		case blockers.StillPresent:
			rs.blockerRetries[b.Kind()]++
			if rs.blockerRetries[b.Kind()] >= e.cfg.MaxBlockerRetries {
				rc.RecordError("blocker %s still present after %d attempts", b.Kind(), e.cfg.MaxBlockerRetries)
				return "", e.finalize(rc, types.StatusFailed, blockers.FailurePointFor(b.Kind()), false)
			}
			return StateResolvingBlockers, nil
		}
	}

	if rc.Snapshot == nil {
		return StateDiscoveringForm, nil
	}
	return StateFilling, nil
}

// noteBlocker records what was seen on the run context.
func (e *Engine) noteBlocker(rc *types.RunContext, kind blockers.Kind) {
	switch kind {
	case blockers.KindLoginWall:
		rc.LoginRequired = true
	case blockers.KindPopup:
		rc.PopupSeen = true
	case blockers.KindCaptcha:
		rc.CaptchaSeen = true
	}
}

// fillForm fills fields in discovery order, probing for newly revealed
// blockers between fields so a popup or CAPTCHA surfacing mid-fill routes
// back to resolution before filling resumes. Unknown fields are skipped and
// count against the filled ratio; they are never guessed.
func (e *Engine) fillForm(ctx context.Context, rs *runState) (State, *types.Outcome) {
	rc := rs.rc
	fields := rc.Snapshot.Fields

	for rs.fillIndex < len(fields) {
		if ctx.Err() != nil {
			return StateFilling, nil
		}
		field := &fields[rs.fillIndex]

		// The filler skips unknown kinds itself while still noting the
		// control, so later expansion rescans do not re-count it.
		if _, err := rs.filler.FillField(ctx, field); err != nil {
			return e.retryState(ctx, rs, StateFilling, types.FailOther, err)
		}
		rs.fillIndex++

		interrupted, err := e.blockerSurfaced(ctx, rc)
		if err != nil {
			return e.retryState(ctx, rs, StateFilling, types.FailOther, err)
		}
		if interrupted {
			return StateResolvingBlockers, nil
		}
	}

	if err := rs.filler.ExpandMultiEntrySections(ctx); err != nil {
		return e.retryState(ctx, rs, StateFilling, types.FailOther, err)
	}
	return StateDeciding, nil
}

// blockerSurfaced checks for blockers that can appear mid-fill.
func (e *Engine) blockerSurfaced(ctx context.Context, rc *types.RunContext) (bool, error) {
	captcha, err := e.page.HasCaptcha(ctx)
	if err != nil {
		return false, err
	}
	if captcha {
		return true, nil
	}
	popup, err := e.page.HasPopup(ctx)
	if err != nil {
		return false, err
	}
	return popup, nil
}

// decide makes the terminal choice. The default policy halts before the
// platform's final submission action so a human confirms. With auto-submit
// enabled, submission requires the configured fill-ratio threshold and no
// unclassified required fields; anything less awaits the user.
func (e *Engine) decide(ctx context.Context, rs *runState) *types.Outcome {
	rc := rs.rc

	if !e.cfg.AutoSubmit {
		return e.finalize(rc, types.StatusStoppedBeforeSubmit, "", true)
	}

	_, ratio := rc.FilledRatio()
	if ratio < e.cfg.AutoSubmitThreshold || hasUnknownRequired(rc.Snapshot) {
		return e.finalize(rc, types.StatusPartialUserActionNeeded, "", true)
	}

	if err := e.page.Submit(ctx, rc.Board); err != nil {
		rc.RecordError("submission failed: %v", err)
		return e.finalize(rc, types.StatusFailed, types.FailFormSubmission, true)
	}
	return e.finalize(rc, types.StatusAutoSubmitted, "", false)
}

// hasUnknownRequired reports whether any required field remained unclassified.
func hasUnknownRequired(snapshot *types.FormSnapshot) bool {
	if snapshot == nil {
		return false
	}
	for _, f := range snapshot.Fields {
		if f.Required && f.Kind == types.KindUnknown {
			return true
		}
	}
	return false
}

// retryState records an interaction error and re-enters the same state until
// the retry budget is exhausted, then escalates to a terminal failure.
func (e *Engine) retryState(ctx context.Context, rs *runState, state State, point types.FailurePoint, cause error) (State, *types.Outcome) {
	rc := rs.rc
	rc.RecordError("%s: %v", state, cause)

	rs.stateRetries[state]++
	if rs.stateRetries[state] >= e.cfg.MaxInteractionRetries {
		return "", e.finalize(rc, types.StatusFailed, point, false)
	}
	if e.cfg.Verbose {
		log.Printf("[ENGINE] Retrying %s after error (attempt %d/%d): %v",
			state, rs.stateRetries[state], e.cfg.MaxInteractionRetries, cause)
	}
	// Brief pause before re-entering the state, unless cancelled.
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
	}
	return state, nil
}

// finalize seals the run context into an immutable outcome.
func (e *Engine) finalize(rc *types.RunContext, status types.FinalStatus, point types.FailurePoint, preserved bool) *types.Outcome {
	rc.Elapsed = time.Since(rc.StartedAt)
	out := types.FinalizeOutcome(rc, status, point, preserved)
	if e.cfg.Verbose {
		display, _ := rc.FilledRatio()
		log.Printf("[ENGINE] Run finished: status=%s point=%s filled=%s elapsed=%s",
			out.FinalStatus, out.FailurePoint, display, rc.Elapsed.Round(time.Millisecond))
	}
	return out
}

// Describe returns a short human-readable summary of an outcome, used by the
// CLI progress output.
func Describe(out *types.Outcome) string {
	switch out.FinalStatus {
	case types.StatusAutoSubmitted:
		return fmt.Sprintf("submitted automatically (%s fields filled)", out.FillDisplay)
	case types.StatusStoppedBeforeSubmit:
		return fmt.Sprintf("filled %s fields, stopped before submission for review", out.FillDisplay)
	case types.StatusPartialUserActionNeeded:
		return fmt.Sprintf("filled %s fields, user action needed to finish", out.FillDisplay)
	default:
		return fmt.Sprintf("failed at %s (%s fields filled)", out.FailurePoint, out.FillDisplay)
	}
}
