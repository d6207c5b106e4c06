// Package browser owns the live chromedp session for one application run and
// exposes the page primitives the engine, filler and blocker resolvers use.
package browser

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/apply-pilot/internal/types"
)

// DefaultActionTimeout bounds a single page interaction.
const DefaultActionTimeout = 30 * time.Second

// InteractionError represents a transient failure talking to the live page
// (stale locator, navigation interruption). The engine retries these within a
// bounded budget before escalating.
type InteractionError struct {
	Op      string
	Locator string
	Cause   error
}

func (e *InteractionError) Error() string {
	if e.Locator != "" {
		return fmt.Sprintf("interaction error during %s (%s): %v", e.Op, e.Locator, e.Cause)
	}
	return fmt.Sprintf("interaction error during %s: %v", e.Op, e.Cause)
}

func (e *InteractionError) Unwrap() error {
	return e.Cause
}

// Options configures a browser session.
type Options struct {
	// Headful runs Chrome with a visible window instead of headless mode.
	Headful bool
	// Display overrides the DISPLAY environment for the browser process, used
	// to point a headful Chrome at a virtual display.
	Display string
	// SlowMotion inserts a pause after each page interaction so a human
	// watching the session can follow along.
	SlowMotion time.Duration
	// Verbose enables debug logging of browser activity.
	Verbose bool
}

// Session wraps one exclusive chromedp browser context. One session is owned
// by exactly one in-flight run and is never shared.
type Session struct {
	ctx         context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
	opts        Options
}

// NewSession launches a browser and returns the owning session. The caller
// must Close the session on every exit path.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.Flag("disable-gpu", !opts.Headful),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.Display != "" {
		allocOpts = append(allocOpts, chromedp.Env("DISPLAY="+opts.Display))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	// Launch the browser eagerly so a missing Chrome binary surfaces here
	// rather than on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Session{
		ctx:         browserCtx,
		allocCancel: allocCancel,
		ctxCancel:   ctxCancel,
		opts:        opts,
	}, nil
}

// Close shuts the browser down. Safe to call once per session.
func (s *Session) Close() {
	s.ctxCancel()
	s.allocCancel()
}

// WindowID returns an identifier for the browser window usable as a
// native-window visibility locator.
func (s *Session) WindowID() string {
	if c := chromedp.FromContext(s.ctx); c != nil && c.Target != nil {
		return string(c.Target.TargetID)
	}
	return ""
}

// run executes chromedp actions with the per-action timeout, wrapping
// failures as interaction errors and honoring the slow-motion pause.
func (s *Session) run(ctx context.Context, op, locator string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, DefaultActionTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return &InteractionError{Op: op, Locator: locator, Cause: err}
		}
	}

	if s.opts.SlowMotion > 0 {
		time.Sleep(s.opts.SlowMotion)
	}
	return nil
}

// Navigate loads a URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, urlStr string) error {
	if s.opts.Verbose {
		log.Printf("[BROWSER] Navigating to %s", urlStr)
	}
	return s.run(ctx, "navigate", urlStr,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
	)
}

// CurrentURL returns the page's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, "location", "", chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// HTML returns the rendered outer HTML of the page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, "outer_html", "", chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

// ClickFirst clicks the first selector from the list that matches a visible
// element. Returns the selector that matched, or ok=false when none did.
func (s *Session) ClickFirst(ctx context.Context, selectors []string) (string, bool, error) {
	for _, sel := range selectors {
		err := s.run(ctx, "click", sel,
			chromedp.Click(sel, chromedp.NodeVisible),
			chromedp.Sleep(time.Second),
		)
		if err == nil {
			if s.opts.Verbose {
				log.Printf("[BROWSER] Clicked %s", sel)
			}
			return sel, true, nil
		}
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		// A non-matching selector is expected; keep trying the rest.
	}
	return "", false, nil
}

// ClickApply locates and triggers the job's apply action for the detected
// board. It reports whether the click landed on an external site.
func (s *Session) ClickApply(ctx context.Context, board types.JobBoardType) (found, externalRedirect bool, err error) {
	before, err := s.CurrentURL(ctx)
	if err != nil {
		return false, false, err
	}

	_, found, err = s.ClickFirst(ctx, ApplySelectors(board))
	if err != nil || !found {
		return found, false, err
	}

	after, err := s.CurrentURL(ctx)
	if err != nil {
		return true, false, err
	}
	return true, hostChanged(before, after), nil
}

// ScanFields scans the current page for form controls.
func (s *Session) ScanFields(ctx context.Context) ([]types.FormField, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return ParseFields(html)
}

// FillText clears a control and types the value into it.
func (s *Session) FillText(ctx context.Context, locator, value string) error {
	return s.run(ctx, "fill_text", locator,
		chromedp.Clear(locator),
		chromedp.SendKeys(locator, value),
	)
}

// CurrentValue reads a control's current value.
func (s *Session) CurrentValue(ctx context.Context, locator string) (string, error) {
	var value string
	if err := s.run(ctx, "read_value", locator, chromedp.Value(locator, &value)); err != nil {
		return "", err
	}
	return value, nil
}

// SelectOption sets a select-style control to the given value.
func (s *Session) SelectOption(ctx context.Context, locator, value string) error {
	return s.run(ctx, "select_option", locator,
		chromedp.SetValue(locator, value),
	)
}

// UploadFile attaches a local file to a file input.
func (s *Session) UploadFile(ctx context.Context, locator, path string) error {
	return s.run(ctx, "upload_file", locator,
		chromedp.SetUploadFiles(locator, []string{path}),
	)
}

// addEntrySelectors match the "add another" controls of repeatable sub-forms.
var addEntrySelectors = map[types.Section][]string{
	types.SectionWorkExperience: {
		"button[aria-label*='Add Another Work Experience']",
		"button[data-automation-id='Add Another']",
		"button[class*='add-experience']",
	},
	types.SectionEducation: {
		"button[aria-label*='Add Another Education']",
		"button[class*='add-education']",
	},
	types.SectionProjects: {
		"button[aria-label*='Add Another Project']",
		"button[class*='add-project']",
	},
}

// genericAddEntrySelectors are tried after the section-specific ones.
var genericAddEntrySelectors = []string{
	"button[aria-label*='Add another']",
	"button[class*='add-another']",
	"a[class*='add-another']",
}

// ClickAddEntry triggers the repeat control for a multi-entry section,
// reporting whether the page offered one.
func (s *Session) ClickAddEntry(ctx context.Context, section types.Section) (bool, error) {
	selectors := append(append([]string{}, addEntrySelectors[section]...), genericAddEntrySelectors...)
	_, ok, err := s.ClickFirst(ctx, selectors)
	return ok, err
}

// Submit triggers the platform's final submission action.
func (s *Session) Submit(ctx context.Context, board types.JobBoardType) error {
	_, ok, err := s.ClickFirst(ctx, SubmitSelectors(board))
	if err != nil {
		return err
	}
	if !ok {
		return &InteractionError{Op: "submit", Cause: fmt.Errorf("no submit control found")}
	}
	return nil
}

// hostChanged reports whether two URLs point at different hosts.
func hostChanged(before, after string) bool {
	b, err1 := url.Parse(before)
	a, err2 := url.Parse(after)
	if err1 != nil || err2 != nil {
		return false
	}
	return b.Host != "" && a.Host != "" && b.Host != a.Host
}
