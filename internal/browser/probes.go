// Package browser - probes.go detects known blockers in rendered page HTML.
package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// captchaMarkers are DOM fingerprints of the common CAPTCHA providers.
var captchaMarkers = []string{
	"g-recaptcha",
	"h-captcha",
	"cf-turnstile",
	"recaptcha/api",
	"hcaptcha.com",
	"arkoselabs",
}

// DetectCaptcha reports whether the page carries a CAPTCHA challenge. Pure
// function of the markup.
func DetectCaptcha(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// DetectLoginWall reports whether the page is gated behind authentication: a
// visible password input alongside sign-in wording.
func DetectLoginWall(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	if doc.Find(`input[type="password"]`).Length() == 0 {
		return false
	}
	lower := strings.ToLower(html)
	for _, phrase := range []string{"sign in", "log in", "login", "create account", "create an account"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return true
}

// popupSelectors match modal dialogs and overlay banners that obstruct the form.
var popupSelectors = []string{
	`[role="dialog"]`,
	`[role="alertdialog"]`,
	".modal.show",
	".modal.open",
	".cookie-banner",
	"#onetrust-banner-sdk",
	".popup-overlay",
}

// DetectPopup reports whether a modal or overlay banner is present.
func DetectPopup(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	for _, sel := range popupSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// popupDismissSelectors are tried in order when clearing a popup: explicit
// dismiss controls first, then accept buttons for cookie banners.
var popupDismissSelectors = []string{
	`[role="dialog"] button[aria-label="Close"]`,
	`[role="dialog"] button[aria-label="Dismiss"]`,
	".modal .close",
	".modal button.close",
	"#onetrust-accept-btn-handler",
	"button[id*='accept']",
	"button[class*='accept']",
	".cookie-banner button",
	".popup-overlay .close",
}

// HasLoginWall probes the live page for an authentication gate.
func (s *Session) HasLoginWall(ctx context.Context) (bool, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return false, err
	}
	return DetectLoginWall(html), nil
}

// HasCaptcha probes the live page for a CAPTCHA challenge.
func (s *Session) HasCaptcha(ctx context.Context) (bool, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return false, err
	}
	return DetectCaptcha(html), nil
}

// HasPopup probes the live page for a modal or overlay banner.
func (s *Session) HasPopup(ctx context.Context) (bool, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return false, err
	}
	return DetectPopup(html), nil
}

// DismissPopup tries the known dismiss patterns and reports whether one landed.
func (s *Session) DismissPopup(ctx context.Context) (bool, error) {
	_, ok, err := s.ClickFirst(ctx, popupDismissSelectors)
	return ok, err
}

// SubmitLogin fills the visible login form with session credentials and
// submits it. Credentials are used in-session only and never persisted.
func (s *Session) SubmitLogin(ctx context.Context, email, password string) error {
	emailSelectors := []string{
		`input[type="email"]`,
		`input[name="email"]`,
		`input[name="username"]`,
		`input[id*="email"]`,
	}
	var filled bool
	for _, sel := range emailSelectors {
		if err := s.FillText(ctx, sel, email); err == nil {
			filled = true
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if !filled {
		return &InteractionError{Op: "login", Cause: errNoLoginForm}
	}
	if err := s.FillText(ctx, `input[type="password"]`, password); err != nil {
		return err
	}
	_, ok, err := s.ClickFirst(ctx, []string{
		`button[type="submit"]`,
		`input[type="submit"]`,
		`button[id*="sign-in"], button[id*="login"]`,
	})
	if err != nil {
		return err
	}
	if !ok {
		return &InteractionError{Op: "login", Cause: errNoLoginForm}
	}
	return nil
}

// errNoLoginForm signals that the expected login controls were not present.
var errNoLoginForm = errors.New("no login form controls found")
