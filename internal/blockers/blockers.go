// Package blockers detects and attempts to clear the known obstruction kinds
// (login walls, popups, CAPTCHAs) that stand between the engine and the form.
package blockers

import (
	"context"

	"github.com/jonathan/apply-pilot/internal/types"
)

// Resolution is the result of one resolve attempt.
type Resolution string

const (
	// Resolved means the blocker is gone and filling can continue
	Resolved Resolution = "resolved"
	// StillPresent means the attempt did not clear the blocker; counts
	// against the bounded retry budget
	StillPresent Resolution = "still_present"
	// Unresolvable means no number of retries will clear the blocker
	Unresolvable Resolution = "unresolvable"
)

// Kind names a blocker category. Resolution priority is login wall first,
// then popups, then CAPTCHA.
type Kind string

const (
	// KindLoginWall is an authentication gate
	KindLoginWall Kind = "login_wall"
	// KindPopup is a modal dialog or overlay banner
	KindPopup Kind = "popup"
	// KindCaptcha is a CAPTCHA challenge
	KindCaptcha Kind = "captcha"
)

// Page is the subset of browser session behavior blocker resolvers need.
type Page interface {
	HasLoginWall(ctx context.Context) (bool, error)
	HasCaptcha(ctx context.Context) (bool, error)
	HasPopup(ctx context.Context) (bool, error)
	DismissPopup(ctx context.Context) (bool, error)
	SubmitLogin(ctx context.Context, email, password string) error
}

// Blocker is one obstruction kind. Detection and resolution are separate so
// the engine can record what it saw even when resolution is impossible.
type Blocker interface {
	Kind() Kind
	Detect(ctx context.Context, page Page) (bool, error)
	AttemptResolve(ctx context.Context, page Page) (Resolution, error)
}

// Credentials are session-scoped login credentials. They are used for the
// login flow only and never retained or transmitted beyond it.
type Credentials struct {
	Email    string
	Password string
}

// Empty reports whether no credentials are available to the run.
func (c Credentials) Empty() bool {
	return c.Email == "" || c.Password == ""
}

// DefaultResolvers returns the blocker list in resolution priority order.
func DefaultResolvers(creds Credentials) []Blocker {
	return []Blocker{
		&LoginWall{Creds: creds},
		&Popup{},
		&Captcha{},
	}
}

// LoginWall clears an authentication gate using session credentials. With no
// credentials available it is unresolvable.
type LoginWall struct {
	Creds Credentials
}

// Kind implements Blocker.
func (b *LoginWall) Kind() Kind { return KindLoginWall }

// Detect implements Blocker.
func (b *LoginWall) Detect(ctx context.Context, page Page) (bool, error) {
	return page.HasLoginWall(ctx)
}

// AttemptResolve implements Blocker.
func (b *LoginWall) AttemptResolve(ctx context.Context, page Page) (Resolution, error) {
	if b.Creds.Empty() {
		return Unresolvable, nil
	}
	if err := page.SubmitLogin(ctx, b.Creds.Email, b.Creds.Password); err != nil {
		return StillPresent, err
	}
	present, err := page.HasLoginWall(ctx)
	if err != nil {
		return StillPresent, err
	}
	if present {
		return StillPresent, nil
	}
	return Resolved, nil
}

// Popup dismisses modal dialogs and overlay banners best-effort.
type Popup struct{}

// Kind implements Blocker.
func (b *Popup) Kind() Kind { return KindPopup }

// Detect implements Blocker.
func (b *Popup) Detect(ctx context.Context, page Page) (bool, error) {
	return page.HasPopup(ctx)
}

// AttemptResolve implements Blocker.
func (b *Popup) AttemptResolve(ctx context.Context, page Page) (Resolution, error) {
	dismissed, err := page.DismissPopup(ctx)
	if err != nil {
		return StillPresent, err
	}
	if !dismissed {
		return StillPresent, nil
	}
	present, err := page.HasPopup(ctx)
	if err != nil {
		return StillPresent, err
	}
	if present {
		return StillPresent, nil
	}
	return Resolved, nil
}

// Captcha is always unresolvable. No solving is attempted; the engine
// surfaces it instead of looping on it.
type Captcha struct{}

// Kind implements Blocker.
func (b *Captcha) Kind() Kind { return KindCaptcha }

// Detect implements Blocker.
func (b *Captcha) Detect(ctx context.Context, page Page) (bool, error) {
	return page.HasCaptcha(ctx)
}

// AttemptResolve implements Blocker.
func (b *Captcha) AttemptResolve(_ context.Context, _ Page) (Resolution, error) {
	return Unresolvable, nil
}

// FailurePointFor maps a blocker kind to the failure point recorded when it
// terminates a run.
func FailurePointFor(kind Kind) types.FailurePoint {
	switch kind {
	case KindLoginWall:
		return types.FailAuth
	case KindCaptcha:
		return types.FailCaptcha
	default:
		return types.FailOther
	}
}
