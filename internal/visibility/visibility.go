// Package visibility answers "how can a human see this browser session right
// now", independent of where the automation executes. On a display-capable
// host the session is a native window; on a headless host the bridge
// provisions a virtual display streamed over a remote-desktop endpoint, and
// degrades to an unavailable handle when provisioning fails. Visibility never
// blocks or fails the engine.
package visibility

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/jonathan/apply-pilot/internal/types"
)

// Environment classifies the host's display capability. All downstream code
// branches only on this enum, never on raw platform checks, so tests can
// inject either value.
type Environment string

const (
	// DisplayCapable means a physical or desktop display is attached
	DisplayCapable Environment = "display_capable"
	// Headless means no display is attached (typical server host)
	Headless Environment = "headless"
)

// ProbeEnvironment classifies the current host. Desktop operating systems are
// taken as display-capable; on Linux the X11/Wayland display variables decide.
func ProbeEnvironment() Environment {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return DisplayCapable
	}
	if os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayCapable
	}
	return Headless
}

// Stream is a provisioned virtual display plus its attached remote-streaming
// server.
type Stream struct {
	// Display is the virtual display identifier (e.g. ":99") the browser
	// process should render into.
	Display string
	// Endpoint is the address a remote viewer connects to.
	Endpoint string

	stop func()
}

// Provisioner provisions virtual-display streams. The production
// implementation shells out to Xvfb and x11vnc; tests inject fakes.
type Provisioner interface {
	Provision(ctx context.Context) (*Stream, error)
}

// Bridge creates per-session visibility. One bridge instance serves one
// process; each session provisions and tears down its own resources so
// concurrent runs never contend on a display.
type Bridge struct {
	env         Environment
	provisioner Provisioner
	verbose     bool

	mu       sync.Mutex
	sessions map[string]*SessionVisibility
}

// NewBridge creates a bridge for the given environment. A nil provisioner in
// a headless environment always degrades to unavailable handles.
func NewBridge(env Environment, provisioner Provisioner, verbose bool) *Bridge {
	return &Bridge{
		env:         env,
		provisioner: provisioner,
		verbose:     verbose,
		sessions:    make(map[string]*SessionVisibility),
	}
}

// SessionVisibility is the visibility state of one browser session. Release
// is guaranteed idempotent: resources reach the released state exactly once
// regardless of how the session ends.
type SessionVisibility struct {
	handle types.VisibilityHandle
	stream *Stream

	releaseOnce sync.Once
	released    bool
	unregister  func()
}

// Establish sets up visibility for a new session. It never returns an error:
// any provisioning failure degrades to an Unavailable handle with a fallback
// message, and the browser session proceeds regardless.
func (b *Bridge) Establish(ctx context.Context, sessionID string) *SessionVisibility {
	sv := &SessionVisibility{}

	switch b.env {
	case DisplayCapable:
		sv.handle = types.VisibilityHandle{Mode: types.VisibilityNativeWindow}
	case Headless:
		sv.handle = b.provisionStream(ctx, sv)
	}

	b.mu.Lock()
	b.sessions[sessionID] = sv
	b.mu.Unlock()
	sv.unregister = func() {
		b.mu.Lock()
		delete(b.sessions, sessionID)
		b.mu.Unlock()
	}

	return sv
}

func (b *Bridge) provisionStream(ctx context.Context, sv *SessionVisibility) types.VisibilityHandle {
	if b.provisioner == nil {
		return unavailableHandle("no virtual-display provisioner configured")
	}
	stream, err := b.provisioner.Provision(ctx)
	if err != nil {
		if b.verbose {
			log.Printf("[VISIBILITY] Virtual display provisioning failed: %v", err)
		}
		return unavailableHandle(fmt.Sprintf("virtual display unavailable (%v)", err))
	}
	sv.stream = stream
	return types.VisibilityHandle{
		Mode:    types.VisibilityStreamedVirtualDisplay,
		Locator: stream.Endpoint,
	}
}

func unavailableHandle(reason string) types.VisibilityHandle {
	return types.VisibilityHandle{
		Mode: types.VisibilityUnavailable,
		FallbackMessage: reason +
			"; the session is still running on this host and can be observed by attaching to the browser process directly",
	}
}

// ActiveSessions reports how many sessions currently hold visibility
// resources, the bridge's teardown bookkeeping.
func (b *Bridge) ActiveSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Handle returns where the session can be observed.
func (sv *SessionVisibility) Handle() types.VisibilityHandle {
	return sv.handle
}

// Display returns the virtual display the browser should render into, or ""
// when no virtual display backs this session.
func (sv *SessionVisibility) Display() string {
	if sv.stream == nil {
		return ""
	}
	return sv.stream.Display
}

// AttachWindow records the native window locator once the browser is up.
// Only meaningful in native-window mode.
func (sv *SessionVisibility) AttachWindow(windowID string) {
	if sv.handle.Mode == types.VisibilityNativeWindow {
		sv.handle.Locator = windowID
	}
}

// Release tears down the session's visibility resources. Safe to call from
// any exit path, including error and cancellation; the actual teardown runs
// exactly once.
func (sv *SessionVisibility) Release() {
	sv.releaseOnce.Do(func() {
		if sv.stream != nil && sv.stream.stop != nil {
			sv.stream.stop()
		}
		if sv.unregister != nil {
			sv.unregister()
		}
		sv.released = true
	})
}

// Released reports whether teardown has run.
func (sv *SessionVisibility) Released() bool {
	return sv.released
}
