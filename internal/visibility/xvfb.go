// Package visibility - xvfb.go provisions Xvfb virtual displays with an
// attached x11vnc streaming server.
package visibility

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync/atomic"
	"time"
)

// baseDisplayNum is the first X display number used for virtual displays.
// Each provisioned stream takes the next number so concurrent runs never
// share a display.
const baseDisplayNum = 99

// startupWait gives Xvfb time to create its display socket before the
// streaming server attaches.
const startupWait = 500 * time.Millisecond

var nextDisplay atomic.Int64

// XvfbProvisioner provisions an Xvfb virtual display and streams it with
// x11vnc. Both binaries must be installed on the host; a missing binary is a
// provisioning failure the bridge degrades from, never a fatal error.
type XvfbProvisioner struct {
	// ScreenSize is the virtual screen geometry, e.g. "1920x1080x24".
	ScreenSize string
	Verbose    bool
}

// NewXvfbProvisioner returns a provisioner with the default screen geometry.
func NewXvfbProvisioner(verbose bool) *XvfbProvisioner {
	return &XvfbProvisioner{ScreenSize: "1920x1080x24", Verbose: verbose}
}

// Provision starts Xvfb and x11vnc for one session. The returned stream's
// teardown kills both processes.
func (p *XvfbProvisioner) Provision(ctx context.Context) (*Stream, error) {
	xvfbPath, err := exec.LookPath("Xvfb")
	if err != nil {
		return nil, fmt.Errorf("Xvfb not found: %w", err)
	}
	vncPath, err := exec.LookPath("x11vnc")
	if err != nil {
		return nil, fmt.Errorf("x11vnc not found: %w", err)
	}

	displayNum := baseDisplayNum + int(nextDisplay.Add(1)) - 1
	display := fmt.Sprintf(":%d", displayNum)
	vncPort := 5900 + displayNum

	xvfb := exec.CommandContext(ctx, xvfbPath, display, "-screen", "0", p.ScreenSize, "-nolisten", "tcp")
	if err := xvfb.Start(); err != nil {
		return nil, fmt.Errorf("failed to start Xvfb on %s: %w", display, err)
	}
	if p.Verbose {
		log.Printf("[VISIBILITY] Xvfb started on %s (pid %d)", display, xvfb.Process.Pid)
	}

	time.Sleep(startupWait)

	vnc := exec.CommandContext(ctx, vncPath,
		"-display", display,
		"-rfbport", fmt.Sprintf("%d", vncPort),
		"-forever", "-shared", "-nopw", "-quiet",
	)
	if err := vnc.Start(); err != nil {
		_ = xvfb.Process.Kill()
		_, _ = xvfb.Process.Wait()
		return nil, fmt.Errorf("failed to start x11vnc for %s: %w", display, err)
	}
	if p.Verbose {
		log.Printf("[VISIBILITY] x11vnc streaming %s on port %d (pid %d)", display, vncPort, vnc.Process.Pid)
	}

	stop := func() {
		_ = vnc.Process.Kill()
		_, _ = vnc.Process.Wait()
		_ = xvfb.Process.Kill()
		_, _ = xvfb.Process.Wait()
		if p.Verbose {
			log.Printf("[VISIBILITY] Released virtual display %s", display)
		}
	}

	return &Stream{
		Display:  display,
		Endpoint: fmt.Sprintf("vnc://localhost:%d", vncPort),
		stop:     stop,
	}, nil
}
