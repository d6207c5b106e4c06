package types

// VisibilityMode describes how a human can observe a running browser session.
type VisibilityMode string

const (
	// VisibilityNativeWindow means the session renders in a window on an attached display
	VisibilityNativeWindow VisibilityMode = "native_window"
	// VisibilityStreamedVirtualDisplay means the session renders into a virtual
	// display that is streamed over a remote-desktop endpoint
	VisibilityStreamedVirtualDisplay VisibilityMode = "streamed_virtual_display"
	// VisibilityUnavailable means no way to observe the session could be established
	VisibilityUnavailable VisibilityMode = "unavailable"
)

// VisibilityHandle describes where one session can be observed right now.
// Created at session start by the visibility bridge and torn down with the session.
type VisibilityHandle struct {
	Mode VisibilityMode `json:"mode"`
	// Locator is a window identifier (NativeWindow) or stream endpoint address
	// (StreamedVirtualDisplay). Empty when Mode is Unavailable.
	Locator string `json:"locator,omitempty"`
	// FallbackMessage tells the human how to find the session when Mode is
	// Unavailable. Always non-empty in that case.
	FallbackMessage string `json:"fallback_message,omitempty"`
}
