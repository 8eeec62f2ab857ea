package screen

import "image"

// Window describes one top-level window as reported by the display server.
type Window struct {
	ID        uint32
	Title     string
	AppName   string
	Minimized bool
}

// Monitor describes one physical display.
type Monitor struct {
	ID      uint32
	Name    string
	Primary bool
}

// Provider is the interface every display capture implementation must
// satisfy. All calls are fallible; availability typically depends on OS
// permissions, and callers are expected to treat failures as transient.
type Provider interface {
	// ListWindows returns all known top-level windows, ordered front to
	// back. Callers may treat the first non-minimized, titled window as
	// the focused one when FocusedWindow is unavailable.
	ListWindows() ([]Window, error)

	// FocusedWindow returns the window that currently holds input focus,
	// or nil when no titled, non-minimized window is focused.
	FocusedWindow() (*Window, error)

	// CaptureWindow rasterizes the window with the given ID.
	CaptureWindow(id uint32) (*image.RGBA, error)

	// ListMonitors returns all displays, primary first.
	ListMonitors() ([]Monitor, error)

	// CaptureMonitor rasterizes an entire display.
	CaptureMonitor(id uint32) (*image.RGBA, error)

	// IsAvailable checks if this provider can run on the current system.
	IsAvailable() bool

	// DisplayServer returns the display server type (e.g. "x11").
	DisplayServer() string

	// Close cleans up any resources used by the provider.
	Close() error
}
