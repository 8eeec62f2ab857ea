package provider

import (
	"os"

	"github.com/pkg/errors"

	"github.com/glimpse/glimpse/pkg/provider/x11"
	"github.com/glimpse/glimpse/pkg/screen"
)

// New returns the capture provider for the current display server.
func New() (screen.Provider, error) {
	switch DetectDisplayServer() {
	case "x11":
		return x11.NewProvider()
	case "wayland":
		return nil, errors.New("wayland capture is not supported yet, run under X11 or XWayland")
	default:
		return nil, errors.New("no supported display server detected")
	}
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	// XWayland still exposes DISPLAY, so an X connection works there too.
	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	return "unknown"
}
