package provider

import (
	"testing"
)

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		want           string
	}{
		{
			name:        "X11 session",
			sessionType: "x11",
			x11Display:  ":0",
			want:        "x11",
		},
		{
			name:       "X11 display only",
			x11Display: ":1",
			want:       "x11",
		},
		{
			name:           "XWayland exposes DISPLAY",
			sessionType:    "wayland",
			waylandDisplay: "wayland-0",
			x11Display:     ":0",
			want:           "x11",
		},
		{
			name:        "Wayland session without DISPLAY",
			sessionType: "wayland",
			want:        "wayland",
		},
		{
			name:           "Wayland display only",
			waylandDisplay: "wayland-1",
			want:           "wayland",
		},
		{
			name: "Nothing set",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			if got := DetectDisplayServer(); got != tt.want {
				t.Errorf("DetectDisplayServer() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Logf("New() returned error (may be expected off-desktop): %v", err)
		return
	}
	defer p.Close()

	if p.DisplayServer() != "x11" {
		t.Errorf("DisplayServer() = %s, want x11", p.DisplayServer())
	}

	if !p.IsAvailable() {
		t.Error("IsAvailable() = false for a freshly constructed provider")
	}
}
