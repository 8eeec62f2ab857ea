package x11

import (
	"encoding/binary"
	"fmt"
	"image"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/glimpse/glimpse/pkg/screen"
)

// Provider implements screen.Provider for X11
type Provider struct {
	conn  *xgb.Conn
	setup *xproto.SetupInfo
	root  xproto.Window
	atoms map[string]xproto.Atom
}

var atomNames = []string{
	"_NET_CLIENT_LIST_STACKING",
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_STATE",
	"_NET_WM_STATE_HIDDEN",
	"UTF8_STRING",
}

// NewProvider connects to the X server and interns the EWMH atoms the
// provider relies on.
func NewProvider() (*Provider, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	p := &Provider{
		conn:  conn,
		setup: setup,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		p.atoms[name] = reply.Atom
	}

	return p, nil
}

// IsAvailable checks if an X server answers on this connection.
func (p *Provider) IsAvailable() bool {
	return p.conn != nil && len(p.setup.Roots) > 0
}

// DisplayServer returns "x11"
func (p *Provider) DisplayServer() string {
	return "x11"
}

func (p *Provider) Close() error {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	return nil
}

func (p *Provider) getProperty(window xproto.Window, atom xproto.Atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(p.conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (p *Provider) windowTitle(id xproto.Window) string {
	data, err := p.getProperty(id, p.atoms["_NET_WM_NAME"], p.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = p.getProperty(id, xproto.AtomWmName, xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (p *Provider) windowAppName(id xproto.Window) string {
	data, err := p.getProperty(id, xproto.AtomWmClass, xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return ""
	}

	// WM_CLASS is "instance\0class\0"; the instance is the app name.
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func (p *Provider) windowMinimized(id xproto.Window) bool {
	data, err := p.getProperty(id, p.atoms["_NET_WM_STATE"], xproto.AtomAtom, 64)
	if err != nil {
		return false
	}
	hidden := p.atoms["_NET_WM_STATE_HIDDEN"]
	for i := 0; i+4 <= len(data); i += 4 {
		if xproto.Atom(binary.LittleEndian.Uint32(data[i:])) == hidden {
			return true
		}
	}
	return false
}

func (p *Provider) describe(id xproto.Window) screen.Window {
	return screen.Window{
		ID:        uint32(id),
		Title:     p.windowTitle(id),
		AppName:   p.windowAppName(id),
		Minimized: p.windowMinimized(id),
	}
}

// ListWindows enumerates managed windows front to back using the EWMH
// stacking list, which the window manager keeps bottom-to-top.
func (p *Provider) ListWindows() ([]screen.Window, error) {
	data, err := p.getProperty(p.root, p.atoms["_NET_CLIENT_LIST_STACKING"], xproto.AtomWindow, 1024)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read client stacking list")
	}

	count := len(data) / 4
	windows := make([]screen.Window, 0, count)
	for i := count - 1; i >= 0; i-- {
		id := xproto.Window(binary.LittleEndian.Uint32(data[i*4:]))
		if id == 0 {
			continue
		}
		windows = append(windows, p.describe(id))
	}
	return windows, nil
}

// FocusedWindow returns the window the window manager reports as active.
// When _NET_ACTIVE_WINDOW is unset it falls back to the front of the
// stacking order.
func (p *Provider) FocusedWindow() (*screen.Window, error) {
	data, err := p.getProperty(p.root, p.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err == nil && len(data) >= 4 {
		if id := xproto.Window(binary.LittleEndian.Uint32(data)); id != 0 {
			w := p.describe(id)
			if w.Title != "" && !w.Minimized {
				return &w, nil
			}
		}
	}

	windows, err := p.ListWindows()
	if err != nil {
		return nil, err
	}
	for _, w := range windows {
		if w.Title != "" && !w.Minimized {
			return &w, nil
		}
	}
	return nil, nil
}

// CaptureWindow rasterizes a window's current contents.
func (p *Provider) CaptureWindow(id uint32) (*image.RGBA, error) {
	drawable := xproto.Drawable(id)
	geom, err := xproto.GetGeometry(p.conn, drawable).Reply()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get geometry for window 0x%x", id)
	}
	return p.captureDrawable(drawable, int(geom.Width), int(geom.Height))
}

// ListMonitors returns the X screens, primary (default) first.
func (p *Provider) ListMonitors() ([]screen.Monitor, error) {
	monitors := make([]screen.Monitor, 0, len(p.setup.Roots))
	for i := range p.setup.Roots {
		monitors = append(monitors, screen.Monitor{
			ID:      uint32(i),
			Name:    fmt.Sprintf("screen-%d", i),
			Primary: i == 0,
		})
	}
	return monitors, nil
}

// CaptureMonitor rasterizes an entire X screen.
func (p *Provider) CaptureMonitor(id uint32) (*image.RGBA, error) {
	if int(id) >= len(p.setup.Roots) {
		return nil, errors.Errorf("no such monitor: %d", id)
	}
	root := &p.setup.Roots[id]
	return p.captureDrawable(xproto.Drawable(root.Root), int(root.WidthInPixels), int(root.HeightInPixels))
}

func (p *Provider) captureDrawable(drawable xproto.Drawable, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("drawable has invalid dimensions %dx%d", width, height)
	}

	reply, err := xproto.GetImage(p.conn, xproto.ImageFormatZPixmap, drawable,
		0, 0, uint16(width), uint16(height), 0xffffffff).Reply()
	if err != nil {
		return nil, errors.Wrap(err, "GetImage failed")
	}

	if len(reply.Data) < width*height*4 {
		return nil, errors.Errorf("short image data: got %d bytes for %dx%d", len(reply.Data), width, height)
	}

	// ZPixmap data at depth 24/32 is BGRx per pixel.
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		src := i * 4
		dst := i * 4
		img.Pix[dst+0] = reply.Data[src+2]
		img.Pix[dst+1] = reply.Data[src+1]
		img.Pix[dst+2] = reply.Data[src+0]
		img.Pix[dst+3] = 0xff
	}
	return img, nil
}
