package capture

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/glimpse/glimpse/internal/config"
	"github.com/glimpse/glimpse/internal/control"
	"github.com/glimpse/glimpse/internal/database"
	"github.com/glimpse/glimpse/internal/models"
	"github.com/glimpse/glimpse/internal/ratelimit"
	"github.com/glimpse/glimpse/pkg/screen"
)

// titleReplacer maps filesystem-reserved characters in window titles to
// underscores so titles can be embedded in capture filenames.
var titleReplacer = strings.NewReplacer(
	"|", "_", "\\", "_", ":", "_", "/", "_",
	"<", "_", ">", "_", "\"", "_", "?", "_", "*", "_",
)

// Engine turns one trigger event into at most one durably stored capture
// record. Policy gates run in a fixed order (pause, exclusion, rate),
// then a deterministic fallback chain picks the capture target. The
// engine is owned by a single consumer goroutine; only the control plane
// and the repository are shared with other threads.
type Engine struct {
	cfg      *config.Config
	repo     *database.Repository
	provider screen.Provider
	limiter  *ratelimit.Limiter
	plane    *control.Plane
}

func NewEngine(cfg *config.Config, repo *database.Repository, provider screen.Provider, plane *control.Plane) *Engine {
	return &Engine{
		cfg:      cfg,
		repo:     repo,
		provider: provider,
		limiter:  ratelimit.New(cfg.Capture.MaxPerMinute),
		plane:    plane,
	}
}

// Capture handles one background trigger (focus, title or interval).
// Pause and exclusion drops are silent and return (nil, nil): they are
// intentional filtering, not failure. Everything past the gates returns
// either a committed record or an error.
func (e *Engine) Capture(title, eventType string) (*models.CaptureRecord, error) {
	if e.plane.IsPaused() {
		return nil, nil
	}

	if e.cfg.ShouldExcludeTitle(title) {
		return nil, nil
	}

	if !e.limiter.TryConsume(time.Now()) {
		return nil, &RateLimitedError{Limit: e.limiter.Limit()}
	}

	img, monitorLabel, err := e.selectTarget(title)
	if err != nil {
		return nil, err
	}

	return e.persist(img, title, eventType, monitorLabel)
}

// Snapshot handles an explicit capture request. Unlike background
// triggers it fails loudly when paused, and it always captures the
// primary monitor rather than hunting for a window by title.
func (e *Engine) Snapshot(label string) (*models.CaptureRecord, error) {
	if e.plane.IsPaused() {
		return nil, ErrPaused
	}

	if !e.limiter.TryConsume(time.Now()) {
		return nil, &RateLimitedError{Limit: e.limiter.Limit()}
	}

	img, monitorLabel, err := e.captureMonitor()
	if err != nil {
		return nil, err
	}

	return e.persist(img, label, models.EventSnapshot, monitorLabel)
}

// selectTarget runs the capture fallback chain: first a window whose
// title matches the trigger exactly, then the primary monitor when
// fallback is enabled.
func (e *Engine) selectTarget(title string) (*image.RGBA, string, error) {
	if img := e.captureWindowByTitle(title); img != nil {
		return img, "", nil
	}

	if !e.cfg.Capture.AllowMonitorFallback {
		return nil, "", &NoTargetError{Title: title}
	}

	return e.captureMonitor()
}

// captureWindowByTitle returns the image of the first non-minimized
// window matching title, or nil when no window could be captured.
// Enumeration failures count as "no match" so the fallback chain decides
// what happens next.
func (e *Engine) captureWindowByTitle(title string) *image.RGBA {
	windows, err := e.provider.ListWindows()
	if err != nil {
		return nil
	}

	for _, w := range windows {
		if w.Title != title || w.Minimized {
			continue
		}
		img, err := e.provider.CaptureWindow(w.ID)
		if err != nil {
			continue
		}
		if b := img.Bounds(); b.Dx() > 0 && b.Dy() > 0 {
			return img
		}
	}
	return nil
}

func (e *Engine) captureMonitor() (*image.RGBA, string, error) {
	monitors, err := e.provider.ListMonitors()
	if err != nil {
		return nil, "", &ProviderError{Detail: "failed to list monitors", Cause: err}
	}
	if len(monitors) == 0 {
		return nil, "", &ProviderError{Detail: "no monitors available"}
	}

	primary := monitors[0]
	img, err := e.provider.CaptureMonitor(primary.ID)
	if err != nil {
		return nil, "", &ProviderError{Detail: fmt.Sprintf("failed to capture monitor %q", primary.Name), Cause: err}
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", &ProviderError{Detail: fmt.Sprintf("monitor capture returned zero dimensions %dx%d", b.Dx(), b.Dy())}
	}

	return img, primary.Name, nil
}

// persist writes the PNG first and inserts the record second. If the
// insert fails the orphan file stays on disk: an unreferenced file is
// harmless, a referenced-but-missing file would not be.
func (e *Engine) persist(img *image.RGBA, title, eventType, monitorLabel string) (*models.CaptureRecord, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	dir := filepath.Join(e.cfg.Capture.Dir, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create capture directory")
	}

	// The id suffix keeps filenames unique even for repeated identical
	// titles within the same instant.
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.png", eventType, titleReplacer.Replace(title), id))

	if err := writePNG(path, img); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	record := &models.CaptureRecord{
		ID:           id,
		Timestamp:    now,
		WindowTitle:  title,
		EventType:    eventType,
		ImagePath:    path,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		MonitorLabel: monitorLabel,
	}

	if err := e.repo.Insert(record); err != nil {
		return nil, errors.Wrapf(err, "image written to %s but record insert failed", path)
	}

	return record, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create image file %s", path)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to encode PNG")
	}

	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to flush image file %s", path)
	}
	return nil
}
