package capture

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimpse/glimpse/internal/config"
	"github.com/glimpse/glimpse/internal/control"
	"github.com/glimpse/glimpse/internal/database"
	"github.com/glimpse/glimpse/internal/models"
	"github.com/glimpse/glimpse/pkg/screen"
)

// fakeProvider is a scriptable display capture provider.
type fakeProvider struct {
	windows     []screen.Window
	windowImage *image.RGBA
	windowErr   error

	monitors     []screen.Monitor
	monitorImage *image.RGBA
	monitorErr   error

	listWindowsErr  error
	listMonitorsErr error
}

func (f *fakeProvider) ListWindows() ([]screen.Window, error) {
	return f.windows, f.listWindowsErr
}

func (f *fakeProvider) FocusedWindow() (*screen.Window, error) {
	if len(f.windows) == 0 {
		return nil, nil
	}
	return &f.windows[0], nil
}

func (f *fakeProvider) CaptureWindow(uint32) (*image.RGBA, error) {
	return f.windowImage, f.windowErr
}

func (f *fakeProvider) ListMonitors() ([]screen.Monitor, error) {
	return f.monitors, f.listMonitorsErr
}

func (f *fakeProvider) CaptureMonitor(uint32) (*image.RGBA, error) {
	return f.monitorImage, f.monitorErr
}

func (f *fakeProvider) IsAvailable() bool     { return true }
func (f *fakeProvider) DisplayServer() string { return "fake" }
func (f *fakeProvider) Close() error          { return nil }

func rgba(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

type engineEnv struct {
	engine   *Engine
	db       *database.DB
	repo     *database.Repository
	provider *fakeProvider
	plane    *control.Plane
	cfg      *config.Config
}

func newEngineEnv(t *testing.T, mutate func(*config.Config)) *engineEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Capture.Dir = t.TempDir()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Capture.MaxPerMinute = 0
	if mutate != nil {
		mutate(cfg)
	}

	db, err := database.Connect(cfg.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Initialize())

	repo := database.NewRepository(db)
	provider := &fakeProvider{
		windows:      []screen.Window{{ID: 1, Title: "Notes"}},
		windowImage:  rgba(100, 100),
		monitors:     []screen.Monitor{{ID: 0, Name: "screen-0", Primary: true}},
		monitorImage: rgba(1920, 1080),
	}
	plane := control.New()

	return &engineEnv{
		engine:   NewEngine(cfg, repo, provider, plane),
		db:       db,
		repo:     repo,
		provider: provider,
		plane:    plane,
		cfg:      cfg,
	}
}

func (env *engineEnv) recordCount(t *testing.T) int64 {
	t.Helper()
	count, err := env.repo.CountActive()
	require.NoError(t, err)
	return count
}

func TestCapture_WindowMatchProducesRecordAndFile(t *testing.T) {
	env := newEngineEnv(t, nil)

	record, err := env.engine.Capture("Notes", models.EventFocus)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, models.EventFocus, record.EventType)
	assert.Equal(t, "Notes", record.WindowTitle)
	assert.Equal(t, 100, record.Width)
	assert.Equal(t, 100, record.Height)
	assert.Empty(t, record.MonitorLabel, "window path must not set a monitor label")
	assert.FileExists(t, record.ImagePath)

	// File lands in the zero-padded date partition under the capture dir.
	rel, err := filepath.Rel(env.cfg.Capture.Dir, record.ImagePath)
	require.NoError(t, err)
	now := time.Now().UTC()
	assert.Equal(t, filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02")), filepath.Dir(rel))
	assert.True(t, strings.HasPrefix(filepath.Base(rel), "focus_Notes_"))

	got, err := env.repo.GetByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ImagePath, got.ImagePath)
}

func TestCapture_TitleIsNormalizedInFilename(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.provider.windows = []screen.Window{{ID: 1, Title: `a|b\c:d/e<f>g"h?i*j`}}

	record, err := env.engine.Capture(`a|b\c:d/e<f>g"h?i*j`, models.EventFocus)
	require.NoError(t, err)
	require.NotNil(t, record)

	base := filepath.Base(record.ImagePath)
	assert.True(t, strings.HasPrefix(base, "focus_a_b_c_d_e_f_g_h_i_j_"))
	// The raw title survives in the record itself.
	assert.Equal(t, `a|b\c:d/e<f>g"h?i*j`, record.WindowTitle)
}

func TestCapture_MonitorFallbackTagsLabel(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.provider.windows = nil

	record, err := env.engine.Capture("Missing", models.EventTitle)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, models.EventTitle, record.EventType, "event type is unchanged by the fallback path")
	assert.Equal(t, "screen-0", record.MonitorLabel)
	assert.Equal(t, 1920, record.Width)
	assert.Equal(t, 1080, record.Height)
}

func TestCapture_MinimizedWindowIsSkipped(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.provider.windows = []screen.Window{{ID: 1, Title: "Notes", Minimized: true}}

	record, err := env.engine.Capture("Notes", models.EventFocus)
	require.NoError(t, err)
	require.NotNil(t, record)

	// Only the monitor fallback remained.
	assert.Equal(t, "screen-0", record.MonitorLabel)
}

func TestCapture_ZeroDimensionWindowFallsBack(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.provider.windowImage = rgba(0, 0)

	record, err := env.engine.Capture("Notes", models.EventFocus)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "screen-0", record.MonitorLabel)
}

func TestCapture_NoTargetWhenFallbackDisabled(t *testing.T) {
	env := newEngineEnv(t, func(cfg *config.Config) {
		cfg.Capture.AllowMonitorFallback = false
	})
	env.provider.windows = nil

	record, err := env.engine.Capture("Missing", models.EventFocus)
	assert.Nil(t, record)

	var noTarget *NoTargetError
	require.ErrorAs(t, err, &noTarget)
	assert.Equal(t, "Missing", noTarget.Title)

	// No record, no file.
	assert.Equal(t, int64(0), env.recordCount(t))
	entries, readErr := os.ReadDir(env.cfg.Capture.Dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestCapture_EmptyMonitorListIsProviderError(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.provider.windows = nil
	env.provider.monitors = nil

	_, err := env.engine.Capture("Missing", models.EventFocus)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, int64(0), env.recordCount(t))
}

func TestCapture_ZeroDimensionMonitorImageIsProviderError(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.provider.windows = nil
	env.provider.monitorImage = rgba(0, 0)

	_, err := env.engine.Capture("Missing", models.EventFocus)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestCapture_PausedBackgroundTriggerDropsSilently(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.plane.SetPaused(true)

	record, err := env.engine.Capture("Notes", models.EventFocus)
	assert.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, int64(0), env.recordCount(t))
}

func TestSnapshot_PausedFailsLoudly(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.plane.SetPaused(true)

	_, err := env.engine.Snapshot("manual")
	assert.ErrorIs(t, err, ErrPaused)
}

func TestSnapshot_CapturesPrimaryMonitor(t *testing.T) {
	env := newEngineEnv(t, nil)

	record, err := env.engine.Snapshot("manual")
	require.NoError(t, err)

	assert.Equal(t, models.EventSnapshot, record.EventType)
	assert.Equal(t, "manual", record.WindowTitle)
	assert.Equal(t, "screen-0", record.MonitorLabel)
	assert.FileExists(t, record.ImagePath)
}

func TestCapture_ExclusionGateIsCaseInsensitiveAndSilent(t *testing.T) {
	env := newEngineEnv(t, func(cfg *config.Config) {
		cfg.Capture.ExcludeTitles = []string{"private"}
	})
	env.provider.windows = []screen.Window{{ID: 1, Title: "My PRIVATE Banking"}}

	record, err := env.engine.Capture("My PRIVATE Banking", models.EventFocus)
	assert.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, int64(0), env.recordCount(t))
}

func TestCapture_RateLimitReportsCeiling(t *testing.T) {
	env := newEngineEnv(t, func(cfg *config.Config) {
		cfg.Capture.MaxPerMinute = 1
	})

	record, err := env.engine.Capture("Notes", models.EventFocus)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 100, record.Width)
	assert.Equal(t, 100, record.Height)

	env.provider.windows = []screen.Window{{ID: 2, Title: "Other"}}
	_, err = env.engine.Capture("Other", models.EventFocus)

	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 1, limited.Limit)
	assert.Equal(t, int64(1), env.recordCount(t))
}

func TestCapture_ExcludedTitleDoesNotConsumeRateBudget(t *testing.T) {
	env := newEngineEnv(t, func(cfg *config.Config) {
		cfg.Capture.MaxPerMinute = 1
		cfg.Capture.ExcludeTitles = []string{"secret"}
	})

	record, err := env.engine.Capture("secret window", models.EventFocus)
	assert.NoError(t, err)
	assert.Nil(t, record)

	// The exclusion drop happened before the rate gate, so the budget is
	// still available.
	record, err = env.engine.Capture("Notes", models.EventFocus)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestCapture_InsertFailureLeavesFileOnDisk(t *testing.T) {
	env := newEngineEnv(t, nil)

	// Closing the database makes the record insert fail after the image
	// has already been written.
	require.NoError(t, env.db.Close())

	record, err := env.engine.Capture("Notes", models.EventFocus)
	require.Error(t, err)
	assert.Nil(t, record)
	assert.Contains(t, err.Error(), "record insert failed")

	// The image file survives the failed insert.
	var files []string
	walkErr := filepath.WalkDir(env.cfg.Capture.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, walkErr)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(filepath.Base(files[0]), "focus_Notes_"))
}

func TestCapture_WindowEnumerationFailureFallsBack(t *testing.T) {
	env := newEngineEnv(t, nil)
	env.provider.listWindowsErr = errors.New("permission denied")

	record, err := env.engine.Capture("Notes", models.EventFocus)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "screen-0", record.MonitorLabel)
}
