package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Capture.OnFocus)
	assert.True(t, cfg.Capture.OnTitleChange)
	assert.Equal(t, time.Duration(0), cfg.Capture.Interval)
	assert.Equal(t, 20, cfg.Capture.MaxPerMinute)
	assert.True(t, cfg.Capture.AllowMonitorFallback)
	assert.Equal(t, 200*time.Millisecond, cfg.Monitor.PollInterval)
	assert.True(t, cfg.Search.Enabled)
	assert.Equal(t, "127.0.0.1", cfg.Web.Host)
	assert.Equal(t, 8787, cfg.Web.Port)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty capture dir", func(c *Config) { c.Capture.Dir = "" }},
		{"negative rate limit", func(c *Config) { c.Capture.MaxPerMinute = -1 }},
		{"negative interval", func(c *Config) { c.Capture.Interval = -time.Second }},
		{"blank exclusion pattern", func(c *Config) { c.Capture.ExcludeTitles = []string{"  "} }},
		{"zero poll interval", func(c *Config) { c.Monitor.PollInterval = 0 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"search enabled without index path", func(c *Config) { c.Search.IndexPath = "" }},
		{"port too low", func(c *Config) { c.Web.Port = 0 }},
		{"port too high", func(c *Config) { c.Web.Port = 70000 }},
		{"empty host", func(c *Config) { c.Web.Host = "" }},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestShouldExcludeTitle(t *testing.T) {
	cfg := Default()
	cfg.Capture.ExcludeTitles = []string{"private", "Banking"}

	assert.True(t, cfg.ShouldExcludeTitle("My Private Tab"))
	assert.True(t, cfg.ShouldExcludeTitle("PRIVATE"))
	assert.True(t, cfg.ShouldExcludeTitle("online banking portal"))
	assert.False(t, cfg.ShouldExcludeTitle("Editor - main.go"))
	assert.False(t, cfg.ShouldExcludeTitle(""))
}

func TestShouldExcludeTitle_NoPatterns(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.ShouldExcludeTitle("anything"))
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("GLIMPSE_CAPTURE_DIR", "/tmp/captures")
	t.Setenv("GLIMPSE_ON_FOCUS", "false")
	t.Setenv("GLIMPSE_ON_TITLE_CHANGE", "false")
	t.Setenv("GLIMPSE_CAPTURE_INTERVAL", "30")
	t.Setenv("GLIMPSE_MAX_PER_MINUTE", "5")
	t.Setenv("GLIMPSE_MONITOR_FALLBACK", "false")
	t.Setenv("GLIMPSE_EXCLUDE_TITLES", "private, banking ,")
	t.Setenv("GLIMPSE_POLL_INTERVAL_MS", "500")
	t.Setenv("GLIMPSE_DB_PATH", "/tmp/glimpse.db")
	t.Setenv("GLIMPSE_PID_FILE", "/tmp/test.pid")
	t.Setenv("GLIMPSE_WEB_HOST", "0.0.0.0")
	t.Setenv("GLIMPSE_WEB_PORT", "9000")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, "/tmp/captures", cfg.Capture.Dir)
	assert.False(t, cfg.Capture.OnFocus)
	assert.False(t, cfg.Capture.OnTitleChange)
	assert.Equal(t, 30*time.Second, cfg.Capture.Interval)
	assert.Equal(t, 5, cfg.Capture.MaxPerMinute)
	assert.False(t, cfg.Capture.AllowMonitorFallback)
	assert.Equal(t, []string{"private", "banking"}, cfg.Capture.ExcludeTitles)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.PollInterval)
	assert.Equal(t, "/tmp/glimpse.db", cfg.Database.Path)
	assert.Equal(t, "/tmp/test.pid", cfg.Daemon.PIDFile)
	assert.Equal(t, "0.0.0.0", cfg.Web.Host)
	assert.Equal(t, 9000, cfg.Web.Port)
}

func TestLoadFromEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("GLIMPSE_ON_FOCUS", "not-a-bool")
	t.Setenv("GLIMPSE_MAX_PER_MINUTE", "-3")
	t.Setenv("GLIMPSE_POLL_INTERVAL_MS", "0")
	t.Setenv("GLIMPSE_WEB_PORT", "99999")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.True(t, cfg.Capture.OnFocus)
	assert.Equal(t, 20, cfg.Capture.MaxPerMinute)
	assert.Equal(t, 200*time.Millisecond, cfg.Monitor.PollInterval)
	assert.Equal(t, 8787, cfg.Web.Port)
}

func TestLoadOrInit_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glimpse", "config.toml")

	cfg, err := LoadOrInit(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.FileExists(t, path)

	// A second load reads the file just written and agrees with it.
	reloaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Capture.Dir, reloaded.Capture.Dir)
	assert.Equal(t, cfg.Capture.MaxPerMinute, reloaded.Capture.MaxPerMinute)
	assert.Equal(t, cfg.Monitor.PollInterval, reloaded.Monitor.PollInterval)
	assert.Equal(t, cfg.Web.Port, reloaded.Web.Port)
}

func TestWriteFile_RoundTripsEveryField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Capture.Dir = "/data/captures"
	cfg.Capture.OnFocus = false
	cfg.Capture.Interval = 45 * time.Second
	cfg.Capture.MaxPerMinute = 7
	cfg.Capture.AllowMonitorFallback = false
	cfg.Capture.ExcludeTitles = []string{"secret"}
	cfg.Monitor.PollInterval = 350 * time.Millisecond
	cfg.Database.Path = "/data/glimpse.db"
	cfg.Search.Enabled = false
	cfg.Web.Port = 9090

	require.NoError(t, WriteFile(path, cfg))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/captures", loaded.Capture.Dir)
	assert.False(t, loaded.Capture.OnFocus)
	assert.Equal(t, 45*time.Second, loaded.Capture.Interval)
	assert.Equal(t, 7, loaded.Capture.MaxPerMinute)
	assert.False(t, loaded.Capture.AllowMonitorFallback)
	assert.Equal(t, []string{"secret"}, loaded.Capture.ExcludeTitles)
	assert.Equal(t, 350*time.Millisecond, loaded.Monitor.PollInterval)
	assert.Equal(t, "/data/glimpse.db", loaded.Database.Path)
	assert.False(t, loaded.Search.Enabled)
	assert.Equal(t, 9090, loaded.Web.Port)
}
