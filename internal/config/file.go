package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// fileConfig is the on-disk TOML schema. Durations are plain numbers
// (seconds or milliseconds) so the file stays hand-editable.
type fileConfig struct {
	CaptureDir           string   `toml:"capture_dir"`
	DBPath               string   `toml:"db_path"`
	CaptureOnFocus       bool     `toml:"capture_on_focus"`
	CaptureOnTitleChange bool     `toml:"capture_on_title_change"`
	CaptureIntervalMS    int64    `toml:"capture_interval_ms"`
	MaxCapturesPerMinute int      `toml:"max_captures_per_minute"`
	AllowMonitorFallback bool     `toml:"allow_monitor_fallback"`
	ExcludeTitles        []string `toml:"exclude_titles"`
	ExcludeApps          []string `toml:"exclude_apps"`
	PollIntervalMS       int64    `toml:"poll_interval_ms"`
	SearchIndexPath      string   `toml:"search_index_path"`
	EnableSearchIndex    bool     `toml:"enable_search_index"`
	WebHost              string   `toml:"web_host"`
	WebPort              int      `toml:"web_port"`
	PIDFile              string   `toml:"pid_file"`
}

// DefaultFilePath returns the conventional config file location, or ""
// when the user config directory cannot be resolved.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "glimpse", "config.toml")
}

// LoadFile reads a TOML config file and overlays it on the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	fc := toFile(cfg)

	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %s", path)
	}

	fromFile(fc, cfg)
	return cfg, nil
}

// LoadOrInit reads the config file if it exists; otherwise it writes the
// defaults to path so a first run leaves an editable file behind.
func LoadOrInit(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadFile(path)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to stat config file %s", path)
	}

	cfg := Default()
	if err := WriteFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteFile persists cfg as TOML, creating parent directories as needed.
func WriteFile(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create config file %s", path)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(toFile(cfg)); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return nil
}

func toFile(cfg *Config) fileConfig {
	return fileConfig{
		CaptureDir:           cfg.Capture.Dir,
		DBPath:               cfg.Database.Path,
		CaptureOnFocus:       cfg.Capture.OnFocus,
		CaptureOnTitleChange: cfg.Capture.OnTitleChange,
		CaptureIntervalMS:    cfg.Capture.Interval.Milliseconds(),
		MaxCapturesPerMinute: cfg.Capture.MaxPerMinute,
		AllowMonitorFallback: cfg.Capture.AllowMonitorFallback,
		ExcludeTitles:        cfg.Capture.ExcludeTitles,
		ExcludeApps:          cfg.Capture.ExcludeApps,
		PollIntervalMS:       cfg.Monitor.PollInterval.Milliseconds(),
		SearchIndexPath:      cfg.Search.IndexPath,
		EnableSearchIndex:    cfg.Search.Enabled,
		WebHost:              cfg.Web.Host,
		WebPort:              cfg.Web.Port,
		PIDFile:              cfg.Daemon.PIDFile,
	}
}

func fromFile(fc fileConfig, cfg *Config) {
	cfg.Capture.Dir = fc.CaptureDir
	cfg.Database.Path = fc.DBPath
	cfg.Capture.OnFocus = fc.CaptureOnFocus
	cfg.Capture.OnTitleChange = fc.CaptureOnTitleChange
	cfg.Capture.Interval = time.Duration(fc.CaptureIntervalMS) * time.Millisecond
	cfg.Capture.MaxPerMinute = fc.MaxCapturesPerMinute
	cfg.Capture.AllowMonitorFallback = fc.AllowMonitorFallback
	cfg.Capture.ExcludeTitles = fc.ExcludeTitles
	cfg.Capture.ExcludeApps = fc.ExcludeApps
	if fc.PollIntervalMS > 0 {
		cfg.Monitor.PollInterval = time.Duration(fc.PollIntervalMS) * time.Millisecond
	}
	cfg.Search.IndexPath = fc.SearchIndexPath
	cfg.Search.Enabled = fc.EnableSearchIndex
	cfg.Web.Host = fc.WebHost
	cfg.Web.Port = fc.WebPort
	cfg.Daemon.PIDFile = fc.PIDFile
}
