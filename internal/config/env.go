package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables.
// Environment variables override file and default values.
func LoadFromEnv(cfg *Config) {
	// Capture configuration
	if dir := os.Getenv("GLIMPSE_CAPTURE_DIR"); dir != "" {
		cfg.Capture.Dir = dir
	}

	if onFocus := os.Getenv("GLIMPSE_ON_FOCUS"); onFocus != "" {
		if val, err := strconv.ParseBool(onFocus); err == nil {
			cfg.Capture.OnFocus = val
		}
	}

	if onTitle := os.Getenv("GLIMPSE_ON_TITLE_CHANGE"); onTitle != "" {
		if val, err := strconv.ParseBool(onTitle); err == nil {
			cfg.Capture.OnTitleChange = val
		}
	}

	if interval := os.Getenv("GLIMPSE_CAPTURE_INTERVAL"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds >= 0 {
			cfg.Capture.Interval = time.Duration(seconds) * time.Second
		}
	}

	if maxPerMinute := os.Getenv("GLIMPSE_MAX_PER_MINUTE"); maxPerMinute != "" {
		if n, err := strconv.Atoi(maxPerMinute); err == nil && n >= 0 {
			cfg.Capture.MaxPerMinute = n
		}
	}

	if fallback := os.Getenv("GLIMPSE_MONITOR_FALLBACK"); fallback != "" {
		if val, err := strconv.ParseBool(fallback); err == nil {
			cfg.Capture.AllowMonitorFallback = val
		}
	}

	if excluded := os.Getenv("GLIMPSE_EXCLUDE_TITLES"); excluded != "" {
		var patterns []string
		for _, p := range strings.Split(excluded, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		cfg.Capture.ExcludeTitles = patterns
	}

	// Monitor configuration
	if poll := os.Getenv("GLIMPSE_POLL_INTERVAL_MS"); poll != "" {
		if ms, err := strconv.Atoi(poll); err == nil && ms > 0 {
			cfg.Monitor.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}

	// Database configuration
	if dbPath := os.Getenv("GLIMPSE_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Daemon configuration
	if pidFile := os.Getenv("GLIMPSE_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Web configuration
	if webHost := os.Getenv("GLIMPSE_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("GLIMPSE_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// New creates a new Config from defaults, the config file if one exists,
// and environment variable overrides, in that order.
func New() *Config {
	cfg := Default()
	if path := DefaultFilePath(); path != "" {
		if loaded, err := LoadFile(path); err == nil {
			cfg = loaded
		}
	}
	LoadFromEnv(cfg)
	return cfg
}
