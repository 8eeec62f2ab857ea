package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Capture behavior configuration
	Capture CaptureConfig

	// Monitor (focus polling) configuration
	Monitor MonitorConfig

	// Database configuration
	Database DatabaseConfig

	// Search configuration
	Search SearchConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig
}

// CaptureConfig holds screenshot capture policy
type CaptureConfig struct {
	Dir                  string        // Root directory for stored PNGs
	OnFocus              bool          // Capture when focus changes
	OnTitleChange        bool          // Capture when the focused window's title changes
	Interval             time.Duration // Periodic capture cadence, 0 disables
	MaxPerMinute         int           // Rate limit, 0 disables
	AllowMonitorFallback bool          // Fall back to the primary monitor when no window matches
	ExcludeTitles        []string      // Case-insensitive title substrings that are never captured
	ExcludeApps          []string      // Declared for config compatibility; not consulted yet
}

// MonitorConfig holds focus-transition polling configuration
type MonitorConfig struct {
	PollInterval time.Duration // How often to probe the focused window
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// SearchConfig holds substring-search configuration
type SearchConfig struct {
	Enabled   bool
	IndexPath string // Defaults to the database path
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string
	Port int
}

// Default returns a Config with sensible default values
func Default() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Capture: CaptureConfig{
			Dir:                  filepath.Join(dataDir, "captures"),
			OnFocus:              true,
			OnTitleChange:        true,
			Interval:             0, // Disabled by default
			MaxPerMinute:         20,
			AllowMonitorFallback: true,
			ExcludeTitles:        []string{},
			ExcludeApps:          []string{},
		},
		Monitor: MonitorConfig{
			PollInterval: 200 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "glimpse.db"),
		},
		Search: SearchConfig{
			Enabled:   true,
			IndexPath: filepath.Join(dataDir, "glimpse.db"),
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/glimpse-%d.pid", os.Getuid()),
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(homeDir, ".local", "share", "glimpse")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capture.Dir == "" {
		return fmt.Errorf("capture directory cannot be empty")
	}

	if c.Capture.MaxPerMinute < 0 {
		return fmt.Errorf("max captures per minute cannot be negative, got %d", c.Capture.MaxPerMinute)
	}

	if c.Capture.Interval < 0 {
		return fmt.Errorf("capture interval cannot be negative")
	}

	for _, pattern := range c.Capture.ExcludeTitles {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclusion patterns cannot be blank")
		}
	}

	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Monitor.PollInterval)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.Search.Enabled && c.Search.IndexPath == "" {
		return fmt.Errorf("search index path cannot be empty when search is enabled")
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// ShouldExcludeTitle reports whether a window title matches any configured
// exclusion substring, case-insensitively.
func (c *Config) ShouldExcludeTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, pattern := range c.Capture.ExcludeTitles {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Capture:
    Dir: %s
    On Focus: %v
    On Title Change: %v
    Interval: %v
    Max Per Minute: %d
    Monitor Fallback: %v
    Excluded Titles: %d
  Monitor:
    Poll Interval: %v
  Database:
    Path: %s
  Search:
    Enabled: %v
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d`,
		c.Capture.Dir,
		c.Capture.OnFocus,
		c.Capture.OnTitleChange,
		c.Capture.Interval,
		c.Capture.MaxPerMinute,
		c.Capture.AllowMonitorFallback,
		len(c.Capture.ExcludeTitles),
		c.Monitor.PollInterval,
		c.Database.Path,
		c.Search.Enabled,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
	)
}
