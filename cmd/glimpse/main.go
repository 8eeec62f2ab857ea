package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/glimpse/glimpse/internal/capture"
	"github.com/glimpse/glimpse/internal/config"
	"github.com/glimpse/glimpse/internal/control"
	"github.com/glimpse/glimpse/internal/daemon"
	"github.com/glimpse/glimpse/internal/database"
	"github.com/glimpse/glimpse/internal/monitor"
	"github.com/glimpse/glimpse/internal/search"
	"github.com/glimpse/glimpse/internal/web"
	"github.com/glimpse/glimpse/pkg/provider"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start":
		startDaemon()
	case "serve":
		serveDaemon()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "snapshot":
		takeSnapshot()
	case "erase":
		eraseRecent()
	case "probe":
		probeProvider()
	case "version":
		fmt.Printf("glimpse version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`glimpse - desktop activity screenshot timeline

Usage:
  glimpse <command> [options]

Commands:
  start              Start the capture daemon in the background
  serve              Run the capture daemon and web timeline in the foreground
  stop               Stop the capture daemon
  status             Show daemon status and the latest capture
  snapshot [label]   Take one screenshot of the primary monitor right now
  erase [minutes]    Erase captures from the last N minutes (default 5)
  probe              Test the display capture provider
  version            Show version information
  help               Show this help message

Examples:
  glimpse serve
  glimpse snapshot "manual check"
  glimpse erase 30
  glimpse stop

Environment Variables:
  GLIMPSE_CAPTURE_DIR        Root directory for stored screenshots
  GLIMPSE_DB_PATH            Database file path
  GLIMPSE_CAPTURE_INTERVAL   Periodic capture interval in seconds (0 disables)
  GLIMPSE_MAX_PER_MINUTE     Capture rate limit per minute (0 disables)
  GLIMPSE_MONITOR_FALLBACK   Allow full-monitor fallback (true/false)
  GLIMPSE_EXCLUDE_TITLES     Comma-separated title substrings to never capture
  GLIMPSE_WEB_HOST           Web server host
  GLIMPSE_WEB_PORT           Web server port

Version: %s
`, version)
}

// loadConfig resolves configuration from the TOML file (written with
// defaults on first run), then environment overrides.
func loadConfig() *config.Config {
	cfg := config.Default()
	if path := config.DefaultFilePath(); path != "" {
		loaded, err := config.LoadOrInit(path)
		if err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// openStore opens the record store and prepares the capture root. Both
// are fatal on failure: without them the daemon has nothing to do.
func openStore(cfg *config.Config) (*database.DB, *database.Repository) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := os.MkdirAll(cfg.Capture.Dir, 0755); err != nil {
		log.Fatalf("Failed to create capture directory: %v", err)
	}
	return db, database.NewRepository(db)
}

func startDaemon() {
	cfg := loadConfig()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	if os.Getenv("GLIMPSE_DAEMON_CHILD") != "1" {
		// Parent: re-exec ourselves detached and exit.
		cmd := exec.Command(os.Args[0], "start")
		cmd.Env = append(os.Environ(), "GLIMPSE_DAEMON_CHILD=1")
		cmd.Stdout = nil
		cmd.Stderr = nil
		if err := cmd.Start(); err != nil {
			log.Fatalf("Failed to start daemon: %v", err)
		}
		fmt.Printf("Daemon started (PID: %d)\n", cmd.Process.Pid)
		return
	}

	runDaemon(cfg, dm, false)
}

func serveDaemon() {
	cfg := loadConfig()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	runDaemon(cfg, dm, true)
}

// runDaemon wires the full pipeline: provider -> monitor -> event
// channel -> capture engine -> record store, plus the web API.
func runDaemon(cfg *config.Config, dm *daemon.Manager, withWeb bool) {
	db, repo := openStore(cfg)
	defer db.Close()

	prov, err := provider.New()
	if err != nil {
		log.Fatalf("No capture provider available: %v", err)
	}
	defer prov.Close()

	if err := dm.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	plane := control.New()
	engine := capture.NewEngine(cfg, repo, prov, plane)
	mon := monitor.New(prov, cfg.Monitor.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	go func() {
		if err := mon.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Monitor loop ended: %v", err)
		}
	}()

	if cfg.Capture.Interval > 0 {
		go func() {
			if err := mon.RunPeriodic(ctx, cfg.Capture.Interval); err != nil && err != context.Canceled {
				log.Printf("Periodic loop ended: %v", err)
			}
		}()
	}

	var server *web.Server
	if withWeb {
		index := search.NewIndex(cfg.Search.IndexPath)
		handler := web.NewHandler(cfg, repo, index, plane)
		server = web.NewServer(cfg, handler)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Web server failed: %v", err)
				cancel()
			}
		}()
	}

	log.Printf("Capturing window activity under %s", cfg.Capture.Dir)
	if err := engine.Run(ctx, mon.Events()); err != nil && err != context.Canceled {
		log.Printf("Capture loop ended: %v", err)
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web server shutdown failed: %v", err)
		}
	}
}

func stopDaemon() {
	cfg := loadConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)
	if err := dm.Stop(); err != nil {
		log.Fatalf("Failed to stop daemon: %v", err)
	}
	fmt.Println("Daemon stopped")
}

func showStatus() {
	cfg := loadConfig()

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		fmt.Printf("Daemon: running (PID: %d)\n", pid)
	} else {
		fmt.Println("Daemon: not running")
	}

	db, repo := openStore(cfg)
	defer db.Close()

	count, err := repo.CountActive()
	if err != nil {
		log.Fatalf("Failed to count captures: %v", err)
	}
	fmt.Printf("Captures: %d\n", count)

	latest, err := repo.Latest()
	if err != nil {
		log.Fatalf("Failed to fetch latest capture: %v", err)
	}
	if latest != nil {
		fmt.Printf("Latest: %s %q at %s\n", latest.EventType, latest.WindowTitle,
			latest.Timestamp.Local().Format(time.RFC3339))
	}
}

func takeSnapshot() {
	label := "manual"
	if len(os.Args) > 2 {
		label = os.Args[2]
	}

	cfg := loadConfig()
	db, repo := openStore(cfg)
	defer db.Close()

	prov, err := provider.New()
	if err != nil {
		log.Fatalf("No capture provider available: %v", err)
	}
	defer prov.Close()

	engine := capture.NewEngine(cfg, repo, prov, control.New())
	record, err := engine.Snapshot(label)
	if err != nil {
		log.Fatalf("Snapshot failed: %v", err)
	}

	fmt.Printf("Saved %dx%d snapshot to %s\n", record.Width, record.Height, record.ImagePath)
}

func eraseRecent() {
	minutes := 5
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 1 || n > 240 {
			log.Fatalf("Minutes must be a number between 1 and 240, got %q", os.Args[2])
		}
		minutes = n
	}

	cfg := loadConfig()
	db, repo := openStore(cfg)
	defer db.Close()

	deleted, err := repo.DeleteRecent(time.Duration(minutes) * time.Minute)
	if err != nil {
		log.Fatalf("Erase failed: %v", err)
	}
	fmt.Printf("Erased %d captures from the last %d minutes\n", deleted, minutes)
}

// probeProvider exercises the capture provider end to end so an operator
// can diagnose permission problems without starting the daemon.
func probeProvider() {
	fmt.Println("=== Capture provider probe ===")
	fmt.Printf("Display server: %s\n", provider.DetectDisplayServer())

	prov, err := provider.New()
	if err != nil {
		log.Fatalf("Provider unavailable: %v", err)
	}
	defer prov.Close()

	windows, err := prov.ListWindows()
	if err != nil {
		fmt.Printf("ListWindows failed: %v\n", err)
	} else {
		fmt.Printf("Found %d windows\n", len(windows))
		for i, w := range windows {
			if i >= 10 {
				fmt.Printf("  ... and %d more\n", len(windows)-10)
				break
			}
			fmt.Printf("  0x%x %q (app: %s, minimized: %v)\n", w.ID, w.Title, w.AppName, w.Minimized)
		}
	}

	focused, err := prov.FocusedWindow()
	if err != nil {
		fmt.Printf("FocusedWindow failed: %v\n", err)
	} else if focused == nil {
		fmt.Println("No focused window")
	} else {
		fmt.Printf("Focused: %q\n", focused.Title)
		if img, err := prov.CaptureWindow(focused.ID); err != nil {
			fmt.Printf("CaptureWindow failed: %v\n", err)
		} else {
			b := img.Bounds()
			fmt.Printf("Captured focused window: %dx%d\n", b.Dx(), b.Dy())
		}
	}

	monitors, err := prov.ListMonitors()
	if err != nil {
		fmt.Printf("ListMonitors failed: %v\n", err)
		return
	}
	fmt.Printf("Found %d monitors\n", len(monitors))
	if len(monitors) > 0 {
		if img, err := prov.CaptureMonitor(monitors[0].ID); err != nil {
			fmt.Printf("CaptureMonitor failed: %v\n", err)
		} else {
			b := img.Bounds()
			fmt.Printf("Captured monitor %q: %dx%d\n", monitors[0].Name, b.Dx(), b.Dy())
		}
	}

	fmt.Println("=== Probe complete ===")
}
