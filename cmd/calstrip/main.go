package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"calstrip/internal/calendar"
	"calstrip/internal/capture"
	"calstrip/internal/config"
	appLog "calstrip/internal/log"
	"calstrip/internal/tui"
	"calstrip/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	tui        bool
	once       bool
	debug      bool
	logFile    string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"days", conf.Days,
		"events_per_day", conf.EventsPerDay,
		"item_extent", conf.ItemExtent,
		"overscan", conf.Overscan,
		"snapshot_cron", conf.Snapshot.Cron,
		"tui", flags.tui,
		"once", flags.once,
	)

	session, err := calendar.New(calendar.OptionsFromConfig(conf, time.Now()))
	if err != nil {
		appLog.Error("failed to create calendar session", err)
		os.Exit(1)
	}
	defer session.Close()

	if flags.tui {
		if err := runTUI(session, flags.logFile); err != nil {
			appLog.Error("terminal UI failed", err)
			os.Exit(1)
		}
		return
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	srv := web.NewServer(conf, session)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Run(ctx)
	}()

	captureOpts := capture.Options{
		URL:        "http://" + conf.Listen + web.CapturePath,
		OutputPath: conf.Snapshot.Path,
		Width:      conf.Snapshot.Width,
		Height:     conf.Snapshot.Height,
	}

	if flags.once {
		code := 0
		if err := captureOnce(ctx, conf, captureOpts); err != nil {
			appLog.Error("snapshot failed", err, "path", conf.Snapshot.Path)
			code = 1
		} else {
			appLog.Info("snapshot written", "path", conf.Snapshot.Path)
		}
		cancel()
		<-srvErr
		os.Exit(code)
	}

	if conf.Snapshot.Cron != "" {
		sched, err := capture.NewScheduler(conf.Snapshot.Cron, captureOpts)
		if err != nil {
			appLog.Error("invalid snapshot schedule", err, "cron", conf.Snapshot.Cron)
			os.Exit(1)
		}
		sched.Start(ctx)
		appLog.Info("snapshot schedule started", "cron", conf.Snapshot.Cron, "path", conf.Snapshot.Path)
	}

	if err := <-srvErr; err != nil {
		appLog.Error("HTTP server stopped", err)
		os.Exit(1)
	}
	appLog.Info("calstrip exiting")
}

// captureOnce waits for the local server to answer /health, then takes one
// snapshot.
func captureOnce(ctx context.Context, conf *config.Config, opts capture.Options) error {
	if err := waitHealthy(ctx, "http://"+conf.Listen+"/health", 10*time.Second); err != nil {
		return err
	}
	return capture.PagePNG(ctx, opts)
}

func waitHealthy(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return errors.New("server did not become healthy: " + ctx.Err().Error())
		case <-ticker.C:
		}
	}
}

// runTUI takes over the terminal; log lines would corrupt the screen, so
// they go to logFile or nowhere.
func runTUI(session *calendar.Session, logFile string) error {
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	appLog.SetOutput(out)
	defer appLog.SetOutput(os.Stderr)

	p := tea.NewProgram(tui.New(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.tui, "tui", false, "Run the terminal UI instead of the HTTP server")
	flag.BoolVar(&cfg.once, "once", false, "Capture one snapshot to snapshot.path and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&cfg.logFile, "log-file", "", "Log file for -tui (default: discard)")

	flag.Parse()

	return cfg
}
