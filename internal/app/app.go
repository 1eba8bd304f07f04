package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Deadolus/tschenggins-laempli/internal/backend"
	"github.com/Deadolus/tschenggins-laempli/internal/config"
	"github.com/Deadolus/tschenggins-laempli/internal/jenkins"
	"github.com/Deadolus/tschenggins-laempli/internal/prefs"
	"github.com/Deadolus/tschenggins-laempli/internal/station"
	"github.com/Deadolus/tschenggins-laempli/internal/status"
	"github.com/Deadolus/tschenggins-laempli/internal/ui"
	"github.com/Deadolus/tschenggins-laempli/internal/version"
	"github.com/Deadolus/tschenggins-laempli/internal/wifi"
)

// Options configure the laempli daemon.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/laempli/prefs.toml
	Headless   bool   // run without the terminal panel
}

// Run boots the lamp until the context is cancelled. A fully configured
// lamp supervises a backend connection; an unconfigured one only scans.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	// With the panel up the terminal belongs to the UI; logs go to the
	// file its log pane tails. Headless logs to stderr.
	closeLog, err := setupLogging(cfg, opts.Headless)
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("laempli starting",
		"version", version.String(),
		"station", cfg.StationName,
		"configured", cfg.Configured())

	st := station.NewNetStation(cfg.Interface)

	if !cfg.Configured() {
		slog.Warn("station or backend not configured, scanning only",
			"ssid_set", cfg.SSID != "",
			"password_set", cfg.Password != "",
			"url_set", cfg.BackendURL != "")
		return runScanOnly(ctx, st, cfg.ScanInterval)
	}

	parts, err := backend.SplitURL(cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("backend URL: %w", err)
	}

	registry := &jenkins.Registry{}
	board := &status.Board{}
	handler := backend.NewRealtimeHandler(registry, cfg.HeartbeatTimeout)

	sup, err := wifi.New(wifi.Options{
		Station: st,
		Handler: handler,
		Board:   board,
		URL:     cfg.BackendURL,
		Query: backend.Query{
			ClientID: clientID(cfg, st),
			Name:     cfg.StationName,
			SSID:     cfg.SSID,
			Version:  version.String(),
			MaxCh:    cfg.MaxChannels,
		},
		UserAgent:       "laempli/" + version.String(),
		LinkTimeout:     cfg.LinkTimeout,
		Reconnect:       cfg.Reconnect,
		ReconnectSlow:   cfg.ReconnectSlow,
		StableThreshold: cfg.StableThreshold,
	})
	if err != nil {
		return fmt.Errorf("init supervisor: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sup.Run(gctx)
		return nil
	})
	group.Go(func() error {
		monitor(gctx, sup, cfg.MonitorInterval)
		return nil
	})
	if !opts.Headless {
		group.Go(func() error {
			// Quitting the panel shuts the daemon down.
			defer cancel()
			err := ui.Run(ui.Options{
				Context:     gctx,
				Registry:    registry,
				Board:       board,
				State:       sup.State,
				BackendHost: parts.Host,
				StationName: cfg.StationName,
				MaxChannels: cfg.MaxChannels,
				LogPath:     cfg.LogFile,
				ThemeName:   userPrefs.Theme,
				PrefsPath:   opts.PrefsPath,
				Bell:        userPrefs.Bell,
			})
			if err != nil && gctx.Err() != nil {
				// Killed by shutdown, not a panel failure.
				return nil
			}
			return err
		})
	}
	return group.Wait()
}

// monitor logs the periodic status line, the port of the firmware's
// status monitor timer.
func monitor(ctx context.Context, sup *wifi.Supervisor, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sup.MonStatus(ctx)
		}
	}
}
