// Package main is the entry point for the chimed playback daemon.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/dbus"
	"github.com/jmylchreest/chime/internal/library"
	"github.com/jmylchreest/chime/internal/sound"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("chimed version", version)
		os.Exit(0)
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("chimed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if err := config.EnsureDataDir(); err != nil {
		logger.Warn("failed to create data directory", "error", err)
	}

	// Sound library
	lib := library.New(cfg.Sound.Dirs, logger)
	lib.SetExtensions(cfg.Sound.Extensions)
	if err := lib.Rescan(); err != nil {
		return err
	}
	if err := lib.LoadManifest(cfg.Sound.Manifest); err != nil {
		return err
	}

	// Playback
	player := sound.NewPlayer(nil, logger)
	controller := sound.NewController(player, lib, logger)
	controller.SetDefaultVolume(cfg.LinearVolume())
	defer controller.Close()

	// Invalidate decoded buffers when sound files change on disk
	watcher, err := library.NewWatcher(lib, func(path string) {
		player.InvalidateCache(path)
	})
	if err != nil {
		logger.Warn("file watching unavailable", "error", err)
	} else {
		if err := watcher.Start(); err != nil {
			logger.Warn("failed to start library watcher", "error", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	// Warm the cache for manifest sounds so triggers play promptly
	for _, entry := range lib.Entries() {
		if err := controller.Prepare(entry.Name); err != nil {
			logger.Debug("failed to preload sound", "name", entry.Name, "error", err)
		}
	}

	// D-Bus service
	server := dbus.NewServer(controller, cfg.Daemon.BusName, logger)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() { _ = server.Shutdown() }()

	logger.Info("chimed started", "version", version,
		"sounds", len(lib.Entries()), "bus_name", cfg.Daemon.BusName)

	// Wait for shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutting down", "signal", sig.String())
	controller.StopAll(cfg.Playback.FadeOut.Duration())
	return nil
}
