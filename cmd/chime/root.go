// Package main provides the CLI entrypoint for chime.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/library"
	"github.com/jmylchreest/chime/internal/sound"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chime",
	Short: "Named sound playback for Linux desktops",
	Long: `chime plays named sounds from a library of audio files.

Sounds are looked up by name across configured directories, with
per-sound volume, repeat and play-mode defaults from an optional
manifest. A running chimed daemon is used when available so sounds
can be stopped and faded after the fact.

Running chime without a subcommand launches the soundboard TUI.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logging
		setupLogger()

		// Load configuration
		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
	// Default to the TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/chime/config.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// openLibrary builds the sound library from the configuration.
func openLibrary() (*library.Library, error) {
	lib := library.New(cfg.Sound.Dirs, logger)
	lib.SetExtensions(cfg.Sound.Extensions)

	if err := lib.Rescan(); err != nil {
		return nil, fmt.Errorf("failed to scan sound directories: %w", err)
	}
	if err := lib.LoadManifest(cfg.Sound.Manifest); err != nil {
		return nil, err
	}
	return lib, nil
}

// newController builds an in-process controller over the library.
func newController(lib *library.Library) *sound.Controller {
	player := sound.NewPlayer(nil, logger)
	controller := sound.NewController(player, lib, logger)
	controller.SetDefaultVolume(cfg.LinearVolume())
	return controller
}
