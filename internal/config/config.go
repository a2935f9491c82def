// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultVolume   = 100
	DefaultPlayMode = "reset"
	DefaultBusName  = "io.github.jmylchreest.chime"
)

// Config represents the chime configuration.
type Config struct {
	Sound    SoundConfig    `toml:"sound"`
	Playback PlaybackConfig `toml:"playback"`
	Daemon   DaemonConfig   `toml:"daemon"`
}

// SoundConfig holds sound lookup settings.
type SoundConfig struct {
	Dirs       []string `toml:"dirs"`       // Ordered search directories
	Manifest   string   `toml:"manifest"`   // YAML manifest path (empty = default)
	Extensions []string `toml:"extensions"` // Probe order for bare names
}

// PlaybackConfig holds playback defaults.
type PlaybackConfig struct {
	Volume  int      `toml:"volume"`   // Percent, 0-100
	Mode    string   `toml:"mode"`     // "reset" or "continue"
	FadeIn  Duration `toml:"fade_in"`  // Default fade-in (0 = none)
	FadeOut Duration `toml:"fade_out"` // Default fade-out for stops
}

// DaemonConfig holds chimed settings.
type DaemonConfig struct {
	BusName string `toml:"bus_name"` // D-Bus bus name to claim
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Sound: SoundConfig{
			Dirs: []string{
				SoundsPath(),
				"/usr/share/sounds/chime",
			},
			Manifest:   ManifestPath(),
			Extensions: []string{"wav", "ogg", "mp3", "flac"},
		},
		Playback: PlaybackConfig{
			Volume: DefaultVolume,
			Mode:   DefaultPlayMode,
		},
		Daemon: DaemonConfig{
			BusName: DefaultBusName,
		},
	}
}

// LinearVolume returns the configured volume as a linear gain (0.0 to 1.0).
func (c *Config) LinearVolume() float64 {
	v := c.Playback.Volume
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return float64(v) / 100.0
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "chime", "config.toml")
}

// ManifestPath returns the default path to the sound manifest.
func ManifestPath() string {
	return filepath.Join(filepath.Dir(ConfigPath()), "sounds.yaml")
}

// DataPath returns the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "chime")
}

// SoundsPath returns the default user sound directory.
func SoundsPath() string {
	return filepath.Join(DataPath(), "sounds")
}

// EnsureDataDir creates the data and sound directories if needed.
func EnsureDataDir() error {
	return os.MkdirAll(SoundsPath(), 0755)
}

// LoadConfig loads the configuration from the given path, merging over
// defaults. An empty path uses the default location; a missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the given path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
