package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.Playback.Volume)
	assert.Equal(t, "reset", cfg.Playback.Mode)
	assert.Equal(t, time.Duration(0), cfg.Playback.FadeIn.Duration())
	assert.Equal(t, DefaultBusName, cfg.Daemon.BusName)
	assert.Equal(t, []string{"wav", "ogg", "mp3", "flac"}, cfg.Sound.Extensions)
	assert.NotEmpty(t, cfg.Sound.Dirs)
	assert.NotEmpty(t, cfg.Sound.Manifest)
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Playback.Volume, cfg.Playback.Volume)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[sound]
dirs = ["/opt/sounds", "/srv/sounds"]
manifest = "/opt/sounds/board.yaml"
extensions = ["ogg", "wav"]

[playback]
volume = 60
mode = "continue"
fade_in = "100ms"
fade_out = "2s"

[daemon]
bus_name = "org.example.chime"
`
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/opt/sounds", "/srv/sounds"}, cfg.Sound.Dirs)
	assert.Equal(t, "/opt/sounds/board.yaml", cfg.Sound.Manifest)
	assert.Equal(t, []string{"ogg", "wav"}, cfg.Sound.Extensions)
	assert.Equal(t, 60, cfg.Playback.Volume)
	assert.Equal(t, "continue", cfg.Playback.Mode)
	assert.Equal(t, 100*time.Millisecond, cfg.Playback.FadeIn.Duration())
	assert.Equal(t, 2*time.Second, cfg.Playback.FadeOut.Duration())
	assert.Equal(t, "org.example.chime", cfg.Daemon.BusName)
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[playback]
volume = 25
`
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Changed field
	assert.Equal(t, 25, cfg.Playback.Volume)

	// Unchanged fields should have defaults
	assert.Equal(t, "reset", cfg.Playback.Mode)
	assert.Equal(t, DefaultBusName, cfg.Daemon.BusName)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `this is not valid toml [`
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)

	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Playback.Volume = 42
	cfg.Playback.FadeOut = Duration(500 * time.Millisecond)

	err := cfg.Save(path)
	require.NoError(t, err)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Playback.Volume)
	assert.Equal(t, 500*time.Millisecond, loaded.Playback.FadeOut.Duration())
}

func TestConfig_LinearVolume(t *testing.T) {
	tests := []struct {
		volume   int
		expected float64
	}{
		{100, 1.0},
		{50, 0.5},
		{0, 0.0},
		{150, 1.0},
		{-10, 0.0},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Playback.Volume = tt.volume
		assert.InDelta(t, tt.expected, cfg.LinearVolume(), 1e-9)
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"250ms", 250 * time.Millisecond, false},
		{"2s", 2 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"500", 500 * time.Millisecond, false},
		{"0", 0, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Duration())
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/chime/config.toml", ConfigPath())
	assert.Equal(t, "/custom/config/chime/sounds.yaml", ManifestPath())
}

func TestDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, "/custom/data/chime", DataPath())
	assert.Equal(t, "/custom/data/chime/sounds", SoundsPath())
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	err := EnsureDataDir()
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "chime", "sounds"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
