package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/library"
	"github.com/jmylchreest/chime/internal/sound"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{"alert.wav", "ding.wav"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	lib := library.New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())

	cfg := config.DefaultConfig()
	cfg.Playback.Volume = 80

	controller := sound.NewController(sound.NewPlayer(nil, nil), lib, nil)
	return New(cfg, lib, controller)
}

func TestModel_ListsLibrarySounds(t *testing.T) {
	m := newTestModel(t)

	items := m.list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "alert", items[0].(soundItem).entry.Name)
	assert.Equal(t, "ding", items[1].(soundItem).entry.Name)
}

func TestModel_VolumeFromConfig(t *testing.T) {
	m := newTestModel(t)
	assert.InDelta(t, 0.8, m.volume, 1e-9)
}

func TestModel_SetVolumeClamps(t *testing.T) {
	m := newTestModel(t)

	m.setVolume(1.4)
	assert.Equal(t, 1.0, m.volume)

	m.setVolume(-0.2)
	assert.Equal(t, 0.0, m.volume)
	assert.Equal(t, "volume 0%", m.statusMsg)
}

func TestModel_WindowSizeMakesReady(t *testing.T) {
	m := newTestModel(t)
	assert.False(t, m.ready)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model := updated.(*Model)
	assert.True(t, model.ready)
	assert.NotEmpty(t, model.View())
}

func TestSoundItem_Markers(t *testing.T) {
	entry := library.Entry{Name: "ding", Path: "/tmp/ding.wav"}

	plain := soundItem{entry: entry}
	assert.Equal(t, "ding", plain.Title())

	paused := soundItem{entry: entry, paused: true}
	assert.Contains(t, paused.Title(), "⏸")

	playing := soundItem{entry: entry, playing: true}
	assert.Contains(t, playing.Title(), "▶")
}
