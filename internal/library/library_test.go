package library

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chime/internal/sound"
)

// touch creates an empty file. The library only inspects names and
// metadata, so tests don't need real audio content.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func TestLibraryResolve_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "ding.wav")

	lib := New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())

	src, err := lib.Resolve("ding")
	require.NoError(t, err)
	assert.Equal(t, path, src.Path)
	assert.Nil(t, src.Volume)
	assert.Nil(t, src.Repeat)
	assert.Nil(t, src.Mode)
}

func TestLibraryResolve_ExtensionProbeOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ding.ogg")
	wavPath := touch(t, dir, "ding.wav")

	lib := New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())

	// wav comes before ogg in the probe order
	src, err := lib.Resolve("ding")
	require.NoError(t, err)
	assert.Equal(t, wavPath, src.Path)
}

func TestLibraryResolve_EarlierDirWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	firstPath := touch(t, first, "ding.wav")
	touch(t, second, "ding.wav")

	lib := New([]string{first, second}, nil)
	require.NoError(t, lib.Rescan())

	src, err := lib.Resolve("ding")
	require.NoError(t, err)
	assert.Equal(t, firstPath, src.Path)
}

func TestLibraryResolve_DirectPath(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "elsewhere.wav")

	lib := New(nil, nil)

	src, err := lib.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Path)
}

func TestLibraryResolve_NotFound(t *testing.T) {
	lib := New([]string{t.TempDir()}, nil)
	require.NoError(t, lib.Rescan())

	_, err := lib.Resolve("missing")
	assert.ErrorIs(t, err, sound.ErrSoundNotFound)
}

func TestLibraryResolve_UnscannedFile(t *testing.T) {
	dir := t.TempDir()
	lib := New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())

	// File added after the scan is still found by probing
	path := touch(t, dir, "late.wav")
	src, err := lib.Resolve("late")
	require.NoError(t, err)
	assert.Equal(t, path, src.Path)
}

func TestLibraryRescan_SkipsUnsupportedAndDirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ding.wav")
	touch(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	lib := New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())

	entries := lib.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "ding", entries[0].Name)
	assert.Positive(t, entries[0].Size)
	assert.WithinDuration(t, time.Now(), entries[0].ModTime, time.Minute)
}

func TestLibraryManifest_OverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "klaxon.ogg")

	manifestPath := filepath.Join(dir, "sounds.yaml")
	content := `
sounds:
  alert:
    file: klaxon.ogg
    volume: 80
    repeat: 2
    mode: continue
`
	require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0644))

	lib := New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())
	require.NoError(t, lib.LoadManifest(manifestPath))

	src, err := lib.Resolve("alert")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "klaxon.ogg"), src.Path)
	require.NotNil(t, src.Volume)
	assert.InDelta(t, 0.8, *src.Volume, 1e-9)
	require.NotNil(t, src.Repeat)
	assert.Equal(t, 2, *src.Repeat)
	require.NotNil(t, src.Mode)
	assert.Equal(t, sound.PlayModeContinue, *src.Mode)
}

func TestLibraryManifest_MissingFileIsNotAnError(t *testing.T) {
	lib := New(nil, nil)
	assert.NoError(t, lib.LoadManifest(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLibraryManifest_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sounds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sounds: ["), 0644))

	lib := New(nil, nil)
	assert.Error(t, lib.LoadManifest(path))
}

func TestLibraryManifest_InvalidMode(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "klaxon.ogg")
	path := filepath.Join(dir, "sounds.yaml")
	content := `
sounds:
  alert:
    file: klaxon.ogg
    mode: sideways
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lib := New([]string{dir}, nil)
	assert.Error(t, lib.LoadManifest(path))
}

func TestLibraryManifest_DanglingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sounds.yaml")
	content := `
sounds:
  alert:
    file: does-not-exist.ogg
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lib := New([]string{dir}, nil)
	require.NoError(t, lib.LoadManifest(path))

	_, err := lib.Resolve("alert")
	assert.ErrorIs(t, err, sound.ErrSoundNotFound)
}

func TestLibraryEntries_IncludesManifestSounds(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ding.wav")
	touch(t, dir, "klaxon.ogg")

	manifestPath := filepath.Join(dir, "sounds.yaml")
	content := `
sounds:
  alert:
    file: klaxon.ogg
`
	require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0644))

	lib := New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())
	require.NoError(t, lib.LoadManifest(manifestPath))

	entries := lib.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"alert", "ding", "klaxon"}, names)

	entry, ok := lib.Lookup("alert")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "klaxon.ogg"), entry.Path)
}

func TestWatcher_RescansOnChange(t *testing.T) {
	dir := t.TempDir()
	lib := New([]string{dir}, nil)
	require.NoError(t, lib.Rescan())

	var once sync.Once
	var changedPath string
	done := make(chan struct{})
	watcher, err := NewWatcher(lib, func(path string) {
		once.Do(func() {
			changedPath = path
			close(done)
		})
	})
	require.NoError(t, err)
	require.NoError(t, watcher.Start())
	defer func() { _ = watcher.Stop() }()

	path := touch(t, dir, "new.wav")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the new sound file")
	}
	assert.Equal(t, path, changedPath)

	_, ok := lib.Lookup("new")
	assert.True(t, ok, "library should know the new sound after rescan")
}
