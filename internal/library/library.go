// Package library resolves logical sound names to audio files.
// Sounds are found by probing ordered search directories for known audio
// extensions, optionally overridden by a YAML manifest that can also carry
// per-sound playback defaults.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/chime/internal/sound"
)

// DefaultExtensions is the probe order for bare sound names.
var DefaultExtensions = []string{".wav", ".ogg", ".mp3", ".flac"}

// Entry describes one sound known to the library.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Library maps sound names to files across ordered search directories.
type Library struct {
	mu     sync.RWMutex
	logger *slog.Logger

	dirs       []string
	extensions []string

	// Manifest entries keyed by name; they win over directory scans
	manifest map[string]ManifestSound

	// Scanned index keyed by name
	index map[string]Entry
}

// New creates a library over the given search directories.
func New(dirs []string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}

	return &Library{
		logger:     logger,
		dirs:       dirs,
		extensions: DefaultExtensions,
		manifest:   make(map[string]ManifestSound),
		index:      make(map[string]Entry),
	}
}

// SetExtensions overrides the extension probe order.
func (l *Library) SetExtensions(exts []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, strings.ToLower(ext))
	}
	l.extensions = normalized
}

// Dirs returns the search directories.
func (l *Library) Dirs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.dirs...)
}

// Rescan rebuilds the name index from the search directories.
// Directories that do not exist are skipped silently. Earlier directories
// win on name collisions.
func (l *Library) Rescan() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := make(map[string]Entry)
	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				l.logger.Warn("failed to read sound directory", "dir", dir, "error", err)
			}
			continue
		}

		for _, de := range entries {
			if de.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(de.Name()))
			if !l.supportedLocked(ext) {
				continue
			}

			name := strings.TrimSuffix(de.Name(), filepath.Ext(de.Name()))
			if _, exists := index[name]; exists {
				continue
			}

			info, err := de.Info()
			if err != nil {
				continue
			}
			index[name] = Entry{
				Name:    name,
				Path:    filepath.Join(dir, de.Name()),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}
		}
	}

	l.index = index
	l.logger.Debug("library rescanned", "sounds", len(index), "dirs", len(l.dirs))
	return nil
}

// supportedLocked reports whether an extension is playable.
// Caller must hold l.mu.
func (l *Library) supportedLocked(ext string) bool {
	for _, e := range l.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Resolve maps a name to a playable source. Manifest entries take
// precedence over the directory index; a name containing a path separator
// or a supported extension is treated as a file path.
func (l *Library) Resolve(name string) (sound.Source, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if ms, ok := l.manifest[name]; ok {
		return l.manifestSourceLocked(name, ms)
	}

	if entry, ok := l.index[name]; ok {
		return sound.Source{Path: entry.Path}, nil
	}

	// Accept direct paths so callers can bypass the library
	if strings.ContainsRune(name, os.PathSeparator) || l.supportedLocked(strings.ToLower(filepath.Ext(name))) {
		if _, err := os.Stat(name); err == nil {
			return sound.Source{Path: name}, nil
		}
	}

	// Probe search directories for names added since the last rescan
	for _, dir := range l.dirs {
		for _, ext := range l.extensions {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return sound.Source{Path: path}, nil
			}
		}
	}

	return sound.Source{}, fmt.Errorf("%w: %s", sound.ErrSoundNotFound, name)
}

// Entries returns all known sounds sorted by name, with manifest-only
// sounds included.
func (l *Library) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byName := make(map[string]Entry, len(l.index))
	for name, entry := range l.index {
		byName[name] = entry
	}
	for name, ms := range l.manifest {
		path := l.manifestPathLocked(ms)
		entry := Entry{Name: name, Path: path}
		if info, err := os.Stat(path); err == nil {
			entry.Size = info.Size()
			entry.ModTime = info.ModTime()
		}
		byName[name] = entry
	}

	entries := make([]Entry, 0, len(byName))
	for _, entry := range byName {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Lookup returns the entry for a single name, if known.
func (l *Library) Lookup(name string) (Entry, bool) {
	for _, entry := range l.Entries() {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}
