package library

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the library's search directories and reports changed
// audio files so callers can invalidate decoded caches.
type Watcher struct {
	watcher *fsnotify.Watcher
	library *Library

	// Called with the path of each changed or removed audio file
	onChange func(path string)

	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher over the library's directories.
func NewWatcher(library *Library, onChange func(path string)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		library:  library,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the library directories for changes.
// Directories that do not exist are skipped.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.library.Dirs() {
		if err := w.watcher.Add(dir); err != nil {
			slog.Debug("not watching sound directory", "dir", dir, "error", err)
		}
	}

	go w.watch()
	return nil
}

// watch is the main watch loop.
func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			ext := strings.ToLower(filepath.Ext(event.Name))
			w.library.mu.RLock()
			supported := w.library.supportedLocked(ext)
			w.library.mu.RUnlock()
			if !supported {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				slog.Debug("sound file changed, rescanning library", "file", event.Name)
				if err := w.library.Rescan(); err != nil {
					slog.Warn("failed to rescan library", "error", err)
				}
				if w.onChange != nil {
					w.onChange(event.Name)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("library watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.done)
	return w.watcher.Close()
}
