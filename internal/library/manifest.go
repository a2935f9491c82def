package library

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/chime/internal/sound"
)

// Manifest maps logical sound names to files with optional per-sound
// playback defaults. Loaded from a YAML file:
//
//	sounds:
//	  alert:
//	    file: alert.ogg
//	    volume: 80
//	    repeat: 2
//	    mode: continue
type Manifest struct {
	Sounds map[string]ManifestSound `yaml:"sounds"`
}

// ManifestSound is one manifest entry. File paths are absolute, ~-relative,
// or relative to the manifest's directory.
type ManifestSound struct {
	File   string  `yaml:"file"`
	Volume *int    `yaml:"volume"` // percent, 0-100
	Repeat *int    `yaml:"repeat"` // additional plays; -1 loops forever
	Mode   *string `yaml:"mode"`   // "reset" or "continue"

	// Directory of the manifest file, for resolving relative paths
	baseDir string
}

// LoadManifest reads sound definitions from a YAML manifest into the
// library. A missing file is not an error; a malformed one is.
func (l *Library) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	for name, ms := range manifest.Sounds {
		if ms.Mode != nil {
			if _, err := sound.ParsePlayMode(*ms.Mode); err != nil {
				return fmt.Errorf("manifest sound %q: %w", name, err)
			}
		}
		ms.baseDir = baseDir
		manifest.Sounds[name] = ms
	}

	l.mu.Lock()
	l.manifest = manifest.Sounds
	if l.manifest == nil {
		l.manifest = make(map[string]ManifestSound)
	}
	l.mu.Unlock()

	l.logger.Debug("manifest loaded", "path", path, "sounds", len(manifest.Sounds))
	return nil
}

// manifestPathLocked resolves a manifest entry's file path.
// Caller must hold l.mu.
func (l *Library) manifestPathLocked(ms ManifestSound) string {
	path := ms.File
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	if !filepath.IsAbs(path) && ms.baseDir != "" {
		// Prefer a search-dir hit for bare relative names
		for _, dir := range l.dirs {
			candidate := filepath.Join(dir, path)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		path = filepath.Join(ms.baseDir, path)
	}
	return path
}

// manifestSourceLocked converts a manifest entry into a playback source.
// Caller must hold l.mu.
func (l *Library) manifestSourceLocked(name string, ms ManifestSound) (sound.Source, error) {
	path := l.manifestPathLocked(ms)
	if _, err := os.Stat(path); err != nil {
		return sound.Source{}, fmt.Errorf("%w: %s (manifest file %s)", sound.ErrSoundNotFound, name, path)
	}

	src := sound.Source{Path: path}
	if ms.Volume != nil {
		gain := float64(*ms.Volume) / 100.0
		src.Volume = &gain
	}
	if ms.Repeat != nil {
		repeat := *ms.Repeat
		src.Repeat = &repeat
	}
	if ms.Mode != nil {
		mode, err := sound.ParsePlayMode(*ms.Mode)
		if err != nil {
			return sound.Source{}, err
		}
		src.Mode = &mode
	}
	return src, nil
}
