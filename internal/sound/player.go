package sound

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Player decodes and plays audio files through an Engine.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger
	engine Engine

	// Master volume (0.0 to 1.0), applied to unmanaged playback
	volume float64

	// Whether the engine has been initialized
	initialized bool

	// Sample rate the engine was initialized at
	sampleRate beep.SampleRate

	// Decoded sound cache
	cache      map[string]*cachedSound
	cacheMutex sync.RWMutex
}

// cachedSound holds a decoded sound ready for playback.
type cachedSound struct {
	buffer *beep.Buffer
	path   string
}

// NewPlayer creates a new player on top of the given engine.
func NewPlayer(engine Engine, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = NewSpeakerEngine()
	}

	return &Player{
		logger:     logger,
		engine:     engine,
		volume:     1.0,
		sampleRate: beep.SampleRate(44100),
		cache:      make(map[string]*cachedSound),
	}
}

// SetVolume sets the master volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampGain(volume)
	p.logger.Debug("volume set", "volume", p.volume)
}

// Volume returns the current master volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SampleRate returns the sample rate the engine was initialized at.
func (p *Player) SampleRate() beep.SampleRate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sampleRate
}

// Play plays a sound file fire-and-forget, outside the managed registry.
// Supports WAV, OGG, MP3 and FLAC formats.
func (p *Player) Play(path string) error {
	buffer, err := p.Load(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	volume := p.volume
	sampleRate := p.sampleRate
	p.mu.Unlock()

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())
	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}

	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   gainToVolume(volume),
			Silent:   volume == 0,
		}
	}

	p.engine.Play(streamer)
	return nil
}

// Load returns the decoded buffer for a sound file, loading and caching
// it on first use.
func (p *Player) Load(path string) (*beep.Buffer, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrSoundNotFound)
	}
	path = expandPath(path)

	p.cacheMutex.RLock()
	cached, ok := p.cache[path]
	p.cacheMutex.RUnlock()

	if ok {
		return cached.buffer, nil
	}

	buffer, err := p.loadSound(path)
	if err != nil {
		p.logger.Warn("failed to load sound", "path", path, "error", err)
		return nil, err
	}

	p.cacheMutex.Lock()
	p.cache[path] = &cachedSound{
		buffer: buffer,
		path:   path,
	}
	p.cacheMutex.Unlock()

	return buffer, nil
}

// loadSound loads and decodes a sound file into a buffer.
func (p *Player) loadSound(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ext := strings.ToLower(filepath.Ext(path))

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	if err := p.ensureInitialized(format.SampleRate); err != nil {
		return nil, err
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	return buffer, nil
}

// ensureInitialized initializes the engine if not already done.
func (p *Player) ensureInitialized(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	// Use a reasonable buffer size for low latency
	bufferSize := sampleRate.N(time.Millisecond * 100)

	if err := p.engine.Init(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	p.sampleRate = sampleRate
	p.initialized = true
	p.logger.Debug("audio engine initialized", "sample_rate", sampleRate)
	return nil
}

// Preload loads a sound file into the cache for faster playback.
func (p *Player) Preload(path string) error {
	if path == "" {
		return nil
	}
	_, err := p.Load(path)
	if err == nil {
		p.logger.Debug("preloaded sound", "path", path)
	}
	return err
}

// ClearCache clears the sound cache.
func (p *Player) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.cache = make(map[string]*cachedSound)
	p.logger.Debug("sound cache cleared")
}

// InvalidateCache removes a specific path from the cache.
func (p *Player) InvalidateCache(path string) {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	delete(p.cache, expandPath(path))
}

// Close stops all playback and releases resources.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		p.engine.Close()
		p.initialized = false
	}

	p.ClearCache()
	p.logger.Debug("player closed")
}

// gainToVolume converts a linear gain (0-1) to the exponent expected by
// effects.Volume with Base 2: gain == 2^volume.
func gainToVolume(gain float64) float64 {
	if gain <= 0 {
		return -10 // effectively silent; Silent should also be set
	}
	return math.Log2(gain)
}

// clampGain clamps a linear gain into [0, 1].
func clampGain(gain float64) float64 {
	if gain < 0 {
		return 0
	}
	if gain > 1 {
		return 1
	}
	return gain
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
