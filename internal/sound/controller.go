package sound

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/oklog/ulid/v2"
)

// RepeatForever loops a sound until it is stopped explicitly.
const RepeatForever = -1

// RepeatDefault defers to the sound's configured repeat count.
const RepeatDefault = -2

// fadeTick is the step interval for volume fades.
const fadeTick = 20 * time.Millisecond

// ErrNotPlaying is returned when an operation targets a name with no
// active managed playback.
var ErrNotPlaying = fmt.Errorf("sound is not playing")

// Handle identifies a single managed playback instance.
type Handle string

// PlayOptions control a managed playback. Fields set to their sentinel
// ("use default") values defer to the sound's library defaults, then to
// the controller's; DefaultPlayOptions returns options deferring every
// field.
type PlayOptions struct {
	// Volume is the linear playback volume (0.0 to 1.0). Negative means
	// use the library or controller default.
	Volume float64

	// Repeat is the number of additional plays after the first.
	// RepeatForever loops until stopped; RepeatDefault uses the sound's
	// configured count.
	Repeat int

	// FadeIn ramps the volume up from silence over this duration.
	FadeIn time.Duration

	// Mode controls deactivation behavior when used via SetActive.
	// PlayModeUnset uses the sound's configured mode.
	Mode PlayMode
}

// DefaultPlayOptions returns options that defer to the sound's defaults.
func DefaultPlayOptions() *PlayOptions {
	return &PlayOptions{Volume: -1, Repeat: RepeatDefault}
}

// ActiveSound describes one entry in the managed registry.
type ActiveSound struct {
	Name      string
	Handle    Handle
	StartedAt time.Time
	Looping   bool
	Paused    bool
}

// Handler is called when a managed sound starts or finishes.
type Handler func(name string, handle Handle)

// Controller tracks managed sounds by name on top of a Player.
// At most one playback is active per name: playing a name that is already
// active replaces the previous playback.
type Controller struct {
	mu       sync.Mutex
	logger   *slog.Logger
	player   *Player
	engine   Engine
	resolver Resolver

	// Default linear volume for sounds with no per-sound setting
	defaultVolume float64

	// Active managed sounds keyed by name
	active map[string]*managedSound

	// Lifecycle handlers
	onStarted  Handler
	onFinished Handler
}

// managedSound is the registry entry for one playback instance.
type managedSound struct {
	name      string
	handle    Handle
	ctrl      *beep.Ctrl
	vol       *effects.Volume
	gain      float64
	mode      PlayMode
	looping   bool
	paused    bool
	startedAt time.Time

	// Closed to cancel an in-flight fade
	fadeCancel chan struct{}
}

// NewController creates a controller around the given player. The resolver
// maps names to files; if nil, names are treated as file paths directly.
func NewController(player *Player, resolver Resolver, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		logger:        logger,
		player:        player,
		engine:        player.engine,
		resolver:      resolver,
		defaultVolume: 1.0,
		active:        make(map[string]*managedSound),
	}
}

// Player returns the underlying player.
func (c *Controller) Player() *Player {
	return c.player
}

// SetDefaultVolume sets the volume used for sounds with no per-sound or
// per-call setting (0.0 to 1.0).
func (c *Controller) SetDefaultVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultVolume = clampGain(volume)
}

// SetStartedHandler sets the handler called when a managed sound starts.
func (c *Controller) SetStartedHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStarted = h
}

// SetFinishedHandler sets the handler called when a managed sound
// finishes or is stopped.
func (c *Controller) SetFinishedHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinished = h
}

// resolve maps a name to a source via the resolver.
func (c *Controller) resolve(name string) (Source, error) {
	if c.resolver == nil {
		return Source{Path: name}, nil
	}
	return c.resolver.Resolve(name)
}

// Prepare resolves and preloads a sound without playing it.
func (c *Controller) Prepare(name string) error {
	src, err := c.resolve(name)
	if err != nil {
		return err
	}
	return c.player.Preload(src.Path)
}

// Play starts managed playback of a named sound, replacing any playback
// already active under that name. It returns a handle identifying this
// playback instance.
func (c *Controller) Play(name string, opts *PlayOptions) (Handle, error) {
	src, err := c.resolve(name)
	if err != nil {
		return "", err
	}

	buffer, err := c.player.Load(src.Path)
	if err != nil {
		return "", err
	}

	// Merge defaults: controller < library manifest < caller options
	c.mu.Lock()
	gain := c.defaultVolume
	c.mu.Unlock()
	if src.Volume != nil {
		gain = *src.Volume
	}
	repeat := 0
	if src.Repeat != nil {
		repeat = *src.Repeat
	}
	mode := PlayModeReset
	if src.Mode != nil && *src.Mode != PlayModeUnset {
		mode = *src.Mode
	}
	if opts != nil {
		if opts.Volume >= 0 {
			gain = opts.Volume
		}
		if opts.Repeat != RepeatDefault {
			repeat = opts.Repeat
		}
		if opts.Mode != PlayModeUnset {
			mode = opts.Mode
		}
	}
	gain = clampGain(gain)

	var fadeIn time.Duration
	if opts != nil {
		fadeIn = opts.FadeIn
	}
	startGain := gain
	if fadeIn > 0 {
		startGain = 0
	}

	handle := Handle(ulid.Make().String())
	looping := repeat == RepeatForever

	// Build the streamer chain: loop, resample, volume, pause control
	seeker := buffer.Streamer(0, buffer.Len())
	var streamer beep.Streamer = seeker
	if looping {
		streamer = beep.Loop(-1, seeker)
	} else if repeat > 0 {
		streamer = beep.Loop(repeat+1, seeker)
	}
	if buffer.Format().SampleRate != c.player.SampleRate() {
		streamer = beep.Resample(4, buffer.Format().SampleRate, c.player.SampleRate(), streamer)
	}

	vol := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   gainToVolume(startGain),
		Silent:   startGain == 0,
	}
	ctrl := &beep.Ctrl{Streamer: vol}

	entry := &managedSound{
		name:      name,
		handle:    handle,
		ctrl:      ctrl,
		vol:       vol,
		gain:      startGain,
		mode:      mode,
		looping:   looping,
		startedAt: time.Now(),
	}

	c.mu.Lock()
	c.stopLocked(name)
	c.active[name] = entry
	started := c.onStarted
	c.mu.Unlock()

	// The callback fires while the engine holds its own lock, so hop to a
	// goroutine before taking ours.
	c.engine.Play(beep.Seq(ctrl, beep.Callback(func() {
		go c.finished(name, handle)
	})))

	if fadeIn > 0 {
		if err := c.fadeTo(name, handle, gain, fadeIn, false); err != nil {
			c.logger.Warn("fade-in failed", "name", name, "error", err)
		}
	}

	c.logger.Debug("sound started", "name", name, "handle", handle,
		"volume", gain, "repeat", repeat, "mode", mode.String())

	if started != nil {
		started(name, handle)
	}
	return handle, nil
}

// Stop stops a managed sound immediately. Stopping a name with no active
// playback is a no-op.
func (c *Controller) Stop(name string) {
	c.mu.Lock()
	removed := c.stopLocked(name)
	finished := c.onFinished
	c.mu.Unlock()

	if removed != nil {
		c.logger.Debug("sound stopped", "name", name, "handle", removed.handle)
		if finished != nil {
			finished(name, removed.handle)
		}
	}
}

// StopWithFade fades a managed sound to silence over the given duration,
// then stops it. A non-positive duration stops immediately.
func (c *Controller) StopWithFade(name string, d time.Duration) {
	if d <= 0 {
		c.Stop(name)
		return
	}

	c.mu.Lock()
	entry, ok := c.active[name]
	if !ok {
		c.mu.Unlock()
		return
	}
	handle := entry.handle
	c.mu.Unlock()

	if err := c.fadeTo(name, handle, 0, d, true); err != nil {
		c.Stop(name)
	}
}

// StopAll stops every managed sound, fading each over the given duration.
func (c *Controller) StopAll(fade time.Duration) {
	c.mu.Lock()
	names := make([]string, 0, len(c.active))
	for name := range c.active {
		names = append(names, name)
	}
	c.mu.Unlock()

	for _, name := range names {
		c.StopWithFade(name, fade)
	}
}

// Fade ramps a playing sound's volume to a new linear target over the
// given duration. The sound keeps playing when the target is reached,
// even at zero volume; use StopWithFade to fade out and stop.
func (c *Controller) Fade(name string, target float64, d time.Duration) error {
	c.mu.Lock()
	entry, ok := c.active[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotPlaying, name)
	}
	handle := entry.handle
	c.mu.Unlock()

	return c.fadeTo(name, handle, clampGain(target), d, false)
}

// SetActive translates a boolean state flag into playback: true starts
// (or resumes) the named sound, false deactivates it. Deactivation obeys
// the sound's play mode: reset discards position, continue pauses so a
// later activation resumes where it left off.
func (c *Controller) SetActive(name string, active bool, mode PlayMode, opts *PlayOptions) error {
	c.mu.Lock()
	entry, ok := c.active[name]

	if active {
		if ok {
			if entry.paused {
				entry.paused = false
				c.engine.Lock()
				entry.ctrl.Paused = false
				c.engine.Unlock()
				c.logger.Debug("sound resumed", "name", name, "handle", entry.handle)
			}
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		var o PlayOptions
		if opts != nil {
			o = *opts
		} else {
			o = *DefaultPlayOptions()
		}
		o.Mode = mode
		_, err := c.Play(name, &o)
		return err
	}

	if !ok {
		c.mu.Unlock()
		return nil
	}

	if entry.mode == PlayModeContinue {
		c.cancelFadeLocked(entry)
		if !entry.paused {
			entry.paused = true
			c.engine.Lock()
			entry.ctrl.Paused = true
			c.engine.Unlock()
			c.logger.Debug("sound paused", "name", name, "handle", entry.handle)
		}
		c.mu.Unlock()
		return nil
	}

	removed := c.stopLocked(name)
	finished := c.onFinished
	c.mu.Unlock()

	if removed != nil {
		c.logger.Debug("sound stopped", "name", name, "handle", removed.handle)
		if finished != nil {
			finished(name, removed.handle)
		}
	}
	return nil
}

// IsPlaying reports whether the named sound is actively playing (paused
// sounds are not playing).
func (c *Controller) IsPlaying(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.active[name]
	return ok && !entry.paused
}

// Active returns a snapshot of the managed registry, sorted by name.
func (c *Controller) Active() []ActiveSound {
	c.mu.Lock()
	defer c.mu.Unlock()

	sounds := make([]ActiveSound, 0, len(c.active))
	for _, entry := range c.active {
		sounds = append(sounds, ActiveSound{
			Name:      entry.name,
			Handle:    entry.handle,
			StartedAt: entry.startedAt,
			Looping:   entry.looping,
			Paused:    entry.paused,
		})
	}
	sort.Slice(sounds, func(i, j int) bool { return sounds[i].Name < sounds[j].Name })
	return sounds
}

// Close stops all managed sounds and releases the player.
func (c *Controller) Close() {
	c.StopAll(0)
	c.player.Close()
}

// stopLocked removes a name's entry and silences its streamer.
// Caller must hold c.mu. Returns the removed entry, if any.
func (c *Controller) stopLocked(name string) *managedSound {
	entry, ok := c.active[name]
	if !ok {
		return nil
	}

	c.cancelFadeLocked(entry)
	c.engine.Lock()
	entry.ctrl.Streamer = nil
	c.engine.Unlock()
	delete(c.active, name)
	return entry
}

// cancelFadeLocked cancels an in-flight fade. Caller must hold c.mu.
func (c *Controller) cancelFadeLocked(entry *managedSound) {
	if entry.fadeCancel != nil {
		close(entry.fadeCancel)
		entry.fadeCancel = nil
	}
}

// setGainLocked applies a linear gain to an entry's volume streamer.
// Caller must hold c.mu.
func (c *Controller) setGainLocked(entry *managedSound, gain float64) {
	entry.gain = gain
	c.engine.Lock()
	entry.vol.Volume = gainToVolume(gain)
	entry.vol.Silent = gain == 0
	c.engine.Unlock()
}

// fadeTo ramps the named sound's gain to target over d, stepping on a
// ticker. A new fade for the same name cancels the previous one. When
// stopAfter is set, the sound is stopped once the target is reached.
func (c *Controller) fadeTo(name string, handle Handle, target float64, d time.Duration, stopAfter bool) error {
	c.mu.Lock()
	entry, ok := c.active[name]
	if !ok || entry.handle != handle {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotPlaying, name)
	}

	c.cancelFadeLocked(entry)

	if d <= 0 {
		c.setGainLocked(entry, target)
		c.mu.Unlock()
		if stopAfter {
			c.Stop(name)
		}
		return nil
	}

	cancel := make(chan struct{})
	entry.fadeCancel = cancel
	from := entry.gain
	c.mu.Unlock()

	go c.runFade(name, handle, from, target, d, cancel, stopAfter)
	return nil
}

// runFade is the fade goroutine body.
func (c *Controller) runFade(name string, handle Handle, from, target float64, d time.Duration, cancel chan struct{}, stopAfter bool) {
	ticker := time.NewTicker(fadeTick)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}

		progress := float64(time.Since(start)) / float64(d)
		done := progress >= 1
		if done {
			progress = 1
		}
		gain := from + (target-from)*progress

		c.mu.Lock()
		entry, ok := c.active[name]
		if !ok || entry.handle != handle {
			c.mu.Unlock()
			return
		}
		c.setGainLocked(entry, gain)
		if done {
			entry.fadeCancel = nil
		}
		c.mu.Unlock()

		if done {
			if stopAfter {
				c.stopHandle(name, handle)
			}
			return
		}
	}
}

// stopHandle stops a name only if the given handle is still current.
func (c *Controller) stopHandle(name string, handle Handle) {
	c.mu.Lock()
	entry, ok := c.active[name]
	if !ok || entry.handle != handle {
		c.mu.Unlock()
		return
	}
	removed := c.stopLocked(name)
	finished := c.onFinished
	c.mu.Unlock()

	if removed != nil {
		c.logger.Debug("sound stopped", "name", name, "handle", handle)
		if finished != nil {
			finished(name, handle)
		}
	}
}

// finished is invoked from the playback completion callback.
func (c *Controller) finished(name string, handle Handle) {
	c.mu.Lock()
	entry, ok := c.active[name]
	if !ok || entry.handle != handle {
		c.mu.Unlock()
		return
	}
	c.cancelFadeLocked(entry)
	delete(c.active, name)
	finished := c.onFinished
	c.mu.Unlock()

	c.logger.Debug("sound finished", "name", name, "handle", handle)
	if finished != nil {
		finished(name, handle)
	}
}
