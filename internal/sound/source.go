package sound

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the controller.
var (
	// ErrSoundNotFound is returned when a name cannot be resolved to a file.
	ErrSoundNotFound = errors.New("sound not found")

	// ErrEngineUnavailable is returned when the audio device cannot be
	// initialized.
	ErrEngineUnavailable = errors.New("audio engine unavailable")
)

// PlayMode controls what happens when a managed sound is deactivated and
// later reactivated via SetActive.
type PlayMode int

const (
	// PlayModeUnset defers to the sound's configured mode, falling back
	// to reset.
	PlayModeUnset PlayMode = iota

	// PlayModeReset restarts the sound from the beginning on reactivation.
	PlayModeReset

	// PlayModeContinue pauses on deactivation and resumes from the last
	// position on reactivation.
	PlayModeContinue
)

// String returns the config-file spelling of the mode.
func (m PlayMode) String() string {
	switch m {
	case PlayModeContinue:
		return "continue"
	case PlayModeReset:
		return "reset"
	default:
		return "default"
	}
}

// ParsePlayMode parses the config-file spelling of a play mode. An empty
// string is PlayModeUnset.
func ParsePlayMode(s string) (PlayMode, error) {
	switch s {
	case "":
		return PlayModeUnset, nil
	case "reset":
		return PlayModeReset, nil
	case "continue":
		return PlayModeContinue, nil
	default:
		return PlayModeUnset, fmt.Errorf("invalid play mode %q: must be \"reset\" or \"continue\"", s)
	}
}

// Source describes a resolved sound: the file to play plus optional
// per-sound defaults carried by the library manifest. Nil fields mean
// "use the controller's defaults".
type Source struct {
	Path   string
	Volume *float64 // linear 0.0 to 1.0
	Repeat *int     // additional plays after the first
	Mode   *PlayMode
}

// Resolver maps a logical sound name to a playable source.
type Resolver interface {
	Resolve(name string) (Source, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (Source, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(name string) (Source, error) {
	return f(name)
}
