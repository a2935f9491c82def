package sound

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Engine abstracts the speaker so playback bookkeeping can be exercised
// without audio hardware.
type Engine interface {
	// Init prepares the engine for playback at the given sample rate.
	Init(sampleRate beep.SampleRate, bufferSize int) error

	// Play mixes the given streamers into the output asynchronously.
	Play(streamers ...beep.Streamer)

	// Lock and Unlock guard mutation of streamers the engine is playing.
	Lock()
	Unlock()

	// Clear removes all currently playing streamers.
	Clear()

	// Close shuts the engine down and releases the audio device.
	Close()
}

// speakerEngine is the default Engine backed by beep's speaker package.
type speakerEngine struct{}

// NewSpeakerEngine returns an Engine that plays through the system speaker.
func NewSpeakerEngine() Engine {
	return speakerEngine{}
}

func (speakerEngine) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (speakerEngine) Play(streamers ...beep.Streamer) {
	speaker.Play(streamers...)
}

func (speakerEngine) Lock()   { speaker.Lock() }
func (speakerEngine) Unlock() { speaker.Unlock() }
func (speakerEngine) Clear()  { speaker.Clear() }
func (speakerEngine) Close()  { speaker.Close() }
