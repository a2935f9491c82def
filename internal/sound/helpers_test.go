package sound

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/require"
)

// fakeEngine records playback without touching audio hardware.
type fakeEngine struct {
	mu        sync.Mutex
	inited    bool
	initRate  beep.SampleRate
	streamers []beep.Streamer
	closed    bool
}

func (e *fakeEngine) Init(sampleRate beep.SampleRate, bufferSize int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inited = true
	e.initRate = sampleRate
	return nil
}

func (e *fakeEngine) Play(streamers ...beep.Streamer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.streamers = append(e.streamers, streamers...)
}

func (e *fakeEngine) Lock()   { e.mu.Lock() }
func (e *fakeEngine) Unlock() { e.mu.Unlock() }

func (e *fakeEngine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.streamers = nil
}

func (e *fakeEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// lastStreamer returns the most recently played streamer.
func (e *fakeEngine) lastStreamer() beep.Streamer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.streamers) == 0 {
		return nil
	}
	return e.streamers[len(e.streamers)-1]
}

// drain streams until the streamer is exhausted and returns the number of
// frames streamed. Only safe for finite, unpaused streamers.
func drain(s beep.Streamer) int {
	buf := make([][2]float64, 512)
	total := 0
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			return total
		}
	}
}

// writeWAV writes a small PCM16 mono WAV file with the given number of
// samples and returns its path.
func writeWAV(t *testing.T, dir, name string, numSamples int) string {
	t.Helper()

	const sampleRate = 44100
	dataLen := numSamples * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))

	// A quiet 440Hz tone
	for i := 0; i < numSamples; i++ {
		v := int16(3000 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}
