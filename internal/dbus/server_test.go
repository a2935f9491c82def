package dbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests cover the interface contract; bus round-trips need a
// session bus and are exercised manually.

func TestControllerMethods_Signatures(t *testing.T) {
	methods := controllerMethods()

	byName := make(map[string][]string)
	for _, m := range methods {
		var sig []string
		for _, arg := range m.Args {
			sig = append(sig, arg.Type+":"+arg.Direction)
		}
		byName[m.Name] = sig
	}

	require.Contains(t, byName, "Play")
	assert.Equal(t, []string{"s:in", "d:in", "i:in", "u:in", "s:out"}, byName["Play"])

	require.Contains(t, byName, "Stop")
	assert.Equal(t, []string{"s:in", "u:in"}, byName["Stop"])

	require.Contains(t, byName, "SetActive")
	assert.Equal(t, []string{"s:in", "b:in", "s:in"}, byName["SetActive"])

	require.Contains(t, byName, "ListActive")
	assert.Equal(t, []string{"a(ssbb):out"}, byName["ListActive"])
}

func TestControllerSignals_Names(t *testing.T) {
	signals := controllerSignals()
	require.Len(t, signals, 2)
	assert.Equal(t, "SoundStarted", signals[0].Name)
	assert.Equal(t, "SoundFinished", signals[1].Name)
	for _, sig := range signals {
		require.Len(t, sig.Args, 2)
	}
}

func TestServerStart_AlreadyRunning(t *testing.T) {
	s := NewServer(nil, "", nil)
	s.running = true

	// The guard must reject a second Start before touching the bus
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(nil, "", nil)
	assert.Equal(t, DefaultBusName, s.busName)

	s = NewServer(nil, "org.example.chime", nil)
	assert.Equal(t, "org.example.chime", s.busName)
}
