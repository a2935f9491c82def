// Package dbus exposes the sound controller on the session bus so other
// processes can trigger, stop and fade managed sounds.
package dbus

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/chime/internal/sound"
)

const (
	// DefaultBusName is the bus name claimed by chimed.
	DefaultBusName = "io.github.jmylchreest.chime"
	// Path is the exported object path.
	Path = "/io/github/jmylchreest/chime"
	// Interface is the playback interface name.
	Interface = "io.github.jmylchreest.chime.Controller"
)

// ActiveSound is the wire representation of a registry entry.
type ActiveSound struct {
	Name    string
	Handle  string
	Looping bool
	Paused  bool
}

// Server exports a sound controller over D-Bus.
type Server struct {
	mu         sync.Mutex
	logger     *slog.Logger
	conn       *dbus.Conn
	controller *sound.Controller
	busName    string
	running    bool
}

// NewServer creates a server for the given controller. An empty busName
// uses DefaultBusName.
func NewServer(controller *sound.Controller, busName string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if busName == "" {
		busName = DefaultBusName
	}

	return &Server{
		logger:     logger,
		controller: controller,
		busName:    busName,
	}
}

// Start connects to the session bus and exports the playback service.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: controllerMethods(),
				Signals: controllerSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(s.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", s.busName)
	}

	// Relay controller lifecycle into bus signals
	s.controller.SetStartedHandler(func(name string, handle sound.Handle) {
		s.emit("SoundStarted", name, string(handle))
	})
	s.controller.SetFinishedHandler(func(name string, handle sound.Handle) {
		s.emit("SoundFinished", name, string(handle))
	})

	s.running = true
	s.logger.Info("D-Bus playback server started", "bus_name", s.busName, "path", Path)
	return nil
}

// Shutdown releases the bus name and detaches from the controller.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	s.controller.SetStartedHandler(nil)
	s.controller.SetFinishedHandler(nil)

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(s.busName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus playback server stopped")
	return nil
}

// emit sends a signal on the playback interface.
func (s *Server) emit(member string, values ...interface{}) {
	s.mu.Lock()
	conn := s.conn
	running := s.running
	s.mu.Unlock()

	if !running || conn == nil {
		return
	}
	if err := conn.Emit(Path, Interface+"."+member, values...); err != nil {
		s.logger.Warn("failed to emit signal", "member", member, "error", err)
	}
}

// Play starts managed playback of a named sound.
// D-Bus method: Play(sdiu) -> s
// A negative volume uses the sound's default; repeat -1 loops forever
// and -2 uses the sound's default count.
func (s *Server) Play(name string, volume float64, repeat int32, fadeInMs uint32) (string, *dbus.Error) {
	s.logger.Debug("Play called", "name", name, "volume", volume, "repeat", repeat)

	opts := sound.DefaultPlayOptions()
	opts.Volume = volume
	opts.Repeat = int(repeat)
	opts.FadeIn = time.Duration(fadeInMs) * time.Millisecond

	handle, err := s.controller.Play(name, opts)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(handle), nil
}

// Stop stops a managed sound, fading over the given duration.
// D-Bus method: Stop(su)
func (s *Server) Stop(name string, fadeMs uint32) *dbus.Error {
	s.logger.Debug("Stop called", "name", name, "fade_ms", fadeMs)
	s.controller.StopWithFade(name, time.Duration(fadeMs)*time.Millisecond)
	return nil
}

// StopAll stops every managed sound.
// D-Bus method: StopAll(u)
func (s *Server) StopAll(fadeMs uint32) *dbus.Error {
	s.logger.Debug("StopAll called", "fade_ms", fadeMs)
	s.controller.StopAll(time.Duration(fadeMs) * time.Millisecond)
	return nil
}

// Fade ramps a playing sound to a new volume.
// D-Bus method: Fade(sdu)
func (s *Server) Fade(name string, target float64, durationMs uint32) *dbus.Error {
	s.logger.Debug("Fade called", "name", name, "target", target, "duration_ms", durationMs)
	if err := s.controller.Fade(name, target, time.Duration(durationMs)*time.Millisecond); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// SetActive binds a boolean state to playback of the named sound.
// D-Bus method: SetActive(sbs)
// An empty mode uses the sound's configured play mode.
func (s *Server) SetActive(name string, active bool, mode string) *dbus.Error {
	s.logger.Debug("SetActive called", "name", name, "active", active, "mode", mode)

	playMode, err := sound.ParsePlayMode(mode)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	if err := s.controller.SetActive(name, active, playMode, nil); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// IsPlaying reports whether a named sound is actively playing.
// D-Bus method: IsPlaying(s) -> b
func (s *Server) IsPlaying(name string) (bool, *dbus.Error) {
	return s.controller.IsPlaying(name), nil
}

// ListActive returns the managed registry contents.
// D-Bus method: ListActive() -> a(ssbb)
func (s *Server) ListActive() ([]ActiveSound, *dbus.Error) {
	active := s.controller.Active()
	out := make([]ActiveSound, 0, len(active))
	for _, a := range active {
		out = append(out, ActiveSound{
			Name:    a.Name,
			Handle:  string(a.Handle),
			Looping: a.Looping,
			Paused:  a.Paused,
		})
	}
	return out, nil
}

// controllerMethods returns the D-Bus method introspection data.
func controllerMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Play",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "in"},
				{Name: "volume", Type: "d", Direction: "in"},
				{Name: "repeat", Type: "i", Direction: "in"},
				{Name: "fade_in_ms", Type: "u", Direction: "in"},
				{Name: "handle", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Stop",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "in"},
				{Name: "fade_ms", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "StopAll",
			Args: []introspect.Arg{
				{Name: "fade_ms", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "Fade",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "in"},
				{Name: "target", Type: "d", Direction: "in"},
				{Name: "duration_ms", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "SetActive",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "in"},
				{Name: "active", Type: "b", Direction: "in"},
				{Name: "mode", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "IsPlaying",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "in"},
				{Name: "playing", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "ListActive",
			Args: []introspect.Arg{
				{Name: "sounds", Type: "a(ssbb)", Direction: "out"},
			},
		},
	}
}

// controllerSignals returns the D-Bus signal introspection data.
func controllerSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "SoundStarted",
			Args: []introspect.Arg{
				{Name: "name", Type: "s"},
				{Name: "handle", Type: "s"},
			},
		},
		{
			Name: "SoundFinished",
			Args: []introspect.Arg{
				{Name: "name", Type: "s"},
				{Name: "handle", Type: "s"},
			},
		},
	}
}
