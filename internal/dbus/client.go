package dbus

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// Client drives a running chimed over the session bus.
type Client struct {
	conn    *dbus.Conn
	busName string
	obj     dbus.BusObject
}

// NewClient connects to the session bus. An empty busName uses
// DefaultBusName.
func NewClient(busName string) (*Client, error) {
	if busName == "" {
		busName = DefaultBusName
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Client{
		conn:    conn,
		busName: busName,
		obj:     conn.Object(busName, Path),
	}, nil
}

// Available reports whether a daemon currently owns the bus name.
func (c *Client) Available() bool {
	var owned bool
	err := c.conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, c.busName).Store(&owned)
	return err == nil && owned
}

// Play starts managed playback of a named sound on the daemon.
// A negative volume uses the sound's default; repeat takes
// sound.RepeatForever and sound.RepeatDefault sentinels.
func (c *Client) Play(name string, volume float64, repeat int, fadeIn time.Duration) (string, error) {
	var handle string
	err := c.obj.Call(Interface+".Play", 0, name, volume,
		int32(repeat), uint32(fadeIn.Milliseconds())).Store(&handle)
	if err != nil {
		return "", fmt.Errorf("play failed: %w", err)
	}
	return handle, nil
}

// Stop stops a managed sound on the daemon.
func (c *Client) Stop(name string, fade time.Duration) error {
	call := c.obj.Call(Interface+".Stop", 0, name, uint32(fade.Milliseconds()))
	if call.Err != nil {
		return fmt.Errorf("stop failed: %w", call.Err)
	}
	return nil
}

// StopAll stops every managed sound on the daemon.
func (c *Client) StopAll(fade time.Duration) error {
	call := c.obj.Call(Interface+".StopAll", 0, uint32(fade.Milliseconds()))
	if call.Err != nil {
		return fmt.Errorf("stop all failed: %w", call.Err)
	}
	return nil
}

// Fade ramps a playing sound to a new volume on the daemon.
func (c *Client) Fade(name string, target float64, duration time.Duration) error {
	call := c.obj.Call(Interface+".Fade", 0, name, target, uint32(duration.Milliseconds()))
	if call.Err != nil {
		return fmt.Errorf("fade failed: %w", call.Err)
	}
	return nil
}

// SetActive binds a boolean state to playback of the named sound.
func (c *Client) SetActive(name string, active bool, mode string) error {
	call := c.obj.Call(Interface+".SetActive", 0, name, active, mode)
	if call.Err != nil {
		return fmt.Errorf("set active failed: %w", call.Err)
	}
	return nil
}

// IsPlaying reports whether a named sound is playing on the daemon.
func (c *Client) IsPlaying(name string) (bool, error) {
	var playing bool
	if err := c.obj.Call(Interface+".IsPlaying", 0, name).Store(&playing); err != nil {
		return false, fmt.Errorf("is playing failed: %w", err)
	}
	return playing, nil
}

// ListActive returns the daemon's managed registry contents.
func (c *Client) ListActive() ([]ActiveSound, error) {
	var sounds []ActiveSound
	if err := c.obj.Call(Interface+".ListActive", 0).Store(&sounds); err != nil {
		return nil, fmt.Errorf("list active failed: %w", err)
	}
	return sounds, nil
}

// WaitForFinished blocks until the daemon reports the given handle
// finished, or the timeout elapses (0 = no timeout).
func (c *Client) WaitForFinished(handle string, timeout time.Duration) error {
	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember("SoundFinished"),
	); err != nil {
		return fmt.Errorf("failed to subscribe to signals: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)
	defer c.conn.RemoveSignal(signals)

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	// The sound may have finished before the signal match was added, so
	// poll the registry as a fallback.
	poll := time.NewTicker(500 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("signal channel closed")
			}
			if sig.Name != Interface+".SoundFinished" || len(sig.Body) < 2 {
				continue
			}
			if h, ok := sig.Body[1].(string); ok && h == handle {
				return nil
			}
		case <-poll.C:
			active, err := c.ListActive()
			if err != nil {
				continue
			}
			found := false
			for _, a := range active {
				if a.Handle == handle {
					found = true
					break
				}
			}
			if !found {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("timed out waiting for sound to finish")
		}
	}
}
