package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Home key.Binding
	End  key.Binding

	// Playback
	Play       key.Binding
	Stop       key.Binding
	StopAll    key.Binding
	FadeOut    key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Loop       key.Binding

	// Library
	Rescan key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Stop, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End},
		{k.Play, k.Stop, k.StopAll, k.FadeOut},
		{k.VolumeUp, k.VolumeDown, k.Loop, k.Rescan},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "go to bottom"),
		),
		Play: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "play/stop"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		StopAll: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "stop all"),
		),
		FadeOut: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fade out"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "volume down"),
		),
		Loop: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle loop"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan library"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
