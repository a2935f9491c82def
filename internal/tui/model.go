// Package tui provides the BubbleTea-based soundboard interface.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/chime/internal/config"
	"github.com/jmylchreest/chime/internal/library"
	"github.com/jmylchreest/chime/internal/sound"
)

// volumeStep is the volume change per keypress.
const volumeStep = 0.05

// refreshInterval drives the playing-marker refresh.
const refreshInterval = 500 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	playingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// tickMsg triggers a periodic refresh of playback markers.
type tickMsg time.Time

// soundItem wraps a library entry for the list component.
type soundItem struct {
	entry   library.Entry
	playing bool
	paused  bool
}

func (i soundItem) Title() string {
	switch {
	case i.paused:
		return i.entry.Name + " ⏸"
	case i.playing:
		return playingStyle.Render(i.entry.Name + " ▶")
	default:
		return i.entry.Name
	}
}

func (i soundItem) Description() string {
	if i.entry.Size == 0 {
		return i.entry.Path
	}
	return fmt.Sprintf("%s · %s · %s",
		humanize.Bytes(uint64(i.entry.Size)),
		humanize.Time(i.entry.ModTime),
		i.entry.Path)
}

func (i soundItem) FilterValue() string {
	return i.entry.Name
}

// Model is the main TUI model.
type Model struct {
	cfg        *config.Config
	library    *library.Library
	controller *sound.Controller

	// Components
	list list.Model
	help help.Model

	// Playback state
	volume float64
	loop   bool

	// Layout
	width  int
	height int
	ready  bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool

	showHelp bool
}

// New creates a soundboard model over the given library and controller.
func New(cfg *config.Config, lib *library.Library, controller *sound.Controller) *Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "chime"
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	m := &Model{
		cfg:        cfg,
		library:    lib,
		controller: controller,
		list:       l,
		help:       help.New(),
		volume:     cfg.LinearVolume(),
		keys:       DefaultKeyMap(),
	}
	m.reloadItems()
	return m
}

// Run starts the TUI event loop.
func (m *Model) Run() error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// reloadItems rebuilds the list from the library, preserving markers.
func (m *Model) reloadItems() {
	playing := make(map[string]bool)
	paused := make(map[string]bool)
	for _, a := range m.controller.Active() {
		if a.Paused {
			paused[a.Name] = true
		} else {
			playing[a.Name] = true
		}
	}

	entries := m.library.Entries()
	items := make([]list.Item, len(entries))
	for i, entry := range entries {
		items[i] = soundItem{
			entry:   entry,
			playing: playing[entry.Name],
			paused:  paused[entry.Name],
		}
	}
	m.list.SetItems(items)
}

// selected returns the currently highlighted sound, if any.
func (m *Model) selected() (soundItem, bool) {
	item, ok := m.list.SelectedItem().(soundItem)
	return item, ok
}

// setStatus sets the status line.
func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		m.reloadItems()
		return m, tick()

	case tea.KeyMsg:
		// Let the list's filter input capture keys while filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.controller.StopAll(0)
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Play):
			return m, m.togglePlay()

		case key.Matches(msg, m.keys.Stop):
			if item, ok := m.selected(); ok {
				m.controller.Stop(item.entry.Name)
				m.setStatus("stopped "+item.entry.Name, false)
				m.reloadItems()
			}
			return m, nil

		case key.Matches(msg, m.keys.StopAll):
			m.controller.StopAll(0)
			m.setStatus("stopped all sounds", false)
			m.reloadItems()
			return m, nil

		case key.Matches(msg, m.keys.FadeOut):
			if item, ok := m.selected(); ok {
				fade := m.cfg.Playback.FadeOut.Duration()
				if fade <= 0 {
					fade = 500 * time.Millisecond
				}
				m.controller.StopWithFade(item.entry.Name, fade)
				m.setStatus(fmt.Sprintf("fading out %s over %s", item.entry.Name, fade), false)
			}
			return m, nil

		case key.Matches(msg, m.keys.VolumeUp):
			m.setVolume(m.volume + volumeStep)
			return m, nil

		case key.Matches(msg, m.keys.VolumeDown):
			m.setVolume(m.volume - volumeStep)
			return m, nil

		case key.Matches(msg, m.keys.Loop):
			m.loop = !m.loop
			if m.loop {
				m.setStatus("loop on", false)
			} else {
				m.setStatus("loop off", false)
			}
			return m, nil

		case key.Matches(msg, m.keys.Rescan):
			if err := m.library.Rescan(); err != nil {
				m.setStatus("rescan failed: "+err.Error(), true)
			} else {
				m.setStatus(fmt.Sprintf("library rescanned: %d sounds", len(m.library.Entries())), false)
			}
			m.reloadItems()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// togglePlay starts or stops the selected sound.
func (m *Model) togglePlay() tea.Cmd {
	item, ok := m.selected()
	if !ok {
		return nil
	}
	name := item.entry.Name

	if m.controller.IsPlaying(name) {
		m.controller.Stop(name)
		m.setStatus("stopped "+name, false)
		m.reloadItems()
		return nil
	}

	opts := sound.DefaultPlayOptions()
	opts.Volume = m.volume
	opts.FadeIn = m.cfg.Playback.FadeIn.Duration()
	if m.loop {
		opts.Repeat = sound.RepeatForever
	}

	if _, err := m.controller.Play(name, opts); err != nil {
		m.setStatus("play failed: "+err.Error(), true)
	} else if m.loop {
		m.setStatus("looping "+name, false)
	} else {
		m.setStatus("playing "+name, false)
	}
	m.reloadItems()
	return nil
}

// setVolume clamps and applies the soundboard volume.
func (m *Model) setVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	m.volume = v
	m.setStatus(fmt.Sprintf("volume %d%%", int(v*100+0.5)), false)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := titleStyle.Render(fmt.Sprintf("chime · %d sounds · volume %d%%",
		len(m.list.Items()), int(m.volume*100+0.5)))

	status := ""
	if m.statusMsg != "" {
		if m.statusErr {
			status = errorStyle.Render(m.statusMsg)
		} else {
			status = statusStyle.Render(m.statusMsg)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.list.View(),
		status,
		m.help.View(m.keys),
	)
}
