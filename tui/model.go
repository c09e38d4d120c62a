// Package tui is an interactive terminal front end for the player.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// seekStep in seconds for the left/right keys
const seekStep = 5.0

// volumeStep for the up/down keys
const volumeStep = 0.1

// Player is the part of the playback engine controlled by the TUI.
type Player interface {
	Play() error
	Pause() error
	IsPlaying() bool
	SetTime(float64)
	Time() float64
	Ended() bool
	SetVolume(float32)
	Volume() float32
	SetMuted(bool)
	IsMuted() bool
	SetLoop(bool)
	Loops() bool
	UpdateDeviceIfNecessary() error
}

type tickMsg time.Time

// Model represents the TUI state
type Model struct {
	player   Player
	title    string
	duration float64
	interval time.Duration

	// Playback, refreshed on every tick
	playing bool
	muted   bool
	loop    bool
	volume  float32
	time    float64
	err     error

	width int
}

// NewModel returns a Model for a player loaded with audio data of the given
// duration (in seconds). The player state is polled, and the output device
// checked, every interval.
func NewModel(p Player, title string, duration float64, interval time.Duration) Model {
	m := Model{
		player:   p,
		title:    title,
		duration: duration,
		interval: interval,
	}
	m.refresh()
	return m
}

// Run starts the TUI and blocks until the user quits or the player has
// reached the end of the data.
func Run(p Player, title string, duration float64, interval time.Duration) error {
	_, err := tea.NewProgram(NewModel(p, title, duration, interval), tea.WithAltScreen()).Run()
	return err
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts polling the player
func (m Model) Init() tea.Cmd {
	return tick(m.interval)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.err = m.player.UpdateDeviceIfNecessary()
		m.refresh()
		if m.player.Ended() {
			return m, tea.Quit
		}
		return m, tick(m.interval)
	}

	return m, nil
}

func (m *Model) refresh() {
	m.playing = m.player.IsPlaying()
	m.muted = m.player.IsMuted()
	m.loop = m.player.Loops()
	m.volume = m.player.Volume()
	m.time = m.player.Time()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.player.IsPlaying() {
			m.err = m.player.Pause()
		} else {
			m.err = m.player.Play()
		}
	case "up":
		m.player.SetVolume(m.player.Volume() + volumeStep)
	case "down":
		m.player.SetVolume(max(0, m.player.Volume()-volumeStep))
	case "m":
		m.player.SetMuted(!m.player.IsMuted())
	case "l":
		m.player.SetLoop(!m.player.Loops())
	case "left":
		m.player.SetTime(max(0, m.player.Time()-seekStep))
	case "right":
		m.player.SetTime(m.player.Time() + seekStep)
	}

	m.refresh()
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	state := "Paused"
	if m.playing {
		state = "Playing"
	}
	if m.muted {
		state += " (muted)"
	}
	if m.loop {
		state += " (loop)"
	}

	fmt.Fprintf(&b, "%s\n\n", m.title)
	fmt.Fprintf(&b, "  %-8s %s\n", "State:", state)
	fmt.Fprintf(&b, "  %-8s [%s] %s / %s\n", "Time:",
		renderBar(m.progress(), 30), formatTime(m.time), formatTime(m.duration))
	fmt.Fprintf(&b, "  %-8s [%s] %.0f%%\n", "Volume:",
		renderBar(float64(min(m.volume, 1)), 10), m.volume*100)

	if m.err != nil {
		fmt.Fprintf(&b, "\n  Error: %v\n", m.err)
	}

	b.WriteString("\n  space:Play/Pause  ←/→:Seek  ↑/↓:Volume  m:Mute  l:Loop  q:Quit\n")

	return b.String()
}

// progress within [0, 1]. The player time runs past the duration when
// looping, so it is wrapped.
func (m Model) progress() float64 {
	if m.duration <= 0 {
		return 0
	}
	return max(0, math.Mod(m.time, m.duration)/m.duration)
}

func renderBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatTime(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
