package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/cadence/internal/phase"
)

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title    lipgloss.Style
	Sessions lipgloss.Style

	// Countdown
	Clock lipgloss.Style

	// Footer style
	Footer lipgloss.Style
	Prompt lipgloss.Style

	// Event styles
	Event   lipgloss.Style
	Phase   lipgloss.Style
	Done    lipgloss.Style
	Host    lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Status colors
	StatusIdle    lipgloss.Style
	StatusRunning lipgloss.Style
	StatusPaused  lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Sessions: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Clock: lipgloss.NewStyle().
		Bold(true).
		Padding(1, 0),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Prompt: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Event: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Phase: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	Done: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Host: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Warning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	StatusIdle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	StatusRunning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StatusPaused: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),
}

// phaseColors tints the clock and progress bar per phase.
var phaseColors = map[phase.Phase]lipgloss.Color{
	phase.Work:       lipgloss.Color("203"),
	phase.ShortBreak: lipgloss.Color("79"),
	phase.LongBreak:  lipgloss.Color("75"),
}

// phaseColor returns the accent color for p.
func phaseColor(p phase.Phase) lipgloss.Color {
	if c, ok := phaseColors[p]; ok {
		return c
	}
	return lipgloss.Color("252")
}
