package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/cadence/internal/controller"
	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/phase"
)

// eventLine represents a formatted event for display.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// model is the bubbletea model for the TUI.
type model struct {
	eventChan <-chan events.Event
	timer     Timer
	onQuit    func()

	// Last known timer state. Events update it between syncs.
	status controller.Status
	notice string

	eventLines []eventLine

	spinner  spinner.Model
	progress progress.Model
	input    textinput.Model
	editing  bool

	width  int
	height int
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

func newModel(eventChan <-chan events.Event, timer Timer, onQuit func()) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusRunning

	in := textinput.New()
	in.Prompt = "set time: "
	in.Placeholder = "25m or 1500"
	in.CharLimit = 16
	in.Width = 20

	m := model{
		eventChan: eventChan,
		timer:     timer,
		onQuit:    onQuit,
		spinner:   sp,
		progress:  progress.New(progress.WithoutPercentage(), progress.WithSolidFill(string(phaseColor(phase.Work)))),
		input:     in,
	}
	m.syncStatus()
	return m
}

// syncStatus refreshes the cached state from the timer, if there is one.
func (m *model) syncStatus() {
	if m.timer == nil {
		return
	}
	m.status = m.timer.Status()
}

// fraction returns how much of the current phase has elapsed, in [0, 1].
func (m model) fraction() float64 {
	if m.status.Duration == 0 {
		return 0
	}
	remaining := min(m.status.Remaining, m.status.Duration)
	return 1 - float64(remaining)/float64(m.status.Duration)
}
