// Package tui provides a terminal UI for driving the timer using bubbletea.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/cadence/internal/controller"
	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/phase"
)

// Timer is the set of timer commands the UI issues.
type Timer interface {
	InitTime(seconds uint32)
	Start() bool
	Toggle() bool
	Reset()
	SwitchPhase(ctx context.Context) (phase.Cycle, error)
	Status() controller.Status
}

// TUI is the terminal UI for the timer.
type TUI struct {
	eventChan <-chan events.Event
	timer     Timer
	onQuit    func()
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI with the given event channel and options.
func New(eventChan <-chan events.Event, opts ...Option) *TUI {
	t := &TUI{
		eventChan: eventChan,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithTimer sets the timer the key bindings act on.
func WithTimer(timer Timer) Option {
	return func(t *TUI) {
		t.timer = timer
	}
}

// WithOnQuit sets the callback invoked when the user presses 'q'.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// Run starts the TUI and blocks until it exits. Without a usable terminal
// it prints events line by line instead.
func (t *TUI) Run() error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple()
	}

	m := newModel(t.eventChan, t.timer, t.onQuit)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
