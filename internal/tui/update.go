package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/cadence/internal/config"
	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/phase"
)

const (
	// maxEventLines is the maximum number of event lines to keep in the buffer.
	maxEventLines = 200
	// trimEventLines is the number of lines to remove when buffer exceeds max.
	trimEventLines = 50
	// syncInterval is how often the cached state is refreshed from the timer.
	syncInterval = time.Second
	// switchTimeout bounds a skip issued from the keyboard.
	switchTimeout = 5 * time.Second
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// syncMsg signals a periodic state refresh.
type syncMsg time.Time

// switchResultMsg carries the outcome of a skip.
type switchResultMsg struct {
	cycle phase.Cycle
	err   error
}

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

func doSync() tea.Cmd {
	return tea.Tick(syncInterval, func(t time.Time) tea.Msg {
		return syncMsg(t)
	})
}

// switchPhase runs a skip off the UI goroutine; it blocks until the loop
// has stopped.
func switchPhase(timer Timer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
		defer cancel()
		cycle, err := timer.SwitchPhase(ctx)
		return switchResultMsg{cycle: cycle, err: err}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventChan), m.spinner.Tick, doSync())
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, m.width-8)
		return m, nil

	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case syncMsg:
		m.syncStatus()
		return m, doSync()

	case switchResultMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("skip failed: %v", msg.err)
		} else {
			m.notice = ""
			m.status.Phase = msg.cycle.Phase
			m.status.Sessions = msg.cycle.Sessions
		}
		m.syncStatus()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	default:
		return m, nil
	}
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m.quit()
	}
	if m.editing {
		return m.handlePromptKey(msg)
	}

	switch key {
	case "q":
		return m.quit()

	case "s":
		if m.timer != nil && !m.timer.Start() {
			m.notice = "already running"
		} else {
			m.notice = ""
		}
		m.syncStatus()
		return m, nil

	case " ", "space", "p":
		if m.timer != nil {
			m.status.Paused = m.timer.Toggle()
		}
		return m, nil

	case "r":
		if m.timer != nil {
			m.timer.Reset()
		}
		m.notice = ""
		m.syncStatus()
		return m, nil

	case "n":
		if m.timer == nil {
			return m, nil
		}
		m.notice = "switching phase..."
		return m, switchPhase(m.timer)

	case "t":
		m.editing = true
		m.input.SetValue("")
		return m, m.input.Focus()

	default:
		return m, nil
	}
}

// handlePromptKey handles keys while the set-time prompt is open.
func (m model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil

	case tea.KeyEnter:
		seconds, err := config.ParseSeconds(m.input.Value())
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		if m.timer != nil {
			m.timer.InitTime(seconds)
		}
		m.notice = fmt.Sprintf("duration set to %s", events.FormatClock(seconds))
		m.closePrompt()
		m.syncStatus()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) closePrompt() {
	m.editing = false
	m.input.Blur()
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.onQuit != nil {
		m.onQuit()
	}
	return m, tea.Quit
}

// handleEvent processes an event and updates model state.
func (m *model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case *events.TickEvent:
		m.status.Running = true
		m.status.Remaining = e.SecondsLeft

	case *events.ToggleEvent:
		m.status.Paused = e.Paused

	case *events.PhaseChangedEvent:
		m.status.Phase = e.Phase
		m.status.Sessions = e.Sessions
		m.progress.FullColor = string(phaseColor(e.Phase))

	case *events.TimerStoppedEvent:
		m.status.Running = false
		m.syncStatus()
	}

	if !logged(event) {
		return
	}
	text := events.Format(event)
	if text == "" {
		return
	}

	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
	}
}
