package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/cadence/internal/events"
)

const (
	minWidth  = 40
	minHeight = 12
)

// footerHelp lists the key bindings.
const footerHelp = "s start  p pause  r reset  n skip  t set time  q quit"

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	innerWidth := safeWidth(m.width - 4)

	sections := []string{
		m.renderHeader(innerWidth),
		m.renderClock(innerWidth),
		m.progress.ViewAs(m.fraction()),
		m.renderDivider(innerWidth),
		m.renderEvents(innerWidth),
		m.renderDivider(innerWidth),
		m.renderFooter(),
	}

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Padding(0, 1).
		Render(strings.Join(sections, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderHeader shows the phase, the session count and the run state.
func (m model) renderHeader(width int) string {
	title := styles.Title.
		Foreground(phaseColor(m.status.Phase)).
		Render(m.status.Phase.Label())
	sessions := styles.Sessions.Render(fmt.Sprintf("%d sessions", m.status.Sessions))
	left := title + "  " + sessions

	right := m.renderState()
	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// renderState returns the run state with a spinner while counting down.
func (m model) renderState() string {
	switch {
	case m.status.Paused:
		return styles.StatusPaused.Render("paused")
	case m.status.Running:
		return m.spinner.View() + " " + styles.StatusRunning.Render("running")
	default:
		return styles.StatusIdle.Render("idle")
	}
}

// renderClock renders the remaining time centred in the pane.
func (m model) renderClock(width int) string {
	remaining := m.status.Remaining
	if !m.status.Running && !m.status.Paused {
		remaining = m.status.Duration
	}
	clock := styles.Clock.
		Foreground(phaseColor(m.status.Phase)).
		Render(events.FormatClock(remaining))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, clock)
}

// renderEvents renders the tail of the event log that fits the pane.
func (m model) renderEvents(width int) string {
	visible := m.visibleLines()
	start := max(0, len(m.eventLines)-visible)

	lines := make([]string, 0, visible)
	for _, el := range m.eventLines[start:] {
		text := fmt.Sprintf("%s %s", el.Time.Format("15:04:05"), el.Text)
		lines = append(lines, el.Style.Render(events.Truncate(text, width)))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// visibleLines is the number of event rows that fit below the clock.
// Borders (2), header (1), clock with padding (3), progress (1),
// dividers (2) and footer (1) take the rest.
func (m model) visibleLines() int {
	return max(1, m.height-10)
}

func (m model) renderDivider(width int) string {
	return styles.Divider.Render(strings.Repeat("─", width))
}

// renderFooter shows the prompt, a notice, or the key help.
func (m model) renderFooter() string {
	if m.editing {
		return styles.Prompt.Render(m.input.View())
	}
	if m.notice != "" {
		return styles.Warning.Render(m.notice)
	}
	return styles.Footer.Render(footerHelp)
}

func (m model) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small (%dx%d). Need at least %dx%d.",
		m.width, m.height, minWidth, minHeight)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
}

// safeWidth clamps a computed width to at least 1.
func safeWidth(w int) int {
	return max(1, w)
}
