package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/cadence/internal/events"
)

// StyleForEvent returns the log line style for an event.
func StyleForEvent(event events.Event) lipgloss.Style {
	switch e := event.(type) {
	case *events.PhaseChangedEvent:
		return styles.Phase
	case *events.DoneEvent:
		return styles.Done
	case *events.HostStartEvent, *events.HostStopEvent:
		return styles.Host
	case *events.ErrorEvent:
		if e.Severity == events.SeverityWarning {
			return styles.Warning
		}
		return styles.Error
	default:
		return styles.Event
	}
}

// logged reports whether an event belongs in the on-screen log. Ticks are
// shown by the clock instead.
func logged(event events.Event) bool {
	_, tick := event.(*events.TickEvent)
	return !tick
}
