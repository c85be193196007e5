package events

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/npratt/cadence/internal/phase"
)

const (
	maxMessageLength  = 100
	truncateIndicator = "..."
)

// Format converts an event to a human-readable string for display.
// Returns empty string for nil or unknown event types.
func Format(event Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *TickEvent:
		return fmt.Sprintf("tick: %s left", FormatClock(e.SecondsLeft))
	case *DoneEvent:
		return "countdown complete"
	case *ToggleEvent:
		if e.Paused {
			return "paused"
		}
		return "running"
	case *PhaseChangedEvent:
		return formatPhaseChanged(e.Phase, e.Sessions)
	case *TimerStoppedEvent:
		return "timer stopped"
	case *HostStartEvent:
		return fmt.Sprintf("host started: %s", SafeString(e.WorkDir))
	case *HostStopEvent:
		if reason := SafeString(e.Reason); reason != "" {
			return fmt.Sprintf("host stopped: %s", reason)
		}
		return "host stopped"
	case *ErrorEvent:
		return formatError(e.Severity, e.Message)
	default:
		return ""
	}
}

// FormatWithTimestamp formats an event with a timestamp prefix.
func FormatWithTimestamp(event Event) string {
	if event == nil {
		return ""
	}
	ts := event.Timestamp().Format("15:04:05")
	detail := Format(event)
	if detail == "" {
		return fmt.Sprintf("[%s] %s", ts, event.Type())
	}
	return fmt.Sprintf("[%s] %s", ts, detail)
}

// FormatLine formats one JSON line from the event log. Lines that are not
// JSON are returned unchanged.
func FormatLine(line string) string {
	var rec struct {
		Type        EventType   `json:"type"`
		Time        time.Time   `json:"timestamp"`
		SecondsLeft uint32      `json:"seconds_left"`
		Paused      bool        `json:"paused"`
		Phase       phase.Phase `json:"phase"`
		Sessions    uint32      `json:"sessions"`
		WorkDir     string      `json:"work_dir"`
		Reason      string      `json:"reason"`
		Message     string      `json:"message"`
		Severity    string      `json:"severity"`
	}
	if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Type == "" {
		return line
	}

	base := BaseEvent{EventType: rec.Type, Time: rec.Time}
	var event Event
	switch rec.Type {
	case EventTick:
		event = &TickEvent{BaseEvent: base, SecondsLeft: rec.SecondsLeft}
	case EventDone:
		event = &DoneEvent{BaseEvent: base}
	case EventToggle:
		event = &ToggleEvent{BaseEvent: base, Paused: rec.Paused}
	case EventPhaseChanged:
		event = &PhaseChangedEvent{BaseEvent: base, Phase: rec.Phase, Sessions: rec.Sessions}
	case EventTimerStopped:
		event = &TimerStoppedEvent{BaseEvent: base}
	case EventHostStart:
		event = &HostStartEvent{BaseEvent: base, WorkDir: rec.WorkDir}
	case EventHostStop:
		event = &HostStopEvent{BaseEvent: base, Reason: rec.Reason}
	case EventError:
		event = &ErrorEvent{BaseEvent: base, Message: rec.Message, Severity: rec.Severity}
	default:
		event = base
	}
	return FormatWithTimestamp(event)
}

// FormatClock renders seconds as MM:SS, or H:MM:SS from one hour up.
func FormatClock(seconds uint32) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatPhaseChanged(p phase.Phase, sessions uint32) string {
	noun := "sessions"
	if sessions == 1 {
		noun = "session"
	}
	return fmt.Sprintf("phase: %s (%d %s done)", p.Label(), sessions, noun)
}

func formatError(severity, message string) string {
	severity = SafeString(severity)
	if severity == "" {
		severity = SeverityError
	}
	return fmt.Sprintf("%s: %s", strings.ToUpper(severity), Truncate(message, maxMessageLength))
}

// Truncate shortens text to maxLen, adding indicator if truncated.
func Truncate(s string, maxLen int) string {
	s = SafeString(s)
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(truncateIndicator) {
		return truncateIndicator
	}
	return s[:maxLen-len(truncateIndicator)] + truncateIndicator
}

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// SafeString sanitizes a string for display by removing control characters
// and collapsing whitespace.
func SafeString(s string) string {
	s = ansiRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}
	return strings.TrimSpace(result)
}
