package events

import (
	"strings"
	"testing"
	"time"

	"github.com/npratt/cadence/internal/phase"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"nil", nil, ""},
		{"tick", Tick(65), "tick: 01:05 left"},
		{"done", Done(), "countdown complete"},
		{"toggle paused", Toggle(true), "paused"},
		{"toggle running", Toggle(false), "running"},
		{"phase changed one session", PhaseChanged(phase.Cycle{Phase: phase.ShortBreak, Sessions: 1}), "phase: Short Break (1 session done)"},
		{"phase changed plural", PhaseChanged(phase.Cycle{Phase: phase.LongBreak, Sessions: 4}), "phase: Long Break (4 sessions done)"},
		{"timer stopped", TimerStopped(), "timer stopped"},
		{"host stop with reason", &HostStopEvent{BaseEvent: NewHostEvent(EventHostStop), Reason: "signal"}, "host stopped: signal"},
		{"host stop bare", &HostStopEvent{BaseEvent: NewHostEvent(EventHostStop)}, "host stopped"},
		{"error default severity", &ErrorEvent{BaseEvent: NewHostEvent(EventError), Message: "boom"}, "ERROR: boom"},
		{"warning", &ErrorEvent{BaseEvent: NewHostEvent(EventError), Message: "slow", Severity: SeverityWarning}, "WARNING: slow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.event); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds uint32
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{1500, "25:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatWithTimestamp(t *testing.T) {
	e := Done()
	e.Time = time.Date(2024, 1, 1, 9, 30, 15, 0, time.Local)

	if got := FormatWithTimestamp(e); got != "[09:30:15] countdown complete" {
		t.Errorf("FormatWithTimestamp() = %q", got)
	}

	unknown := BaseEvent{EventType: "custom", Time: e.Time}
	if got := FormatWithTimestamp(unknown); got != "[09:30:15] custom" {
		t.Errorf("FormatWithTimestamp(unknown) = %q", got)
	}
}

func TestFormatLine(t *testing.T) {
	t.Run("phase change", func(t *testing.T) {
		line := `{"type":"phase_changed","timestamp":"2024-01-01T10:00:00Z","source":"timer","phase":"long_break","sessions":4}`
		got := FormatLine(line)
		if !strings.HasSuffix(got, "phase: Long Break (4 sessions done)") {
			t.Errorf("FormatLine() = %q", got)
		}
	})

	t.Run("not json", func(t *testing.T) {
		if got := FormatLine("plain text"); got != "plain text" {
			t.Errorf("FormatLine() = %q", got)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		line := `{"type":"custom","timestamp":"2024-01-01T10:00:00Z"}`
		if got := FormatLine(line); !strings.HasSuffix(got, "] custom") {
			t.Errorf("FormatLine() = %q", got)
		}
	})
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 8); got != "hello..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("hi", 8); got != "hi" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("hello", 2); got != "..." {
		t.Errorf("Truncate() = %q", got)
	}
}

func TestSafeString(t *testing.T) {
	if got := SafeString("\x1b[31mred\x1b[0m\nline  two\t"); got != "red line two" {
		t.Errorf("SafeString() = %q", got)
	}
}
