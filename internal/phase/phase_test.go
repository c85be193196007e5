package phase

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name         string
		current      Phase
		sessions     uint32
		wantPhase    Phase
		wantSessions uint32
	}{
		{"first work session", Work, 0, ShortBreak, 1},
		{"fourth work session", Work, 3, LongBreak, 4},
		{"fifth work session", Work, 4, ShortBreak, 5},
		{"eighth work session", Work, 7, LongBreak, 8},
		{"short break returns to work", ShortBreak, 4, Work, 4},
		{"long break returns to work", LongBreak, 7, Work, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPhase, gotSessions := Advance(tt.current, tt.sessions)
			if gotPhase != tt.wantPhase {
				t.Errorf("phase = %s, want %s", gotPhase, tt.wantPhase)
			}
			if gotSessions != tt.wantSessions {
				t.Errorf("sessions = %d, want %d", gotSessions, tt.wantSessions)
			}
		})
	}
}

func TestCycleNext_FullRotation(t *testing.T) {
	c := Cycle{}
	want := []Phase{
		ShortBreak, Work, ShortBreak, Work, ShortBreak, Work, LongBreak, Work,
	}
	for i, w := range want {
		c = c.Next()
		if c.Phase != w {
			t.Fatalf("step %d: phase = %s, want %s", i, c.Phase, w)
		}
	}
	if c.Sessions != 4 {
		t.Errorf("sessions = %d, want 4", c.Sessions)
	}
}

func TestParsePhase(t *testing.T) {
	for _, p := range []Phase{Work, ShortBreak, LongBreak} {
		got, err := ParsePhase(p.String())
		if err != nil {
			t.Fatalf("ParsePhase(%q): %v", p.String(), err)
		}
		if got != p {
			t.Errorf("ParsePhase(%q) = %s, want %s", p.String(), got, p)
		}
	}

	if _, err := ParsePhase("nap"); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestPhaseJSON(t *testing.T) {
	data, err := json.Marshal(Cycle{Phase: LongBreak, Sessions: 4})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"phase":"long_break","sessions":4}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	if _, err := json.Marshal(Phase(9)); err == nil {
		t.Error("expected error marshaling unknown phase")
	}
}

func TestDurations(t *testing.T) {
	d := Durations{
		Work:       25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  15 * time.Minute,
	}
	if got := d.Seconds(Work); got != 1500 {
		t.Errorf("Seconds(Work) = %d, want 1500", got)
	}
	if got := d.Seconds(ShortBreak); got != 300 {
		t.Errorf("Seconds(ShortBreak) = %d, want 300", got)
	}
	if got := d.Seconds(LongBreak); got != 900 {
		t.Errorf("Seconds(LongBreak) = %d, want 900", got)
	}
}

func TestLabel(t *testing.T) {
	if Work.Label() != "Focus" {
		t.Errorf("Work.Label() = %q", Work.Label())
	}
	if !LongBreak.IsBreak() || Work.IsBreak() {
		t.Error("IsBreak mismatch")
	}
}
