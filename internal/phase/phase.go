// Package phase defines the focus/break cycle phases and the pure
// scheduling rule that moves a cycle from one phase to the next.
package phase

import (
	"fmt"
	"time"
)

// Phase is one segment of the focus/break cycle.
type Phase uint8

// Phases. Work is the zero value.
const (
	Work Phase = iota
	ShortBreak
	LongBreak
)

// LongBreakEvery is the number of completed work sessions between long breaks.
const LongBreakEvery = 4

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case Work:
		return "work"
	case ShortBreak:
		return "short_break"
	case LongBreak:
		return "long_break"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Label returns a display title for the phase.
func (p Phase) Label() string {
	switch p {
	case Work:
		return "Focus"
	case ShortBreak:
		return "Short Break"
	case LongBreak:
		return "Long Break"
	default:
		return p.String()
	}
}

// IsBreak reports whether p is one of the break phases.
func (p Phase) IsBreak() bool {
	return p == ShortBreak || p == LongBreak
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	switch p {
	case Work, ShortBreak, LongBreak:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("unknown phase %d", uint8(p))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase converts a wire name back into a Phase.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "work":
		return Work, nil
	case "short_break":
		return ShortBreak, nil
	case "long_break":
		return LongBreak, nil
	default:
		return Work, fmt.Errorf("unknown phase %q", s)
	}
}

// Advance computes the phase that follows current and the updated count of
// completed work sessions. Every LongBreakEvery-th completed work session
// is followed by a long break. Breaks always return to Work and leave the
// count unchanged.
func Advance(current Phase, sessions uint32) (Phase, uint32) {
	if current.IsBreak() {
		return Work, sessions
	}
	sessions++
	if sessions%LongBreakEvery == 0 {
		return LongBreak, sessions
	}
	return ShortBreak, sessions
}

// Cycle is the phase together with the number of completed work sessions.
// The two are always read and written as one value.
type Cycle struct {
	Phase    Phase  `json:"phase"`
	Sessions uint32 `json:"sessions"`
}

// Next returns the cycle that follows c.
func (c Cycle) Next() Cycle {
	p, s := Advance(c.Phase, c.Sessions)
	return Cycle{Phase: p, Sessions: s}
}

// Durations holds the configured length of each phase.
type Durations struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// For returns the configured length of p.
func (d Durations) For(p Phase) time.Duration {
	switch p {
	case ShortBreak:
		return d.ShortBreak
	case LongBreak:
		return d.LongBreak
	default:
		return d.Work
	}
}

// Seconds returns the configured length of p in whole seconds.
func (d Durations) Seconds(p Phase) uint32 {
	secs := d.For(p) / time.Second
	if secs < 0 {
		return 0
	}
	return uint32(secs)
}
