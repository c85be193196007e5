package testutil

import (
	"slices"
	"testing"

	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/phase"
)

func TestEventHelpers(t *testing.T) {
	ch := make(chan events.Event, 10)
	ch <- events.Tick(2)
	ch <- events.Tick(1)
	ch <- events.PhaseChanged(phase.Cycle{Phase: phase.ShortBreak, Sessions: 1})
	ch <- events.Done()

	first := NextEvent(t, ch, DefaultEventTimeout)
	if first.Type() != events.EventTick {
		t.Fatalf("first event = %s, want tick", first.Type())
	}

	done, before := WaitForType(t, ch, events.EventDone)
	if done.Type() != events.EventDone {
		t.Errorf("WaitForType returned %s", done.Type())
	}
	if got := Types(before); !slices.Equal(got, []events.EventType{events.EventTick, events.EventPhaseChanged}) {
		t.Errorf("events before done = %v", got)
	}
	if got := Ticks(before); !slices.Equal(got, []uint32{1}) {
		t.Errorf("Ticks() = %v, want [1]", got)
	}
	if got := WithoutTicks(before); len(got) != 1 {
		t.Errorf("WithoutTicks() kept %d events, want 1", len(got))
	}

	if rest := Drain(ch); len(rest) != 0 {
		t.Errorf("Drain() = %d events, want 0", len(rest))
	}
}
