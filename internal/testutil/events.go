package testutil

import (
	"testing"
	"time"

	"github.com/npratt/cadence/internal/events"
)

// DefaultEventTimeout bounds how long NextEvent waits.
const DefaultEventTimeout = 2 * time.Second

// NextEvent receives one event from ch or fails the test after timeout.
func NextEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) events.Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return e
	case <-time.After(timeout):
		t.Fatalf("no event within %v", timeout)
		return nil
	}
}

// WaitForType receives events until one of type want arrives, returning it
// along with every event seen before it.
func WaitForType(t *testing.T, ch <-chan events.Event, want events.EventType) (events.Event, []events.Event) {
	t.Helper()
	var seen []events.Event
	deadline := time.After(DefaultEventTimeout)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed waiting for %s", want)
			}
			if e.Type() == want {
				return e, seen
			}
			seen = append(seen, e)
		case <-deadline:
			t.Fatalf("no %s event within %v (saw %v)", want, DefaultEventTimeout, Types(seen))
			return nil, seen
		}
	}
}

// Drain returns every event currently buffered in ch without blocking.
func Drain(ch <-chan events.Event) []events.Event {
	var out []events.Event
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

// Types lists the type of each event in order.
func Types(evts []events.Event) []events.EventType {
	out := make([]events.EventType, len(evts))
	for i, e := range evts {
		out[i] = e.Type()
	}
	return out
}

// Ticks extracts the remaining seconds carried by each tick event in order.
func Ticks(evts []events.Event) []uint32 {
	var out []uint32
	for _, e := range evts {
		if tick, ok := e.(*events.TickEvent); ok {
			out = append(out, tick.SecondsLeft)
		}
	}
	return out
}

// WithoutTicks filters tick events out.
func WithoutTicks(evts []events.Event) []events.Event {
	var out []events.Event
	for _, e := range evts {
		if e.Type() != events.EventTick {
			out = append(out, e)
		}
	}
	return out
}
