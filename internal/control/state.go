// Package control holds the shared, lock-guarded record of timer
// configuration and runtime flags. A single *State is created at process
// start and handed explicitly to every component that reads or mutates it.
package control

import (
	"sync"
	"sync/atomic"

	"github.com/npratt/cadence/internal/phase"
)

// Run identifies one timer loop that holds the run slot.
type Run struct {
	gen  uint64
	done chan struct{}
	prev <-chan struct{}
}

// Generation returns the run's sequence number.
func (r *Run) Generation() uint64 {
	return r.gen
}

// Done is closed once the loop owning r has released it.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Previous is closed once the loop that held the slot before r has exited.
func (r *Run) Previous() <-chan struct{} {
	return r.prev
}

// Snapshot is a point-in-time view of the state used by the loop for its
// per-tick decisions.
type Snapshot struct {
	Paused         bool
	ResetRequested bool
	Running        bool
	Duration       uint32
	Generation     uint64
	Cycle          phase.Cycle
}

// Superseded reports whether the snapshot was taken after run r lost the slot
// to a newer run.
func (s Snapshot) Superseded(r *Run) bool {
	return s.Generation != r.gen
}

// closedCh is returned by Idle when no loop has ever run.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// State is the shared control record.
type State struct {
	mu             sync.Mutex
	paused         bool
	resetRequested bool
	running        bool
	cycle          phase.Cycle
	gen            uint64
	run            *Run
	changed        chan struct{}

	// duration is written by commands while the loop reads it once per tick.
	duration atomic.Uint32
}

// New creates the control state with Work as the phase, zero completed
// sessions and the given default phase length in seconds.
func New(defaultDuration uint32) *State {
	s := &State{
		changed: make(chan struct{}),
	}
	s.duration.Store(defaultDuration)
	return s
}

// notifyLocked wakes everyone blocked on Changed. Caller must hold mu.
func (s *State) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Changed returns a channel that is closed on the next state mutation.
func (s *State) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// SetDuration overwrites the current phase length. The running loop picks it
// up on its next tick.
func (s *State) SetDuration(seconds uint32) {
	s.duration.Store(seconds)
	s.mu.Lock()
	s.notifyLocked()
	s.mu.Unlock()
}

// Duration returns the configured phase length in seconds.
func (s *State) Duration() uint32 {
	return s.duration.Load()
}

// TogglePause flips the pause flag and returns the new value.
func (s *State) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	s.notifyLocked()
	return s.paused
}

// Paused returns the pause flag.
func (s *State) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// RequestReset asks the active loop to terminate without completing. It is a
// no-op beyond setting the flags when no loop is active.
func (s *State) RequestReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetRequested = true
	s.running = false
	s.notifyLocked()
}

// StopRun requests a reset and returns the channel that closes when the loop
// holding the slot at that moment exits. Both happen under one lock, so a
// Start racing with the caller cannot swap in a loop the reset never saw.
func (s *State) StopRun() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetRequested = true
	s.running = false
	s.notifyLocked()
	if s.run == nil {
		return closedCh
	}
	return s.run.done
}

// TryAcquireRunSlot claims the exclusive right to run a loop. It returns
// false if a loop already holds the slot. The check and the claim happen in
// one critical section.
func (s *State) TryAcquireRunSlot() (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, false
	}

	var prev <-chan struct{} = closedCh
	if s.run != nil {
		prev = s.run.done
	}

	s.gen++
	s.run = &Run{
		gen:  s.gen,
		done: make(chan struct{}),
		prev: prev,
	}
	s.running = true
	s.resetRequested = false
	s.notifyLocked()
	return s.run, true
}

// Release marks r's loop as exited. The running flag is cleared only if r
// still owns the slot. Release is safe to call more than once.
func (s *State) Release(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.gen == s.gen {
		s.running = false
	}
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	s.notifyLocked()
}

// Idle returns a channel that is closed when the most recent loop has
// exited. It is already closed when no loop was ever started.
func (s *State) Idle() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return closedCh
	}
	return s.run.done
}

// Snapshot returns a consistent view of every field the loop needs.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Paused:         s.paused,
		ResetRequested: s.resetRequested,
		Running:        s.running,
		Duration:       s.duration.Load(),
		Generation:     s.gen,
		Cycle:          s.cycle,
	}
}

// Cycle returns the current phase and session count.
func (s *State) Cycle() phase.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle
}

// CompleteRun advances the cycle after r counted down to zero. It refuses,
// returning false, if r was superseded or a reset or stop was requested
// since the last tick. On success the run slot is given up and the pause and
// reset flags are cleared.
func (s *State) CompleteRun(r *Run) (phase.Cycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.gen != s.gen || s.resetRequested || !s.running {
		return s.cycle, false
	}

	s.cycle = s.cycle.Next()
	s.running = false
	s.paused = false
	s.resetRequested = false
	s.notifyLocked()
	return s.cycle, true
}

// ForceAdvance moves to the next phase regardless of remaining time. Callers
// stop the active loop first with StopRun. A loop that claimed the slot
// since then is stopped here as well, so no countdown survives the switch.
// The pause and reset flags are cleared.
func (s *State) ForceAdvance() phase.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycle = s.cycle.Next()
	s.running = false
	s.paused = false
	s.resetRequested = false
	s.notifyLocked()
	return s.cycle
}
