// Package controller runs the countdown loop and applies timer commands
// against the shared control state, publishing notifications to the event
// router.
package controller

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/npratt/cadence/internal/config"
	"github.com/npratt/cadence/internal/control"
	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/metrics"
	"github.com/npratt/cadence/internal/phase"
)

// Status is a point-in-time summary of the timer for display.
type Status struct {
	Phase     phase.Phase `json:"phase"`
	Sessions  uint32      `json:"sessions"`
	Paused    bool        `json:"paused"`
	Running   bool        `json:"running"`
	Duration  uint32      `json:"duration"`
	Remaining uint32      `json:"remaining"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, typically with a fake clock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInstanceID sets the id stamped on host.start and host.stop. The
// default is a fresh random UUID.
func WithInstanceID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.instance = id
		}
	}
}

// Controller owns the countdown loop goroutines. All mutable timer state
// lives in the control.State handed to New.
type Controller struct {
	cfg    config.TimerConfig
	state  *control.State
	router *events.Router
	clock  clockwork.Clock
	logger *slog.Logger

	// instance identifies this host run in the event log.
	instance string

	// remaining is the value carried by the most recent tick.
	remaining atomic.Uint32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Controller. The router may be nil, in which case
// notifications are discarded.
func New(cfg config.TimerConfig, state *control.State, router *events.Router, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:      cfg,
		state:    state,
		router:   router,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		instance: uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remaining.Store(state.Duration())
	metrics.SetPhase(state.Cycle().Phase)
	metrics.SetPaused(state.Paused())
	return c
}

// Run announces the host and blocks until ctx is cancelled or Stop is
// called. Any active loop is stopped before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}
	c.emit(&events.HostStartEvent{
		BaseEvent: events.NewHostEvent(events.EventHostStart),
		WorkDir:   workDir,
		Instance:  c.instance,
	})
	c.logger.Info("timer host started", "instance", c.instance,
		"phase", c.state.Cycle().Phase, "duration", c.state.Duration())

	reason := "stop requested"
	select {
	case <-ctx.Done():
		reason = "context cancelled"
	case <-c.ctx.Done():
	}

	c.shutdown(reason)
	return nil
}

// Stop cancels the controller. Active loops exit without completing.
func (c *Controller) Stop() {
	c.cancel()
}

func (c *Controller) shutdown(reason string) {
	c.logger.Info("shutting down", "reason", reason)
	c.state.RequestReset()
	c.cancel()
	c.wg.Wait()

	c.emit(&events.HostStopEvent{
		BaseEvent: events.NewHostEvent(events.EventHostStop),
		Reason:    reason,
		Instance:  c.instance,
	})
	c.logger.Info("shutdown complete")
}

// InstanceID returns the id of this host run.
func (c *Controller) InstanceID() string {
	return c.instance
}

// Wait blocks until every loop goroutine has exited.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// InitTime sets the phase length in seconds. A running loop picks up the new
// value on its next tick.
func (c *Controller) InitTime(seconds uint32) {
	c.state.SetDuration(seconds)
	if !c.state.Snapshot().Running {
		c.remaining.Store(seconds)
	}
	c.logger.Debug("duration set", "seconds", seconds)
}

// Start launches a countdown loop for the current phase. It returns false,
// without side effects beyond a metric, if a loop already holds the run slot.
func (c *Controller) Start() bool {
	run, ok := c.state.TryAcquireRunSlot()
	if !ok {
		metrics.StartsRejectedTotal.Inc()
		c.logger.Debug("start ignored: timer already running")
		return false
	}

	metrics.LoopsStartedTotal.Inc()
	c.logger.Info("timer started", "generation", run.Generation(), "duration", c.state.Duration())

	c.wg.Add(1)
	go c.loop(run)
	return true
}

// Toggle flips the pause flag, publishes the new value and returns it.
func (c *Controller) Toggle() bool {
	paused := c.state.TogglePause()
	metrics.SetPaused(paused)
	c.emit(events.Toggle(paused))
	c.logger.Info("pause toggled", "paused", paused)
	return paused
}

// Reset stops the active loop without a phase change. The loop exits on its
// next check and publishes nothing further.
func (c *Controller) Reset() {
	c.state.RequestReset()
	c.remaining.Store(c.state.Duration())
	metrics.ResetsTotal.Inc()
	c.logger.Info("reset requested")
}

// SwitchPhase stops any active loop, waits for it to exit, and moves to the
// next phase. The returned cycle is the phase now in effect. An error is
// returned only if ctx ends before the switch is made.
func (c *Controller) SwitchPhase(ctx context.Context) (phase.Cycle, error) {
	idle := c.state.StopRun()

	if err := c.awaitIdle(ctx, idle); err != nil {
		return c.state.Cycle(), err
	}

	from := c.state.Cycle().Phase
	next := c.state.ForceAdvance()
	c.logger.Info("phase skipped", "from", from, "to", next.Phase, "sessions", next.Sessions)
	c.transitioned(ctx, from, next, metrics.TriggerSkipped)
	return next, nil
}

// Status reports the current timer state.
func (c *Controller) Status() Status {
	snap := c.state.Snapshot()
	remaining := snap.Duration
	if snap.Running || snap.Paused {
		remaining = c.remaining.Load()
	}
	return Status{
		Phase:     snap.Cycle.Phase,
		Sessions:  snap.Cycle.Sessions,
		Paused:    snap.Paused,
		Running:   snap.Running,
		Duration:  snap.Duration,
		Remaining: remaining,
	}
}

// awaitIdle blocks until idle closes, giving up with a warning after the
// configured switch timeout.
func (c *Controller) awaitIdle(ctx context.Context, idle <-chan struct{}) error {
	select {
	case <-idle:
		return nil
	default:
	}

	timer := c.clock.NewTimer(c.cfg.SwitchTimeout)
	defer timer.Stop()

	select {
	case <-idle:
		return nil
	case <-timer.Chan():
		c.logger.Warn("timer loop did not stop in time, switching anyway",
			"timeout", c.cfg.SwitchTimeout)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop counts down one phase for run.
func (c *Controller) loop(run *control.Run) {
	defer c.wg.Done()
	defer c.state.Release(run)

	// A loop started right after a reset waits for its predecessor to exit
	// so that two loops never emit ticks at the same time.
	select {
	case <-run.Previous():
	case <-c.ctx.Done():
		return
	}

	start := c.clock.Now()
	var pausedFor time.Duration
	var pausedAt time.Time
	pausing := false

	for {
		changed := c.state.Changed()
		snap := c.state.Snapshot()

		if terminated(snap, run) {
			c.logger.Debug("timer loop exiting", "generation", run.Generation(),
				"reset", snap.ResetRequested, "superseded", snap.Superseded(run))
			return
		}

		if snap.Paused {
			if !pausing {
				pausing = true
				pausedAt = c.clock.Now()
			}
			if !c.waitPaused(changed) {
				return
			}
			continue
		}
		if pausing {
			pausedFor += c.clock.Since(pausedAt)
			pausing = false
		}

		remaining := remainingSeconds(snap.Duration, c.clock.Since(start)-pausedFor)
		c.remaining.Store(remaining)
		metrics.TicksTotal.Inc()
		metrics.RemainingSeconds.Set(float64(remaining))
		c.emit(events.Tick(remaining))

		if remaining == 0 {
			c.complete(run, snap.Cycle.Phase)
			return
		}

		if !c.waitTick(run, changed) {
			return
		}
	}
}

// waitPaused blocks until the state changes or the poll interval passes.
// It returns false when the controller is shutting down.
func (c *Controller) waitPaused(changed <-chan struct{}) bool {
	timer := c.clock.NewTimer(c.cfg.PausePoll)
	defer timer.Stop()

	select {
	case <-changed:
	case <-timer.Chan():
	case <-c.ctx.Done():
		return false
	}
	return true
}

// waitTick blocks for one tick interval. A state change ends the wait early
// only if the loop must stop or pause; any other change keeps waiting on the
// same deadline. It returns false when the controller is shutting down.
func (c *Controller) waitTick(run *control.Run, changed <-chan struct{}) bool {
	timer := c.clock.NewTimer(c.cfg.TickInterval)
	defer timer.Stop()

	for {
		select {
		case <-timer.Chan():
			return true
		case <-c.ctx.Done():
			return false
		case <-changed:
			changed = c.state.Changed()
			snap := c.state.Snapshot()
			if terminated(snap, run) || snap.Paused {
				return true
			}
		}
	}
}

// complete finishes a countdown that reached zero. If a reset or stop lands
// during the grace interval the loop exits without switching phase.
func (c *Controller) complete(run *control.Run, from phase.Phase) {
	if !c.sleep(c.cfg.CompletionGrace) {
		return
	}

	next, ok := c.state.CompleteRun(run)
	if !ok {
		c.logger.Debug("completion abandoned: timer was reset", "generation", run.Generation())
		return
	}

	c.logger.Info("phase completed", "from", from, "to", next.Phase, "sessions", next.Sessions)
	c.transitioned(c.ctx, from, next, metrics.TriggerCompleted)
	c.emit(events.Done())
}

// transitioned publishes a phase change in the fixed order phase_changed,
// toggle(false), timer_stopped.
func (c *Controller) transitioned(ctx context.Context, from phase.Phase, next phase.Cycle, trigger string) {
	if c.cfg.AutoDuration {
		seconds := c.cfg.Durations().Seconds(next.Phase)
		c.state.SetDuration(seconds)
		c.remaining.Store(seconds)
	}

	metrics.RecordTransition(from, next.Phase, trigger)
	metrics.SetPaused(false)

	c.emit(events.PhaseChanged(next))
	c.sleepCtx(ctx, c.cfg.SwitchGrace)
	c.emit(events.Toggle(false))
	c.emit(events.TimerStopped())
}

// sleep waits d on the controller clock. It returns false if the controller
// is shutting down.
func (c *Controller) sleep(d time.Duration) bool {
	return c.sleepCtx(c.ctx, d)
}

func (c *Controller) sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

// emit sends an event to the router if available.
func (c *Controller) emit(event events.Event) {
	if c.router != nil {
		c.router.Emit(event)
	}
}

// terminated reports whether the loop owning run must stop.
func terminated(snap control.Snapshot, run *control.Run) bool {
	return snap.Superseded(run) || snap.ResetRequested || !snap.Running
}

// remainingSeconds clamps duration minus whole elapsed seconds at zero.
func remainingSeconds(duration uint32, elapsed time.Duration) uint32 {
	if elapsed < 0 {
		elapsed = 0
	}
	secs := uint64(elapsed / time.Second)
	if secs >= uint64(duration) {
		return 0
	}
	return duration - uint32(secs)
}
