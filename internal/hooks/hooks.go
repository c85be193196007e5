// Package hooks runs user-configured commands when the timer changes phase
// or completes a countdown, e.g. to raise a desktop notification.
package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/npratt/cadence/internal/config"
	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/exec"
	"github.com/npratt/cadence/internal/phase"
)

// Runner consumes timer notifications and runs the matching hook commands.
type Runner struct {
	cfg    config.HooksConfig
	runner exec.CommandRunner
	logger *slog.Logger

	// current is the phase announced by the latest phase_changed.
	current phase.Phase
}

// New creates a hook Runner. A nil logger uses slog.Default().
func New(cfg config.HooksConfig, runner exec.CommandRunner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// Run handles events from ch until ctx is cancelled or ch is closed. Hook
// commands run one at a time in event order.
func (r *Runner) Run(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			r.handle(ctx, e)
		}
	}
}

func (r *Runner) handle(ctx context.Context, e events.Event) {
	switch ev := e.(type) {
	case *events.PhaseChangedEvent:
		r.current = ev.Phase
		if len(r.cfg.OnPhaseChange) > 0 {
			msg := fmt.Sprintf("%s started (%d sessions done)", ev.Phase.Label(), ev.Sessions)
			r.exec(ctx, "on_phase_change", r.cfg.OnPhaseChange, msg)
		}
	case *events.DoneEvent:
		if len(r.cfg.OnDone) > 0 {
			msg := fmt.Sprintf("Countdown complete, %s is next", r.current.Label())
			r.exec(ctx, "on_done", r.cfg.OnDone, msg)
		}
	}
}

// exec runs argv with msg appended. Failures are logged and otherwise ignored.
func (r *Runner) exec(ctx context.Context, hook string, argv []string, msg string) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	args := append(append([]string{}, argv[1:]...), msg)
	if _, err := r.runner.Run(ctx, argv[0], args...); err != nil {
		r.logger.Warn("hook failed", "hook", hook, "command", argv[0], "error", err)
		return
	}
	r.logger.Debug("hook ran", "hook", hook, "command", argv[0])
}
