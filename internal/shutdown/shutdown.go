// Package shutdown runs a long-lived component until it returns or the
// process receives SIGINT or SIGTERM.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Signals are the signals that begin a graceful shutdown.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// notify and stopNotify are replaced in tests.
var (
	notify     = signal.Notify
	stopNotify = signal.Stop
)

// RunWithGracefulShutdown starts runner and blocks until it returns or a
// shutdown signal arrives. On a signal the runner context is cancelled,
// stop is called, and the runner is given up to timeout to return.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	stop func(ctx context.Context) error,
) error {
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	notify(sigChan, Signals...)
	defer stopNotify(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig)
	case err := <-runDone:
		return err
	}

	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := stop(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	select {
	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded", "timeout", timeout)
	}

	logger.Info("shutdown complete")
	return nil
}
