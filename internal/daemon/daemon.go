// Package daemon hosts the timer in the background with external control via
// Unix socket RPC.
package daemon

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/npratt/cadence/internal/controller"
	"github.com/npratt/cadence/internal/phase"
)

// Timer is the set of timer commands the daemon exposes.
type Timer interface {
	InitTime(seconds uint32)
	Start() bool
	Toggle() bool
	Reset()
	SwitchPhase(ctx context.Context) (phase.Cycle, error)
	Status() controller.Status
	Stop()
}

// Daemon serves timer commands over a Unix socket.
type Daemon struct {
	timer     Timer
	sockPath  string
	startTime time.Time
	logger    *slog.Logger

	listener net.Listener
	running  bool
	done     chan struct{}
	mu       sync.RWMutex
}

// New creates a Daemon that listens on sockPath and forwards commands to
// timer.
func New(sockPath string, timer Timer, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		timer:    timer,
		sockPath: sockPath,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Running returns whether the daemon is currently running.
func (d *Daemon) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Done is closed once the daemon has stopped serving.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// StartTime returns when the daemon was started.
func (d *Daemon) StartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// SocketPath returns the Unix socket path.
func (d *Daemon) SocketPath() string {
	return d.sockPath
}
