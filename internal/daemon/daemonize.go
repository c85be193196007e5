package daemon

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// daemonEnvVar marks the re-executed child as the background host.
	daemonEnvVar = "CADENCE_DAEMONIZED"

	readyTimeout = 2 * time.Second
	readyPoll    = 50 * time.Millisecond
)

// errChildExited reports that the background host died before its socket
// came up, typically because another host holds the PID file.
var errChildExited = errors.New("background host exited during startup")

// Daemonize moves `cadence serve` into the background by re-executing the
// binary in a new session with CADENCE_DAEMONIZED=1.
//
// In the parent it waits for the child's socket, prints the child's pid to
// out and returns shouldExit=true. In the child it returns the current pid
// and shouldExit=false so serve carries on as the host.
func Daemonize(socketPath string, out io.Writer) (shouldExit bool, pid int, err error) {
	if IsDaemonized() {
		return false, os.Getpid(), nil
	}

	executable, err := os.Executable()
	if err != nil {
		return false, 0, fmt.Errorf("get executable path: %w", err)
	}

	// Nil stdio attaches /dev/null; Setsid detaches from the terminal.
	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonEnvVar+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return false, 0, fmt.Errorf("start daemon: %w", err)
	}
	pid = cmd.Process.Pid

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	switch err := awaitReady(socketPath, readyTimeout, exited); {
	case errors.Is(err, errChildExited):
		return false, pid, fmt.Errorf("pid %d: %w", pid, err)
	case err != nil:
		_, _ = fmt.Fprintf(out, "Started daemon (pid %d), socket not yet available\n", pid)
	default:
		_, _ = fmt.Fprintf(out, "Started daemon (pid %d)\n", pid)
	}
	return true, pid, nil
}

// IsDaemonized reports whether this process is the background child.
func IsDaemonized() bool {
	return os.Getenv(daemonEnvVar) == "1"
}

// awaitReady polls socketPath until it accepts a connection. It gives up at
// the timeout or as soon as exited delivers the child's exit status.
func awaitReady(socketPath string, timeout time.Duration, exited <-chan error) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(readyPoll)
	defer poll.Stop()

	for {
		if conn, err := net.DialTimeout("unix", socketPath, readyPoll); err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case err := <-exited:
			if err != nil {
				return fmt.Errorf("%w: %v", errChildExited, err)
			}
			return errChildExited
		case <-deadline.C:
			return fmt.Errorf("socket not available after %v", timeout)
		case <-poll.C:
		}
	}
}
