package daemon

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npratt/cadence/internal/controller"
	"github.com/npratt/cadence/internal/phase"
)

// fakeTimer records the commands it receives.
type fakeTimer struct {
	mu       sync.Mutex
	status   controller.Status
	started  int
	resets   int
	stopped  bool
	switchFn func(ctx context.Context) (phase.Cycle, error)
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{status: controller.Status{Phase: phase.Work, Duration: 1500, Remaining: 1500}}
}

func (f *fakeTimer) InitTime(seconds uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Duration = seconds
	f.status.Remaining = seconds
}

func (f *fakeTimer) Start() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	if f.status.Running {
		return false
	}
	f.status.Running = true
	return true
}

func (f *fakeTimer) Toggle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Paused = !f.status.Paused
	return f.status.Paused
}

func (f *fakeTimer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.status.Running = false
}

func (f *fakeTimer) SwitchPhase(ctx context.Context) (phase.Cycle, error) {
	if f.switchFn != nil {
		return f.switchFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := phase.Cycle{Phase: f.status.Phase, Sessions: f.status.Sessions}.Next()
	f.status.Phase, f.status.Sessions = next.Phase, next.Sessions
	f.status.Running = false
	f.status.Paused = false
	return next, nil
}

func (f *fakeTimer) Status() controller.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeTimer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTimer) snapshot() fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeTimer{status: f.status, started: f.started, resets: f.resets, stopped: f.stopped}
}

// waitForSocket waits for the socket to be ready to accept connections.
func waitForSocket(t *testing.T, socketPath string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket did not become ready within %v", timeout)
}

// shortSocketPath creates a short socket path to avoid Unix socket length limits.
// macOS has a 104 byte limit, Linux has 108 bytes.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "sock")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)
	t.Cleanup(func() { _ = os.Remove(path) })
	return path
}

// startDaemon runs a daemon for timer until the test ends.
func startDaemon(t *testing.T, timer Timer) *Daemon {
	t.Helper()
	d := New(shortSocketPath(t), timer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	waitForSocket(t, d.SocketPath(), 2*time.Second)
	return d
}

// rawCall writes payload to the daemon and decodes one response.
func rawCall(t *testing.T, sockPath string, payload string) Response {
	t.Helper()
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial socket: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write([]byte(payload + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestDaemon_StartStop(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "test.sock")
	d := New(sockPath, newFakeTimer(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	waitForSocket(t, sockPath, 2*time.Second)
	if !d.Running() {
		t.Error("daemon should be running")
	}
	if d.StartTime().IsZero() {
		t.Error("start time should be set")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}

	if d.Running() {
		t.Error("daemon should not be running after stop")
	}
	if _, err := os.Stat(sockPath); !os.IsNotExist(err) {
		t.Error("socket should be removed after stop")
	}
	select {
	case <-d.Done():
	default:
		t.Error("Done() should be closed after stop")
	}
}

func TestDaemon_StartAlreadyRunning(t *testing.T) {
	d := startDaemon(t, newFakeTimer())

	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestDaemon_SocketPermissions(t *testing.T) {
	d := startDaemon(t, newFakeTimer())

	info, err := os.Stat(d.SocketPath())
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if perm := info.Mode().Perm(); perm != socketPermissions {
		t.Errorf("socket permissions = %o, want %o", perm, socketPermissions)
	}
}

func TestDaemon_StopIdempotent(t *testing.T) {
	d := New(shortSocketPath(t), newFakeTimer(), nil)

	for i := 0; i < 3; i++ {
		if err := d.Stop(); err != nil {
			t.Errorf("Stop() #%d error: %v", i+1, err)
		}
	}
}

func TestDaemon_CleanupStaleSocket(t *testing.T) {
	sockPath := shortSocketPath(t)
	if err := os.WriteFile(sockPath, []byte("stale"), 0600); err != nil {
		t.Fatalf("create stale socket: %v", err)
	}

	d := New(sockPath, newFakeTimer(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()

	waitForSocket(t, sockPath, 2*time.Second)
	info, err := os.Stat(sockPath)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		t.Error("stale file should be replaced by a socket")
	}
}

func TestDaemon_HandleConnection_Errors(t *testing.T) {
	d := startDaemon(t, newFakeTimer())

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", "not json"},
		{"unknown method", `{"method":"unknown_method","id":1}`},
		{"init_time without seconds", `{"method":"init_time","id":2}`},
		{"init_time empty params", `{"method":"init_time","params":{},"id":3}`},
		{"init_time negative", `{"method":"init_time","params":{"seconds":-1},"id":4}`},
		{"init_time too large", `{"method":"init_time","params":{"seconds":4294967296},"id":5}`},
		{"init_time fractional", `{"method":"init_time","params":{"seconds":1.5},"id":8}`},
		{"init_time string", `{"method":"init_time","params":{"seconds":"ten"},"id":6}`},
		{"init_time unknown field", `{"method":"init_time","params":{"seconds":5,"minutes":1},"id":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rawCall(t, d.SocketPath(), tt.payload)
			if resp.Error == "" {
				t.Errorf("expected error response, got result %v", resp.Result)
			}
		})
	}
}

func TestDaemon_InitTimeRejectsFraction(t *testing.T) {
	timer := newFakeTimer()
	d := startDaemon(t, timer)

	resp := rawCall(t, d.SocketPath(), `{"method":"init_time","params":{"seconds":90.5},"id":1}`)
	if !strings.Contains(resp.Error, "whole number") {
		t.Errorf("error = %q, want whole number rejection", resp.Error)
	}
	if got := timer.snapshot().status.Duration; got != 1500 {
		t.Errorf("duration = %d, want 1500 unchanged", got)
	}

	resp = rawCall(t, d.SocketPath(), `{"method":"init_time","params":{"seconds":90.0},"id":2}`)
	if resp.Error != "" {
		t.Fatalf("init_time 90.0 error = %q", resp.Error)
	}
	if got := timer.snapshot().status.Duration; got != 90 {
		t.Errorf("duration = %d, want 90", got)
	}
}

func TestDaemon_ResponseEchoesID(t *testing.T) {
	d := startDaemon(t, newFakeTimer())

	resp := rawCall(t, d.SocketPath(), `{"method":"unknown_method","id":42}`)
	if resp.ID != 42 {
		t.Errorf("response id = %d, want 42", resp.ID)
	}
}

func TestDaemon_NoTimer(t *testing.T) {
	d := startDaemon(t, nil)

	resp := rawCall(t, d.SocketPath(), `{"method":"status","id":1}`)
	if resp.Error != "no timer available" {
		t.Errorf("error = %q, want %q", resp.Error, "no timer available")
	}
}

func TestDaemon_Commands(t *testing.T) {
	timer := newFakeTimer()
	d := startDaemon(t, timer)
	client := NewClient(d.SocketPath())

	if err := client.InitTime(90); err != nil {
		t.Fatalf("InitTime() error: %v", err)
	}
	if got := timer.snapshot().status.Duration; got != 90 {
		t.Errorf("duration = %d, want 90", got)
	}

	started, err := client.Start()
	if err != nil || !started {
		t.Fatalf("Start() = %v, %v; want true, nil", started, err)
	}
	started, err = client.Start()
	if err != nil || started {
		t.Fatalf("second Start() = %v, %v; want false, nil", started, err)
	}

	paused, err := client.Toggle()
	if err != nil || !paused {
		t.Fatalf("Toggle() = %v, %v; want true, nil", paused, err)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !status.Running || !status.Paused || status.Duration != 90 {
		t.Errorf("status = %+v, want running, paused, duration 90", status)
	}
	if status.Label != "Focus" {
		t.Errorf("label = %q, want Focus", status.Label)
	}
	if status.PID != os.Getpid() {
		t.Errorf("pid = %d, want %d", status.PID, os.Getpid())
	}

	if err := client.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if got := timer.snapshot().resets; got != 1 {
		t.Errorf("resets = %d, want 1", got)
	}

	cycle, err := client.SwitchPhase()
	if err != nil {
		t.Fatalf("SwitchPhase() error: %v", err)
	}
	if cycle.Phase != phase.ShortBreak || cycle.Sessions != 1 {
		t.Errorf("cycle = %+v, want short_break after 1 session", cycle)
	}
}

func TestDaemon_SwitchPhaseError(t *testing.T) {
	timer := newFakeTimer()
	timer.switchFn = func(ctx context.Context) (phase.Cycle, error) {
		return phase.Cycle{}, context.DeadlineExceeded
	}
	d := startDaemon(t, timer)

	if _, err := NewClient(d.SocketPath()).SwitchPhase(); err == nil {
		t.Error("SwitchPhase() should surface the timer error")
	}
}

func TestDaemon_Shutdown(t *testing.T) {
	timer := newFakeTimer()
	d := New(shortSocketPath(t), timer, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(context.Background()) }()
	waitForSocket(t, d.SocketPath(), 2*time.Second)

	if err := NewClient(d.SocketPath()).Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after shutdown request")
	}
	if err := <-errCh; err != nil {
		t.Errorf("Start() returned error: %v", err)
	}
	if !timer.snapshot().stopped {
		t.Error("shutdown should stop the timer")
	}
}
