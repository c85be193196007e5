package hooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/npratt/cadence/internal/config"
	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/phase"
	"github.com/npratt/cadence/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runAll(t *testing.T, r *Runner, evts ...events.Event) {
	t.Helper()
	ch := make(chan events.Event, len(evts))
	for _, e := range evts {
		ch <- e
	}
	close(ch)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after channel close")
	}
}

func TestRunnerPhaseChange(t *testing.T) {
	mock := testutil.NewMockRunner()
	mock.Responses["notify-send"] = []byte("")

	cfg := config.HooksConfig{
		OnPhaseChange: []string{"notify-send", "cadence"},
		Timeout:       time.Second,
	}
	r := New(cfg, mock, quietLogger())

	runAll(t, r,
		events.Tick(3),
		events.PhaseChanged(phase.Cycle{Phase: phase.ShortBreak, Sessions: 1}),
		events.Toggle(false),
	)

	testutil.AssertCalled(t, mock, "notify-send", "cadence", "Short Break started (1 sessions done)")
	if got := len(mock.GetCalls()); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestRunnerDoneUsesNewPhase(t *testing.T) {
	mock := testutil.NewMockRunner()
	mock.Responses["say"] = []byte("")

	cfg := config.HooksConfig{OnDone: []string{"say"}, Timeout: time.Second}
	r := New(cfg, mock, quietLogger())

	runAll(t, r,
		events.PhaseChanged(phase.Cycle{Phase: phase.LongBreak, Sessions: 4}),
		events.Done(),
	)

	testutil.AssertCalled(t, mock, "say", "Countdown complete, Long Break is next")
	testutil.AssertNotCalled(t, mock, "notify-send")
}

func TestRunnerFailureIsNotFatal(t *testing.T) {
	mock := testutil.NewMockRunner()
	mock.SetError("false", []string{"Countdown complete, Focus is next"}, errors.New("exit status 1"))

	cfg := config.HooksConfig{OnDone: []string{"false"}, Timeout: time.Second}
	r := New(cfg, mock, quietLogger())

	runAll(t, r, events.Done(), events.Done())

	if got := len(mock.GetCalls()); got != 2 {
		t.Errorf("calls = %d, want 2 despite failures", got)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	r := New(config.HooksConfig{Timeout: time.Second}, testutil.NewMockRunner(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, make(chan events.Event))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunnerTimeoutBoundsHook(t *testing.T) {
	mock := testutil.NewMockRunner()
	mock.Hang = true

	cfg := config.HooksConfig{
		OnPhaseChange: []string{"notify-send"},
		OnDone:        []string{"notify-send"},
		Timeout:       20 * time.Millisecond,
	}
	r := New(cfg, mock, quietLogger())

	start := time.Now()
	runAll(t, r,
		events.PhaseChanged(phase.Cycle{Phase: phase.Work, Sessions: 2}),
		events.Done(),
	)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("hooks took %v, want them cut off by the timeout", elapsed)
	}

	want := []string{"Focus started (2 sessions done)", "Countdown complete, Focus is next"}
	if got := mock.Messages("notify-send"); !slices.Equal(got, want) {
		t.Errorf("messages = %q, want %q", got, want)
	}
	for _, call := range mock.GetCalls() {
		if call.Deadline.IsZero() {
			t.Errorf("call %v ran without a deadline", call)
		}
	}
}
