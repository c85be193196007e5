package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestNewMockRunner(t *testing.T) {
	mock := NewMockRunner()

	if mock.Responses == nil {
		t.Error("Responses map should be initialized")
	}
	if mock.Errors == nil {
		t.Error("Errors map should be initialized")
	}
	if mock.Calls != nil {
		t.Error("Calls should be nil initially")
	}
}

func TestMockRunner_Run(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*MockRunner)
		cmd      string
		args     []string
		wantResp string
		wantErr  bool
	}{
		{
			name: "exact match",
			setup: func(m *MockRunner) {
				m.SetResponse("notify-send", []string{"cadence", "done"}, []byte("ok"))
			},
			cmd:      "notify-send",
			args:     []string{"cadence", "done"},
			wantResp: "ok",
		},
		{
			name:     "prefix match",
			setup:    func(m *MockRunner) { m.Responses["notify-send cadence"] = []byte("prefix") },
			cmd:      "notify-send",
			args:     []string{"cadence", "phase: Short Break"},
			wantResp: "prefix",
		},
		{
			name:     "no args",
			setup:    func(m *MockRunner) { m.Responses["true"] = []byte("") },
			cmd:      "true",
			wantResp: "",
		},
		{
			name: "error takes precedence",
			setup: func(m *MockRunner) {
				m.SetResponse("say", []string{"break"}, []byte("response"))
				m.SetError("say", []string{"break"}, errors.New("boom"))
			},
			cmd:     "say",
			args:    []string{"break"},
			wantErr: true,
		},
		{
			name:    "unexpected command",
			setup:   func(m *MockRunner) {},
			cmd:     "unknown",
			args:    []string{"command"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockRunner()
			tt.setup(mock)

			got, err := mock.Run(context.Background(), tt.cmd, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Errorf("Run() = %q, want nil on error", got)
				}
				return
			}
			if string(got) != tt.wantResp {
				t.Errorf("Run() = %q, want %q", got, tt.wantResp)
			}
		})
	}
}

func TestMockRunner_RecordsCalls(t *testing.T) {
	mock := NewMockRunner()
	mock.Responses["notify-send"] = []byte("")

	_, _ = mock.Run(context.Background(), "notify-send", "cadence", "countdown complete")

	calls := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Name != "notify-send" {
		t.Errorf("expected name 'notify-send', got %s", calls[0].Name)
	}
	if len(calls[0].Args) != 2 || calls[0].Args[1] != "countdown complete" {
		t.Errorf("unexpected args: %v", calls[0].Args)
	}

	calls[0].Name = "modified"
	if mock.GetCalls()[0].Name == "modified" {
		t.Error("GetCalls should return a copy, not the original")
	}

	mock.Reset()
	if len(mock.GetCalls()) != 0 {
		t.Error("expected 0 calls after reset")
	}
}

func TestMockRunner_ThreadSafety(t *testing.T) {
	mock := NewMockRunner()
	mock.Responses["test"] = []byte("ok")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mock.Run(context.Background(), "test")
			_ = mock.GetCalls()
		}()
	}
	wg.Wait()

	if calls := mock.GetCalls(); len(calls) != 10 {
		t.Errorf("expected 10 calls, got %d", len(calls))
	}
}

func TestMockRunner_Hang(t *testing.T) {
	mock := NewMockRunner()
	mock.Hang = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mock.Run(ctx, "notify-send", "Focus started")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}

	calls := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Deadline.IsZero() {
		t.Error("expected the call to record its deadline")
	}
}

func TestMockRunner_Messages(t *testing.T) {
	mock := NewMockRunner()
	mock.Responses["say"] = []byte("")
	mock.Responses["notify-send"] = []byte("")

	_, _ = mock.Run(context.Background(), "say", "Focus started")
	_, _ = mock.Run(context.Background(), "notify-send", "cadence", "ignored")
	_, _ = mock.Run(context.Background(), "say", "Countdown complete")
	_, _ = mock.Run(context.Background(), "say")

	got := mock.Messages("say")
	want := []string{"Focus started", "Countdown complete", ""}
	if !slices.Equal(got, want) {
		t.Errorf("Messages() = %q, want %q", got, want)
	}
	if calls := mock.GetCalls(); !calls[0].Deadline.IsZero() {
		t.Error("expected zero deadline without one on the context")
	}
}
