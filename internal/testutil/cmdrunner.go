// Package testutil provides test infrastructure shared by cadence packages:
// a scripted command runner for hook tests, event helpers and temp dirs.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// CommandCall records one command invocation.
type CommandCall struct {
	Name string
	Args []string

	// Deadline is the context deadline the command ran under, zero if none.
	Deadline time.Time
}

// Message returns the last argument, which is where hooks put their text.
func (c CommandCall) Message() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// MockRunner is a scripted exec.CommandRunner. Responses and Errors are keyed
// by "name arg1 arg2 ..."; a key also matches any longer command it prefixes.
type MockRunner struct {
	mu        sync.Mutex
	Responses map[string][]byte
	Errors    map[string]error
	Calls     []CommandCall

	// Hang makes every command block until its context ends, like a
	// notifier that never returns.
	Hang bool
}

// NewMockRunner creates a MockRunner with initialized maps.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Responses: make(map[string][]byte),
		Errors:    make(map[string]error),
	}
}

// Run records the call and returns the scripted outcome.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	call := CommandCall{Name: name, Args: append([]string(nil), args...)}
	if dl, ok := ctx.Deadline(); ok {
		call.Deadline = dl
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	hang := m.Hang
	resp, err, found := m.lookup(makeKey(name, args))
	m.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if !found {
		return nil, fmt.Errorf("unexpected command: %s", makeKey(name, args))
	}
	return resp, err
}

// lookup finds the outcome for key. Errors win over responses and exact
// keys win over prefixes. Caller must hold mu.
func (m *MockRunner) lookup(key string) ([]byte, error, bool) {
	if err, ok := m.Errors[key]; ok {
		return nil, err, true
	}
	if resp, ok := m.Responses[key]; ok {
		return resp, nil, true
	}

	for k, err := range m.Errors {
		if strings.HasPrefix(key, k) {
			return nil, err, true
		}
	}
	for k, resp := range m.Responses {
		if strings.HasPrefix(key, k) {
			return resp, nil, true
		}
	}
	return nil, nil, false
}

// SetResponse configures a canned response for a command.
func (m *MockRunner) SetResponse(name string, args []string, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[makeKey(name, args)] = response
}

// SetError configures an error response for a command.
func (m *MockRunner) SetError(name string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[makeKey(name, args)] = err
}

// GetCalls returns a copy of all recorded calls.
func (m *MockRunner) GetCalls() []CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]CommandCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// Messages returns the message argument of every call to name, in order.
func (m *MockRunner) Messages(name string) []string {
	var msgs []string
	for _, call := range m.GetCalls() {
		if call.Name == name {
			msgs = append(msgs, call.Message())
		}
	}
	return msgs
}

// Reset clears all recorded calls.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

func makeKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
