package daemon

import "github.com/npratt/cadence/internal/phase"

// RPC method names.
const (
	MethodStatus      = "status"
	MethodInitTime    = "init_time"
	MethodStart       = "start"
	MethodToggle      = "toggle"
	MethodReset       = "reset"
	MethodSwitchPhase = "switch_phase"
	MethodShutdown    = "shutdown"
)

// Request represents a JSON-RPC request from a client.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// Response represents a JSON-RPC response to a client.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// StatusResponse contains the timer and host status.
type StatusResponse struct {
	Phase     phase.Phase `json:"phase"`
	Label     string      `json:"label"`
	Sessions  uint32      `json:"sessions"`
	Paused    bool        `json:"paused"`
	Running   bool        `json:"running"`
	Duration  uint32      `json:"duration"`
	Remaining uint32      `json:"remaining"`
	Uptime    string      `json:"uptime"`
	StartTime string      `json:"start_time"`
	PID       int         `json:"pid"`
}

// InitTimeParams contains parameters for the init_time method.
type InitTimeParams struct {
	Seconds uint32 `json:"seconds"`
}

// StartResult reports whether a start request launched a loop.
type StartResult struct {
	Started bool `json:"started"`
}

// ToggleResult carries the pause flag after a toggle.
type ToggleResult struct {
	Paused bool `json:"paused"`
}
