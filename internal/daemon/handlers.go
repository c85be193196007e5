package daemon

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
)

// switchTimeout bounds a switch_phase request.
const switchTimeout = 5 * time.Second

// shutdownDelay lets the shutdown response reach the client before the
// listener closes.
const shutdownDelay = 50 * time.Millisecond

// handleRequest dispatches the request to the appropriate handler.
func (d *Daemon) handleRequest(ctx context.Context, req *Request) Response {
	if d.timer == nil {
		return Response{Error: "no timer available"}
	}

	switch req.Method {
	case MethodStatus:
		return d.handleStatus()
	case MethodInitTime:
		return d.handleInitTime(req)
	case MethodStart:
		return Response{Result: StartResult{Started: d.timer.Start()}}
	case MethodToggle:
		return Response{Result: ToggleResult{Paused: d.timer.Toggle()}}
	case MethodReset:
		d.timer.Reset()
		return Response{Result: "reset"}
	case MethodSwitchPhase:
		return d.handleSwitchPhase(ctx)
	case MethodShutdown:
		return d.handleShutdown()
	default:
		return Response{Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// handleStatus returns the timer state and daemon uptime.
func (d *Daemon) handleStatus() Response {
	st := d.timer.Status()
	startTime := d.StartTime()

	return Response{
		Result: StatusResponse{
			Phase:     st.Phase,
			Label:     st.Phase.Label(),
			Sessions:  st.Sessions,
			Paused:    st.Paused,
			Running:   st.Running,
			Duration:  st.Duration,
			Remaining: st.Remaining,
			Uptime:    time.Since(startTime).Truncate(time.Second).String(),
			StartTime: startTime.Format(time.RFC3339),
			PID:       os.Getpid(),
		},
	}
}

// handleInitTime validates and applies a new phase length.
func (d *Daemon) handleInitTime(req *Request) Response {
	// JSON numbers decode as float64; decoding into an integer would
	// silently truncate 1.5 to 1.
	var params struct {
		Seconds *float64 `json:"seconds"`
	}
	if err := decodeParams(req.Params, &params); err != nil {
		return Response{Error: fmt.Sprintf("invalid params: %v", err)}
	}
	if params.Seconds == nil {
		return Response{Error: "invalid params: seconds is required"}
	}
	v := *params.Seconds
	if math.Trunc(v) != v {
		return Response{Error: fmt.Sprintf("invalid params: seconds must be a whole number: %v", v)}
	}
	if v < 0 || v > math.MaxUint32 {
		return Response{Error: fmt.Sprintf("invalid params: seconds out of range: %v", v)}
	}

	seconds := uint32(v)
	d.timer.InitTime(seconds)
	return Response{Result: InitTimeParams{Seconds: seconds}}
}

// handleSwitchPhase forces the next phase.
func (d *Daemon) handleSwitchPhase(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, switchTimeout)
	defer cancel()

	cycle, err := d.timer.SwitchPhase(ctx)
	if err != nil {
		return Response{Error: fmt.Sprintf("switch phase: %v", err)}
	}
	return Response{Result: cycle}
}

// handleShutdown stops the timer and schedules daemon shutdown.
func (d *Daemon) handleShutdown() Response {
	d.timer.Stop()

	go func() {
		time.Sleep(shutdownDelay)
		_ = d.Stop()
	}()

	return Response{Result: "stopping"}
}

// decodeParams converts the generic params map from a decoded request into
// out, matching on json tags.
func decodeParams(params any, out any) error {
	if params == nil {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(params)
}
