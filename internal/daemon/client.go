package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/npratt/cadence/internal/phase"
)

const (
	// DefaultClientTimeout is the default timeout for client operations.
	DefaultClientTimeout = 10 * time.Second
)

// Client connects to the daemon via Unix socket.
type Client struct {
	sockPath string
	timeout  time.Duration
	nextID   int
}

// NewClient creates a new daemon client.
func NewClient(sockPath string) *Client {
	return &Client{
		sockPath: sockPath,
		timeout:  DefaultClientTimeout,
	}
}

// SetTimeout sets the timeout for client operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// call sends a JSON-RPC request to the daemon and returns the response.
func (c *Client) call(method string, params any) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return nil, c.wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	c.nextID++
	req := Request{Method: method, Params: params, ID: c.nextID}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %d does not match request id %d", resp.ID, req.ID)
	}

	return &resp, nil
}

// wrapConnError converts connection errors to user-friendly messages.
func (c *Client) wrapConnError(err error) error {
	// Check for syscall errors that indicate specific conditions
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return errors.New("daemon not running (socket not found)")
		case syscall.ECONNREFUSED:
			return errors.New("daemon not running (connection refused)")
		}
	}

	// Fallback check for os.IsNotExist
	if os.IsNotExist(err) {
		return errors.New("daemon not running (socket not found)")
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.New("daemon request timed out")
	}

	return fmt.Errorf("connect to daemon: %w", err)
}

// decodeResult converts a generic response result into out.
func decodeResult(resp *Response, out any) error {
	// Re-marshal and unmarshal to convert the result to the typed value
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

// Status returns the current timer and daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	resp, err := c.call(MethodStatus, nil)
	if err != nil {
		return nil, err
	}

	var status StatusResponse
	if err := decodeResult(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// InitTime sets the phase length in seconds.
func (c *Client) InitTime(seconds uint32) error {
	_, err := c.call(MethodInitTime, InitTimeParams{Seconds: seconds})
	return err
}

// Start asks the daemon to start the countdown. It reports false if a
// countdown was already running.
func (c *Client) Start() (bool, error) {
	resp, err := c.call(MethodStart, nil)
	if err != nil {
		return false, err
	}
	var result StartResult
	if err := decodeResult(resp, &result); err != nil {
		return false, err
	}
	return result.Started, nil
}

// Toggle flips pause and returns the new pause flag.
func (c *Client) Toggle() (bool, error) {
	resp, err := c.call(MethodToggle, nil)
	if err != nil {
		return false, err
	}
	var result ToggleResult
	if err := decodeResult(resp, &result); err != nil {
		return false, err
	}
	return result.Paused, nil
}

// Reset stops the countdown without changing phase.
func (c *Client) Reset() error {
	_, err := c.call(MethodReset, nil)
	return err
}

// SwitchPhase skips to the next phase and returns it.
func (c *Client) SwitchPhase() (phase.Cycle, error) {
	resp, err := c.call(MethodSwitchPhase, nil)
	if err != nil {
		return phase.Cycle{}, err
	}
	var cycle phase.Cycle
	if err := decodeResult(resp, &cycle); err != nil {
		return phase.Cycle{}, err
	}
	return cycle, nil
}

// Shutdown asks the daemon to stop the timer and exit.
func (c *Client) Shutdown() error {
	_, err := c.call(MethodShutdown, nil)
	return err
}

// IsRunning checks if the daemon is running by attempting to connect.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
