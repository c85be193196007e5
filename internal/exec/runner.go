// Package exec runs external commands for hooks.
package exec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner abstracts command execution for dependency injection.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner executes real commands using os/exec.
type ExecRunner struct {
	// Env is appended to the current process environment.
	Env []string
}

// NewExecRunner creates a new ExecRunner for production use.
func NewExecRunner(env ...string) *ExecRunner {
	return &ExecRunner{Env: env}
}

// Run executes a command and returns its combined output. A failing command's
// output is included in the returned error.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var env []string
	if len(r.Env) > 0 {
		env = append(os.Environ(), r.Env...)
	}
	cmd := execCommand(ctx, env, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// execCommand is a variable to allow testing.
var execCommand = execCommandImpl

func execCommandImpl(ctx context.Context, env []string, name string, args ...string) execCmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	return realExecCmd{cmd: cmd}
}

// execCmd abstracts exec.Cmd for testing.
type execCmd interface {
	CombinedOutput() ([]byte, error)
}

type realExecCmd struct {
	cmd *exec.Cmd
}

func (c realExecCmd) CombinedOutput() ([]byte, error) {
	return c.cmd.CombinedOutput()
}
