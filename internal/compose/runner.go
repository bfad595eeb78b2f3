package compose

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/stackpilot/stackpilot/internal/logger"
)

// Cmd describes one subprocess invocation: full argv, optional working
// directory, optional environment, and an optional execution timeout.
type Cmd struct {
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Result carries the subprocess outcome. ExitCode is set even for
// non-zero exits; Runner errors are reserved for spawn/timeout failures.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner spawns subprocesses and blocks until they exit. The
// orchestrator is the only caller; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and blocks until it exits or the timeout
// elapses. A non-zero exit is not an error; it is reported in the Result.
func (r *ExecRunner) Run(ctx context.Context, cmd Cmd) (Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	logger.Debug().Strs("args", cmd.Args).Str("dir", cmd.Dir).Msg("running command")

	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = cmd.Env
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Command ran and exited non-zero; report via ExitCode.
			result.ExitCode = exitErr.ExitCode()
			logger.Debug().Int("exit_code", result.ExitCode).Msg("command exited non-zero")
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, err
	}

	return result, nil
}
