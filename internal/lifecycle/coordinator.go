// Package lifecycle binds stack orchestration to test-execution
// boundaries. One Coordinator drives one scope (class or method) through
// CREATED -> STARTING -> READY -> TEARING_DOWN -> TERMINATED, exactly
// once, regardless of which invocation surface (build task or test
// hook) drives it.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/handoff"
	"github.com/stackpilot/stackpilot/internal/logger"
	"go.uber.org/multierr"
)

// Phase is the coordinator's position in the scope state machine.
type Phase string

const (
	PhaseCreated     Phase = "CREATED"
	PhaseStarting    Phase = "STARTING"
	PhaseReady       Phase = "READY"
	PhaseTearingDown Phase = "TEARING_DOWN"
	PhaseTerminated  Phase = "TERMINATED"
)

// Options configures a Coordinator for one scope instantiation.
type Options struct {
	Stack   *config.Stack
	Scope   handoff.Scope
	WorkDir string

	// Wait configures the readiness wait after up. A zero Services
	// list skips waiting.
	Wait compose.WaitSpec

	// Logs, when non-nil, requests a log capture before teardown.
	Logs *compose.LogsSpec
	// LogsPath is the capture destination. Empty means the captured
	// logs go to the logging channel instead.
	LogsPath string

	// StateFile, when non-empty, receives the handoff record.
	StateFile string
	// Registry, when non-nil, receives the handoff record in-process.
	Registry *handoff.Registry

	// Volumes removes named volumes during teardown.
	Volumes bool
}

// Coordinator drives one stack through one test scope.
type Coordinator struct {
	orc  *compose.Orchestrator
	opts Options

	mu     sync.Mutex
	phase  Phase
	record *handoff.Record
}

// NewCoordinator validates the options and returns a Coordinator in
// phase CREATED. Validation failures surface before any subprocess is
// spawned.
func NewCoordinator(orc *compose.Orchestrator, opts Options) (*Coordinator, error) {
	if opts.Stack == nil {
		return nil, fmt.Errorf("lifecycle: stack is required")
	}
	if err := opts.Stack.Validate(); err != nil {
		return nil, err
	}
	if opts.Scope != handoff.ScopeClass && opts.Scope != handoff.ScopeMethod {
		return nil, fmt.Errorf("lifecycle: unsupported scope %q", opts.Scope)
	}
	if len(opts.Wait.Services) > 0 {
		if err := opts.Wait.Validate(); err != nil {
			return nil, err
		}
	}

	return &Coordinator{
		orc:   orc,
		opts:  opts,
		phase: PhaseCreated,
	}, nil
}

// Phase returns the current lifecycle phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Record returns the handoff record once the scope is READY, nil before.
func (c *Coordinator) Record() *handoff.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// Start brings the stack up, waits for readiness, and publishes the
// handoff record. Any failure aborts the scope: the partially-started
// stack is torn down best-effort and the error propagates so the test
// framework skips the scope's tests rather than running against a
// half-started stack.
func (c *Coordinator) Start(ctx context.Context) (*handoff.Record, error) {
	if err := c.transition(PhaseCreated, PhaseStarting); err != nil {
		return nil, err
	}

	stack := c.opts.Stack

	services, err := c.orc.Up(ctx, stack, c.opts.WorkDir)
	if err != nil {
		c.abort(ctx)
		return nil, err
	}

	if len(c.opts.Wait.Services) > 0 {
		if _, err := c.orc.Wait(ctx, stack.Project, c.opts.Wait); err != nil {
			c.abort(ctx)
			return nil, err
		}
		// States changed while waiting; take a fresh snapshot.
		services, err = c.orc.Services(ctx, stack.Project)
		if err != nil {
			c.abort(ctx)
			return nil, err
		}
	}

	record := &handoff.Record{
		Stack:     stack.Name,
		Project:   stack.Project,
		Scope:     c.opts.Scope,
		CreatedAt: time.Now().UTC(),
		Services:  services,
	}

	if c.opts.StateFile != "" {
		if err := handoff.Write(c.opts.StateFile, record); err != nil {
			c.abort(ctx)
			return nil, err
		}
	}
	if c.opts.Registry != nil {
		c.opts.Registry.Put(record)
	}

	c.mu.Lock()
	c.record = record
	c.phase = PhaseReady
	c.mu.Unlock()

	logger.Info().
		Str("stack", stack.Name).
		Str("project", stack.Project).
		Str("scope", string(c.opts.Scope)).
		Int("services", len(services)).
		Msg("stack ready")

	return record, nil
}

// Stop captures logs (if configured) and tears the stack down. Teardown
// failures are downgraded to warnings and returned for surfacing as
// build warnings; they must never mask test results already recorded.
// Stopping a terminated scope is a no-op.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	switch c.phase {
	case PhaseTerminated:
		c.mu.Unlock()
		return nil
	case PhaseReady:
		c.phase = PhaseTearingDown
		c.mu.Unlock()
	default:
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("lifecycle: cannot stop scope in phase %s", phase)
	}

	var errs error

	if c.opts.Logs != nil {
		c.captureLogs(ctx)
	}

	if err := c.orc.Down(ctx, c.opts.Stack.Project, c.opts.Volumes); err != nil {
		logger.Warn().Err(err).
			Str("project", c.opts.Stack.Project).
			Msg("teardown failed, containers may be lingering")
		errs = multierr.Append(errs, err)
	}

	if c.opts.Registry != nil {
		c.opts.Registry.Remove(c.opts.Stack.Name)
	}

	c.mu.Lock()
	c.phase = PhaseTerminated
	c.mu.Unlock()

	return errs
}

// abort tears down a partially-started stack after a Start failure so
// no container is orphaned on the host, then terminates the scope.
func (c *Coordinator) abort(ctx context.Context) {
	if err := c.orc.Down(ctx, c.opts.Stack.Project, c.opts.Volumes); err != nil {
		logger.Warn().Err(err).
			Str("project", c.opts.Stack.Project).
			Msg("cleanup after failed start did not complete")
	}

	c.mu.Lock()
	c.phase = PhaseTerminated
	c.mu.Unlock()
}

// captureLogs writes captured stack logs to the configured destination,
// best-effort.
func (c *Coordinator) captureLogs(ctx context.Context) {
	text := c.orc.Logs(ctx, c.opts.Stack.Project, *c.opts.Logs)
	if text == "" {
		return
	}

	if c.opts.LogsPath == "" {
		logger.Info().
			Str("project", c.opts.Stack.Project).
			Msg("captured stack logs:\n" + text)
		return
	}

	if err := os.WriteFile(c.opts.LogsPath, []byte(text), 0o644); err != nil {
		logger.Warn().Err(err).
			Str("path", c.opts.LogsPath).
			Msg("failed to write captured logs")
	}
}

func (c *Coordinator) transition(from, to Phase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != from {
		return fmt.Errorf("lifecycle: invalid transition %s -> %s (current phase %s)", from, to, c.phase)
	}
	c.phase = to
	return nil
}
