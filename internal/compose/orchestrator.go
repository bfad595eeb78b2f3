package compose

import (
	"context"
	"strings"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/logger"
)

// Orchestrator is the façade over the compose CLI. It holds no state
// between calls; each operation spawns exactly one subprocess (Wait
// spawns one per poll tick).
type Orchestrator struct {
	runner Runner
	clock  Clock
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock overrides the wall clock, for tests.
func WithClock(c Clock) OrchestratorOption {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// NewOrchestrator creates an Orchestrator driving the given Runner.
func NewOrchestrator(runner Runner, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		runner: runner,
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Up brings the stack up detached and returns the resulting service
// snapshot. The stack must already be validated.
func (o *Orchestrator) Up(ctx context.Context, stack *config.Stack, workDir string) (map[string]ServiceInfo, error) {
	env, err := stack.BuildEnv(workDir)
	if err != nil {
		return nil, &OrchestrationError{Project: stack.Project, Op: "up", Err: err}
	}

	logger.Info().Str("stack", stack.Name).Str("project", stack.Project).Msg("starting stack")

	result, err := o.runner.Run(ctx, Cmd{
		Args: UpArgs(stack),
		Dir:  workDir,
		Env:  env,
	})
	if err != nil {
		return nil, &OrchestrationError{Project: stack.Project, Op: "up", Err: err}
	}
	if result.ExitCode != 0 {
		return nil, &OrchestrationError{
			Project:  stack.Project,
			Op:       "up",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	return o.Services(ctx, stack.Project)
}

// Down tears the project down. Idempotent: tearing down an
// already-stopped project logs a warning instead of failing.
func (o *Orchestrator) Down(ctx context.Context, project string, volumes bool) error {
	logger.Info().Str("project", project).Bool("volumes", volumes).Msg("stopping stack")

	result, err := o.runner.Run(ctx, Cmd{Args: DownArgs(project, volumes)})
	if err != nil {
		return &OrchestrationError{Project: project, Op: "down", Err: err}
	}
	if result.ExitCode != 0 {
		if isAlreadyGone(result.Stderr) {
			logger.Warn().Str("project", project).Msg("project already stopped")
			return nil
		}
		return &OrchestrationError{
			Project:  project,
			Op:       "down",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return nil
}

// isAlreadyGone matches compose stderr for a project that no longer
// exists, which down treats as success.
func isAlreadyGone(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no such project") ||
		strings.Contains(s, "not found") ||
		strings.Contains(s, "no container")
}

// Services queries the current service snapshot for a project.
func (o *Orchestrator) Services(ctx context.Context, project string) (map[string]ServiceInfo, error) {
	result, err := o.runner.Run(ctx, Cmd{Args: PsArgs(project)})
	if err != nil {
		return nil, &OrchestrationError{Project: project, Op: "ps", Err: err}
	}
	if result.ExitCode != 0 {
		return nil, &OrchestrationError{
			Project:  project,
			Op:       "ps",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return ParseServicesJSON(result.Stdout), nil
}

// Wait blocks until the services named in the spec reach the target
// state, polling at the spec's interval. On timeout the returned
// TimeoutError names the services still not ready and their last
// observed states.
func (o *Orchestrator) Wait(ctx context.Context, project string, spec WaitSpec) (State, error) {
	return poll(ctx, o.clock, project, spec, func(ctx context.Context) (map[string]ServiceInfo, error) {
		return o.Services(ctx, project)
	})
}

// Logs captures stack logs in one invocation, best-effort: failures are
// logged and degrade to an empty string so a surrounding teardown never
// aborts over missing logs.
func (o *Orchestrator) Logs(ctx context.Context, project string, spec LogsSpec) string {
	if spec.Follow {
		logger.Warn().Str("project", project).Msg("follow is not supported for finite log capture, ignoring")
	}

	result, err := o.runner.Run(ctx, Cmd{Args: LogsArgs(project, spec)})
	if err != nil {
		logger.Warn().Err(err).Str("project", project).Msg("log capture failed")
		return ""
	}
	if result.ExitCode != 0 {
		logger.Warn().
			Str("project", project).
			Int("exit_code", result.ExitCode).
			Str("stderr", strings.TrimSpace(result.Stderr)).
			Msg("log capture exited non-zero")
		return ""
	}
	return result.Stdout
}
