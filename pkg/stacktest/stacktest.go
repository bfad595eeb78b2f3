// Package stacktest starts compose stacks around Go test runs.
//
// Class scope wraps a whole package's tests from TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(stacktest.Main(m,
//			stacktest.WithFiles("compose.yaml"),
//			stacktest.WithWaitFor(compose.StateHealthy, "db"),
//		))
//	}
//
// Method scope starts a fresh stack for a single test and tears it down
// via t.Cleanup:
//
//	func TestCheckout(t *testing.T) {
//		record := stacktest.Start(t, stacktest.WithFiles("compose.yaml"))
//		port := stacktest.HostPort(t, "api", 8080)
//		...
//	}
package stacktest

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/handoff"
	"github.com/stackpilot/stackpilot/internal/lifecycle"
)

type settings struct {
	stackName string
	files     []string
	envFiles  []string
	project   string
	vars      map[string]string
	workDir   string

	waitServices []string
	target       compose.State
	timeout      time.Duration
	interval     time.Duration

	stateFile string
	logsPath  string
	volumes   bool
}

// Option configures a stack scope.
type Option func(*settings)

// WithFiles sets the compose files for the stack, applied in order.
func WithFiles(files ...string) Option {
	return func(s *settings) { s.files = files }
}

// WithEnvFiles sets dotenv files loaded into the compose subprocess
// environment, applied in order (later files win).
func WithEnvFiles(files ...string) Option {
	return func(s *settings) { s.envFiles = files }
}

// WithStack resolves the stack definition from stackpilot.yaml by name
// instead of explicit files.
func WithStack(name string) Option {
	return func(s *settings) { s.stackName = name }
}

// WithProject pins the compose project name. Without it a unique name
// is generated, isolating concurrent runs.
func WithProject(project string) Option {
	return func(s *settings) { s.project = project }
}

// WithVars sets extra environment variables for the compose subprocess.
func WithVars(vars map[string]string) Option {
	return func(s *settings) { s.vars = vars }
}

// WithWorkDir sets the directory compose files are resolved against.
func WithWorkDir(dir string) Option {
	return func(s *settings) { s.workDir = dir }
}

// WithWaitFor makes startup block until the named services reach the
// target state.
func WithWaitFor(target compose.State, services ...string) Option {
	return func(s *settings) {
		s.target = target
		s.waitServices = services
	}
}

// WithTimeout sets the readiness deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithInterval sets the readiness poll interval.
func WithInterval(d time.Duration) Option {
	return func(s *settings) { s.interval = d }
}

// WithStateFile writes the handoff record to path, so test helper
// processes can locate the stack.
func WithStateFile(path string) Option {
	return func(s *settings) { s.stateFile = path }
}

// WithLogs captures stack logs to path during teardown.
func WithLogs(path string) Option {
	return func(s *settings) { s.logsPath = path }
}

// WithVolumes removes named volumes during teardown.
func WithVolumes() Option {
	return func(s *settings) { s.volumes = true }
}

func newSettings(opts []Option) *settings {
	s := &settings{
		target:   compose.StateRunning,
		timeout:  config.DefaultTimeout,
		interval: config.DefaultInterval,
	}
	if path := os.Getenv(config.StateFileEnvVar); path != "" {
		s.stateFile = path
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *settings) buildStack() (*config.Stack, error) {
	if s.stackName != "" && len(s.files) == 0 {
		workDir := s.workDir
		if workDir == "" {
			workDir = "."
		}
		stack, err := config.NewLoader(workDir).Resolve(s.stackName)
		if err != nil {
			return nil, err
		}
		if s.project != "" {
			stack.Project = s.project
		}
		return stack, nil
	}

	name := s.stackName
	if name == "" {
		name = "stacktest"
	}
	stack := &config.Stack{
		Name:     name,
		Files:    s.files,
		EnvFiles: s.envFiles,
		Project:  s.project,
		Vars:     s.vars,
	}
	stack.ApplyDefaults(config.Defaults{})
	if err := stack.Validate(); err != nil {
		return nil, err
	}
	return stack, nil
}

func (s *settings) waitSpec() compose.WaitSpec {
	if len(s.waitServices) == 0 {
		return compose.WaitSpec{}
	}
	return compose.WaitSpec{
		Services: s.waitServices,
		Target:   s.target,
		Timeout:  s.timeout,
		Interval: s.interval,
	}
}

func (s *settings) coordinator(scope handoff.Scope) (*lifecycle.Coordinator, *config.Stack, error) {
	stack, err := s.buildStack()
	if err != nil {
		return nil, nil, err
	}

	var logs *compose.LogsSpec
	if s.logsPath != "" {
		logs = &compose.LogsSpec{}
	}

	coord, err := lifecycle.NewCoordinator(compose.NewOrchestrator(compose.NewExecRunner()), lifecycle.Options{
		Stack:     stack,
		Scope:     scope,
		WorkDir:   s.workDir,
		Wait:      s.waitSpec(),
		Logs:      logs,
		LogsPath:  s.logsPath,
		StateFile: s.stateFile,
		Registry:  registry,
		Volumes:   s.volumes,
	})
	if err != nil {
		return nil, nil, err
	}
	return coord, stack, nil
}

// registry holds records for stacks started in this process.
var registry = handoff.NewRegistry()

var (
	currentMu sync.Mutex
	current   *handoff.Record
)

func setCurrent(r *handoff.Record) (restore func()) {
	currentMu.Lock()
	prev := current
	current = r
	currentMu.Unlock()
	return func() {
		currentMu.Lock()
		current = prev
		currentMu.Unlock()
	}
}

// Main starts the stack, runs the package's tests, and tears the stack
// down afterwards, including on SIGINT/SIGTERM. Resources leaked by
// previous killed runs of the same project are removed before the stack
// starts and after it stops. Use from TestMain:
//
//	func TestMain(m *testing.M) { os.Exit(stacktest.Main(m, opts...)) }
func Main(m *testing.M, opts ...Option) int {
	s := newSettings(opts)

	coord, stack, err := s.coordinator(handoff.ScopeClass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stacktest: %v\n", err)
		return 1
	}

	ctx := context.Background()
	if err := waitForDaemon(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "stacktest: docker daemon unavailable: %v\n", err)
		return 1
	}

	cleanup := func() { cleanupProject(ctx, stack.Project) }

	// Catch SIGINT/SIGTERM so Ctrl+C still tears the stack down.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		coord.Stop(ctx)
		cleanup()
		os.Exit(1)
	}()

	// Remove leftovers from a previous killed run.
	cleanup()

	record, err := coord.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stacktest: failed to start stack: %v\n", err)
		cleanup()
		return 1
	}
	restore := setCurrent(record)

	code := m.Run()

	signal.Stop(sig)
	if err := coord.Stop(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "stacktest: warning: teardown incomplete: %v\n", err)
	}
	restore()
	cleanup()

	return code
}

// Start brings a stack up for a single test and registers teardown via
// t.Cleanup. The test fails immediately if the stack cannot start or
// does not become ready.
func Start(t *testing.T, opts ...Option) *handoff.Record {
	t.Helper()
	RequireDocker(t)

	s := newSettings(opts)
	coord, _, err := s.coordinator(handoff.ScopeMethod)
	if err != nil {
		t.Fatalf("stacktest: %v", err)
	}

	ctx := context.Background()
	record, err := coord.Start(ctx)
	if err != nil {
		t.Fatalf("stacktest: failed to start stack: %v", err)
	}

	restore := setCurrent(record)
	t.Cleanup(func() {
		restore()
		if err := coord.Stop(ctx); err != nil {
			t.Logf("stacktest: warning: teardown incomplete: %v", err)
		}
	})

	return record
}

// Current returns the record of the innermost active stack: the one
// started by Start in this test, the package's Main stack, or the one
// named by STACKPILOT_STATE_FILE. Fails the test when no stack is
// available.
func Current(t *testing.T) *handoff.Record {
	t.Helper()

	currentMu.Lock()
	r := current
	currentMu.Unlock()
	if r != nil {
		return r
	}

	if path := os.Getenv(config.StateFileEnvVar); path != "" {
		record, err := handoff.Read(path)
		if err != nil {
			t.Fatalf("stacktest: failed to read state file %s: %v", path, err)
		}
		return record
	}

	t.Fatal("stacktest: no active stack; call Start or Main first")
	return nil
}

// HostPort resolves the host port a service's container port is
// published on, failing the test when the mapping does not exist.
func HostPort(t *testing.T, service string, containerPort int) int {
	t.Helper()

	port, err := Current(t).HostPort(service, containerPort)
	if err != nil {
		t.Fatalf("stacktest: %v", err)
	}
	return port
}
