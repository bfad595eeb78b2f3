package cmdutil

import (
	"sync"

	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/iostreams"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist (the contract), while New wires the real
// implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Configuration from flags (set before command execution)
	WorkDir string
	Debug   bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	// IO streams for input/output (for testability)
	IOStreams *iostreams.IOStreams

	// Dependency providers (closures wired by the constructor)
	Orchestrator func() *compose.Orchestrator
	ConfigLoader func() *config.Loader
}

// New creates a Factory wired with real implementations.
func New(version, commit string) *Factory {
	f := &Factory{
		Version:   version,
		Commit:    commit,
		IOStreams: iostreams.NewIOStreams(),
	}

	f.Orchestrator = orchestratorFunc()
	f.ConfigLoader = configLoaderFunc(f)

	return f
}

func orchestratorFunc() func() *compose.Orchestrator {
	var once sync.Once
	var orc *compose.Orchestrator
	return func() *compose.Orchestrator {
		once.Do(func() {
			orc = compose.NewOrchestrator(compose.NewExecRunner())
		})
		return orc
	}
}

func configLoaderFunc(f *Factory) func() *config.Loader {
	var once sync.Once
	var loader *config.Loader
	return func() *config.Loader {
		once.Do(func() {
			loader = config.NewLoader(f.WorkDir)
		})
		return loader
	}
}
