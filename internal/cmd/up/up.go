package up

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/handoff"
	"github.com/stackpilot/stackpilot/internal/iostreams"
	"github.com/stackpilot/stackpilot/internal/lifecycle"
	"github.com/stackpilot/stackpilot/internal/logger"
)

type UpOptions struct {
	IOStreams    *iostreams.IOStreams
	Orchestrator func() *compose.Orchestrator
	ConfigLoader func() *config.Loader
	WorkDir      string

	StackName string
	Stack     cmdutil.StackFlags

	WaitServices []string
	Target       string
	Timeout      time.Duration
	Interval     time.Duration

	Scope     string
	StateFile string
}

func NewCmdUp(f *cmdutil.Factory, runF func(context.Context, *UpOptions) error) *cobra.Command {
	opts := &UpOptions{
		IOStreams:    f.IOStreams,
		Orchestrator: f.Orchestrator,
		ConfigLoader: f.ConfigLoader,
	}

	cmd := &cobra.Command{
		Use:   "up [stack]",
		Short: "Start a compose stack and wait for readiness",
		Long: `Starts a multi-container stack with docker compose and optionally waits
until named services reach a target state.

The stack comes from explicit --file flags or from a named entry in
stackpilot.yaml. On success a state record describing the running
services and their published ports is written for test code to consume.`,
		Example: `  # Start from explicit compose files
  stackpilot up -f compose.yaml -p myproj

  # Start a stack defined in stackpilot.yaml and wait for health
  stackpilot up integration --wait-service db --target HEALTHY

  # Wait for two services with a tight deadline
  stackpilot up -f compose.yaml --wait-service api --wait-service db \
    --timeout 30s --interval 2s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.StackName = args[0]
			}
			opts.WorkDir = f.WorkDir
			if opts.StateFile == "" {
				opts.StateFile = cmdutil.DefaultStateFile()
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return upRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Stack.Files, "file", "f", nil, "Compose file (repeatable, applied in order)")
	cmd.Flags().StringArrayVar(&opts.Stack.EnvFiles, "env-file", nil, "Env file for the compose subprocess (repeatable)")
	cmd.Flags().StringVarP(&opts.Stack.Project, "project", "p", "", "Compose project name (generated if omitted)")
	cmd.Flags().StringArrayVar(&opts.WaitServices, "wait-service", nil, "Service that must reach the target state (repeatable)")
	cmdutil.StringEnumFlag(cmd, &opts.Target, "target", "", string(compose.StateRunning),
		[]string{string(compose.StateRunning), string(compose.StateHealthy)}, "Readiness target")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Readiness deadline (default from config, 60s)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "Poll interval (default from config, 1s)")
	cmdutil.StringEnumFlag(cmd, &opts.Scope, "scope", "", string(handoff.ScopeClass),
		[]string{string(handoff.ScopeClass), string(handoff.ScopeMethod)},
		"Lifecycle scope recorded in the state file")
	cmd.Flags().StringVar(&opts.StateFile, "state-file", "", "State record destination (default $STACKPILOT_STATE_FILE)")

	return cmd
}

func upRun(ctx context.Context, opts *UpOptions) error {
	stack, err := cmdutil.ResolveStack(opts.ConfigLoader, opts.StackName, opts.Stack)
	if err != nil {
		return err
	}

	wait, err := buildWaitSpec(stack, opts)
	if err != nil {
		return err
	}

	coord, err := lifecycle.NewCoordinator(opts.Orchestrator(), lifecycle.Options{
		Stack:     stack,
		Scope:     handoff.Scope(opts.Scope),
		WorkDir:   opts.WorkDir,
		Wait:      wait,
		StateFile: opts.StateFile,
	})
	if err != nil {
		return err
	}

	logger.SetContext(stack.Name, stack.Project)
	defer logger.ClearContext()

	record, err := coord.Start(ctx)
	if err != nil {
		return err
	}

	ios := opts.IOStreams
	fmt.Fprintf(ios.ErrOut, "Stack %s is up (project %s, %d services)\n",
		stack.Name, stack.Project, len(record.Services))
	printServices(ios, record)
	fmt.Fprintf(ios.ErrOut, "State written to %s\n", opts.StateFile)

	return nil
}

// buildWaitSpec merges the wait flags with the stack's configured wait
// section. Flags win; an empty result skips waiting entirely.
func buildWaitSpec(stack *config.Stack, opts *UpOptions) (compose.WaitSpec, error) {
	spec := compose.WaitSpec{
		Services: opts.WaitServices,
		Target:   compose.State(opts.Target),
		Timeout:  opts.Timeout,
		Interval: opts.Interval,
	}

	if len(spec.Services) == 0 && stack.Wait != nil {
		spec.Services = stack.Wait.Services
		if stack.Wait.Target != "" {
			spec.Target = compose.State(stack.Wait.Target)
		}
	}
	if len(spec.Services) == 0 {
		return compose.WaitSpec{}, nil
	}

	if stack.Wait != nil {
		if spec.Timeout == 0 {
			spec.Timeout = stack.Wait.Timeout
		}
		if spec.Interval == 0 {
			spec.Interval = stack.Wait.Interval
		}
	}
	if spec.Timeout == 0 {
		spec.Timeout = config.DefaultTimeout
	}
	if spec.Interval == 0 {
		spec.Interval = config.DefaultInterval
	}

	if err := spec.Validate(); err != nil {
		return compose.WaitSpec{}, err
	}
	return spec, nil
}

func printServices(ios *iostreams.IOStreams, record *handoff.Record) {
	names := make([]string, 0, len(record.Services))
	for name := range record.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		info := record.Services[name]
		line := fmt.Sprintf("  %-20s %s", name, info.State)
		for _, p := range info.Ports {
			line += fmt.Sprintf("  %s", p.String())
		}
		fmt.Fprintln(ios.ErrOut, line)
	}
}
