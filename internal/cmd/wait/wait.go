package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/iostreams"
)

type WaitOptions struct {
	IOStreams    *iostreams.IOStreams
	Orchestrator func() *compose.Orchestrator
	ConfigLoader func() *config.Loader

	StackName string
	Project   string
	StateFile string

	Services []string
	Target   string
	Timeout  time.Duration
	Interval time.Duration
}

func NewCmdWait(f *cmdutil.Factory, runF func(context.Context, *WaitOptions) error) *cobra.Command {
	opts := &WaitOptions{
		IOStreams:    f.IOStreams,
		Orchestrator: f.Orchestrator,
		ConfigLoader: f.ConfigLoader,
	}

	cmd := &cobra.Command{
		Use:   "wait [stack]",
		Short: "Wait for services in a running stack to reach a state",
		Long: `Polls a running stack until the named services reach the target state,
or the timeout elapses. Exits non-zero on timeout, naming the services
that never became ready and their last observed states.`,
		Example: `  # Wait for the db service to report healthy
  stackpilot wait --service db --target HEALTHY

  # Wait for two services with an explicit deadline
  stackpilot wait -p ci-web --service api --service db --timeout 30s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.StackName = args[0]
			}
			if opts.StateFile == "" {
				opts.StateFile = cmdutil.DefaultStateFile()
			}
			if len(opts.Services) == 0 {
				return cmdutil.FlagErrorf("at least one --service is required")
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return waitRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Compose project name")
	cmd.Flags().StringVar(&opts.StateFile, "state-file", "", "State record location (default $STACKPILOT_STATE_FILE)")
	cmd.Flags().StringArrayVar(&opts.Services, "service", nil, "Service that must reach the target state (repeatable)")
	cmdutil.StringEnumFlag(cmd, &opts.Target, "target", "", string(compose.StateRunning),
		[]string{string(compose.StateRunning), string(compose.StateHealthy)}, "Readiness target")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "Readiness deadline")
	cmd.Flags().DurationVar(&opts.Interval, "interval", config.DefaultInterval, "Poll interval")

	return cmd
}

func waitRun(ctx context.Context, opts *WaitOptions) error {
	project, _, err := cmdutil.ResolveProject(opts.ConfigLoader, opts.StackName, opts.Project, opts.StateFile)
	if err != nil {
		return err
	}

	spec := compose.WaitSpec{
		Services: opts.Services,
		Target:   compose.State(opts.Target),
		Timeout:  opts.Timeout,
		Interval: opts.Interval,
	}

	state, err := opts.Orchestrator().Wait(ctx, project, spec)
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.IOStreams.ErrOut, "Services %v reached %s\n", opts.Services, state)
	return nil
}
