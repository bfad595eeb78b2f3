package logs

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/iostreams"
)

type LogsOptions struct {
	IOStreams    *iostreams.IOStreams
	Orchestrator func() *compose.Orchestrator
	ConfigLoader func() *config.Loader

	StackName string
	Project   string
	StateFile string

	Services []string
	Tail     int
	Output   string
}

func NewCmdLogs(f *cmdutil.Factory, runF func(context.Context, *LogsOptions) error) *cobra.Command {
	opts := &LogsOptions{
		IOStreams:    f.IOStreams,
		Orchestrator: f.Orchestrator,
		ConfigLoader: f.ConfigLoader,
	}

	cmd := &cobra.Command{
		Use:   "logs [stack]",
		Short: "Capture logs from a running stack",
		Long: `Captures the current log output of a stack's services in a single
snapshot. Logs go to stdout, or to a file with --output.`,
		Example: `  # Print all stack logs
  stackpilot logs

  # Last 200 lines of one service, written to a file
  stackpilot logs --service db --tail 200 --output db.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.StackName = args[0]
			}
			if opts.StateFile == "" {
				opts.StateFile = cmdutil.DefaultStateFile()
			}

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return logsRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Compose project name")
	cmd.Flags().StringVar(&opts.StateFile, "state-file", "", "State record location (default $STACKPILOT_STATE_FILE)")
	cmd.Flags().StringArrayVar(&opts.Services, "service", nil, "Only capture these services (repeatable)")
	cmd.Flags().IntVar(&opts.Tail, "tail", 0, "Number of trailing lines per service (0 = all)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write logs to this file instead of stdout")

	return cmd
}

func logsRun(ctx context.Context, opts *LogsOptions) error {
	project, _, err := cmdutil.ResolveProject(opts.ConfigLoader, opts.StackName, opts.Project, opts.StateFile)
	if err != nil {
		return err
	}

	text := opts.Orchestrator().Logs(ctx, project, compose.LogsSpec{
		Services: opts.Services,
		Tail:     opts.Tail,
	})

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write logs to %s: %w", opts.Output, err)
		}
		fmt.Fprintf(opts.IOStreams.ErrOut, "Logs written to %s\n", opts.Output)
		return nil
	}

	fmt.Fprint(opts.IOStreams.Out, text)
	return nil
}
