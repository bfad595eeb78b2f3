package down

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/handoff"
	"github.com/stackpilot/stackpilot/internal/iostreams"
	"github.com/stackpilot/stackpilot/internal/logger"
)

type DownOptions struct {
	IOStreams    *iostreams.IOStreams
	Orchestrator func() *compose.Orchestrator
	ConfigLoader func() *config.Loader

	StackName string
	Project   string
	StateFile string
	Volumes   bool
}

func NewCmdDown(f *cmdutil.Factory, runF func(context.Context, *DownOptions) error) *cobra.Command {
	opts := &DownOptions{
		IOStreams:    f.IOStreams,
		Orchestrator: f.Orchestrator,
		ConfigLoader: f.ConfigLoader,
	}

	cmd := &cobra.Command{
		Use:   "down [stack]",
		Short: "Tear a compose stack down",
		Long: `Stops and removes the containers of a previously started stack.

The target project comes from --project, from the state record written
by 'stackpilot up', or from the stack's entry in stackpilot.yaml. Tearing
down a stack that is already gone succeeds with a warning.`,
		Example: `  # Tear down the stack recorded in the default state file
  stackpilot down

  # Tear down an explicit project, removing named volumes too
  stackpilot down -p ci-web --volumes`,
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
			return downRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Compose project name")
	cmd.Flags().StringVar(&opts.StateFile, "state-file", "", "State record location (default $STACKPILOT_STATE_FILE)")
	cmd.Flags().BoolVar(&opts.Volumes, "volumes", false, "Also remove named volumes")

	return cmd
}

func downRun(ctx context.Context, opts *DownOptions) error {
	project, record, err := cmdutil.ResolveProject(opts.ConfigLoader, opts.StackName, opts.Project, opts.StateFile)
	if err != nil {
		return err
	}

	if err := opts.Orchestrator().Down(ctx, project, opts.Volumes); err != nil {
		return err
	}

	// A record resolved some other way (--project, config) is just as
	// stale when it names the project that was torn down.
	if record == nil && opts.StateFile != "" {
		if r, err := handoff.Read(opts.StateFile); err == nil && r.Project == project {
			record = r
		}
	}

	// The record describes a stack that no longer exists.
	if record != nil {
		if err := os.Remove(opts.StateFile); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", opts.StateFile).Msg("failed to remove state file")
		}
	}

	fmt.Fprintf(opts.IOStreams.ErrOut, "Stack project %s torn down\n", project)
	return nil
}
