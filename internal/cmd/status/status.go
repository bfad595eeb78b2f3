package status

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/iostreams"
)

type StatusOptions struct {
	IOStreams    *iostreams.IOStreams
	Orchestrator func() *compose.Orchestrator
	ConfigLoader func() *config.Loader

	StackName string
	Project   string
	StateFile string
}

func NewCmdStatus(f *cmdutil.Factory, runF func(context.Context, *StatusOptions) error) *cobra.Command {
	opts := &StatusOptions{
		IOStreams:    f.IOStreams,
		Orchestrator: f.Orchestrator,
		ConfigLoader: f.ConfigLoader,
	}

	cmd := &cobra.Command{
		Use:   "status [stack]",
		Short: "Show the state of a stack's services",
		Example: `  # Status of the stack recorded in the default state file
  stackpilot status

  # Status of an explicit project
  stackpilot status -p ci-web`,
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
			return statusRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Compose project name")
	cmd.Flags().StringVar(&opts.StateFile, "state-file", "", "State record location (default $STACKPILOT_STATE_FILE)")

	return cmd
}

func statusRun(ctx context.Context, opts *StatusOptions) error {
	project, _, err := cmdutil.ResolveProject(opts.ConfigLoader, opts.StackName, opts.Project, opts.StateFile)
	if err != nil {
		return err
	}

	services, err := opts.Orchestrator().Services(ctx, project)
	if err != nil {
		return err
	}

	ios := opts.IOStreams
	if len(services) == 0 {
		fmt.Fprintf(ios.ErrOut, "No services found for project %s\n", project)
		return nil
	}

	fmt.Fprintf(ios.ErrOut, "Project: %s\n\n", project)
	printTable(ios, services)
	return nil
}

func printTable(ios *iostreams.IOStreams, services map[string]compose.ServiceInfo) {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(ios.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATE\tPORTS")
	for _, name := range names {
		info := services[name]
		ports := make([]string, 0, len(info.Ports))
		for _, p := range info.Ports {
			ports = append(ports, p.String())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, info.State, strings.Join(ports, ", "))
	}
	w.Flush()
}
