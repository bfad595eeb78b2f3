package stackpilot

import (
	"errors"
	"fmt"

	"github.com/stackpilot/stackpilot/internal/cmd/root"
	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/logger"
)

// Build-time variables injected via ldflags
var (
	Version = "dev"
	Commit  = "none"
)

const (
	exitOk    = 0
	exitError = 1
	exitUsage = 2
)

// Main is the entry point for the stackpilot CLI. It initializes the
// Factory, creates the root command, and executes it, mapping errors to
// exit codes.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	f := cmdutil.New(Version, Commit)

	rootCmd := root.NewCmdRoot(f)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return exitOk
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, cmdutil.SilentError) {
		return exitError
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintf(f.IOStreams.ErrOut, "Run '%s --help' for usage.\n", cmd.CommandPath())
		return exitUsage
	}

	return exitError
}
