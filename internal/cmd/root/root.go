package root

import (
	"github.com/spf13/cobra"
	downcmd "github.com/stackpilot/stackpilot/internal/cmd/down"
	logscmd "github.com/stackpilot/stackpilot/internal/cmd/logs"
	statuscmd "github.com/stackpilot/stackpilot/internal/cmd/status"
	upcmd "github.com/stackpilot/stackpilot/internal/cmd/up"
	versioncmd "github.com/stackpilot/stackpilot/internal/cmd/version"
	waitcmd "github.com/stackpilot/stackpilot/internal/cmd/wait"
	"github.com/stackpilot/stackpilot/internal/cmdutil"
	internalconfig "github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/logger"
)

// NewCmdRoot creates the root command for the stackpilot CLI.
func NewCmdRoot(f *cmdutil.Factory) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "stackpilot",
		Short: "Manage docker compose stacks around automated test runs",
		Long: `Stackpilot starts multi-container stacks for integration tests, waits
until their services are ready, and tears them down afterwards.

Quick start:
  stackpilot up -f compose.yaml --wait-service db --target HEALTHY
  go test ./...
  stackpilot down

Stacks can also be defined once in stackpilot.yaml and started by name:
  stackpilot up integration`,
		SilenceUsage: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(f.Version, f.Commit),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f.Debug = debug
			initializeLogger(f, debug)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", debug).
				Msg("stackpilot starting")

			return nil
		},
		Version: f.Version,
	}

	cmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&f.WorkDir, "workdir", "C", "", "Run as if started in this directory")

	cmd.SetVersionTemplate(versioncmd.Format(f.Version, f.Commit))

	cmd.AddCommand(upcmd.NewCmdUp(f, nil))
	cmd.AddCommand(downcmd.NewCmdDown(f, nil))
	cmd.AddCommand(waitcmd.NewCmdWait(f, nil))
	cmd.AddCommand(logscmd.NewCmdLogs(f, nil))
	cmd.AddCommand(statuscmd.NewCmdStatus(f, nil))
	cmd.AddCommand(versioncmd.NewCmdVersion(f))

	return cmd
}

// initializeLogger sets up the logger, adding file logging when
// stackpilot.yaml configures it. Falls back to console-only logging on
// any error.
func initializeLogger(f *cmdutil.Factory, debug bool) {
	if f.ConfigLoader == nil {
		logger.Init(debug)
		return
	}
	loader := f.ConfigLoader()
	if loader == nil || !loader.Exists() {
		logger.Init(debug)
		return
	}

	cfg, err := loader.Load()
	if err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to load config")
		return
	}

	logCfg := &logger.LoggingConfig{
		FileEnabled: cfg.Logging.FileEnabled,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
		MaxBackups:  cfg.Logging.MaxBackups,
	}
	if !logCfg.IsFileEnabled() {
		logger.Init(debug)
		return
	}

	logsDir := internalconfig.LogsDir()
	if err := logger.InitWithFile(debug, logsDir, logCfg); err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
