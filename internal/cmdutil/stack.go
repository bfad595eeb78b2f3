package cmdutil

import (
	"errors"
	"os"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/handoff"
)

// StackFlags is the flag surface shared by commands that address a stack.
// A stack is named either by explicit compose files or by a stack name
// defined in stackpilot.yaml; explicit flags override configured values.
type StackFlags struct {
	Files    []string
	EnvFiles []string
	Project  string
}

// ResolveStack builds the stack a command operates on. With --file flags
// the stack is assembled directly; with a name argument it is resolved
// from stackpilot.yaml. Flag values override configured ones.
func ResolveStack(loader func() *config.Loader, name string, flags StackFlags) (*config.Stack, error) {
	if len(flags.Files) == 0 && name == "" {
		return nil, FlagErrorf("a stack name or at least one --file is required")
	}

	if len(flags.Files) > 0 {
		stackName := name
		if stackName == "" {
			stackName = "stack"
		}
		stack := &config.Stack{
			Name:     stackName,
			Files:    flags.Files,
			EnvFiles: flags.EnvFiles,
			Project:  flags.Project,
		}
		stack.ApplyDefaults(config.Defaults{
			Timeout:  config.DefaultTimeout,
			Interval: config.DefaultInterval,
		})
		if err := stack.Validate(); err != nil {
			return nil, err
		}
		return stack, nil
	}

	stack, err := loader().Resolve(name)
	if err != nil {
		return nil, err
	}
	if len(flags.EnvFiles) > 0 {
		stack.EnvFiles = flags.EnvFiles
	}
	if flags.Project != "" {
		stack.Project = flags.Project
	}
	return stack, nil
}

// ResolveProject determines the compose project a command targets,
// in order of precedence: the --project flag, the handoff record in the
// state file, then a project configured for the named stack. Generated
// project names never survive the writing process, so commands that run
// after `up` rely on the state file.
func ResolveProject(loader func() *config.Loader, name, project, stateFile string) (string, *handoff.Record, error) {
	if project != "" {
		return project, nil, nil
	}

	if stateFile != "" {
		record, err := handoff.Read(stateFile)
		if err == nil {
			if name == "" || record.Stack == name {
				return record.Project, record, nil
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", nil, err
		}
	}

	if name != "" {
		stack, err := loader().Resolve(name)
		if err != nil {
			return "", nil, err
		}
		return stack.Project, nil, nil
	}

	return "", nil, FlagErrorf("cannot determine project: pass --project, a stack name, or --state-file")
}

// DefaultStateFile returns the handoff record path: the
// STACKPILOT_STATE_FILE environment variable when set, the conventional
// location otherwise.
func DefaultStateFile() string {
	if path := os.Getenv(config.StateFileEnvVar); path != "" {
		return path
	}
	return config.DefaultStateFile
}
