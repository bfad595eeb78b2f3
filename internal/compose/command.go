package compose

import (
	"strconv"

	"github.com/stackpilot/stackpilot/internal/config"
)

// composeBinary is the CLI driven by the orchestrator. Compose v2 is a
// docker subcommand.
const composeBinary = "docker"

// UpArgs builds the argv for bringing a stack up, detached.
// Deterministic: file and env-file order follows the stack definition.
func UpArgs(stack *config.Stack) []string {
	args := []string{composeBinary, "compose"}
	for _, f := range stack.Files {
		args = append(args, "-f", f)
	}
	args = append(args, "-p", stack.Project)
	for _, ef := range stack.EnvFiles {
		args = append(args, "--env-file", ef)
	}
	args = append(args, "up", "-d")
	return args
}

// DownArgs builds the argv for tearing a project down. Removing
// orphans keeps retries idempotent when compose files changed between
// up and down.
func DownArgs(project string, volumes bool) []string {
	args := []string{composeBinary, "compose", "-p", project, "down", "--remove-orphans"}
	if volumes {
		args = append(args, "-v")
	}
	return args
}

// PsArgs builds the argv for querying service status as JSON lines.
func PsArgs(project string) []string {
	return []string{composeBinary, "compose", "-p", project, "ps", "--all", "--format", "json"}
}

// LogsArgs builds the argv for a finite log capture.
func LogsArgs(project string, spec LogsSpec) []string {
	args := []string{composeBinary, "compose", "-p", project, "logs", "--no-color"}
	if spec.Tail > 0 {
		args = append(args, "--tail", strconv.Itoa(spec.Tail))
	}
	args = append(args, spec.Services...)
	return args
}
