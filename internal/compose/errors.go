package compose

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SpecError indicates an invalid WaitSpec. It is raised before any
// subprocess is spawned.
type SpecError struct {
	Field   string
	Message string
}

func (e *SpecError) Error() string {
	return "invalid wait spec " + e.Field + ": " + e.Message
}

// OrchestrationError indicates a compose subprocess failed during an
// up/down/status operation.
type OrchestrationError struct {
	Project  string
	Op       string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *OrchestrationError) Error() string {
	msg := fmt.Sprintf("compose %s failed for project %q", e.Op, e.Project)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	msg += fmt.Sprintf(": exit status %d", e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// TimeoutError indicates services did not reach the target state in time.
// Unready maps each still-unready service to its last observed state.
type TimeoutError struct {
	Project string
	Target  State
	Elapsed time.Duration
	Unready map[string]State
}

func (e *TimeoutError) Error() string {
	names := make([]string, 0, len(e.Unready))
	for name := range e.Unready {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (last seen %s)", name, e.Unready[name]))
	}

	return fmt.Sprintf("project %q: services not %s after %s: %s",
		e.Project, e.Target, e.Elapsed.Round(time.Millisecond), strings.Join(parts, ", "))
}
