// Package handoff serializes resolved stack state for consumption by
// test code: which services run under which project, their container
// ids, states, and published ports.
package handoff

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/stackpilot/stackpilot/internal/compose"
)

// Scope tags a record with the test-execution boundary its stack is
// bound to.
type Scope string

const (
	// ScopeClass binds a stack to a whole test class/package: one up
	// before the first test, one down after the last.
	ScopeClass Scope = "class"
	// ScopeMethod binds a stack to a single test: one up/down pair per
	// test method.
	ScopeMethod Scope = "method"
)

// Record is the handoff record written after a successful stack-up.
// It is never mutated; a new snapshot replaces it wholesale.
type Record struct {
	Stack     string                         `json:"stack"`
	Project   string                         `json:"project"`
	Scope     Scope                          `json:"scope"`
	CreatedAt time.Time                      `json:"created_at"`
	Services  map[string]compose.ServiceInfo `json:"services"`
}

// HostPort resolves the host-exposed port for a service's container
// port.
func (r *Record) HostPort(service string, containerPort int) (int, error) {
	info, ok := r.Services[service]
	if !ok {
		return 0, fmt.Errorf("service %q not present in stack %q", service, r.Stack)
	}
	for _, p := range info.Ports {
		if p.ContainerPort == containerPort {
			return p.HostPort, nil
		}
	}
	return 0, fmt.Errorf("service %q does not publish container port %d", service, containerPort)
}

// Write stores the record at path, replacing any previous record for
// the same scope instantiation. The write is atomic (temp file +
// rename) and guarded by a file lock against concurrent test processes.
func Write(path string, record *Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	lock := flock.New(lockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock state file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state record: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Read loads a record previously stored with Write.
func Read(path string) (*Record, error) {
	lock := flock.New(lockPath(path))
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock state file: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	return &record, nil
}

func lockPath(path string) string {
	return path + ".lock"
}
