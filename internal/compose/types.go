// Package compose orchestrates docker compose stacks through the
// compose CLI: bringing a stack up, querying service status, waiting
// for readiness, capturing logs, and tearing the stack down.
package compose

import (
	"fmt"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
)

// State classifies a service's current condition.
type State string

const (
	StateRunning    State = "RUNNING"
	StateHealthy    State = "HEALTHY"
	StateStopped    State = "STOPPED"
	StateRestarting State = "RESTARTING"
	StateUnknown    State = "UNKNOWN"
)

// SatisfiedBy reports whether an observed state meets the target.
// A RUNNING target is met by RUNNING or HEALTHY; a HEALTHY target
// requires exactly HEALTHY.
func (target State) SatisfiedBy(observed State) bool {
	switch target {
	case StateRunning:
		return observed == StateRunning || observed == StateHealthy
	default:
		return observed == target
	}
}

// PortMapping is a published port. Immutable value.
type PortMapping struct {
	ContainerPort int    `json:"container_port"`
	HostPort      int    `json:"host_port"`
	Protocol      string `json:"protocol"`
}

// NatPort returns the container-side port in docker's nat.Port form.
func (p PortMapping) NatPort() (nat.Port, error) {
	return nat.NewPort(p.Protocol, strconv.Itoa(p.ContainerPort))
}

func (p PortMapping) String() string {
	return fmt.Sprintf("%d->%d/%s", p.HostPort, p.ContainerPort, p.Protocol)
}

// ServiceInfo is a snapshot of one service in a stack. Snapshots are
// replaced wholesale on each status query, never mutated.
type ServiceInfo struct {
	Name        string        `json:"name"`
	ContainerID string        `json:"container_id"`
	State       State         `json:"state"`
	Ports       []PortMapping `json:"ports,omitempty"`
}

// WaitSpec describes a readiness wait: which services must reach which
// state, within what time, polled at what interval.
type WaitSpec struct {
	Services []string
	Target   State
	Timeout  time.Duration
	Interval time.Duration
}

// Validate checks the spec before any polling occurs.
func (s WaitSpec) Validate() error {
	if len(s.Services) == 0 {
		return &SpecError{Field: "services", Message: "at least one service is required"}
	}
	if s.Target != StateRunning && s.Target != StateHealthy {
		return &SpecError{Field: "target", Message: fmt.Sprintf("unsupported target state %q", s.Target)}
	}
	if s.Interval <= 0 {
		return &SpecError{Field: "interval", Message: "poll interval must be positive"}
	}
	if s.Timeout <= 0 {
		return &SpecError{Field: "timeout", Message: "timeout must be positive"}
	}
	if s.Interval >= s.Timeout {
		return &SpecError{Field: "interval", Message: "poll interval must be smaller than timeout"}
	}
	return nil
}

// LogsSpec configures a log capture. Follow is accepted for interface
// symmetry but ignored: captures are always finite.
type LogsSpec struct {
	Services []string
	Tail     int
	Follow   bool
}
