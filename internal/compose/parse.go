package compose

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/stackpilot/stackpilot/internal/logger"
)

// ParseServiceState classifies a raw status string. Matching is
// case-insensitive and first-match-wins:
//
//	restart            -> RESTARTING
//	running|up healthy -> HEALTHY (unless "unhealthy")
//	running|up         -> RUNNING
//	exit|stop          -> STOPPED
//	anything else      -> UNKNOWN
func ParseServiceState(raw string) State {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StateUnknown
	}

	switch {
	case strings.Contains(s, "restart"):
		return StateRestarting
	case strings.Contains(s, "running") || strings.Contains(s, "up"):
		if strings.Contains(s, "healthy") && !strings.Contains(s, "unhealthy") {
			return StateHealthy
		}
		return StateRunning
	case strings.Contains(s, "exit") || strings.Contains(s, "stop"):
		return StateStopped
	default:
		return StateUnknown
	}
}

// ParsePortMappings parses a comma-separated ports string like
// "0.0.0.0:9091->8080/tcp, :::9091->8080/tcp". Entries that don't match
// (host-ip:)?host-port->container-port(/protocol)? are skipped; an
// all-malformed input yields an empty list.
func ParsePortMappings(raw string) []PortMapping {
	var mappings []PortMapping

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		mapping, ok := parsePortEntry(entry)
		if !ok {
			logger.Debug().Str("entry", entry).Msg("skipping unparseable port entry")
			continue
		}
		mappings = append(mappings, mapping)
	}

	return mappings
}

func parsePortEntry(entry string) (PortMapping, bool) {
	hostPart, containerPart, found := strings.Cut(entry, "->")
	if !found {
		return PortMapping{}, false
	}

	// The host part may carry an address prefix ("0.0.0.0:9091",
	// ":::9091"); the port is everything after the last colon.
	if idx := strings.LastIndex(hostPart, ":"); idx != -1 {
		hostPart = hostPart[idx+1:]
	}
	hostPort, err := strconv.Atoi(hostPart)
	if err != nil || hostPort < 1 || hostPort > 65535 {
		return PortMapping{}, false
	}

	proto := "tcp"
	if idx := strings.LastIndex(containerPart, "/"); idx != -1 {
		proto = containerPart[idx+1:]
		containerPart = containerPart[:idx]
	}

	// nat.NewPort validates both the protocol and the port number.
	port, err := nat.NewPort(proto, containerPart)
	if err != nil {
		return PortMapping{}, false
	}

	return PortMapping{
		ContainerPort: port.Int(),
		HostPort:      hostPort,
		Protocol:      port.Proto(),
	}, true
}

// psEntry is one line of `docker compose ps --format json` output.
type psEntry struct {
	ID         string        `json:"ID"`
	Name       string        `json:"Name"`
	Service    string        `json:"Service"`
	State      string        `json:"State"`
	Status     string        `json:"Status"`
	Health     string        `json:"Health"`
	Ports      string        `json:"Ports"`
	Publishers []psPublisher `json:"Publishers"`
}

// psPublisher is one published port in a ps entry.
type psPublisher struct {
	URL           string `json:"URL"`
	TargetPort    int    `json:"TargetPort"`
	PublishedPort int    `json:"PublishedPort"`
	Protocol      string `json:"Protocol"`
}

// ParseServicesJSON parses `compose ps --format json` output: one JSON
// object per line. Malformed lines are skipped with a warning, never
// fatal to the batch. The service name comes from the Service field,
// falling back to Name; entries missing both are dropped.
func ParseServicesJSON(raw string) map[string]ServiceInfo {
	services := make(map[string]ServiceInfo)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry psEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			logger.Warn().Err(err).Str("line", truncate(line, 120)).Msg("skipping malformed ps output line")
			continue
		}

		name := entry.Service
		if name == "" {
			name = entry.Name
		}
		if name == "" {
			logger.Warn().Str("line", truncate(line, 120)).Msg("skipping ps entry without service name")
			continue
		}

		services[name] = ServiceInfo{
			Name:        name,
			ContainerID: entry.ID,
			State:       entry.classifyState(),
			Ports:       entry.portMappings(),
		}
	}

	return services
}

// classifyState derives the service state from the richest status field
// available. Status carries health information ("Up 5 minutes
// (healthy)"); State is the bare container state.
func (e psEntry) classifyState() State {
	raw := e.Status
	if raw == "" {
		raw = e.State
	}
	if e.Health != "" {
		raw += " " + e.Health
	}
	return ParseServiceState(raw)
}

// portMappings prefers the structured Publishers array, falling back to
// the legacy Ports string.
func (e psEntry) portMappings() []PortMapping {
	if len(e.Publishers) == 0 {
		return ParsePortMappings(e.Ports)
	}

	var mappings []PortMapping
	for _, pub := range e.Publishers {
		if pub.PublishedPort == 0 {
			// Exposed but not published to the host.
			continue
		}
		proto := pub.Protocol
		if proto == "" {
			proto = "tcp"
		}
		mappings = append(mappings, PortMapping{
			ContainerPort: pub.TargetPort,
			HostPort:      pub.PublishedPort,
			Protocol:      proto,
		})
	}
	return mappings
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
