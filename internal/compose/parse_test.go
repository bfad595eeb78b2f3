package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceState(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want State
	}{
		{"up healthy", "Up 5 minutes (healthy)", StateHealthy},
		{"running healthy", "running (healthy)", StateHealthy},
		{"up unhealthy", "Up 2 minutes (unhealthy)", StateRunning},
		{"plain up", "Up 10 seconds", StateRunning},
		{"plain running", "running", StateRunning},
		{"restarting", "Restarting (1) 5 seconds ago", StateRestarting},
		{"restarting beats running", "Up, restarting", StateRestarting},
		{"exited", "Exited (0) 2 minutes ago", StateStopped},
		{"stopped", "stopped", StateStopped},
		{"empty", "", StateUnknown},
		{"whitespace", "   ", StateUnknown},
		{"garbage", "created", StateUnknown},
		{"case insensitive", "UP 1 MINUTE (HEALTHY)", StateHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseServiceState(tt.raw))
		})
	}
}

func TestParseServiceStateDeterministic(t *testing.T) {
	// Pure function: repeated calls agree.
	for i := 0; i < 3; i++ {
		assert.Equal(t, StateHealthy, ParseServiceState("Up 5 minutes (healthy)"))
	}
}

func TestParsePortMappings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []PortMapping
	}{
		{
			name: "dual stack publish",
			raw:  "0.0.0.0:9091->8080/tcp, :::9091->8080/tcp",
			want: []PortMapping{
				{ContainerPort: 8080, HostPort: 9091, Protocol: "tcp"},
				{ContainerPort: 8080, HostPort: 9091, Protocol: "tcp"},
			},
		},
		{
			name: "no host ip",
			raw:  "9091->8080/tcp",
			want: []PortMapping{{ContainerPort: 8080, HostPort: 9091, Protocol: "tcp"}},
		},
		{
			name: "default protocol",
			raw:  "5432->5432",
			want: []PortMapping{{ContainerPort: 5432, HostPort: 5432, Protocol: "tcp"}},
		},
		{
			name: "udp",
			raw:  "0.0.0.0:5353->53/udp",
			want: []PortMapping{{ContainerPort: 53, HostPort: 5353, Protocol: "udp"}},
		},
		{
			name: "unpublished entry skipped",
			raw:  "5432/tcp, 0.0.0.0:8080->80/tcp",
			want: []PortMapping{{ContainerPort: 80, HostPort: 8080, Protocol: "tcp"}},
		},
		{
			name: "all malformed yields empty",
			raw:  "nonsense, also->bad/xyz, ->",
			want: nil,
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePortMappings(tt.raw))
		})
	}
}

func TestParseServicesJSON(t *testing.T) {
	raw := `{"ID":"abc123","Name":"proj-web-1","Service":"web","State":"running","Status":"Up 5 minutes (healthy)","Health":"healthy","Publishers":[{"URL":"0.0.0.0","TargetPort":8080,"PublishedPort":9091,"Protocol":"tcp"}]}
{"ID":"def456","Name":"proj-db-1","Service":"db","State":"running","Status":"Up 5 minutes","Publishers":[{"TargetPort":5432,"PublishedPort":0,"Protocol":"tcp"}]}
not json at all
{"ID":"ghi789","State":"running"}
{"ID":"jkl012","Name":"proj-worker-1","State":"exited","Status":"Exited (0) 1 minute ago"}`

	services := ParseServicesJSON(raw)

	require.Len(t, services, 3)

	web := services["web"]
	assert.Equal(t, "abc123", web.ContainerID)
	assert.Equal(t, StateHealthy, web.State)
	require.Len(t, web.Ports, 1)
	assert.Equal(t, PortMapping{ContainerPort: 8080, HostPort: 9091, Protocol: "tcp"}, web.Ports[0])

	db := services["db"]
	assert.Equal(t, StateRunning, db.State)
	assert.Empty(t, db.Ports, "unpublished ports are dropped")

	// Name fallback when Service is missing.
	worker := services["proj-worker-1"]
	assert.Equal(t, StateStopped, worker.State)
}

func TestParseServicesJSONPortsStringFallback(t *testing.T) {
	raw := `{"ID":"abc","Service":"web","Status":"Up 1 minute","Ports":"0.0.0.0:9091->8080/tcp"}`

	services := ParseServicesJSON(raw)

	require.Contains(t, services, "web")
	require.Len(t, services["web"].Ports, 1)
	assert.Equal(t, 9091, services["web"].Ports[0].HostPort)
}

func TestParseServicesJSONEmpty(t *testing.T) {
	assert.Empty(t, ParseServicesJSON(""))
	assert.Empty(t, ParseServicesJSON("\n\n"))
}

func TestStateSatisfiedBy(t *testing.T) {
	tests := []struct {
		target   State
		observed State
		want     bool
	}{
		{StateRunning, StateRunning, true},
		{StateRunning, StateHealthy, true},
		{StateRunning, StateStopped, false},
		{StateRunning, StateUnknown, false},
		{StateHealthy, StateHealthy, true},
		{StateHealthy, StateRunning, false},
		{StateStopped, StateStopped, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.target.SatisfiedBy(tt.observed),
			"target %s observed %s", tt.target, tt.observed)
	}
}
