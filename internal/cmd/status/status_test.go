package status

import (
	"context"
	"strings"
	"testing"

	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/iostreams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCmdStatus(t *testing.T) {
	tio := iostreams.NewTestIOStreams()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	var gotOpts *StatusOptions
	cmd := NewCmdStatus(f, func(_ context.Context, opts *StatusOptions) error {
		gotOpts = opts
		return nil
	})

	cmd.SetArgs([]string{"integration", "-p", "ci-web"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, gotOpts, "expected runF to be called")
	assert.Equal(t, "integration", gotOpts.StackName)
	assert.Equal(t, "ci-web", gotOpts.Project)
}

func TestPrintTable(t *testing.T) {
	tio := iostreams.NewTestIOStreams()

	printTable(tio.IOStreams, map[string]compose.ServiceInfo{
		"web": {
			Name:  "web",
			State: compose.StateRunning,
			Ports: []compose.PortMapping{
				{ContainerPort: 8080, HostPort: 18080, Protocol: "tcp"},
			},
		},
		"db": {
			Name:  "db",
			State: compose.StateHealthy,
		},
	})

	out := tio.OutBuf.String()
	assert.Contains(t, out, "SERVICE")
	assert.Contains(t, out, "db")
	assert.Contains(t, out, "HEALTHY")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "18080->8080/tcp")

	// Sorted by service name.
	assert.Less(t, strings.Index(out, "db"), strings.Index(out, "web"))
}
