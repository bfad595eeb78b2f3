package down

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/compose"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/handoff"
	"github.com/stackpilot/stackpilot/internal/iostreams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner succeeds every subprocess call.
type stubRunner struct{}

func (stubRunner) Run(_ context.Context, _ compose.Cmd) (compose.Result, error) {
	return compose.Result{ExitCode: 0}, nil
}

func TestNewCmdDown(t *testing.T) {
	tio := iostreams.NewTestIOStreams()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	var gotOpts *DownOptions
	cmd := NewCmdDown(f, func(_ context.Context, opts *DownOptions) error {
		gotOpts = opts
		return nil
	})

	cmd.SetArgs([]string{"integration", "-p", "ci-web", "--volumes", "--state-file", "state.json"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, gotOpts, "expected runF to be called")
	assert.Equal(t, "integration", gotOpts.StackName)
	assert.Equal(t, "ci-web", gotOpts.Project)
	assert.True(t, gotOpts.Volumes)
	assert.Equal(t, "state.json", gotOpts.StateFile)
}

func TestNewCmdDownDefaults(t *testing.T) {
	t.Setenv(config.StateFileEnvVar, "/tmp/state.json")

	tio := iostreams.NewTestIOStreams()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	var gotOpts *DownOptions
	cmd := NewCmdDown(f, func(_ context.Context, opts *DownOptions) error {
		gotOpts = opts
		return nil
	})

	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, gotOpts)
	assert.Empty(t, gotOpts.StackName)
	assert.False(t, gotOpts.Volumes)
	assert.Equal(t, "/tmp/state.json", gotOpts.StateFile)
}

func writeRecord(t *testing.T, project string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, handoff.Write(path, &handoff.Record{
		Stack:   "web",
		Project: project,
		Scope:   handoff.ScopeClass,
	}))
	return path
}

func downOpts(project, stateFile string) *DownOptions {
	tio := iostreams.NewTestIOStreams()
	return &DownOptions{
		IOStreams: tio.IOStreams,
		Orchestrator: func() *compose.Orchestrator {
			return compose.NewOrchestrator(stubRunner{})
		},
		Project:   project,
		StateFile: stateFile,
	}
}

func TestDownRemovesStateFileForFlagProject(t *testing.T) {
	stateFile := writeRecord(t, "ci-web")

	err := downRun(context.Background(), downOpts("ci-web", stateFile))
	require.NoError(t, err)

	_, statErr := os.Stat(stateFile)
	assert.True(t, os.IsNotExist(statErr),
		"record naming the torn-down project should be removed")
}

func TestDownKeepsStateFileForOtherProject(t *testing.T) {
	stateFile := writeRecord(t, "ci-web")

	err := downRun(context.Background(), downOpts("unrelated", stateFile))
	require.NoError(t, err)

	_, statErr := os.Stat(stateFile)
	assert.NoError(t, statErr, "record for a different project must survive")
}
