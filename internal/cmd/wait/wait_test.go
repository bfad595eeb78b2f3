package wait

import (
	"context"
	"testing"
	"time"

	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stackpilot/stackpilot/internal/iostreams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCmdWait(t *testing.T) {
	tio := iostreams.NewTestIOStreams()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	var gotOpts *WaitOptions
	cmd := NewCmdWait(f, func(_ context.Context, opts *WaitOptions) error {
		gotOpts = opts
		return nil
	})

	cmd.SetArgs([]string{
		"-p", "ci-web",
		"--service", "db",
		"--service", "api",
		"--target", "HEALTHY",
		"--timeout", "30s",
		"--interval", "2s",
	})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, gotOpts, "expected runF to be called")
	assert.Equal(t, "ci-web", gotOpts.Project)
	assert.Equal(t, []string{"db", "api"}, gotOpts.Services)
	assert.Equal(t, "HEALTHY", gotOpts.Target)
	assert.Equal(t, 30*time.Second, gotOpts.Timeout)
	assert.Equal(t, 2*time.Second, gotOpts.Interval)
}

func TestNewCmdWaitRequiresService(t *testing.T) {
	tio := iostreams.NewTestIOStreams()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	cmd := NewCmdWait(f, func(_ context.Context, opts *WaitOptions) error {
		t.Fatal("runF must not be called without --service")
		return nil
	})
	cmd.SetArgs([]string{"-p", "ci-web"})
	cmd.SetOut(tio.OutBuf)
	cmd.SetErr(tio.ErrBuf)

	err := cmd.Execute()
	require.Error(t, err)

	var flagErr *cmdutil.FlagError
	assert.ErrorAs(t, err, &flagErr)
}

func TestNewCmdWaitDefaults(t *testing.T) {
	tio := iostreams.NewTestIOStreams()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	var gotOpts *WaitOptions
	cmd := NewCmdWait(f, func(_ context.Context, opts *WaitOptions) error {
		gotOpts = opts
		return nil
	})

	cmd.SetArgs([]string{"--service", "db"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, gotOpts)
	assert.Equal(t, "RUNNING", gotOpts.Target)
	assert.Equal(t, config.DefaultTimeout, gotOpts.Timeout)
	assert.Equal(t, config.DefaultInterval, gotOpts.Interval)
}
