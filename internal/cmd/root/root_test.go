package root

import (
	"testing"

	"github.com/stackpilot/stackpilot/internal/cmdutil"
	"github.com/stackpilot/stackpilot/internal/iostreams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCmdRoot(t *testing.T) {
	f := cmdutil.New("1.0.0", "abc1234")
	f.IOStreams = iostreams.NewTestIOStreams().IOStreams
	cmd := NewCmdRoot(f)

	assert.Equal(t, "stackpilot", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)

	expected := map[string]bool{
		"up":      false,
		"down":    false,
		"wait":    false,
		"logs":    false,
		"status":  false,
		"version": false,
	}
	for _, sub := range cmd.Commands() {
		if _, ok := expected[sub.Name()]; ok {
			expected[sub.Name()] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "expected subcommand %q to be registered", name)
	}
}

func TestNewCmdRootGlobalFlags(t *testing.T) {
	f := cmdutil.New("1.0.0", "abc1234")
	f.IOStreams = iostreams.NewTestIOStreams().IOStreams
	cmd := NewCmdRoot(f)

	debug := cmd.PersistentFlags().Lookup("debug")
	require.NotNil(t, debug, "expected --debug flag")
	assert.Equal(t, "D", debug.Shorthand)

	workdir := cmd.PersistentFlags().Lookup("workdir")
	require.NotNil(t, workdir, "expected --workdir flag")
	assert.Equal(t, "C", workdir.Shorthand)
}

func TestNewCmdRootVersionAnnotation(t *testing.T) {
	f := cmdutil.New("v2.1.0", "deadbee")
	f.IOStreams = iostreams.NewTestIOStreams().IOStreams
	cmd := NewCmdRoot(f)

	assert.Equal(t, "stackpilot version 2.1.0 (deadbee)\n", cmd.Annotations["versionInfo"])
}
