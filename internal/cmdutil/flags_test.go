package cmdutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringEnumFlag(t *testing.T) {
	newCmd := func(target *string) *cobra.Command {
		cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
		cmd.SetOut(nil)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		StringEnumFlag(cmd, target, "target", "", "RUNNING", []string{"RUNNING", "HEALTHY"}, "Readiness target")
		return cmd
	}

	t.Run("default", func(t *testing.T) {
		var target string
		cmd := newCmd(&target)
		cmd.SetArgs([]string{})
		require.NoError(t, cmd.Execute())
		assert.Equal(t, "RUNNING", target)
	})

	t.Run("valid value", func(t *testing.T) {
		var target string
		cmd := newCmd(&target)
		cmd.SetArgs([]string{"--target", "HEALTHY"})
		require.NoError(t, cmd.Execute())
		assert.Equal(t, "HEALTHY", target)
	})

	t.Run("invalid value rejected at parse time", func(t *testing.T) {
		var target string
		cmd := newCmd(&target)
		cmd.SetArgs([]string{"--target", "SPINNING"})
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "valid values are {RUNNING|HEALTHY}")
	})
}
