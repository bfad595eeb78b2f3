package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackValidate(t *testing.T) {
	tests := []struct {
		name      string
		stack     Stack
		wantErr   bool
		errFields []string
	}{
		{
			name: "valid stack",
			stack: Stack{
				Name:    "kafka",
				Files:   []string{"docker-compose.yaml"},
				Project: "kafka-test",
			},
		},
		{
			name: "missing files",
			stack: Stack{
				Name:    "empty",
				Project: "empty-test",
			},
			wantErr:   true,
			errFields: []string{"files"},
		},
		{
			name: "blank file path",
			stack: Stack{
				Name:    "blank",
				Files:   []string{"compose.yaml", "  "},
				Project: "blank-test",
			},
			wantErr:   true,
			errFields: []string{"files[1]"},
		},
		{
			name: "missing project",
			stack: Stack{
				Name:  "noproj",
				Files: []string{"compose.yaml"},
			},
			wantErr:   true,
			errFields: []string{"project"},
		},
		{
			name: "invalid project characters",
			stack: Stack{
				Name:    "bad",
				Files:   []string{"compose.yaml"},
				Project: "Bad Project!",
			},
			wantErr:   true,
			errFields: []string{"project"},
		},
		{
			name:      "multiple errors accumulated",
			stack:     Stack{Name: "worst"},
			wantErr:   true,
			errFields: []string{"files", "project"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stack.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, field := range tt.errFields {
				assert.Contains(t, err.Error(), field)
			}
		})
	}
}

func TestNewStackGeneratesProject(t *testing.T) {
	s, err := NewStack("My Kafka Stack", []string{"docker-compose.yaml"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s.Project, "my-kafka-stack-"), "project = %q", s.Project)
	assert.Regexp(t, `^[a-z0-9][a-z0-9_-]*$`, s.Project)
}

func TestNewStackRejectsEmptyFiles(t *testing.T) {
	_, err := NewStack("empty", nil)
	require.Error(t, err)

	var verr *MultiValidationError
	require.ErrorAs(t, err, &verr)
}

func TestGenerateProjectNameUnique(t *testing.T) {
	a := GenerateProjectName("web")
	b := GenerateProjectName("web")
	assert.NotEqual(t, a, b, "generated project names must differ between calls")
}

func TestGenerateProjectNameFallback(t *testing.T) {
	p := GenerateProjectName("!!!")
	assert.True(t, strings.HasPrefix(p, "stack-"), "project = %q", p)
}

func TestApplyDefaultsFillsWait(t *testing.T) {
	s := Stack{
		Name:    "db",
		Files:   []string{"compose.yaml"},
		Project: "db-test",
		Wait:    &WaitConfig{Services: []string{"postgres"}},
	}
	s.ApplyDefaults(Defaults{Timeout: DefaultTimeout, Interval: DefaultInterval})

	assert.Equal(t, DefaultTimeout, s.Wait.Timeout)
	assert.Equal(t, DefaultInterval, s.Wait.Interval)
}
