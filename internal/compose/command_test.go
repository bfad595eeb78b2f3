package compose

import (
	"testing"

	"github.com/stackpilot/stackpilot/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestUpArgs(t *testing.T) {
	stack := &config.Stack{
		Name:     "kafka",
		Files:    []string{"docker-compose.yaml", "docker-compose.test.yaml"},
		EnvFiles: []string{".env.test"},
		Project:  "kafka-ci",
	}

	args := UpArgs(stack)

	assert.Equal(t, []string{
		"docker", "compose",
		"-f", "docker-compose.yaml",
		"-f", "docker-compose.test.yaml",
		"-p", "kafka-ci",
		"--env-file", ".env.test",
		"up", "-d",
	}, args)

	// Deterministic: same input, same argv.
	assert.Equal(t, args, UpArgs(stack))
}

func TestDownArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"docker", "compose", "-p", "kafka-ci", "down", "--remove-orphans"},
		DownArgs("kafka-ci", false))

	assert.Equal(t,
		[]string{"docker", "compose", "-p", "kafka-ci", "down", "--remove-orphans", "-v"},
		DownArgs("kafka-ci", true))
}

func TestPsArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"docker", "compose", "-p", "web-ci", "ps", "--all", "--format", "json"},
		PsArgs("web-ci"))
}

func TestLogsArgs(t *testing.T) {
	tests := []struct {
		name string
		spec LogsSpec
		want []string
	}{
		{
			name: "bare",
			spec: LogsSpec{},
			want: []string{"docker", "compose", "-p", "p1", "logs", "--no-color"},
		},
		{
			name: "tail and services",
			spec: LogsSpec{Services: []string{"web", "db"}, Tail: 200},
			want: []string{"docker", "compose", "-p", "p1", "logs", "--no-color", "--tail", "200", "web", "db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogsArgs("p1", tt.spec))
		})
	}
}
