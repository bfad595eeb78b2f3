package stacktest

import (
	"context"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/sethvargo/go-retry"
)

// daemonWaitMax bounds the preflight wait for a docker daemon that is
// still coming up (CI runners often race the daemon start).
const daemonWaitMax = 30 * time.Second

func newDockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// waitForDaemon pings the docker daemon until it responds or the
// preflight window closes.
func waitForDaemon(ctx context.Context) error {
	cli, err := newDockerClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	b := retry.WithMaxDuration(daemonWaitMax, retry.NewConstant(2*time.Second))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if _, err := cli.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func isDockerAvailable() bool {
	cli, err := newDockerClient()
	if err != nil {
		return false
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// RequireDocker skips the test when no docker daemon is reachable.
func RequireDocker(t *testing.T) {
	t.Helper()
	if !isDockerAvailable() {
		t.Skip("docker is not available, skipping test")
	}
}
