package stacktest

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/stackpilot/stackpilot/internal/logger"
	"go.uber.org/multierr"
)

// composeProjectLabel is the label compose stamps on every resource it
// creates, keyed by project name.
const composeProjectLabel = "com.docker.compose.project"

// cleanupProject removes leftover resources of a compose project
// directly through the docker API. It catches what `compose down`
// cannot: resources orphaned by a killed run where no compose process
// is around anymore. Best-effort; failures are logged.
func cleanupProject(ctx context.Context, project string) {
	cli, err := newDockerClient()
	if err != nil {
		return
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := removeProjectResources(ctx, cli, project); err != nil {
		logger.Warn().Err(err).Str("project", project).Msg("leaked resource cleanup incomplete")
	}
}

func removeProjectResources(ctx context.Context, cli *client.Client, project string) error {
	var errs error
	f := filters.NewArgs(filters.Arg("label", composeProjectLabel+"="+project))

	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: f})
	if err != nil {
		return err
	}
	for _, cont := range containers {
		if cont.State == "running" {
			if err := cli.ContainerStop(ctx, cont.ID, container.StopOptions{}); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("stop container %s: %w", cont.ID[:12], err))
			}
		}
		if err := cli.ContainerRemove(ctx, cont.ID, container.RemoveOptions{Force: true}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove container %s: %w", cont.ID[:12], err))
		}
	}

	volumes, err := cli.VolumeList(ctx, volume.ListOptions{Filters: f})
	if err != nil {
		return multierr.Append(errs, err)
	}
	for _, vol := range volumes.Volumes {
		if err := cli.VolumeRemove(ctx, vol.Name, true); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove volume %s: %w", vol.Name, err))
		}
	}

	networks, err := cli.NetworkList(ctx, network.ListOptions{Filters: f})
	if err != nil {
		return multierr.Append(errs, err)
	}
	for _, net := range networks {
		if err := cli.NetworkRemove(ctx, net.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove network %s: %w", net.ID[:12], err))
		}
	}

	return errs
}
