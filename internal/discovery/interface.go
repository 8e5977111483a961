package discovery

import (
	"context"

	"github.com/docker/docker/api/types/container"
)

type dockerClient interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}
