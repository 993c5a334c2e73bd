package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/metrics"
	"github.com/citusdata/membership-manager/pkg/types"
	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/rs/zerolog"
)

// ErrMissingMetadata means this process is not running inside the Compose
// project it expects: its own container is unknown to the daemon or lacks
// the project label
var ErrMissingMetadata = errors.New("missing container metadata")

// Client is the part of the Docker Engine API used here
type Client interface {
	ContainerInspect(ctx context.Context, containerID string) (dockertypes.ContainerJSON, error)
	Events(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error)
	Close() error
}

// DockerRuntime talks to the Docker daemon this container runs under
type DockerRuntime struct {
	client Client
	logger zerolog.Logger
}

// NewDockerRuntime connects to the daemon configured by the standard
// DOCKER_* environment variables, or to host when it is set
func NewDockerRuntime(host string) (*DockerRuntime, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return NewDockerRuntimeWithClient(cli), nil
}

// NewDockerRuntimeWithClient wraps an existing API client
func NewDockerRuntimeWithClient(c Client) *DockerRuntime {
	return &DockerRuntime{
		client: c,
		logger: log.WithComponent("runtime"),
	}
}

// Close closes the docker client connection
func (r *DockerRuntime) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ContainerLabels returns the labels of a container looked up by ID or name
func (r *DockerRuntime) ContainerLabels(ctx context.Context, containerID string) (map[string]string, error) {
	container, err := r.client.ContainerInspect(ctx, containerID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: container %s not found", ErrMissingMetadata, containerID)
		}
		return nil, fmt.Errorf("failed to inspect container %s: %w", containerID, err)
	}

	if container.Config == nil {
		return nil, nil
	}
	return container.Config.Labels, nil
}

// ResolveComposeProject finds the Compose project the given container was
// started in. The container is normally this process's own, named by HOSTNAME.
func (r *DockerRuntime) ResolveComposeProject(ctx context.Context, containerID string) (types.ComposeProject, error) {
	labels, err := r.ContainerLabels(ctx, containerID)
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentRuntime, false, err.Error())
		return "", err
	}

	project := labels[types.ComposeProjectLabel]
	if project == "" {
		err := fmt.Errorf("%w: container %s has no %s label", ErrMissingMetadata, containerID, types.ComposeProjectLabel)
		metrics.UpdateComponent(metrics.ComponentRuntime, false, err.Error())
		return "", err
	}

	metrics.UpdateComponent(metrics.ComponentRuntime, true, "")
	r.logger.Info().Str("project", project).Msg("found Compose project")
	return types.ComposeProject(project), nil
}

// Events opens a stream of daemon events matching args. The message channel
// is never closed; the stream ends when an error is sent on the error channel.
func (r *DockerRuntime) Events(ctx context.Context, args filters.Args) (<-chan events.Message, <-chan error) {
	return r.client.Events(ctx, events.ListOptions{Filters: args})
}
