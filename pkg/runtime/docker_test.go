package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/citusdata/membership-manager/pkg/types"
	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	inspect    dockertypes.ContainerJSON
	inspectErr error
	inspected  []string
	options    events.ListOptions
	closed     bool
}

func (c *fakeClient) ContainerInspect(_ context.Context, containerID string) (dockertypes.ContainerJSON, error) {
	c.inspected = append(c.inspected, containerID)
	return c.inspect, c.inspectErr
}

func (c *fakeClient) Events(_ context.Context, options events.ListOptions) (<-chan events.Message, <-chan error) {
	c.options = options
	return make(chan events.Message), make(chan error)
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func withLabels(labels map[string]string) dockertypes.ContainerJSON {
	return dockertypes.ContainerJSON{Config: &container.Config{Labels: labels}}
}

func TestResolveComposeProject(t *testing.T) {
	tests := []struct {
		name       string
		client     *fakeClient
		expected   types.ComposeProject
		missing    bool
		otherError bool
	}{
		{
			name:     "label present",
			client:   &fakeClient{inspect: withLabels(map[string]string{types.ComposeProjectLabel: "citus", "other": "x"})},
			expected: "citus",
		},
		{
			name:    "label absent",
			client:  &fakeClient{inspect: withLabels(map[string]string{"other": "x"})},
			missing: true,
		},
		{
			name:    "label empty",
			client:  &fakeClient{inspect: withLabels(map[string]string{types.ComposeProjectLabel: ""})},
			missing: true,
		},
		{
			name:    "no config",
			client:  &fakeClient{inspect: dockertypes.ContainerJSON{}},
			missing: true,
		},
		{
			name:    "container not found",
			client:  &fakeClient{inspectErr: errdefs.NotFound(errors.New("no such container"))},
			missing: true,
		},
		{
			name:       "daemon unreachable",
			client:     &fakeClient{inspectErr: errors.New("cannot connect to the docker daemon")},
			otherError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDockerRuntimeWithClient(tt.client)

			project, err := r.ResolveComposeProject(context.Background(), "abc123")

			assert.Equal(t, []string{"abc123"}, tt.client.inspected)
			switch {
			case tt.missing:
				assert.ErrorIs(t, err, ErrMissingMetadata)
				assert.Empty(t, project)
			case tt.otherError:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrMissingMetadata)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, project)
			}
		})
	}
}

func TestEventsPassesFilters(t *testing.T) {
	c := &fakeClient{}
	r := NewDockerRuntimeWithClient(c)
	args := filters.NewArgs(filters.Arg("type", "container"))

	msgs, errs := r.Events(context.Background(), args)

	assert.NotNil(t, msgs)
	assert.NotNil(t, errs)
	assert.Equal(t, args, c.options.Filters)
}

func TestClose(t *testing.T) {
	c := &fakeClient{}
	require.NoError(t, NewDockerRuntimeWithClient(c).Close())
	assert.True(t, c.closed)
}
