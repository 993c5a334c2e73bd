package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citusdata/membership-manager/pkg/types"
	dockerevents "github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(action string, attributes map[string]string) dockerevents.Message {
	return dockerevents.Message{
		Type:   dockerevents.ContainerEventType,
		Action: dockerevents.Action(action),
		Actor:  dockerevents.Actor{ID: "c0ffee", Attributes: attributes},
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		msg      dockerevents.Message
		kind     Kind
		expected string
	}{
		{
			name:     "healthy worker",
			msg:      message(ActionHealthy, map[string]string{"name": "worker-1"}),
			kind:     KindHealthy,
			expected: "worker-1",
		},
		{
			name:     "destroyed worker",
			msg:      message(ActionDestroy, map[string]string{"name": "worker-1"}),
			kind:     KindDestroy,
			expected: "worker-1",
		},
		{
			name:     "other action",
			msg:      message("pause", map[string]string{"name": "worker-1"}),
			kind:     KindIgnored,
			expected: "worker-1",
		},
		{
			name:     "unhealthy is not healthy",
			msg:      message("health_status: unhealthy", map[string]string{"name": "worker-1"}),
			kind:     KindIgnored,
			expected: "worker-1",
		},
		{
			name:     "missing action",
			msg:      message("", map[string]string{"name": "worker-1"}),
			kind:     KindIgnored,
			expected: "worker-1",
		},
		{
			name: "missing name",
			msg:  message(ActionDestroy, map[string]string{"image": "citusdata/citus"}),
			kind: KindIgnored,
		},
		{
			name: "missing attributes",
			msg:  message(ActionHealthy, nil),
			kind: KindIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Decode(tt.msg)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.expected, ev.Worker.Name)
			assert.Equal(t, string(tt.msg.Action), ev.Action)
		})
	}
}

func TestFilters(t *testing.T) {
	args := Filters(types.ComposeProject("citus"))

	assert.ElementsMatch(t, []string{"container"}, args.Get("type"))
	assert.ElementsMatch(t, []string{ActionHealthy, ActionDestroy}, args.Get("event"))
	assert.ElementsMatch(t, []string{
		"com.docker.compose.project=citus",
		"com.citusdata.role=Worker",
	}, args.Get("label"))
	assert.Len(t, args.Keys(), 3)
}

type fakeSource struct {
	msgs chan dockerevents.Message
	errs chan error
	args filters.Args
	ctx  context.Context
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		msgs: make(chan dockerevents.Message, 10),
		errs: make(chan error, 1),
	}
}

func (s *fakeSource) Events(ctx context.Context, args filters.Args) (<-chan dockerevents.Message, <-chan error) {
	s.ctx = ctx
	s.args = args
	return s.msgs, s.errs
}

func TestSubscriptionDeliversInOrder(t *testing.T) {
	src := newFakeSource()
	sub := Subscribe(context.Background(), src, "citus")
	defer sub.Close()

	assert.ElementsMatch(t, []string{"com.docker.compose.project=citus", "com.citusdata.role=Worker"}, src.args.Get("label"))

	src.msgs <- message(ActionHealthy, map[string]string{"name": "worker-1"})
	src.msgs <- message("pause", map[string]string{"name": "worker-2"})
	src.msgs <- message(ActionDestroy, map[string]string{"name": "worker-1"})

	var kinds []Kind
	for i := 0; i < 3; i++ {
		ev, err := sub.Next(context.Background())
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []Kind{KindHealthy, KindIgnored, KindDestroy}, kinds)
}

func TestSubscriptionStreamError(t *testing.T) {
	src := newFakeSource()
	sub := Subscribe(context.Background(), src, "citus")
	defer sub.Close()

	streamErr := errors.New("unexpected EOF")
	src.errs <- streamErr

	_, err := sub.Next(context.Background())
	assert.ErrorIs(t, err, streamErr)
}

func TestSubscriptionClosedStream(t *testing.T) {
	src := newFakeSource()
	sub := Subscribe(context.Background(), src, "citus")
	defer sub.Close()

	close(src.msgs)

	_, err := sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestSubscriptionNextCanceled(t *testing.T) {
	src := newFakeSource()
	sub := Subscribe(context.Background(), src, "citus")
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscriptionCloseCancelsStream(t *testing.T) {
	src := newFakeSource()
	sub := Subscribe(context.Background(), src, "citus")

	sub.Close()

	select {
	case <-src.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stream context was not canceled")
	}
}
