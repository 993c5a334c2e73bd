package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/metrics"
	"github.com/citusdata/membership-manager/pkg/types"
	dockerevents "github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/rs/zerolog"
)

// Docker actions that change cluster membership
const (
	ActionHealthy = "health_status: healthy"
	ActionDestroy = "destroy"
)

// ErrSubscriptionClosed is returned when the daemon ends the stream without
// reporting an error
var ErrSubscriptionClosed = errors.New("event subscription closed")

// Kind is the decoded meaning of a container event
type Kind string

const (
	KindHealthy Kind = "healthy"
	KindDestroy Kind = "destroy"
	KindIgnored Kind = "ignored"
)

// Event is a container lifecycle event reduced to what the reconciler acts on
type Event struct {
	Kind   Kind
	Worker types.WorkerNode
	Action string // as reported by the daemon
}

// Decode classifies a raw daemon message. Messages with an unknown action or
// without a container name decode to KindIgnored.
func Decode(msg dockerevents.Message) Event {
	action := string(msg.Action)
	name := msg.Actor.Attributes["name"]

	ev := Event{Kind: KindIgnored, Action: action, Worker: types.WorkerNode{Name: name}}
	if name == "" {
		return ev
	}

	switch action {
	case ActionHealthy:
		ev.Kind = KindHealthy
	case ActionDestroy:
		ev.Kind = KindDestroy
	}
	return ev
}

// Filters selects health and destroy events of the worker containers in the
// given Compose project. Values of one key are alternatives, except labels
// which must all be present.
func Filters(project types.ComposeProject) filters.Args {
	return filters.NewArgs(
		filters.Arg("type", string(dockerevents.ContainerEventType)),
		filters.Arg("event", ActionHealthy),
		filters.Arg("event", ActionDestroy),
		filters.Arg("label", project.Label()),
		filters.Arg("label", types.RoleLabel+"="+types.WorkerRole),
	)
}

// Source opens a stream of daemon events
type Source interface {
	Events(ctx context.Context, args filters.Args) (<-chan dockerevents.Message, <-chan error)
}

// Subscription is a single, non-restartable stream of decoded events
type Subscription struct {
	msgs   <-chan dockerevents.Message
	errs   <-chan error
	cancel context.CancelFunc
	logger zerolog.Logger
}

// Subscribe opens the worker event stream for project
func Subscribe(ctx context.Context, src Source, project types.ComposeProject) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	msgs, errs := src.Events(ctx, Filters(project))

	metrics.SubscriptionActive.Set(1)
	metrics.UpdateComponent(metrics.ComponentEvents, true, "")

	s := &Subscription{
		msgs:   msgs,
		errs:   errs,
		cancel: cancel,
		logger: log.WithComponent("events"),
	}
	s.logger.Info().Str("project", string(project)).Msg("listening for events")
	return s
}

// Next blocks until the next event arrives. Any stream error is final: the
// subscription must not be read again after Next returns one.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case msg, ok := <-s.msgs:
		if !ok {
			return Event{}, s.fail(ErrSubscriptionClosed)
		}
		ev := Decode(msg)
		metrics.EventsTotal.WithLabelValues(string(ev.Kind)).Inc()
		s.logger.Debug().
			Str("action", ev.Action).
			Str("worker", ev.Worker.Name).
			Str("kind", string(ev.Kind)).
			Msg("received event")
		return ev, nil
	case err, ok := <-s.errs:
		if !ok || err == nil {
			return Event{}, s.fail(ErrSubscriptionClosed)
		}
		return Event{}, s.fail(fmt.Errorf("error receiving event: %w", err))
	}
}

// Close stops the underlying stream
func (s *Subscription) Close() {
	s.cancel()
	metrics.SubscriptionActive.Set(0)
}

func (s *Subscription) fail(err error) error {
	metrics.SubscriptionActive.Set(0)
	metrics.UpdateComponent(metrics.ComponentEvents, false, err.Error())
	return err
}
