package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citusdata/membership-manager/pkg/database"
	"github.com/citusdata/membership-manager/pkg/events"
	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/reconciler"
	"github.com/citusdata/membership-manager/pkg/types"
	"github.com/rs/zerolog"
)

const closeTimeout = 5 * time.Second

// Connector establishes the coordinator connection
type Connector interface {
	Connect(ctx context.Context) (database.Conn, error)
	Close(ctx context.Context, conn database.Conn) error
}

// Runtime resolves this container's Compose project and streams its events
type Runtime interface {
	events.Source
	ResolveComposeProject(ctx context.Context, containerID string) (types.ComposeProject, error)
}

// Marker is the readiness signal
type Marker interface {
	Clear() error
	Raise() error
}

// Config wires the supervisor's collaborators
type Config struct {
	Connector Connector
	Runtime   Runtime
	Marker    Marker
	Hostname  string // this container's name or ID
}

// Supervisor runs the reconciliation pipeline
type Supervisor struct {
	connector Connector
	runtime   Runtime
	marker    Marker
	hostname  string
	logger    zerolog.Logger
}

// New creates a supervisor
func New(cfg Config) *Supervisor {
	return &Supervisor{
		connector: cfg.Connector,
		runtime:   cfg.Runtime,
		marker:    cfg.Marker,
		hostname:  cfg.Hostname,
		logger:    log.WithComponent("supervisor"),
	}
}

// Run connects to the coordinator, resolves the Compose project, opens the
// event subscription, raises the readiness marker and reconciles until the
// subscription fails or ctx is canceled. It never returns nil: on shutdown
// the error is the context's.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.marker.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("could not clear stale readiness marker")
	}

	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := s.connector.Close(closeCtx, conn); err != nil {
			s.logger.Warn().Err(err).Msg("error closing coordinator connection")
		}
	}()

	project, err := s.runtime.ResolveComposeProject(ctx, s.hostname)
	if err != nil {
		return fmt.Errorf("failed to resolve Compose project: %w", err)
	}

	sub := events.Subscribe(ctx, s.runtime, project)
	defer sub.Close()

	if err := s.marker.Raise(); err != nil {
		return err
	}

	return reconciler.NewReconciler(conn).Run(ctx, sub)
}

// ExitCode maps the result of Run to a process exit status: 0 when the run
// ended because of a shutdown request, 1 for anything else
func ExitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}
