package reconciler

import (
	"context"
	"fmt"

	"github.com/citusdata/membership-manager/pkg/events"
	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/metrics"
	"github.com/citusdata/membership-manager/pkg/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

var (
	addNodeSQL = fmt.Sprintf("SELECT master_add_node($1, %d)", types.WorkerPort)

	// A node that still owns placements cannot be removed, so they go first.
	// Every node in the group loses its placements; Citus keeps one node per group.
	deletePlacementsSQL = fmt.Sprintf(
		"DELETE FROM pg_dist_placement WHERE groupid = (SELECT groupid FROM pg_dist_node WHERE nodename = $1 AND nodeport = %d LIMIT 1)",
		types.WorkerPort,
	)

	removeNodeSQL = fmt.Sprintf("SELECT master_remove_node($1, %d)", types.WorkerPort)
)

const (
	opAddNode    = "add_node"
	opRemoveNode = "remove_node"
)

// DB is the coordinator connection used by the reconciler
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EventStream yields decoded container events in arrival order
type EventStream interface {
	Next(ctx context.Context) (events.Event, error)
}

// Reconciler applies worker lifecycle events to the coordinator's node registry.
// It holds no membership state of its own: pg_dist_node is the source of truth.
type Reconciler struct {
	db     DB
	logger zerolog.Logger
}

// NewReconciler creates a reconciler that owns db for its lifetime
func NewReconciler(db DB) *Reconciler {
	return &Reconciler{
		db:     db,
		logger: log.WithComponent("reconciler"),
	}
}

// Run handles events one at a time until the stream fails or ctx is
// canceled. Failures of individual events are logged and do not stop the loop.
func (r *Reconciler) Run(ctx context.Context, stream EventStream) error {
	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			return err
		}

		// Shutdown is only observed between events; a statement or
		// transaction in flight runs to completion.
		if err := r.Handle(context.WithoutCancel(ctx), ev); err != nil {
			r.logger.Error().
				Err(err).
				Str("action", ev.Action).
				Str("worker", ev.Worker.Name).
				Msg("error processing event")
		}
	}
}

// Handle applies a single event
func (r *Reconciler) Handle(ctx context.Context, ev events.Event) error {
	switch ev.Kind {
	case events.KindHealthy:
		return r.AddNode(ctx, ev.Worker)
	case events.KindDestroy:
		return r.RemoveNode(ctx, ev.Worker)
	default:
		return nil
	}
}

// AddNode registers a worker with the coordinator
func (r *Reconciler) AddNode(ctx context.Context, node types.WorkerNode) error {
	nodeLogger := log.WithWorker(r.logger, node.Name)
	nodeLogger.Info().Msg("adding node")

	return r.observe(opAddNode, func() error {
		if _, err := r.db.Exec(ctx, addNodeSQL, node.Name); err != nil {
			return fmt.Errorf("failed to add node %s: %w", node.Name, err)
		}
		return nil
	})
}

// RemoveNode deletes the worker's placements and deregisters it in one
// transaction. Removing a node that is not registered deletes nothing.
func (r *Reconciler) RemoveNode(ctx context.Context, node types.WorkerNode) error {
	nodeLogger := log.WithWorker(r.logger, node.Name)
	nodeLogger.Info().Msg("removing node")

	return r.observe(opRemoveNode, func() error {
		err := r.inTx(ctx, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, deletePlacementsSQL, node.Name)
			if err != nil {
				return fmt.Errorf("delete placements: %w", err)
			}
			nodeLogger.Debug().
				Int64("placements", tag.RowsAffected()).
				Msg("deleted placements")

			if _, err := tx.Exec(ctx, removeNodeSQL, node.Name); err != nil {
				return fmt.Errorf("remove node: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to remove node %s: %w", node.Name, err)
		}
		return nil
	})
}

// inTx runs fn in a transaction, committing on success and rolling back
// otherwise
func (r *Reconciler) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *Reconciler) observe(op string, fn func() error) error {
	timer := metrics.NewTimer()
	err := fn()
	timer.ObserveDurationVec(metrics.OperationDuration, op)

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.OperationsTotal.WithLabelValues(op, result).Inc()
	return err
}
