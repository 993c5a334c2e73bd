package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/metrics"
	"github.com/citusdata/membership-manager/pkg/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/tilinna/clock"
)

// State is the coordinator connection state
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Conn is the part of *pgx.Conn the reconciler needs
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// DialFunc opens one connection to the coordinator
type DialFunc func(ctx context.Context) (Conn, error)

// BackoffFactory creates a fresh retry policy for each Connect call
type BackoffFactory func() backoff.BackOff

// ConstantBackoff waits the same interval between every attempt, forever
func ConstantBackoff(interval time.Duration) BackoffFactory {
	return func() backoff.BackOff {
		return backoff.NewConstantBackOff(interval)
	}
}

// NextDelay returns how long to wait before the next attempt. A policy that
// gives up is restarted, so the delay is never backoff.Stop.
func NextDelay(b backoff.BackOff) time.Duration {
	next := b.NextBackOff()
	if next == backoff.Stop {
		b.Reset()
		next = b.NextBackOff()
	}
	if next < 0 {
		next = 0
	}
	return next
}

// Manager owns the single connection to the coordinator and retries
// connecting until it succeeds or its context is canceled
type Manager struct {
	dial       DialFunc
	newBackoff BackoffFactory
	logger     zerolog.Logger
	state      atomic.Int32
	closing    atomic.Bool
}

// NewManager creates a Manager connecting to target with pgx
func NewManager(target types.DatabaseTarget, retryInterval time.Duration) *Manager {
	return NewManagerWithDialer(target.String(), PgxDialer(target), ConstantBackoff(retryInterval))
}

// NewManagerWithDialer creates a Manager with a custom dialer and retry policy
func NewManagerWithDialer(name string, dial DialFunc, newBackoff BackoffFactory) *Manager {
	m := &Manager{
		dial:       dial,
		newBackoff: newBackoff,
		logger:     log.WithComponent("database").With().Str("target", name).Logger(),
	}
	m.setState(Disconnected)
	return m
}

// State returns the current connection state
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	metrics.DatabaseState.Set(float64(s))
}

// Connect blocks until a connection is established. Failed attempts are
// logged and retried after the backoff delay; the only error returned is the
// context's.
func (m *Manager) Connect(ctx context.Context) (Conn, error) {
	b := m.newBackoff()
	b.Reset()

	for attempt := 1; ; attempt++ {
		m.setState(Connecting)
		m.logger.Debug().Int("attempt", attempt).Msg("connecting to coordinator")

		conn, err := m.dial(ctx)
		if err == nil {
			m.setState(Connected)
			metrics.ConnectAttemptsTotal.WithLabelValues("success").Inc()
			metrics.UpdateComponent(metrics.ComponentDatabase, true, "connected")
			m.logger.Info().Int("attempt", attempt).Msg("connected to coordinator")
			m.watch(conn)
			return conn, nil
		}

		m.setState(Disconnected)
		metrics.ConnectAttemptsTotal.WithLabelValues("failure").Inc()
		metrics.UpdateComponent(metrics.ComponentDatabase, false, err.Error())

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		next := NextDelay(b)
		m.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("could not connect to coordinator, retrying")

		timer := clock.NewTimer(ctx, next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Close closes conn; the watcher then reports the close as expected
func (m *Manager) Close(ctx context.Context, conn Conn) error {
	m.closing.Store(true)
	if err := conn.Close(ctx); err != nil {
		return fmt.Errorf("failed to close coordinator connection: %w", err)
	}
	return nil
}

// watch waits in the background for the underlying connection to go away.
// Losing it is only logged: later statements fail and are reported per event.
func (m *Manager) watch(conn Conn) {
	pc, ok := conn.(interface{ PgConn() *pgconn.PgConn })
	if !ok {
		return
	}
	pgConn := pc.PgConn()
	if pgConn == nil {
		return
	}

	go func() {
		<-pgConn.CleanupDone()
		m.setState(Disconnected)
		if m.closing.Load() {
			m.logger.Info().Msg("coordinator connection closed")
			return
		}
		metrics.UpdateComponent(metrics.ComponentDatabase, false, "connection lost")
		m.logger.Error().Msg("coordinator connection lost")
	}()
}

// PgxDialer returns a DialFunc that opens a pgx connection to target
func PgxDialer(target types.DatabaseTarget) DialFunc {
	logger := log.WithComponent("database")
	return func(ctx context.Context) (Conn, error) {
		cfg, err := pgx.ParseConfig(target.ConnString())
		if err != nil {
			return nil, fmt.Errorf("invalid connection settings: %w", err)
		}
		// Citus reports node registration details as notices
		cfg.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
			logger.Debug().Str("severity", n.Severity).Msg(n.Message)
		}

		conn, err := pgx.ConnectConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", target.Host, err)
		}
		return conn, nil
	}
}
