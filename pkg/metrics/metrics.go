package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection metrics
	ConnectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_manager_connect_attempts_total",
			Help: "Coordinator connection attempts by result",
		},
		[]string{"result"},
	)

	DatabaseState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "membership_manager_db_state",
			Help: "Coordinator connection state (0 = disconnected, 1 = connecting, 2 = connected)",
		},
	)

	// Event metrics
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_manager_events_total",
			Help: "Container lifecycle events received by decoded action",
		},
		[]string{"action"},
	)

	SubscriptionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "membership_manager_subscription_active",
			Help: "Whether the container event subscription is open (1 = open, 0 = closed)",
		},
	)

	// Reconciler metrics
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_manager_operations_total",
			Help: "Node registry operations by operation and result",
		},
		[]string{"op", "result"},
	)

	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "membership_manager_operation_duration_seconds",
			Help:    "Node registry operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(ConnectAttemptsTotal)
	prometheus.MustRegister(DatabaseState)
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(SubscriptionActive)
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(OperationDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in a histogram
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time in a labelled histogram
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
