/*
Package metrics provides Prometheus metrics and a component health registry.

Metrics:

	membership_manager_connect_attempts_total{result}
	membership_manager_db_state
	membership_manager_events_total{action}
	membership_manager_subscription_active
	membership_manager_operations_total{op,result}
	membership_manager_operation_duration_seconds{op}

Components (database, runtime, events) report their state with
UpdateComponent. GetReadiness is "ready" once all three are healthy.

When METRICS_ADDR is set, Server exposes /metrics, /health, /ready and /live.
The readiness file in package readiness stays the primary signal for Compose
health checks.
*/
package metrics
