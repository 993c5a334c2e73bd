/*
Package database manages the single connection to the Citus coordinator.

Manager.Connect dials with pgx and retries until it succeeds, waiting a fixed
interval between attempts (one second by default). There is no retry limit.
The connection state moves through Disconnected, Connecting and Connected and
is exported as the membership_manager_db_state gauge.

The retry policy is a backoff.BackOff and the wait uses the clock carried in
the context (github.com/tilinna/clock), so tests drive retries with a mock
clock instead of sleeping.

Once connected, a background goroutine waits for the connection to close and
logs it. A lost connection is not re-established: statements issued on it fail
and are reported by the caller.
*/
package database
