/*
Package reconciler applies Citus worker lifecycle events to the coordinator's
node registry.

The reconciler consumes decoded container events one at a time, in the order
the Docker daemon delivered them, over a single coordinator connection that it
owns for the lifetime of the process. It keeps no record of which workers are
registered: pg_dist_node on the coordinator is the only source of truth, and
every operation is safe to issue again.

# Operations

	health_status: healthy  →  SELECT master_add_node($1, 5432)

	destroy                 →  BEGIN
	                           DELETE FROM pg_dist_placement WHERE groupid = (...)
	                           SELECT master_remove_node($1, 5432)
	                           COMMIT

Citus refuses to remove a node that still owns shard placements, so the
placements of the node's group are deleted first, in the same transaction. If
either statement fails the transaction is rolled back and the node stays
registered with its placements intact.

Any other action, or an event without a container name, is ignored.

# Failure Handling

A failed add or remove is logged with the action and worker name and counted
in membership_manager_operations_total; the loop then moves on to the next
event. A duplicate registration or a node that is already gone must not stop
membership tracking for every other worker.

Errors from the event stream end Run and are returned to the caller.

# Shutdown

Run checks for cancellation only while waiting for the next event. A statement
or transaction that has started is allowed to finish.

# Usage

	rec := reconciler.NewReconciler(conn)
	if err := rec.Run(ctx, subscription); err != nil {
		// stream failed or ctx was canceled
	}
*/
package reconciler
