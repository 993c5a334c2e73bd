/*
Package events subscribes to Docker container events for the Citus workers of
one Compose project and decodes them into a small tagged type.

Filters are built from the Compose project of the manager's own container:

	type  = container
	event = health_status: healthy | destroy
	label = com.docker.compose.project=<project>
	label = com.citusdata.role=Worker

Docker treats multiple label filters as a conjunction, so only the workers of
this deployment are seen even when several projects share a daemon.

Decode turns a raw message into an Event whose Kind is KindHealthy,
KindDestroy or KindIgnored. The rest of the program never looks at the raw
action string or attribute map again.

A Subscription cannot be restarted. A stream error or a closed stream is
returned from Next and the subscription is finished; the process is expected
to exit and be restarted by its own supervisor rather than silently lose
events.
*/
package events
