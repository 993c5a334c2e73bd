/*
Package runtime wraps the Docker Engine API client.

It answers two questions: which Compose project the manager's own container
belongs to (from the com.docker.compose.project label, looked up by
HOSTNAME), and what container events are happening. A missing container or a
missing label is reported as ErrMissingMetadata, which is fatal at startup.

The client is configured from the standard DOCKER_HOST, DOCKER_API_VERSION,
DOCKER_CERT_PATH and DOCKER_TLS_VERIFY variables and negotiates the API
version with the daemon.
*/
package runtime
