package types

import (
	"fmt"
	"strings"
)

const (
	// WorkerPort is the port every worker node is registered with on the coordinator
	WorkerPort = 5432

	// ComposeProjectLabel is set by Docker Compose on every container of a project
	ComposeProjectLabel = "com.docker.compose.project"

	// RoleLabel marks the role a container plays in the Citus cluster
	RoleLabel = "com.citusdata.role"

	// WorkerRole is the RoleLabel value carried by worker containers
	WorkerRole = "Worker"
)

// DatabaseTarget describes how to reach the coordinator database
type DatabaseTarget struct {
	Host     string
	User     string
	Password string // optional
	Database string
}

// ConnString renders the target as a libpq keyword/value connection string.
// The password is omitted when empty.
func (t DatabaseTarget) ConnString() string {
	parts := []string{
		"host=" + quoteValue(t.Host),
		"user=" + quoteValue(t.User),
	}
	if t.Password != "" {
		parts = append(parts, "password="+quoteValue(t.Password))
	}
	parts = append(parts, "dbname="+quoteValue(t.Database))
	return strings.Join(parts, " ")
}

// String is safe to log: it never includes the password
func (t DatabaseTarget) String() string {
	return fmt.Sprintf("%s@%s/%s", t.User, t.Host, t.Database)
}

func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// WorkerNode is a Citus worker, identified by the hostname of its container
type WorkerNode struct {
	Name string
}

// Port returns the port the node is registered under
func (w WorkerNode) Port() int {
	return WorkerPort
}

// ComposeProject identifies the orchestration group this process belongs to
type ComposeProject string

// Label renders the project as a Docker label filter value
func (p ComposeProject) Label() string {
	return ComposeProjectLabel + "=" + string(p)
}
