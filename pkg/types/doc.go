// Package types holds the value types shared across the membership manager:
// the coordinator connection target, worker nodes and the Docker label
// constants that scope which containers are managed.
package types
