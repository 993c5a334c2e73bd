package readiness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Marker is a file whose existence tells external health checks that the
// event subscription is open
type Marker struct {
	path string
}

// NewMarker creates a marker at path
func NewMarker(path string) *Marker {
	return &Marker{path: path}
}

// Path returns the marker file path
func (m *Marker) Path() string {
	return m.path
}

// Clear removes a stale marker left by a previous run. A marker that does
// not exist is not an error.
func (m *Marker) Clear() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove readiness marker %s: %w", m.path, err)
	}
	return nil
}

// Raise creates the marker and any missing parent directories
func (m *Marker) Raise() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create readiness directory: %w", err)
	}

	f, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("failed to create readiness marker %s: %w", m.path, err)
	}
	return f.Close()
}

// Raised reports whether the marker currently exists
func (m *Marker) Raised() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
