// Package tempdir creates and tears down the scratch directory the
// orchestrator spills stage-0 and intermediate run files into.
package tempdir

import (
	"fmt"
	"os"
)

// Dir is a created scratch directory, removable exactly once.
type Dir struct {
	path    string
	removed bool
}

// New creates a fresh, uniquely-named scratch directory under the OS temp
// directory (os.TempDir, normally /tmp), falling back to the current
// directory if that location isn't writable — e.g. a restricted container
// with /tmp read-only.
func New(prefix string) (*Dir, error) {
	path, err := os.MkdirTemp("", prefix)
	if err != nil {
		path, err = os.MkdirTemp(".", prefix)
		if err != nil {
			return nil, fmt.Errorf("tempdir: create scratch directory: %w", err)
		}
	}
	return &Dir{path: path}, nil
}

// Path returns the directory's filesystem path.
func (d *Dir) Path() string {
	return d.path
}

// Close recursively removes the directory and everything under it. Safe to
// call more than once.
func (d *Dir) Close() error {
	if d.removed {
		return nil
	}
	d.removed = true
	return os.RemoveAll(d.path)
}
