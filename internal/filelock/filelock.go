// Package filelock provides a minimal exclusive-lock interface over *os.File,
// used to guard the output file during the orchestrator's in-place
// write-back (spec.md §4.1 step 3) the same way the teacher's writer package
// guards a shared CSV file against concurrent appenders.
package filelock

import "os"

// File is the subset of *os.File the lock functions need.
type File interface {
	Fd() uintptr
}

var _ File = (*os.File)(nil)
