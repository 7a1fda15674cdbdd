// Package cpuinfo resolves the default worker-thread count when the caller
// doesn't pin one explicitly.
package cpuinfo

import "runtime"

// DefaultThreads returns the number of logical CPUs runtime.NumCPU reports,
// or 1 if that somehow comes back non-positive.
func DefaultThreads() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
