//go:build amd64

package simd

import "golang.org/x/sys/cpu"

// unrollStep is how many 8-byte words IndexByte and CountByte process per
// loop iteration. This is tuning, not vectorization: wider CPUs pipeline
// more independent word loads per iteration before the loop-carried
// dependency on i stalls them, so a bigger step amortizes loop overhead
// better on cores that can actually keep that many loads in flight.
var unrollStep = 1

func init() {
	switch {
	case cpu.X86.HasAVX2:
		unrollStep = 4
	case cpu.X86.HasSSE42:
		unrollStep = 2
	}
}

func wordStep() int {
	return unrollStep
}
