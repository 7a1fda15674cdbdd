//go:build !amd64

package simd

func wordStep() int {
	return 1
}
