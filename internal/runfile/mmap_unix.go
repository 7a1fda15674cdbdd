//go:build !windows

package runfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// MmapRead maps f's full contents read-only. Used by the write-back stage
// (spec.md §4.1 step 3) to scan the terminal merged run file without a read
// syscall per block, the same zero-copy technique as the teacher's
// common.NewBlockReaderMmap.
func MmapRead(f *os.File) ([]byte, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return nil, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// MunmapRead releases a mapping returned by MmapRead. Safe to call with nil.
func MunmapRead(data []byte) error {
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}
