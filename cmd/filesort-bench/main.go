// Command filesort-bench generates a large file of random int32 lines and
// times a full sort against it, reporting throughput. Retargeted from the
// teacher's cmd/benchmark (CSV row generation + indexer.NewIndexer) to
// one-int-per-line generation and internal/sortengine.Sort.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joe-skb7/filesort/internal/sortengine"
)

func main() {
	sizeMB := 500
	if len(os.Args) > 1 {
		if _, err := fmt.Sscanf(os.Args[1], "%d", &sizeMB); err != nil {
			fmt.Println("Usage: filesort-bench <size_mb>")
			os.Exit(1)
		}
	}

	fmt.Printf("Generating ~%d MB of random int32 lines...\n", sizeMB)
	tmpDir, err := os.MkdirTemp("", "filesort_bench")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "bench.txt")
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}

	w := bufio.NewWriterSize(f, 64*1024)
	limit := int64(sizeMB) * 1024 * 1024
	var bytesWritten int64
	var rows int
	buf := make([]byte, 0, 16)
	rng := rand.New(rand.NewSource(123))

	for bytesWritten < limit {
		rows++
		buf = fmt.Appendf(buf[:0], "%d\n", rng.Int31()-(1<<30))
		n, _ := w.Write(buf)
		bytesWritten += int64(n)
	}
	if err := w.Flush(); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}

	fmt.Printf("Generated %d rows (%.2f MB)\n", rows, float64(bytesWritten)/1024/1024)
	fmt.Println("Sorting...")

	start := time.Now()
	if err := sortengine.Sort(path, 256*1024*1024, runtime.NumCPU()); err != nil {
		panic(err)
	}
	elapsed := time.Since(start)

	mbPerSec := float64(bytesWritten) / 1024 / 1024 / elapsed.Seconds()
	fmt.Printf("\n--------------------------------------------------\n")
	fmt.Printf("Throughput: %.2f MB/s\n", mbPerSec)
	fmt.Printf("Time:       %v\n", elapsed)
	fmt.Printf("--------------------------------------------------\n")
}
