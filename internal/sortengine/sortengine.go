// Package sortengine drives the external-sort pipeline end to end: ingest
// into sorted run files, K-way merge the runs down to one file, then
// rewrite the original input in place from that terminal file.
//
// The overall shape — a driver struct owning one long-lived buffer that
// hands off to per-stage helpers and tracks running counters — mirrors the
// teacher's Sorter (internal/indexer/sorter.go): NewSorter allocates once,
// Add/flushChunk spill sorted chunks, Finalize drives the merge. Here ingest
// is pulled from a plain text stream instead of a channel of parsed CSV
// records, and the merge is delegated to internal/kmerge instead of being
// inlined.
package sortengine

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/joe-skb7/filesort/internal/filelock"
	"github.com/joe-skb7/filesort/internal/kmerge"
	"github.com/joe-skb7/filesort/internal/parsort"
	"github.com/joe-skb7/filesort/internal/profile"
	"github.com/joe-skb7/filesort/internal/runfile"
	"github.com/joe-skb7/filesort/internal/stats"
	"github.com/joe-skb7/filesort/internal/tempdir"
	"github.com/joe-skb7/filesort/internal/textio"
)

// Option configures a Sort call.
type Option func(*config)

type config struct {
	observer     profile.Observer
	progress     ProgressFunc
	collectStats bool
	statsPath    string
}

// ProgressFunc is invoked periodically during ingest and write-back (the
// merge stage reports no progress) with a human-readable stage name and a running count of values processed. It is
// purely observational (spec.md §1 Non-goals: "no incremental progress
// reporting contract") — nothing downstream parses it.
type ProgressFunc func(stage string, count int64)

// WithObserver attaches a profile.Observer around each stage.
func WithObserver(o profile.Observer) Option {
	return func(c *config) { c.observer = o }
}

// WithProgress attaches a ProgressFunc, called as values are processed.
func WithProgress(f ProgressFunc) Option {
	return func(c *config) { c.progress = f }
}

// WithStats enables the approximate distinct-value estimator (internal/stats)
// over keys observed during the K-way merge, writing an LZ4-compressed
// sidecar to statsPath on success.
func WithStats(statsPath string) Option {
	return func(c *config) {
		c.collectStats = true
		c.statsPath = statsPath
	}
}

// Sort sorts the integers in the text file at path in place: one signed
// 32-bit decimal integer per line, non-decreasing order on output.
// bufferBytes is the shared chunk-buffer size (must be > 0 and a multiple
// of 4); threads is the per-chunk parallel sort's worker count (must be
// ≥ 1).
//
// An empty input file is a no-op success (spec.md §9's open question on
// empty-input handling: resolved here, in the core, rather than in CLI
// argument parsing, so this entry point is reusable as a library).
func Sort(path string, bufferBytes, threads int, opts ...Option) error {
	if bufferBytes <= 0 || bufferBytes%4 != 0 {
		return fmt.Errorf("sortengine: buffer_bytes must be a positive multiple of 4, got %d", bufferBytes)
	}
	if threads < 1 {
		return fmt.Errorf("sortengine: thread_count must be >= 1, got %d", threads)
	}

	cfg := &config{observer: profile.Noop{}}
	for _, opt := range opts {
		opt(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("sortengine: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("sortengine: %s is not a regular file", path)
	}
	if info.Size() == 0 {
		return nil
	}

	td, err := tempdir.New("filesort-")
	if err != nil {
		return fmt.Errorf("sortengine: %w", err)
	}
	defer td.Close()

	buf := make([]int32, bufferBytes/4)

	f0, err := ingest(path, td.Path(), buf, threads, cfg)
	if err != nil {
		return err
	}
	if f0 == 0 {
		return nil
	}

	var estimator *stats.Estimator
	var observer kmerge.KeyObserver
	if cfg.collectStats {
		estimator = stats.NewEstimator(len(buf) * f0)
		observer = estimator
	}

	cfg.observer.EnterStage("merge")
	outPath, err := kmerge.MergeObserving(td.Path(), f0, buf, observer)
	cfg.observer.ExitStage("merge", err)
	if err != nil {
		return fmt.Errorf("sortengine: merge: %w", err)
	}

	if estimator != nil {
		if err := estimator.Save(cfg.statsPath); err != nil {
			return fmt.Errorf("sortengine: %w", err)
		}
	}

	cfg.observer.EnterStage("writeback")
	err = writeBack(path, outPath, buf, cfg)
	cfg.observer.ExitStage("writeback", err)
	if err != nil {
		return fmt.Errorf("sortengine: writeback: %w", err)
	}

	return nil
}

// ingest streams path's lines into buf, sorting and flushing a stage-0 run
// file each time buf fills (spec.md §4.1 step 1); the final partial buffer,
// if any, is flushed the same way. Returns the number of stage-0 files
// produced.
func ingest(path, tmpDir string, buf []int32, threads int, cfg *config) (int, error) {
	cfg.observer.EnterStage("ingest")
	f0, err := ingestInner(path, tmpDir, buf, threads, cfg)
	cfg.observer.ExitStage("ingest", err)
	return f0, err
}

func ingestInner(path, tmpDir string, buf []int32, threads int, cfg *config) (int, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("sortengine: open %s: %w", path, err)
	}
	defer in.Close()

	lr := textio.NewLineReader(in)
	var scratch []byte

	n := 0       // values currently buffered
	chunkIdx := 0 // next stage-0 file index
	var total int64

	flush := func() error {
		if n == 0 {
			return nil
		}
		parsort.SortChunk(buf, n, threads)

		out, err := runfile.Create(runfile.Name(tmpDir, 0, chunkIdx))
		if err != nil {
			return err
		}
		defer out.Close()

		if err := runfile.WriteBlock(out, buf, n, &scratch); err != nil {
			return err
		}
		chunkIdx++
		n = 0
		return nil
	}

	for {
		v, err := lr.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		buf[n] = v
		n++
		total++
		if cfg.progress != nil && total%100000 == 0 {
			cfg.progress("ingest", total)
		}
		if n == len(buf) {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	return chunkIdx, nil
}

// writeBack maps the whole terminal merged file (produced by kmerge.Merge)
// read-only (spec.md §4.1 step 3) and rewrites path as decimal text, one
// integer per line, truncating the file on open exactly as spec.md §6
// requires. buf is not used: the read is not split into buf-sized blocks,
// and on Windows the whole file is read into memory.
func writeBack(path, mergedPath string, buf []int32, cfg *config) error {
	src, err := runfile.Open(mergedPath)
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := runfile.MmapRead(src)
	if err != nil {
		return fmt.Errorf("mmap %s: %w", mergedPath, err)
	}
	defer runfile.MunmapRead(data)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open %s for write-back: %w", path, err)
	}
	defer out.Close()

	if err := filelock.Lock(out); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer filelock.Unlock(out)

	lw := textio.NewLineWriter(out)
	total := len(data) / 4
	var written int64
	for i := 0; i < total; i++ {
		v := int32(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
		if err := lw.WriteLine(v); err != nil {
			return err
		}
		written++
		if cfg.progress != nil && written%100000 == 0 {
			cfg.progress("writeback", written)
		}
	}
	return lw.Flush()
}
