// Package textio streams the plain-text input file (one signed int32 per
// line) into chunk buffers for ingest, and streams the sorted result back
// out to a plain-text output file on write-back.
//
// The line-splitting loop is grounded in the teacher's CSV Scanner
// (internal/indexer/scanner.go): read a block into a reusable buffer, scan
// it for delimiters, carry any partial trailing record into the next read.
// Here the delimiter is '\n' and the record is a single integer instead of
// a CSV row.
package textio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/joe-skb7/filesort/internal/simd"
)

const readBlockSize = 1 << 20

// LineReader streams signed int32 values out of r, one per line, using a
// SWAR-accelerated newline scan (internal/simd) instead of bufio.Scanner's
// byte-at-a-time split function.
type LineReader struct {
	r       io.Reader
	buf     []byte
	start   int // first unconsumed byte
	end     int // one past the last valid byte
	err     error
	lineNum int
}

// NewLineReader wraps r for line-at-a-time int32 ingest.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, buf: make([]byte, readBlockSize)}
}

// Next returns the next integer on the stream, or io.EOF once the input is
// exhausted (including a final line with no trailing newline). A blank or
// leading-whitespace line is a parse error, not a skipped record: the only
// legitimate empty span is the one after the very last newline in the file,
// handled separately below as plain end-of-stream.
func (lr *LineReader) Next() (int32, error) {
	for {
		if nl := simd.IndexNewline(lr.buf[lr.start:lr.end], 0); nl >= 0 {
			line := lr.buf[lr.start : lr.start+nl]
			lr.start += nl + 1
			lr.lineNum++
			return parseLine(line, lr.lineNum)
		}

		if lr.err != nil {
			if lr.start < lr.end {
				// A final line with no trailing newline: lr.start < lr.end
				// guarantees this span is non-empty, so it's always a real
				// value, never the blank-line case.
				line := lr.buf[lr.start:lr.end]
				lr.start = lr.end
				lr.lineNum++
				return parseLine(line, lr.lineNum)
			}
			return 0, lr.err
		}

		if err := lr.fill(); err != nil {
			lr.err = err
		}
	}
}

// fill compacts any unconsumed tail to the front of buf, growing it if a
// single line is longer than the current buffer, then reads more data in.
func (lr *LineReader) fill() error {
	if lr.start > 0 {
		copy(lr.buf, lr.buf[lr.start:lr.end])
		lr.end -= lr.start
		lr.start = 0
	}
	if lr.end == len(lr.buf) {
		grown := make([]byte, len(lr.buf)*2)
		copy(grown, lr.buf[:lr.end])
		lr.buf = grown
	}
	n, err := lr.r.Read(lr.buf[lr.end:])
	lr.end += n
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

func parseLine(line []byte, lineNum int) (int32, error) {
	v, err := strconv.ParseInt(string(line), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("textio: line %d: invalid integer %q: %w", lineNum, line, err)
	}
	return int32(v), nil
}

// LineWriter writes int32 values back out one per line through a buffered
// writer, matching the plain fmt.Fprintln-per-row shape of the teacher's
// output paths but batched through bufio for throughput.
type LineWriter struct {
	w   *bufio.Writer
	buf []byte
}

// NewLineWriter wraps w for line-at-a-time output.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriterSize(w, readBlockSize), buf: make([]byte, 0, 16)}
}

// WriteLine writes v followed by '\n'.
func (lw *LineWriter) WriteLine(v int32) error {
	lw.buf = strconv.AppendInt(lw.buf[:0], int64(v), 10)
	lw.buf = append(lw.buf, '\n')
	_, err := lw.w.Write(lw.buf)
	return err
}

// Flush flushes any buffered output to the underlying writer.
func (lw *LineWriter) Flush() error {
	return lw.w.Flush()
}
