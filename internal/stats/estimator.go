package stats

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// Estimator tracks an approximate distinct-value count over the keys
// flowing through a K-way merge's pump loop (see internal/kmerge), without
// changing merge order, output bytes, or control flow: it only observes
// keys that are already being moved.
type Estimator struct {
	bloom    *Bloom
	seen     int
	distinct int
}

// NewEstimator creates an estimator sized for expectedKeys elements.
func NewEstimator(expectedKeys int) *Estimator {
	return &Estimator{bloom: NewBloom(expectedKeys, 0.01)}
}

// Observe records one key as having passed through the merge.
func (e *Estimator) Observe(key int32) {
	e.seen++
	if !e.bloom.Add(key) {
		e.distinct++
	}
}

// Seen returns the total number of keys observed.
func (e *Estimator) Seen() int {
	return e.seen
}

// Distinct returns the approximate number of distinct keys observed.
func (e *Estimator) Distinct() int {
	return e.distinct
}

// Save writes the estimator's underlying filter to path, LZ4-compressed, the
// same block-compressed-sidecar approach as the teacher's cidx.go
// BlockWriter wrapping compressed index blocks.
func (e *Estimator) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("stats: create sidecar %s: %w", path, err)
	}
	defer f.Close()

	zw := lz4.NewWriter(f)
	if _, err := zw.Write(e.bloom.Serialize()); err != nil {
		return fmt.Errorf("stats: write sidecar %s: %w", path, err)
	}
	return zw.Close()
}

// LoadEstimator reads back an estimator's filter from an LZ4-compressed
// sidecar written by Save. The returned estimator's Seen reports the
// filter's stored Add count; its Distinct reports 0, since the distinct
// tally is not part of the serialized filter.
func LoadEstimator(path string) (*Estimator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stats: open sidecar %s: %w", path, err)
	}
	defer f.Close()

	zr := lz4.NewReader(f)
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("stats: read sidecar %s: %w", path, err)
	}

	bloom, err := DeserializeBloom(data)
	if err != nil {
		return nil, err
	}
	return &Estimator{bloom: bloom, seen: bloom.Count()}, nil
}
