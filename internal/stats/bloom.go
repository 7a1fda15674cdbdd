// Package stats provides an optional approximate distinct-value estimator
// fed from keys flowing through the K-way merge's pump loop.
//
// The filter itself is grounded directly in the teacher's
// common.BloomFilter: same sizing formula, same double-hashing scheme, same
// serialization layout. Adapted here from string keys (CRC32 of the key's
// bytes) to int32 keys (CRC32 of its 4-byte little-endian encoding) since
// there is no analog of a text field to hash in a flat list of integers.
package stats

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
)

// Bloom is a space-efficient probabilistic set over int32 keys.
type Bloom struct {
	bits      []byte
	size      int
	hashCount int
	count     int
}

// NewBloom creates a filter sized for n expected elements at the given false
// positive rate, using the same m/k sizing formula as the teacher's
// NewBloomFilter.
func NewBloom(n int, fpRate float64) *Bloom {
	if n < 1 {
		n = 1
	}
	if fpRate <= 0 {
		fpRate = 0.01
	}

	m := int(-float64(n) * math.Log(fpRate) / 0.4804)
	if m < 1024 {
		m = 1024
	}
	m = ((m + 7) / 8) * 8

	k := int(float64(m) / float64(n) * 0.693)
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10
	}

	return &Bloom{
		bits:      make([]byte, m/8),
		size:      m,
		hashCount: k,
	}
}

// Add records key as seen, returning whether it might already have been
// present (so the caller can maintain a running distinct count without a
// second pass).
func (b *Bloom) Add(key int32) (alreadySeen bool) {
	h1, h2 := b.hashes(key)
	alreadySeen = true
	for i := 0; i < b.hashCount; i++ {
		pos := positionFor(h1, h2, i, b.size)
		byteIdx := pos / 8
		bitIdx := uint(pos % 8)
		if b.bits[byteIdx]&(1<<bitIdx) == 0 {
			alreadySeen = false
			b.bits[byteIdx] |= 1 << bitIdx
		}
	}
	b.count++
	return alreadySeen
}

// MightContain reports whether key may have been added before.
func (b *Bloom) MightContain(key int32) bool {
	h1, h2 := b.hashes(key)
	for i := 0; i < b.hashCount; i++ {
		pos := positionFor(h1, h2, i, b.size)
		byteIdx := pos / 8
		bitIdx := uint(pos % 8)
		if b.bits[byteIdx]&(1<<bitIdx) == 0 {
			return false
		}
	}
	return true
}

func (b *Bloom) hashes(key int32) (uint32, uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(key))
	h1 := crc32.ChecksumIEEE(buf[:])

	var reversed [4]byte
	reversed[0], reversed[1], reversed[2], reversed[3] = buf[3], buf[2], buf[1], buf[0]
	h2 := crc32.ChecksumIEEE(append(reversed[:], "salt"...))
	return h1, h2
}

func positionFor(h1, h2 uint32, i, size int) int {
	combined := int(h1) + i*int(h2)
	if combined < 0 {
		combined = -combined
	}
	return combined % size
}

// Serialize mirrors the teacher's 24-byte-header-plus-bitset layout.
func (b *Bloom) Serialize() []byte {
	header := make([]byte, 24)
	binary.BigEndian.PutUint64(header[0:8], uint64(b.size))
	binary.BigEndian.PutUint64(header[8:16], uint64(b.hashCount))
	binary.BigEndian.PutUint64(header[16:24], uint64(b.count))
	return append(header, b.bits...)
}

// DeserializeBloom reconstructs a filter from bytes produced by Serialize.
func DeserializeBloom(data []byte) (*Bloom, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("stats: truncated bloom filter (%d bytes)", len(data))
	}
	return &Bloom{
		size:      int(binary.BigEndian.Uint64(data[0:8])),
		hashCount: int(binary.BigEndian.Uint64(data[8:16])),
		count:     int(binary.BigEndian.Uint64(data[16:24])),
		bits:      data[24:],
	}, nil
}

// Count returns the number of Add calls made so far (not the distinct
// estimate — see Estimator.Distinct for that).
func (b *Bloom) Count() int {
	return b.count
}
