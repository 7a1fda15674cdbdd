package simd

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestIndexByte(t *testing.T) {
	cases := []struct {
		data string
		c    byte
		want int
	}{
		{"", 'x', -1},
		{"abc", 'x', -1},
		{"abc\n", '\n', 3},
		{"\nabc", '\n', 0},
		{"12345678\n", '\n', 8},
		{"123456789012345\n", '\n', 15},
	}
	for _, tc := range cases {
		got := IndexByte([]byte(tc.data), 0, tc.c)
		if got != tc.want {
			t.Errorf("IndexByte(%q, %q) = %d, want %d", tc.data, tc.c, got, tc.want)
		}
	}
}

func TestIndexByteStart(t *testing.T) {
	data := []byte("a\nb\nc\n")
	if got := IndexByte(data, 2, '\n'); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestIndexByteAgainstStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(200)
		data := make([]byte, n)
		rng.Read(data)
		if n > 0 && rng.Intn(3) == 0 {
			data[rng.Intn(n)] = '\n'
		}
		want := bytes.IndexByte(data, '\n')
		got := IndexByte(data, 0, '\n')
		if got != want {
			t.Fatalf("trial %d: IndexByte(%v) = %d, want %d", trial, data, got, want)
		}
	}
}

func TestCountByteAgainstStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(500)
		data := make([]byte, n)
		for i := range data {
			if rng.Intn(5) == 0 {
				data[i] = '\n'
			} else {
				data[i] = 'x'
			}
		}
		want := bytes.Count(data, []byte{'\n'})
		got := CountByte(data, '\n')
		if got != want {
			t.Fatalf("trial %d (n=%d): CountByte = %d, want %d", trial, n, got, want)
		}
	}
}
