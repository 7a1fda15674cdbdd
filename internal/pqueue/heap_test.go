package pqueue

import (
	"math/rand"
	"testing"
)

func TestHeapSortsByKey(t *testing.T) {
	keys := []int32{5, -3, 0, 2147483647, -2147483648, 5, 1}
	h := New(len(keys))
	for i, k := range keys {
		h.Insert(Element{Key: k, Src: uint16(i)})
	}

	if h.Len() != len(keys) {
		t.Fatalf("Len() = %d, want %d", h.Len(), len(keys))
	}

	var out []int32
	for !h.Empty() {
		out = append(out, h.Pop().Key)
	}

	for i := 1; i < len(out); i++ {
		if out[i-1] > out[i] {
			t.Fatalf("not sorted at %d: %v", i, out)
		}
	}
}

func TestHeapRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 2000
	h := New(n)
	want := make([]int32, n)
	for i := 0; i < n; i++ {
		k := rng.Int31()
		want[i] = k
		h.Insert(Element{Key: k, Src: uint16(i)})
	}

	prev := int32(-1 << 31)
	count := 0
	for !h.Empty() {
		el := h.Pop()
		if el.Key < prev {
			t.Fatalf("heap violated order: %d after %d", el.Key, prev)
		}
		prev = el.Key
		count++
	}
	if count != n {
		t.Fatalf("popped %d elements, want %d", count, n)
	}
}

func TestHeapResetReuse(t *testing.T) {
	h := New(4)
	h.Insert(Element{Key: 1})
	h.Insert(Element{Key: 2})
	h.Reset()
	if !h.Empty() {
		t.Fatalf("heap not empty after Reset")
	}
	h.Insert(Element{Key: -1})
	if h.Pop().Key != -1 {
		t.Fatalf("stale element survived Reset")
	}
}
