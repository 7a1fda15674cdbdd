package sortengine

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir string, values []int32) string {
	t.Helper()
	path := filepath.Join(dir, "input.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := bufio.NewWriter(f)
	for _, v := range values {
		fmt.Fprintf(w, "%d\n", v)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func readLines(t *testing.T, path string) []int32 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	out := make([]int32, len(lines))
	for i, l := range lines {
		v, err := strconv.ParseInt(l, 10, 32)
		if err != nil {
			t.Fatalf("bad output line %q: %v", l, err)
		}
		out[i] = int32(v)
	}
	return out
}

func assertSortedSameMultiset(t *testing.T, got, want []int32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("not sorted at %d: %d > %d", i, got[i-1], got[i])
		}
	}
	sortedWant := append([]int32(nil), want...)
	sort.Slice(sortedWant, func(a, b int) bool { return sortedWant[a] < sortedWant[b] })
	for i := range got {
		if got[i] != sortedWant[i] {
			t.Fatalf("multiset mismatch at %d: got %d want %d", i, got[i], sortedWant[i])
		}
	}
}

func TestSortSmallFile(t *testing.T) {
	dir := t.TempDir()
	values := []int32{3, 1, 2}
	path := writeFixture(t, dir, values)

	if err := Sort(path, 128*1024*1024, 4); err != nil {
		t.Fatal(err)
	}
	assertSortedSameMultiset(t, readLines(t, path), values)
}

func TestSortEmptyFileIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Sort(path, 1024, 2); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty file to stay empty, got %d bytes", len(data))
	}
}

func TestSortSingleInteger(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, []int32{42})

	if err := Sort(path, 1024, 1); err != nil {
		t.Fatal(err)
	}
	got := readLines(t, path)
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("got %v, want [42]", got)
	}
}

func TestSortDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	values := []int32{5, 5, 5, 5}
	path := writeFixture(t, dir, values)

	if err := Sort(path, 1024, 3); err != nil {
		t.Fatal(err)
	}
	assertSortedSameMultiset(t, readLines(t, path), values)
}

func TestSortExtremeValues(t *testing.T) {
	dir := t.TempDir()
	values := []int32{-2147483648, 0, 2147483647, -1, 1}
	path := writeFixture(t, dir, values)

	if err := Sort(path, 128, 2); err != nil {
		t.Fatal(err)
	}
	assertSortedSameMultiset(t, readLines(t, path), values)
}

// TestSortForcesMultipleRunsAndMergeStages uses a buffer far smaller than
// the input so ingest must emit many stage-0 files and the K-way merger
// must run multiple merge stages (K=16), matching spec.md §8's scenario 6
// shape at unit-test scale.
func TestSortForcesMultipleRunsAndMergeStages(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1234))

	const n = 20000
	values := make([]int32, n)
	for i := range values {
		values[i] = rng.Int31() - (1 << 30)
	}
	path := writeFixture(t, dir, values)

	// 64 int32s per chunk forces hundreds of stage-0 runs.
	if err := Sort(path, 256, 4); err != nil {
		t.Fatal(err)
	}
	assertSortedSameMultiset(t, readLines(t, path), values)
}

func TestSortIdempotentOnAlreadySorted(t *testing.T) {
	dir := t.TempDir()
	values := []int32{1, 2, 3, 4, 5, 6, 7, 8}
	path := writeFixture(t, dir, values)

	if err := Sort(path, 1024, 2); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := Sort(path, 1024, 2); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Fatalf("sorting an already-sorted file changed its bytes:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestSortThreadsExceedLength(t *testing.T) {
	dir := t.TempDir()
	values := []int32{9, 8, 7}
	path := writeFixture(t, dir, values)

	if err := Sort(path, 1024, 64); err != nil {
		t.Fatal(err)
	}
	assertSortedSameMultiset(t, readLines(t, path), values)
}

func TestSortRejectsBadBufferSize(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, []int32{1})

	if err := Sort(path, 7, 1); err == nil {
		t.Fatal("expected error for buffer size not divisible by 4")
	}
	if err := Sort(path, 0, 1); err == nil {
		t.Fatal("expected error for non-positive buffer size")
	}
}

func TestSortPropagatesParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte("1\nnotanumber\n3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Sort(path, 1024, 2); err == nil {
		t.Fatal("expected parse error to abort the sort")
	}
}

func TestSortRejectsBlankLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(path, []byte("1\n\n2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Sort(path, 1024, 2); err == nil {
		t.Fatal("expected an embedded blank line to abort the sort")
	}
}

func TestSortRejectsFileOfOnlyANewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "onlynewline.txt")
	if err := os.WriteFile(path, []byte("\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Sort(path, 1024, 2); err == nil {
		t.Fatal("expected a file containing only a newline to be a parse error, not a no-op")
	}
}

func TestSortRejectsBadThreadCount(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, []int32{1})

	if err := Sort(path, 1024, 0); err == nil {
		t.Fatal("expected error for zero thread count")
	}
}

func TestSortWithStats(t *testing.T) {
	dir := t.TempDir()
	values := []int32{1, 2, 2, 3, 3, 3, 4}
	path := writeFixture(t, dir, values)
	statsPath := filepath.Join(dir, "input.txt.distinct.bloom.lz4")

	if err := Sort(path, 1024, 2, WithStats(statsPath)); err != nil {
		t.Fatal(err)
	}
	assertSortedSameMultiset(t, readLines(t, path), values)

	if _, err := os.Stat(statsPath); err != nil {
		t.Fatalf("expected stats sidecar to be written: %v", err)
	}
}
