// Package parsort sorts one buffer-sized chunk of int32 values across N
// worker goroutines: an equal-split parallel merge sort followed by a
// sequential pairwise cascade.
//
// The per-worker sequential sort and its merge step are grounded in
// GoMergeSort's seqMergesort/merge; the worker fan-out and join replace that
// example's sync.WaitGroup recursion with an explicit equal-range split, per
// the external-sort spec this package implements.
package parsort

import "sync"

// SortChunk sorts buf[:length] in non-decreasing order using up to threads
// goroutines.
//
// Divergence from the source this spec was distilled from, recorded per
// spec.md §9's Open Questions: the original's per-worker routine invoked the
// sequential sort twice on overlapping ranges before merging, which is a
// no-op the second time since the range is already sorted. This
// implementation calls it once.
func SortChunk(buf []int32, length int, threads int) {
	if length <= 1 {
		return
	}
	if threads > length {
		threads = length
	}
	if threads <= 1 {
		sequentialMergeSort(buf[:length])
		return
	}

	npt := length / threads
	offset := length % threads

	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		start := i * npt
		end := start + npt
		if i == threads-1 {
			end += offset
		}
		go func(sub []int32) {
			defer wg.Done()
			sequentialMergeSort(sub)
		}(buf[start:end])
	}
	wg.Wait()

	bounds := make([][2]int, threads)
	for i := 0; i < threads; i++ {
		start := i * npt
		end := start + npt
		if i == threads-1 {
			end += offset
		}
		bounds[i] = [2]int{start, end}
	}
	cascade(buf, bounds)
}

// cascade performs the iterative pairwise merge of the worker sub-ranges.
// Each pass merges adjacent run boundaries 2i and 2i+1 into one run; an odd
// run left unpaired at the end of a pass carries forward unmerged. Tracking
// actual boundaries (rather than assuming every unit has size npt*2^p) is
// what correctly absorbs the trailing `offset` elements the last worker
// picked up, for any thread count, not just powers of two.
func cascade(buf []int32, bounds [][2]int) {
	for len(bounds) > 1 {
		next := make([][2]int, 0, (len(bounds)+1)/2)
		i := 0
		for i+1 < len(bounds) {
			left, right := bounds[i], bounds[i+1]
			inplaceMerge(buf[left[0]:right[1]], left[1]-left[0])
			next = append(next, [2]int{left[0], right[1]})
			i += 2
		}
		if i < len(bounds) {
			next = append(next, bounds[i])
		}
		bounds = next
	}
}

// sequentialMergeSort sorts s in place with a classic top-down merge sort.
func sequentialMergeSort(s []int32) {
	if len(s) <= 1 {
		return
	}
	mid := len(s) / 2
	sequentialMergeSort(s[:mid])
	sequentialMergeSort(s[mid:])
	inplaceMerge(s, mid)
}

// inplaceMerge merges the two sorted halves s[:mid] and s[mid:] using a
// scratch buffer sized to the merged range.
func inplaceMerge(s []int32, mid int) {
	temp := make([]int32, len(s))
	l, r, k := 0, mid, 0
	for l < mid && r < len(s) {
		if s[l] <= s[r] {
			temp[k] = s[l]
			l++
		} else {
			temp[k] = s[r]
			r++
		}
		k++
	}
	for l < mid {
		temp[k] = s[l]
		l++
		k++
	}
	for r < len(s) {
		temp[k] = s[r]
		r++
		k++
	}
	copy(s, temp)
}
