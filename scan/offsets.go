package scan

import (
	"slices"
	"sort"
)

// Offsets is an ascending, duplicate-free list of word offsets.
type Offsets []int

// NewOffsets sorts and de-duplicates offs into a new list.
func NewOffsets(offs ...int) Offsets {
	out := append(Offsets(nil), offs...)
	slices.Sort(out)
	return slices.Compact(out)
}

// MergeOffsets returns the union of lists.
func MergeOffsets(lists ...Offsets) Offsets {
	var all []int
	for _, l := range lists {
		all = append(all, l...)
	}
	return NewOffsets(all...)
}

// Between returns the offsets in [lo, hi]. The result shares storage with o.
func (o Offsets) Between(lo, hi int) Offsets {
	if lo > hi {
		return nil
	}
	start := sort.SearchInts(o, lo)
	end := sort.SearchInts(o, hi+1)
	return o[start:end]
}

// First returns the lowest offset.
func (o Offsets) First() (int, bool) {
	if len(o) == 0 {
		return 0, false
	}
	return o[0], true
}

// Contains reports whether off is in the list.
func (o Offsets) Contains(off int) bool {
	_, found := slices.BinarySearch(o, off)
	return found
}
