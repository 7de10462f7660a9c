package scan

import (
	"github.com/cockroachdb/errors"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/mem"
)

// ErrPrologueNotFound is returned when no stack-frame allocation precedes an
// offset within the scan limit.
var ErrPrologueNotFound = errors.New("prologue not found")

// Region is a half-open range [Start, End) of word offsets.
type Region struct {
	Start int
	End   int
}

// Len returns the number of words in the region.
func (r Region) Len() int {
	return max(r.End-r.Start, 0)
}

// clip restricts r to the image.
func (r Region) clip(img *mem.Image) Region {
	return Region{Start: max(r.Start, 0), End: min(r.End, img.Len())}
}

// CountCalls returns the number of distinct JAL targets in r. Calls to the
// same routine from several places count once.
func CountCalls(img *mem.Image, r Region) int {
	r = r.clip(img)
	targets := mapset.NewThreadUnsafeSet[uint32]()
	for o := r.Start; o < r.End; o++ {
		inst := insts.Decode(img.Word(o))
		if inst.IsCall() {
			targets.Add(inst.Target)
		}
	}
	return targets.Cardinality()
}

// FindPrologue scans backwards from before-1 for an ADDIU SP, SP, -N that
// allocates a stack frame. At most maxScan-1 words are examined and the
// scan never goes below offset 0.
func FindPrologue(img *mem.Image, before, maxScan int) (int, error) {
	for i := min(before, img.Len()) - 1; i > before-maxScan && i >= 0; i-- {
		if IsPrologue(insts.Decode(img.Word(i))) {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrPrologueNotFound, "within 0x%X words before offset 0x%X", maxScan, before)
}

// IsPrologue reports whether inst allocates a stack frame.
func IsPrologue(inst insts.Instruction) bool {
	return inst.IsFrameAlloc()
}
