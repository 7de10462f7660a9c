package scan

import (
	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/mem"
)

// CallWord returns the JAL instruction word that calls word offset callee
// of img.
func CallWord(img *mem.Image, callee int) uint32 {
	return insts.Encode(insts.Call(img.Addr(callee)))
}

// CallersOf returns the offsets of every JAL whose target is callee.
func CallersOf(img *mem.Image, callee int) Offsets {
	if !img.InRange(callee) {
		return nil
	}
	return Offsets(FindWord(img, CallWord(img, callee)))
}

// CallersOfAny returns the union of the callers of every callee. Callees
// outside the image are skipped.
func CallersOfAny(img *mem.Image, callees []int) Offsets {
	lists := make([]Offsets, 0, len(callees))
	for _, c := range callees {
		lists = append(lists, CallersOf(img, c))
	}
	return MergeOffsets(lists...)
}

// CallTarget returns the word offset a JAL at off calls. The second result
// is false if the word is not a JAL or its target is outside the image.
func CallTarget(img *mem.Image, off int) (int, bool) {
	inst := insts.Decode(img.Word(off))
	if !inst.IsCall() {
		return 0, false
	}
	return img.Index(inst.JumpAddress(img.Addr(off)))
}

// EntriesOf returns the candidate entry offsets of a routine: every match
// of sig shifted by each anchor delta. With no anchors the match offsets
// themselves are the entries.
func EntriesOf(img *mem.Image, sig []MaskPair, anchors ...int) Offsets {
	if len(anchors) == 0 {
		anchors = []int{0}
	}

	var entries []int
	for _, o := range FindAll(img, sig) {
		for _, a := range anchors {
			entries = append(entries, o+a)
		}
	}
	return NewOffsets(entries...)
}

// CallsTo returns the call sites of the routine recognized by sig.
func CallsTo(img *mem.Image, sig []MaskPair, anchors ...int) Offsets {
	return CallersOfAny(img, EntriesOf(img, sig, anchors...))
}
