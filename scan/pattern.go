// Package scan finds library routines in a memory image by their compiled
// instruction words and follows the calls made to them.
package scan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"

	"github.com/sarchlab/mipscan/mem"
)

// ErrPatternNotFound is returned when a signature has no match.
var ErrPatternNotFound = errors.New("pattern not found")

// MaskPair matches one instruction word. Mask marks the bits that vary
// between builds (typically register fields); Value holds the fixed bits.
//
// A word w matches when (w &^ Mask) == Value and, for a non-zero mask, at
// least one masked bit of w is set. The second condition keeps a template
// written with a "don't care" register from matching the same instruction
// with R0 in that slot.
type MaskPair struct {
	Value uint32
	Mask  uint32
}

// Exact builds mask-free pairs from literal words.
func Exact(words ...uint32) []MaskPair {
	pairs := make([]MaskPair, len(words))
	for i, w := range words {
		pairs[i] = MaskPair{Value: w}
	}
	return pairs
}

// Matches reports whether w satisfies the pair.
func (p MaskPair) Matches(w uint32) bool {
	return w&^p.Mask == p.Value && (p.Mask == 0 || w&p.Mask != 0)
}

// String renders the pair as VVVVVVVV or VVVVVVVV/MMMMMMMM.
func (p MaskPair) String() string {
	if p.Mask == 0 {
		return fmt.Sprintf("%08X", p.Value)
	}
	return fmt.Sprintf("%08X/%08X", p.Value, p.Mask)
}

// MarshalText implements encoding.TextMarshaler.
func (p MaskPair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *MaskPair) UnmarshalText(text []byte) error {
	value, mask, hasMask := strings.Cut(strings.TrimSpace(string(text)), "/")

	v, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 32)
	if err != nil {
		return errors.Wrapf(err, "mask pair %q: value", text)
	}

	var m uint64
	if hasMask {
		m, err = strconv.ParseUint(strings.TrimPrefix(mask, "0x"), 16, 32)
		if err != nil {
			return errors.Wrapf(err, "mask pair %q: mask", text)
		}
	}

	if uint32(v)&uint32(m) != 0 {
		return errors.Newf("mask pair %q: value overlaps mask", text)
	}

	p.Value, p.Mask = uint32(v), uint32(m)
	return nil
}

// JSONSchema describes the text form.
func (MaskPair) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     "^(0x)?[0-9A-Fa-f]{1,8}(/(0x)?[0-9A-Fa-f]{1,8})?$",
		Description: "instruction word, optionally followed by /mask of the bits that may vary",
	}
}

// FindAll returns, in ascending order, every offset o such that sig[k]
// matches word o+k for all k. The result is empty when sig is empty or
// longer than the image.
func FindAll(img *mem.Image, sig []MaskPair) []int {
	n := len(sig)
	if n == 0 || n > img.Len() {
		return nil
	}

	var found []int
	for o := 0; o+n <= img.Len(); o++ {
		if matchAt(img, o, sig) {
			found = append(found, o)
		}
	}
	return found
}

func matchAt(img *mem.Image, o int, sig []MaskPair) bool {
	for k, p := range sig {
		if !p.Matches(img.Word(o + k)) {
			return false
		}
	}
	return true
}

// FindAllExact is FindAll for a literal word sequence.
func FindAllExact(img *mem.Image, words []uint32) []int {
	n := len(words)
	if n == 0 || n > img.Len() {
		return nil
	}

	var found []int
outer:
	for o := 0; o+n <= img.Len(); o++ {
		for k, w := range words {
			if img.Word(o+k) != w {
				continue outer
			}
		}
		found = append(found, o)
	}
	return found
}

// FindWord returns every offset holding w.
func FindWord(img *mem.Image, w uint32) []int {
	var found []int
	for o := 0; o < img.Len(); o++ {
		if img.Word(o) == w {
			found = append(found, o)
		}
	}
	return found
}

// FindFirst returns the lowest match of sig, or ErrPatternNotFound.
func FindFirst(img *mem.Image, sig []MaskPair) (int, error) {
	n := len(sig)
	for o := 0; n > 0 && o+n <= img.Len(); o++ {
		if matchAt(img, o, sig) {
			return o, nil
		}
	}
	return 0, errors.Wrapf(ErrPatternNotFound, "%d-word signature", n)
}
