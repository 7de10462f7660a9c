package resolve

import (
	"bytes"

	"github.com/sarchlab/mipscan/mem"
)

// Target is a resolved variable address together with the instruction
// bytes that were around the call it was recovered from. As long as those
// bytes are unchanged in live memory the address is still valid.
type Target struct {
	// Address is the variable's virtual (KSEG0) address.
	Address uint32 `json:"address"`

	// FingerprintOffset is the word offset of the fingerprint.
	FingerprintOffset int `json:"fingerprintOffset"`

	// Fingerprint holds the fingerprint words in the image's source byte
	// order.
	Fingerprint []byte `json:"fingerprint"`

	// Profile names the signature profile that produced the result.
	Profile string `json:"profile"`

	// CallSite is the word offset of the call the address came from.
	CallSite int `json:"callSite"`
}

func newTarget(img *mem.Image, profile string, address uint32, callSite, window int) *Target {
	return &Target{
		Address:           address,
		FingerprintOffset: callSite - window,
		Fingerprint:       img.Bytes(callSite-window, window),
		Profile:           profile,
		CallSite:          callSite,
	}
}

// SegmentOffset returns the address relative to the start of RAM.
func (t *Target) SegmentOffset() uint32 {
	return t.Address & 0x00FFFFFF
}

// FingerprintByteOffset returns the byte offset of the fingerprint
// relative to the start of the image.
func (t *Target) FingerprintByteOffset() int {
	return t.FingerprintOffset * 4
}

// Matches reports whether img still holds the fingerprint at its offset.
func (t *Target) Matches(img *mem.Image) bool {
	n := len(t.Fingerprint) / 4
	if t.FingerprintOffset < 0 || t.FingerprintOffset+n > img.Len() {
		return false
	}
	return bytes.Equal(img.Bytes(t.FingerprintOffset, n), t.Fingerprint)
}

// IsDataAddress reports whether addr lies in the first 8 MiB of KSEG0,
// where RDRAM is mapped.
func IsDataAddress(addr uint32) bool {
	return addr&0xFF000000 == 0x80000000 && addr&0x00FFFFFF <= 0x800000
}
