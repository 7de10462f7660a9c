// Package mem provides the read-only, word-addressed memory image that the
// scanners and the interpreter operate on.
package mem

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// DefaultBase is the address of word 0 when none is given: the start of
// the KSEG0 cached segment.
const DefaultBase uint32 = 0x80000000

// physMask strips the segment bits of a KSEG0/KSEG1 address.
const physMask uint32 = 0x1FFFFFFF

// Image is an immutable sequence of 32-bit words. Word i lives at byte
// address Base() + 4*i.
type Image struct {
	words  []uint32
	base   uint32
	order  binary.ByteOrder
	digest uint64
}

// Option configures an Image.
type Option func(*Image)

// WithBase sets the address of word 0.
func WithBase(base uint32) Option {
	return func(img *Image) {
		img.base = base
	}
}

// WithByteOrder records the byte order the words were read in. It is used
// when words are turned back into bytes, for example for fingerprints.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(img *Image) {
		img.order = order
	}
}

// New creates an image over a copy of words.
func New(words []uint32, opts ...Option) *Image {
	img := &Image{
		words: append([]uint32(nil), words...),
		base:  DefaultBase,
		order: binary.BigEndian,
	}

	for _, opt := range opts {
		opt(img)
	}

	h := xxhash.New()
	_, _ = h.Write(img.Bytes(0, len(img.words)))
	var base [4]byte
	binary.BigEndian.PutUint32(base[:], img.base)
	_, _ = h.Write(base[:])
	img.digest = h.Sum64()

	return img
}

// FromBytes decodes b as consecutive words in the given byte order. A
// trailing partial word is dropped.
func FromBytes(b []byte, order binary.ByteOrder, opts ...Option) *Image {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = order.Uint32(b[4*i:])
	}

	return New(words, append([]Option{WithByteOrder(order)}, opts...)...)
}

// Len returns the number of words.
func (img *Image) Len() int {
	return len(img.words)
}

// Word returns word i. It panics if i is out of range.
func (img *Image) Word(i int) uint32 {
	return img.words[i]
}

// InRange reports whether i is a valid word offset.
func (img *Image) InRange(i int) bool {
	return i >= 0 && i < len(img.words)
}

// Words returns a copy of words [start, end).
func (img *Image) Words(start, end int) []uint32 {
	return append([]uint32(nil), img.words[start:end]...)
}

// Base returns the address of word 0.
func (img *Image) Base() uint32 {
	return img.base
}

// ByteOrder returns the byte order of the source bytes.
func (img *Image) ByteOrder() binary.ByteOrder {
	return img.order
}

// Addr returns the byte address of word i.
func (img *Image) Addr(i int) uint32 {
	return img.base + uint32(i)*4
}

// Index maps a byte address to a word offset. Addresses in any of the
// direct-mapped segments (KSEG0, KSEG1 or physical) resolve to the same
// word. The second result is false if the address falls outside the image.
func (img *Image) Index(addr uint32) (int, bool) {
	phys := addr & physMask
	base := img.base & physMask
	if phys < base {
		return 0, false
	}

	i := int((phys - base) / 4)
	if i >= len(img.words) {
		return 0, false
	}

	return i, true
}

// Bytes returns n words starting at i in the source byte order.
func (img *Image) Bytes(i, n int) []byte {
	b := make([]byte, 4*n)
	for k := 0; k < n; k++ {
		img.order.PutUint32(b[4*k:], img.words[i+k])
	}
	return b
}

// Digest returns a 64-bit content hash of the image, covering the source
// bytes and the base address.
func (img *Image) Digest() uint64 {
	return img.digest
}
