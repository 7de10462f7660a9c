// Package fixture builds a small synthetic libultra image in which the
// whole recognition chain resolves to a known address.
package fixture

import (
	"encoding/binary"

	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/mem"
)

// Word offsets of the routines in the image.
const (
	Len = 0x400

	GPSetup           = 0x10
	GetCount          = 0x20
	DisableInt        = 0x30
	RestoreInt        = 0x40
	WritebackDCache   = 0x50
	InvalDCache       = 0x80
	GetTime           = 0xC0
	SiRawStartDma     = 0xD0
	Stub              = 0xF0
	ContInit          = 0x100
	FingerprintOffset = 0x200
	CallSite          = 0x214

	FingerprintWords = 20
)

// Values the image computes.
const (
	Magic     uint32 = 0x3C1A8000
	GP        uint32 = 0x80028C50
	DMABuffer uint32 = 0x80031230
	Status    uint32 = 0x80033000
	Near      uint32 = 0x80033010
	Far       uint32 = 0x8003E000

	// Target is the address the default strategy picks: with both
	// candidates above Status, the farther one.
	Target = Far
)

const nop = 0x00000000

func call(off int) uint32 {
	return insts.Encode(insts.Call(mem.DefaultBase + uint32(off)*4))
}

// Words returns a fresh copy of the image words.
func Words() []uint32 {
	w := make([]uint32, Len)
	place := func(off int, words ...uint32) {
		copy(w[off:], words)
	}

	place(0, Magic) // LUI K0, 0x8000

	place(GPSetup,
		0x3C1C8003, // LUI   GP, 0x8003
		0x03E00008, // JR    RA
		0x279C8C50, // ADDIU GP, GP, -0x73B0
	)

	place(GetCount, 0x40024800, 0x03E00008, nop)
	place(DisableInt,
		0x40086000, 0x2401FFFE, 0x01014824, 0x40896000,
		0x31020001, nop, 0x03E00008, nop)
	place(RestoreInt,
		0x40086000, 0x01044025, 0x40886000, nop,
		nop, 0x03E00008, nop)
	place(WritebackDCache,
		0x18A00011, 0x00000000, 0x240B2000, 0x00AB082B, 0x1020000F, 0x00000000, 0x00804025, 0x00854821,
		0x0109082B, 0x10200008, 0x00000000, 0x310A000F, 0x2529FFF0, 0x010A4023, 0xBD190000, 0x0109082B,
		0x1420FFFD, 0x25080010, 0x03E00008, 0x00000000, 0x3C088000, 0x010B4821, 0x2529FFF0, 0xBD010000,
		0x0109082B, 0x1420FFFD, 0x25080010, 0x03E00008, 0x00000000)
	place(InvalDCache,
		0x18A0001F, 0x00000000, 0x240B2000, 0x00AB082B, 0x1020001D, 0x00000000, 0x00804025, 0x00854821,
		0x0109082B, 0x10200016, 0x00000000, 0x310A000F, 0x11400007, 0x2529FFF0, 0x010A4023, 0xBD150000,
		0x0109082B, 0x1020000E, 0x00000000, 0x25080010, 0x312A000F, 0x11400006, 0x00000000, 0x012A4823,
		0xBD350010, 0x0128082B, 0x14200005, 0x00000000, 0xBD110000, 0x0109082B, 0x1420FFFD, 0x25080010,
		0x03E00008, 0x00000000, 0x3C088000, 0x010B4821, 0x2529FFF0, 0xBD010000, 0x0109082B, 0x1420FFFD,
		0x25080010, 0x03E00008, 0x00000000)

	place(GetTime,
		0x27BDFFE8, // ADDIU SP, SP, -0x18
		0xAFBF0014, // SW    RA, 0x14(SP)
		call(DisableInt),
		nop,
		call(GetCount),
		nop,
		0x00402025, // OR    A0, V0, R0
		call(RestoreInt),
		nop,
		0x8FBF0014, // LW    RA, 0x14(SP)
		0x03E00008, // JR    RA
		0x27BD0018, // ADDIU SP, SP, 0x18
	)

	place(SiRawStartDma,
		0x27BDFFE0, // ADDIU SP, SP, -0x20
		0xAFBF001C, // SW    RA, 0x1C(SP)
		call(WritebackDCache),
		nop,
		call(Stub),
		nop,
		call(InvalDCache),
		nop,
		0x8FBF001C, // LW    RA, 0x1C(SP)
		0x03E00008, // JR    RA
		0x27BD0020, // ADDIU SP, SP, 0x20
	)

	place(Stub, 0x03E00008, nop)

	place(ContInit,
		0x27BDFFD8, // ADDIU SP, SP, -0x28
		0xAFBF0024, // SW    RA, 0x24(SP)
		call(GetTime),
		nop,
		0x3C058003, // LUI   A1, 0x8003
		0x24A51230, // ADDIU A1, A1, 0x1230
		call(SiRawStartDma),
		0x24040001, // ADDIU A0, R0, 1
		0x3C058003, // LUI   A1, 0x8003
		0x24A51230, // ADDIU A1, A1, 0x1230
		call(SiRawStartDma),
		0x00002025, // OR    A0, R0, R0
		0x8FBF0024, // LW    RA, 0x24(SP)
		0x03E00008, // JR    RA
		0x27BD0028, // ADDIU SP, SP, 0x28
	)

	place(FingerprintOffset,
		0x3C088003, // LUI   T0, 0x8003
		0x25083010, // ADDIU T0, T0, 0x3010
		0x3C098004, // LUI   T1, 0x8004
		0x2529E000, // ADDIU T1, T1, -0x2000
		0xAF880010, // SW    T0, 0x10(GP)
		0xAF890014, // SW    T1, 0x14(GP)
		0x3C068003, // LUI   A2, 0x8003
		0x24C63000, // ADDIU A2, A2, 0x3000
		0xAF860018, // SW    A2, 0x18(GP)
		0x8F840010, // LW    A0, 0x10(GP)
		0x24050004, // ADDIU A1, R0, 4
	)
	place(CallSite, call(ContInit), nop)

	return w
}

// Image returns the synthetic image.
func Image(opts ...mem.Option) *mem.Image {
	return mem.New(Words(), opts...)
}

// Bytes serializes the image in the given byte order.
func Bytes(order binary.ByteOrder) []byte {
	words := Words()
	b := make([]byte, len(words)*4)
	for i, w := range words {
		order.PutUint32(b[i*4:], w)
	}
	return b
}
