package emu

import (
	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/mem"
)

// Store records one executed store instruction.
type Store struct {
	PC    uint32    // Address of the store instruction
	Cmd   insts.Cmd // SB, SH, SW, ...
	Addr  uint32    // Effective address
	Value uint32    // Value operand, truncated to the store width
}

// LoadStoreUnit implements MIPS loads and stores against a read-only image.
// Stores land in a private overlay so later loads in the same run observe
// them while the image itself stays untouched.
type LoadStoreUnit struct {
	regFile *RegFile
	image   *mem.Image
	overlay map[uint32]uint32 // word-aligned physical address -> word
	stores  []Store
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and image.
func NewLoadStoreUnit(regFile *RegFile, image *mem.Image) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		image:   image,
		overlay: make(map[uint32]uint32),
	}
}

// Stores returns the stores executed so far, in program order.
func (lsu *LoadStoreUnit) Stores() []Store {
	return lsu.stores
}

func (lsu *LoadStoreUnit) effectiveAddr(base insts.Register, imm int16) uint32 {
	return lsu.regFile.ReadReg(base) + uint32(int32(imm))
}

// ReadWord reads the aligned word containing addr. Addresses outside the
// image that were never stored to read as 0.
func (lsu *LoadStoreUnit) ReadWord(addr uint32) uint32 {
	key := addr &^ 3 & 0x1FFFFFFF
	if w, ok := lsu.overlay[key]; ok {
		return w
	}
	if i, ok := lsu.image.Index(addr &^ 3); ok {
		return lsu.image.Word(i)
	}
	return 0
}

func (lsu *LoadStoreUnit) writeWord(addr, value uint32) {
	lsu.overlay[addr&^3&0x1FFFFFFF] = value
}

// Bytes are numbered big-endian within a word: byte 0 is the most
// significant.
func byteShift(addr uint32) uint32 { return (3 - addr&3) * 8 }
func halfShift(addr uint32) uint32 { return (2 - addr&2) * 8 }

// LW performs rt = mem32[rs + imm].
func (lsu *LoadStoreUnit) LW(rt, rs insts.Register, imm int16) {
	lsu.regFile.WriteReg(rt, lsu.ReadWord(lsu.effectiveAddr(rs, imm)))
}

// LH performs a sign-extending halfword load.
func (lsu *LoadStoreUnit) LH(rt, rs insts.Register, imm int16) {
	addr := lsu.effectiveAddr(rs, imm)
	h := uint16(lsu.ReadWord(addr) >> halfShift(addr))
	lsu.regFile.WriteReg(rt, uint32(int32(int16(h))))
}

// LHU performs a zero-extending halfword load.
func (lsu *LoadStoreUnit) LHU(rt, rs insts.Register, imm int16) {
	addr := lsu.effectiveAddr(rs, imm)
	lsu.regFile.WriteReg(rt, uint32(uint16(lsu.ReadWord(addr)>>halfShift(addr))))
}

// LB performs a sign-extending byte load.
func (lsu *LoadStoreUnit) LB(rt, rs insts.Register, imm int16) {
	addr := lsu.effectiveAddr(rs, imm)
	b := uint8(lsu.ReadWord(addr) >> byteShift(addr))
	lsu.regFile.WriteReg(rt, uint32(int32(int8(b))))
}

// LBU performs a zero-extending byte load.
func (lsu *LoadStoreUnit) LBU(rt, rs insts.Register, imm int16) {
	addr := lsu.effectiveAddr(rs, imm)
	lsu.regFile.WriteReg(rt, uint32(uint8(lsu.ReadWord(addr)>>byteShift(addr))))
}

// SW performs mem32[rs + imm] = rt.
func (lsu *LoadStoreUnit) SW(pc uint32, rt, rs insts.Register, imm int16) {
	addr := lsu.effectiveAddr(rs, imm)
	value := lsu.regFile.ReadReg(rt)
	lsu.writeWord(addr, value)
	lsu.record(pc, insts.CmdSW, addr, value)
}

// SH stores the low halfword of rt.
func (lsu *LoadStoreUnit) SH(pc uint32, rt, rs insts.Register, imm int16) {
	addr := lsu.effectiveAddr(rs, imm)
	value := lsu.regFile.ReadReg(rt) & 0xFFFF
	shift := halfShift(addr)
	w := lsu.ReadWord(addr)&^(0xFFFF<<shift) | value<<shift
	lsu.writeWord(addr, w)
	lsu.record(pc, insts.CmdSH, addr, value)
}

// SB stores the low byte of rt.
func (lsu *LoadStoreUnit) SB(pc uint32, rt, rs insts.Register, imm int16) {
	addr := lsu.effectiveAddr(rs, imm)
	value := lsu.regFile.ReadReg(rt) & 0xFF
	shift := byteShift(addr)
	w := lsu.ReadWord(addr)&^(0xFF<<shift) | value<<shift
	lsu.writeWord(addr, w)
	lsu.record(pc, insts.CmdSB, addr, value)
}

// StoreUnaligned records SWL, SWR and SD without modeling their partial
// memory effect. The full register value is captured.
func (lsu *LoadStoreUnit) StoreUnaligned(pc uint32, cmd insts.Cmd, rt, rs insts.Register, imm int16) {
	lsu.record(pc, cmd, lsu.effectiveAddr(rs, imm), lsu.regFile.ReadReg(rt))
}

func (lsu *LoadStoreUnit) record(pc uint32, cmd insts.Cmd, addr, value uint32) {
	lsu.stores = append(lsu.stores, Store{PC: pc, Cmd: cmd, Addr: addr, Value: value})
}
