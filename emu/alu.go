package emu

import "github.com/sarchlab/mipscan/insts"

// ALU implements MIPS integer arithmetic and logic operations. Overflow
// traps of ADD, ADDI and SUB are not modeled; they behave like their
// unsigned forms.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ADDU performs rd = rs + rt.
func (a *ALU) ADDU(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)+a.regFile.ReadReg(rt))
}

// SUBU performs rd = rs - rt.
func (a *ALU) SUBU(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)-a.regFile.ReadReg(rt))
}

// AND performs rd = rs & rt.
func (a *ALU) AND(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)&a.regFile.ReadReg(rt))
}

// OR performs rd = rs | rt.
func (a *ALU) OR(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)|a.regFile.ReadReg(rt))
}

// XOR performs rd = rs ^ rt.
func (a *ALU) XOR(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)^a.regFile.ReadReg(rt))
}

// NOR performs rd = ^(rs | rt).
func (a *ALU) NOR(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, ^(a.regFile.ReadReg(rs) | a.regFile.ReadReg(rt)))
}

// SLT sets rd to 1 if rs < rt as signed values.
func (a *ALU) SLT(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, boolWord(int32(a.regFile.ReadReg(rs)) < int32(a.regFile.ReadReg(rt))))
}

// SLTU sets rd to 1 if rs < rt as unsigned values.
func (a *ALU) SLTU(rd, rs, rt insts.Register) {
	a.regFile.WriteReg(rd, boolWord(a.regFile.ReadReg(rs) < a.regFile.ReadReg(rt)))
}

// ADDIU performs rt = rs + sign_extend(imm).
func (a *ALU) ADDIU(rt, rs insts.Register, imm int16) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)+uint32(int32(imm)))
}

// SLTI sets rt to 1 if rs < sign_extend(imm) as signed values.
func (a *ALU) SLTI(rt, rs insts.Register, imm int16) {
	a.regFile.WriteReg(rt, boolWord(int32(a.regFile.ReadReg(rs)) < int32(imm)))
}

// SLTIU compares against the sign-extended immediate as unsigned values.
func (a *ALU) SLTIU(rt, rs insts.Register, imm int16) {
	a.regFile.WriteReg(rt, boolWord(a.regFile.ReadReg(rs) < uint32(int32(imm))))
}

// ANDI performs rt = rs & zero_extend(imm).
func (a *ALU) ANDI(rt, rs insts.Register, imm int16) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)&uint32(uint16(imm)))
}

// ORI performs rt = rs | zero_extend(imm).
func (a *ALU) ORI(rt, rs insts.Register, imm int16) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)|uint32(uint16(imm)))
}

// XORI performs rt = rs ^ zero_extend(imm).
func (a *ALU) XORI(rt, rs insts.Register, imm int16) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)^uint32(uint16(imm)))
}

// LUI performs rt = imm << 16.
func (a *ALU) LUI(rt insts.Register, imm int16) {
	a.regFile.WriteReg(rt, uint32(uint16(imm))<<16)
}

// SLL performs rd = rt << sa.
func (a *ALU) SLL(rd, rt insts.Register, sa uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rt)<<(sa&31))
}

// SRL performs a logical right shift.
func (a *ALU) SRL(rd, rt insts.Register, sa uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rt)>>(sa&31))
}

// SRA performs an arithmetic right shift.
func (a *ALU) SRA(rd, rt insts.Register, sa uint8) {
	a.regFile.WriteReg(rd, uint32(int32(a.regFile.ReadReg(rt))>>(sa&31)))
}

// SLLV shifts left by the low 5 bits of rs.
func (a *ALU) SLLV(rd, rt, rs insts.Register) {
	a.SLL(rd, rt, uint8(a.regFile.ReadReg(rs)))
}

// SRLV shifts right logically by the low 5 bits of rs.
func (a *ALU) SRLV(rd, rt, rs insts.Register) {
	a.SRL(rd, rt, uint8(a.regFile.ReadReg(rs)))
}

// SRAV shifts right arithmetically by the low 5 bits of rs.
func (a *ALU) SRAV(rd, rt, rs insts.Register) {
	a.SRA(rd, rt, uint8(a.regFile.ReadReg(rs)))
}

// MULT performs a signed 32x32 multiply into HI:LO.
func (a *ALU) MULT(rs, rt insts.Register) {
	p := int64(int32(a.regFile.ReadReg(rs))) * int64(int32(a.regFile.ReadReg(rt)))
	a.regFile.HI = uint32(uint64(p) >> 32)
	a.regFile.LO = uint32(p)
}

// MULTU performs an unsigned 32x32 multiply into HI:LO.
func (a *ALU) MULTU(rs, rt insts.Register) {
	p := uint64(a.regFile.ReadReg(rs)) * uint64(a.regFile.ReadReg(rt))
	a.regFile.HI = uint32(p >> 32)
	a.regFile.LO = uint32(p)
}

// DIV performs a signed divide: LO = quotient, HI = remainder. Division by
// zero leaves HI and LO unchanged.
func (a *ALU) DIV(rs, rt insts.Register) {
	n, d := int32(a.regFile.ReadReg(rs)), int32(a.regFile.ReadReg(rt))
	if d == 0 {
		return
	}
	a.regFile.LO = uint32(n / d)
	a.regFile.HI = uint32(n % d)
}

// DIVU performs an unsigned divide. Division by zero leaves HI and LO
// unchanged.
func (a *ALU) DIVU(rs, rt insts.Register) {
	n, d := a.regFile.ReadReg(rs), a.regFile.ReadReg(rt)
	if d == 0 {
		return
	}
	a.regFile.LO = n / d
	a.regFile.HI = n % d
}

// MFHI copies HI into rd.
func (a *ALU) MFHI(rd insts.Register) {
	a.regFile.WriteReg(rd, a.regFile.HI)
}

// MFLO copies LO into rd.
func (a *ALU) MFLO(rd insts.Register) {
	a.regFile.WriteReg(rd, a.regFile.LO)
}

// MTHI copies rs into HI.
func (a *ALU) MTHI(rs insts.Register) {
	a.regFile.HI = a.regFile.ReadReg(rs)
}

// MTLO copies rs into LO.
func (a *ALU) MTLO(rs insts.Register) {
	a.regFile.LO = a.regFile.ReadReg(rs)
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
