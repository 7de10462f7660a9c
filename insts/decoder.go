package insts

// Cmd represents a MIPS mnemonic.
type Cmd uint8

// MIPS mnemonics.
const (
	CmdUnknown Cmd = iota

	// SPECIAL
	CmdSLL
	CmdSRL
	CmdSRA
	CmdSLLV
	CmdSRLV
	CmdSRAV
	CmdJR
	CmdJALR
	CmdSYSCALL
	CmdBREAK
	CmdSYNC
	CmdMFHI
	CmdMTHI
	CmdMFLO
	CmdMTLO
	CmdMULT
	CmdMULTU
	CmdDIV
	CmdDIVU
	CmdADD
	CmdADDU
	CmdSUB
	CmdSUBU
	CmdAND
	CmdOR
	CmdXOR
	CmdNOR
	CmdSLT
	CmdSLTU

	// REGIMM
	CmdBLTZ
	CmdBGEZ
	CmdBLTZL
	CmdBGEZL
	CmdBLTZAL
	CmdBGEZAL

	// Primary opcodes
	CmdJ
	CmdJAL
	CmdBEQ
	CmdBNE
	CmdBLEZ
	CmdBGTZ
	CmdADDI
	CmdADDIU
	CmdSLTI
	CmdSLTIU
	CmdANDI
	CmdORI
	CmdXORI
	CmdLUI
	CmdBEQL
	CmdBNEL
	CmdBLEZL
	CmdBGTZL
	CmdLB
	CmdLH
	CmdLWL
	CmdLW
	CmdLBU
	CmdLHU
	CmdLWR
	CmdSB
	CmdSH
	CmdSWL
	CmdSW
	CmdSWR
	CmdCACHE
	CmdLWC1
	CmdLD
	CmdSWC1
	CmdSD

	// COP0
	CmdMFC0
	CmdMTC0

	numCmds
)

// Format represents which operand fields an instruction uses.
type Format uint8

// Instruction formats.
const (
	FormatUnknown  Format = iota
	FormatR3              // rd, rs, rt
	FormatShift           // rd, rt, sa
	FormatShiftV          // rd, rt, rs
	FormatJR              // rs
	FormatJALR            // rd, rs
	FormatMoveFrom        // rd (MFHI, MFLO)
	FormatMoveTo          // rs (MTHI, MTLO)
	FormatMulDiv          // rs, rt
	FormatCode            // 20-bit code (SYSCALL, BREAK)
	FormatSync            // stype in sa
	FormatImm             // rt, rs, imm (ALU immediate, loads, stores, BEQ/BNE)
	FormatLUI             // rt, imm
	FormatBranchZ         // rs, imm (BLEZ/BGTZ and REGIMM)
	FormatJump            // 26-bit target
	FormatCache           // op, imm(base)
	FormatCop0            // rt, cop0 register
)

// Instruction represents a decoded MIPS instruction. Only the fields used by
// the instruction's Format are meaningful; the others are zero.
type Instruction struct {
	Cmd    Cmd    // Mnemonic
	Format Format // Operand layout

	Rs Register // Source register (also the base register of loads and stores)
	Rt Register // Target register
	Rd Register // Destination register

	Imm     int16  // Sign-extended 16-bit immediate
	Target  uint32 // Jump target as a byte offset inside the current 256 MiB region
	Shamt   uint8  // Shift amount, or the SYNC stype
	CopReg  uint8  // Coprocessor 0 register
	CacheOp uint8  // CACHE operation
	Code    uint32 // SYSCALL/BREAK code

	Raw uint32 // Original word, kept only for CmdUnknown
}

// Field extraction helpers.
func opcode(w uint32) uint32  { return w >> 26 }
func fieldRs(w uint32) uint32 { return (w >> 21) & 0x1F }
func fieldRt(w uint32) uint32 { return (w >> 16) & 0x1F }
func fieldRd(w uint32) uint32 { return (w >> 11) & 0x1F }
func fieldSa(w uint32) uint32 { return (w >> 6) & 0x1F }
func funct(w uint32) uint32   { return w & 0x3F }

// Decoder decodes MIPS machine words into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MIPS instruction word. It never fails: words it
// cannot represent exactly decode to CmdUnknown.
func (d *Decoder) Decode(word uint32) Instruction {
	var cmd Cmd

	switch opcode(word) {
	case opSpecial:
		cmd = specialTable[funct(word)]
	case opRegimm:
		cmd = regimmTable[fieldRt(word)]
	case opCop0:
		cmd = cop0Table[fieldRs(word)]
	default:
		cmd = primaryTable[opcode(word)]
	}

	if cmd == CmdUnknown || !d.unusedFieldsClear(word, encodings[cmd]) {
		return Instruction{Cmd: CmdUnknown, Raw: word}
	}

	return d.decodeFields(word, cmd)
}

// unusedFieldsClear reports whether the bits the format ignores are zero.
// Words that set them would not survive re-encoding and decode as unknown.
func (d *Decoder) unusedFieldsClear(word uint32, enc encoding) bool {
	switch enc.format {
	case FormatR3:
		return fieldSa(word) == 0
	case FormatShift:
		return fieldRs(word) == 0
	case FormatShiftV, FormatJALR:
		return fieldSa(word) == 0 && (enc.format != FormatJALR || fieldRt(word) == 0)
	case FormatJR:
		return fieldRt(word) == 0 && fieldRd(word) == 0 && fieldSa(word) == 0
	case FormatMoveFrom:
		return fieldRs(word) == 0 && fieldRt(word) == 0 && fieldSa(word) == 0
	case FormatMoveTo:
		return fieldRt(word) == 0 && fieldRd(word) == 0 && fieldSa(word) == 0
	case FormatMulDiv:
		return fieldRd(word) == 0 && fieldSa(word) == 0
	case FormatSync:
		return fieldRs(word) == 0 && fieldRt(word) == 0 && fieldRd(word) == 0
	case FormatLUI:
		return fieldRs(word) == 0
	case FormatBranchZ:
		// REGIMM uses rt as its selector; BLEZ/BGTZ need rt == 0.
		return enc.class == classRegimm || fieldRt(word) == 0
	case FormatCop0:
		return word&0x7FF == 0
	}
	return true
}

func (d *Decoder) decodeFields(word uint32, cmd Cmd) Instruction {
	enc := encodings[cmd]
	inst := Instruction{Cmd: cmd, Format: enc.format}

	switch enc.format {
	case FormatR3:
		inst.Rd = Register(fieldRd(word))
		inst.Rs = Register(fieldRs(word))
		inst.Rt = Register(fieldRt(word))
	case FormatShift:
		inst.Rd = Register(fieldRd(word))
		inst.Rt = Register(fieldRt(word))
		inst.Shamt = uint8(fieldSa(word))
	case FormatShiftV:
		inst.Rd = Register(fieldRd(word))
		inst.Rt = Register(fieldRt(word))
		inst.Rs = Register(fieldRs(word))
	case FormatJR, FormatMoveTo:
		inst.Rs = Register(fieldRs(word))
	case FormatJALR:
		inst.Rd = Register(fieldRd(word))
		inst.Rs = Register(fieldRs(word))
	case FormatMoveFrom:
		inst.Rd = Register(fieldRd(word))
	case FormatMulDiv:
		inst.Rs = Register(fieldRs(word))
		inst.Rt = Register(fieldRt(word))
	case FormatCode:
		inst.Code = (word >> 6) & 0xFFFFF
	case FormatSync:
		inst.Shamt = uint8(fieldSa(word))
	case FormatImm:
		inst.Rs = Register(fieldRs(word))
		inst.Rt = Register(fieldRt(word))
		inst.Imm = int16(word & 0xFFFF)
	case FormatLUI:
		inst.Rt = Register(fieldRt(word))
		inst.Imm = int16(word & 0xFFFF)
	case FormatBranchZ:
		inst.Rs = Register(fieldRs(word))
		inst.Imm = int16(word & 0xFFFF)
	case FormatJump:
		inst.Target = (word & 0x03FFFFFF) << 2
	case FormatCache:
		inst.Rs = Register(fieldRs(word))
		inst.CacheOp = uint8(fieldRt(word))
		inst.Imm = int16(word & 0xFFFF)
	case FormatCop0:
		inst.Rt = Register(fieldRt(word))
		inst.CopReg = uint8(fieldRd(word))
	}

	return inst
}

var defaultDecoder = NewDecoder()

// Decode decodes word with a shared stateless decoder.
func Decode(word uint32) Instruction {
	return defaultDecoder.Decode(word)
}

// IsCall reports whether the instruction is a direct call (JAL).
func (i Instruction) IsCall() bool {
	return i.Cmd == CmdJAL
}

// IsStore reports whether the instruction writes memory.
func (i Instruction) IsStore() bool {
	return encodings[i.Cmd].kind == kindStore
}

// IsLoad reports whether the instruction reads memory into a GPR.
func (i Instruction) IsLoad() bool {
	return encodings[i.Cmd].kind == kindLoad
}

// IsBranch reports whether the instruction is a PC-relative branch.
func (i Instruction) IsBranch() bool {
	return encodings[i.Cmd].kind == kindBranch
}

// IsFrameAlloc reports whether the instruction allocates a stack frame,
// i.e. ADDIU SP, SP, -N.
func (i Instruction) IsFrameAlloc() bool {
	return i.Cmd == CmdADDIU && i.Rt == RegSP && i.Rs == RegSP && i.Imm < 0
}

// JumpAddress combines the jump target with the region of the instruction
// at pc. The region comes from the delay slot address (pc + 4).
func (i Instruction) JumpAddress(pc uint32) uint32 {
	return ((pc + 4) & 0xF0000000) | i.Target
}

// BranchAddress returns the destination of a branch at pc.
func (i Instruction) BranchAddress(pc uint32) uint32 {
	return pc + 4 + uint32(int32(i.Imm)<<2)
}
