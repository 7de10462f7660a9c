package insts

// Encoder encodes instructions back into MIPS machine words.
type Encoder struct{}

// NewEncoder creates a new MIPS instruction encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode packs inst into a machine word. Fields the instruction's format does
// not use are ignored, and RegAny encodes as register 0. CmdUnknown encodes
// to the raw word it was decoded from.
func (e *Encoder) Encode(inst Instruction) uint32 {
	if inst.Cmd == CmdUnknown || inst.Cmd >= numCmds {
		return inst.Raw
	}

	enc := encodings[inst.Cmd]

	var word uint32
	switch enc.class {
	case classPrimary:
		word = enc.code << 26
	case classSpecial:
		word = opSpecial<<26 | enc.code
	case classRegimm:
		word = opRegimm<<26 | enc.code<<16
	case classCop0:
		word = opCop0<<26 | enc.code<<21
	}

	rs := inst.Rs.Field() << 21
	rt := inst.Rt.Field() << 16
	rd := inst.Rd.Field() << 11
	sa := uint32(inst.Shamt&0x1F) << 6
	imm := uint32(uint16(inst.Imm))

	switch enc.format {
	case FormatR3:
		word |= rs | rt | rd
	case FormatShift:
		word |= rt | rd | sa
	case FormatShiftV:
		word |= rs | rt | rd
	case FormatJR, FormatMoveTo:
		word |= rs
	case FormatJALR:
		word |= rs | rd
	case FormatMoveFrom:
		word |= rd
	case FormatMulDiv:
		word |= rs | rt
	case FormatCode:
		word |= (inst.Code & 0xFFFFF) << 6
	case FormatSync:
		word |= sa
	case FormatImm:
		word |= rs | rt | imm
	case FormatLUI:
		word |= rt | imm
	case FormatBranchZ:
		word |= rs | imm
	case FormatJump:
		word |= (inst.Target >> 2) & 0x03FFFFFF
	case FormatCache:
		word |= rs | uint32(inst.CacheOp&0x1F)<<16 | imm
	case FormatCop0:
		word |= rt | uint32(inst.CopReg&0x1F)<<11
	}

	return word
}

var defaultEncoder = NewEncoder()

// Encode encodes inst with a shared stateless encoder.
func Encode(inst Instruction) uint32 {
	return defaultEncoder.Encode(inst)
}

// Call builds a JAL to the given absolute address.
func Call(addr uint32) Instruction {
	return Instruction{Cmd: CmdJAL, Format: FormatJump, Target: addr & 0x0FFFFFFC}
}
