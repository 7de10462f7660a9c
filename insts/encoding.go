package insts

import "strings"

// Opcode classes selected by the primary opcode field.
const (
	opSpecial uint32 = 0x00
	opRegimm  uint32 = 0x01
	opCop0    uint32 = 0x10
)

type encClass uint8

const (
	classPrimary encClass = iota
	classSpecial
	classRegimm
	classCop0
)

type instKind uint8

const (
	kindOther instKind = iota
	kindALU
	kindLoad
	kindStore
	kindBranch
	kindJump
)

// encoding describes where a Cmd lives in the opcode space.
type encoding struct {
	name   string
	class  encClass
	code   uint32 // opcode, funct, REGIMM rt or COP0 rs depending on class
	format Format
	kind   instKind
}

var encodings = [numCmds]encoding{
	CmdUnknown: {name: ".word"},

	CmdSLL:     {"SLL", classSpecial, 0x00, FormatShift, kindALU},
	CmdSRL:     {"SRL", classSpecial, 0x02, FormatShift, kindALU},
	CmdSRA:     {"SRA", classSpecial, 0x03, FormatShift, kindALU},
	CmdSLLV:    {"SLLV", classSpecial, 0x04, FormatShiftV, kindALU},
	CmdSRLV:    {"SRLV", classSpecial, 0x06, FormatShiftV, kindALU},
	CmdSRAV:    {"SRAV", classSpecial, 0x07, FormatShiftV, kindALU},
	CmdJR:      {"JR", classSpecial, 0x08, FormatJR, kindJump},
	CmdJALR:    {"JALR", classSpecial, 0x09, FormatJALR, kindJump},
	CmdSYSCALL: {"SYSCALL", classSpecial, 0x0C, FormatCode, kindOther},
	CmdBREAK:   {"BREAK", classSpecial, 0x0D, FormatCode, kindOther},
	CmdSYNC:    {"SYNC", classSpecial, 0x0F, FormatSync, kindOther},
	CmdMFHI:    {"MFHI", classSpecial, 0x10, FormatMoveFrom, kindALU},
	CmdMTHI:    {"MTHI", classSpecial, 0x11, FormatMoveTo, kindALU},
	CmdMFLO:    {"MFLO", classSpecial, 0x12, FormatMoveFrom, kindALU},
	CmdMTLO:    {"MTLO", classSpecial, 0x13, FormatMoveTo, kindALU},
	CmdMULT:    {"MULT", classSpecial, 0x18, FormatMulDiv, kindALU},
	CmdMULTU:   {"MULTU", classSpecial, 0x19, FormatMulDiv, kindALU},
	CmdDIV:     {"DIV", classSpecial, 0x1A, FormatMulDiv, kindALU},
	CmdDIVU:    {"DIVU", classSpecial, 0x1B, FormatMulDiv, kindALU},
	CmdADD:     {"ADD", classSpecial, 0x20, FormatR3, kindALU},
	CmdADDU:    {"ADDU", classSpecial, 0x21, FormatR3, kindALU},
	CmdSUB:     {"SUB", classSpecial, 0x22, FormatR3, kindALU},
	CmdSUBU:    {"SUBU", classSpecial, 0x23, FormatR3, kindALU},
	CmdAND:     {"AND", classSpecial, 0x24, FormatR3, kindALU},
	CmdOR:      {"OR", classSpecial, 0x25, FormatR3, kindALU},
	CmdXOR:     {"XOR", classSpecial, 0x26, FormatR3, kindALU},
	CmdNOR:     {"NOR", classSpecial, 0x27, FormatR3, kindALU},
	CmdSLT:     {"SLT", classSpecial, 0x2A, FormatR3, kindALU},
	CmdSLTU:    {"SLTU", classSpecial, 0x2B, FormatR3, kindALU},

	CmdBLTZ:   {"BLTZ", classRegimm, 0x00, FormatBranchZ, kindBranch},
	CmdBGEZ:   {"BGEZ", classRegimm, 0x01, FormatBranchZ, kindBranch},
	CmdBLTZL:  {"BLTZL", classRegimm, 0x02, FormatBranchZ, kindBranch},
	CmdBGEZL:  {"BGEZL", classRegimm, 0x03, FormatBranchZ, kindBranch},
	CmdBLTZAL: {"BLTZAL", classRegimm, 0x10, FormatBranchZ, kindBranch},
	CmdBGEZAL: {"BGEZAL", classRegimm, 0x11, FormatBranchZ, kindBranch},

	CmdJ:     {"J", classPrimary, 0x02, FormatJump, kindJump},
	CmdJAL:   {"JAL", classPrimary, 0x03, FormatJump, kindJump},
	CmdBEQ:   {"BEQ", classPrimary, 0x04, FormatImm, kindBranch},
	CmdBNE:   {"BNE", classPrimary, 0x05, FormatImm, kindBranch},
	CmdBLEZ:  {"BLEZ", classPrimary, 0x06, FormatBranchZ, kindBranch},
	CmdBGTZ:  {"BGTZ", classPrimary, 0x07, FormatBranchZ, kindBranch},
	CmdADDI:  {"ADDI", classPrimary, 0x08, FormatImm, kindALU},
	CmdADDIU: {"ADDIU", classPrimary, 0x09, FormatImm, kindALU},
	CmdSLTI:  {"SLTI", classPrimary, 0x0A, FormatImm, kindALU},
	CmdSLTIU: {"SLTIU", classPrimary, 0x0B, FormatImm, kindALU},
	CmdANDI:  {"ANDI", classPrimary, 0x0C, FormatImm, kindALU},
	CmdORI:   {"ORI", classPrimary, 0x0D, FormatImm, kindALU},
	CmdXORI:  {"XORI", classPrimary, 0x0E, FormatImm, kindALU},
	CmdLUI:   {"LUI", classPrimary, 0x0F, FormatLUI, kindALU},
	CmdBEQL:  {"BEQL", classPrimary, 0x14, FormatImm, kindBranch},
	CmdBNEL:  {"BNEL", classPrimary, 0x15, FormatImm, kindBranch},
	CmdBLEZL: {"BLEZL", classPrimary, 0x16, FormatBranchZ, kindBranch},
	CmdBGTZL: {"BGTZL", classPrimary, 0x17, FormatBranchZ, kindBranch},
	CmdLB:    {"LB", classPrimary, 0x20, FormatImm, kindLoad},
	CmdLH:    {"LH", classPrimary, 0x21, FormatImm, kindLoad},
	CmdLWL:   {"LWL", classPrimary, 0x22, FormatImm, kindLoad},
	CmdLW:    {"LW", classPrimary, 0x23, FormatImm, kindLoad},
	CmdLBU:   {"LBU", classPrimary, 0x24, FormatImm, kindLoad},
	CmdLHU:   {"LHU", classPrimary, 0x25, FormatImm, kindLoad},
	CmdLWR:   {"LWR", classPrimary, 0x26, FormatImm, kindLoad},
	CmdSB:    {"SB", classPrimary, 0x28, FormatImm, kindStore},
	CmdSH:    {"SH", classPrimary, 0x29, FormatImm, kindStore},
	CmdSWL:   {"SWL", classPrimary, 0x2A, FormatImm, kindStore},
	CmdSW:    {"SW", classPrimary, 0x2B, FormatImm, kindStore},
	CmdSWR:   {"SWR", classPrimary, 0x2E, FormatImm, kindStore},
	CmdCACHE: {"CACHE", classPrimary, 0x2F, FormatCache, kindOther},
	CmdLWC1:  {"LWC1", classPrimary, 0x31, FormatImm, kindLoad},
	CmdLD:    {"LD", classPrimary, 0x37, FormatImm, kindLoad},
	CmdSWC1:  {"SWC1", classPrimary, 0x39, FormatImm, kindStore},
	CmdSD:    {"SD", classPrimary, 0x3F, FormatImm, kindStore},

	CmdMFC0: {"MFC0", classCop0, 0x00, FormatCop0, kindOther},
	CmdMTC0: {"MTC0", classCop0, 0x04, FormatCop0, kindOther},
}

// Lookup tables indexed by the selector field of each class.
var (
	primaryTable [64]Cmd
	specialTable [64]Cmd
	regimmTable  [32]Cmd
	cop0Table    [32]Cmd
	cmdByName    = map[string]Cmd{}
)

func init() {
	for c := Cmd(1); c < numCmds; c++ {
		enc := encodings[c]
		switch enc.class {
		case classPrimary:
			primaryTable[enc.code] = c
		case classSpecial:
			specialTable[enc.code] = c
		case classRegimm:
			regimmTable[enc.code] = c
		case classCop0:
			cop0Table[enc.code] = c
		}
		cmdByName[enc.name] = c
	}
}

// String returns the mnemonic.
func (c Cmd) String() string {
	if c < numCmds {
		return encodings[c].name
	}
	return encodings[CmdUnknown].name
}

// Format returns the operand layout used by the mnemonic.
func (c Cmd) Format() Format {
	if c < numCmds {
		return encodings[c].format
	}
	return FormatUnknown
}

// ParseCmd looks a mnemonic up by name, case-insensitively.
func ParseCmd(name string) (Cmd, bool) {
	c, ok := cmdByName[strings.ToUpper(strings.TrimSpace(name))]
	return c, ok
}
