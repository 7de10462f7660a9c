package insts

import (
	"fmt"
	"strings"
)

// String renders the instruction in a conventional assembler syntax.
func (i Instruction) String() string {
	if i.Cmd == CmdUnknown {
		return fmt.Sprintf(".word 0x%08X", i.Raw)
	}
	if i.Cmd == CmdSLL && i.Rd == RegR0 && i.Rt == RegR0 && i.Shamt == 0 {
		return "NOP"
	}

	var ops string
	switch i.Format {
	case FormatR3:
		ops = fmt.Sprintf("%v, %v, %v", i.Rd, i.Rs, i.Rt)
	case FormatShift:
		ops = fmt.Sprintf("%v, %v, %d", i.Rd, i.Rt, i.Shamt)
	case FormatShiftV:
		ops = fmt.Sprintf("%v, %v, %v", i.Rd, i.Rt, i.Rs)
	case FormatJR, FormatMoveTo:
		ops = i.Rs.String()
	case FormatJALR:
		ops = fmt.Sprintf("%v, %v", i.Rd, i.Rs)
	case FormatMoveFrom:
		ops = i.Rd.String()
	case FormatMulDiv:
		ops = fmt.Sprintf("%v, %v", i.Rs, i.Rt)
	case FormatCode:
		if i.Code != 0 {
			ops = fmt.Sprintf("0x%X", i.Code)
		}
	case FormatSync:
		if i.Shamt != 0 {
			ops = fmt.Sprintf("%d", i.Shamt)
		}
	case FormatImm:
		ops = i.immOperands()
	case FormatLUI:
		ops = fmt.Sprintf("%v, 0x%X", i.Rt, uint16(i.Imm))
	case FormatBranchZ:
		ops = fmt.Sprintf("%v, %s", i.Rs, signedHex(int32(i.Imm)<<2))
	case FormatJump:
		ops = fmt.Sprintf("0x%X", i.Target)
	case FormatCache:
		ops = fmt.Sprintf("0x%X, %s(%v)", i.CacheOp, signedHex(int32(i.Imm)), i.Rs)
	case FormatCop0:
		ops = fmt.Sprintf("%v, %s", i.Rt, Cop0Name(i.CopReg))
	}

	if ops == "" {
		return i.Cmd.String()
	}
	return fmt.Sprintf("%-8s%s", i.Cmd.String(), ops)
}

func (i Instruction) immOperands() string {
	switch {
	case i.IsLoad() || i.IsStore():
		return fmt.Sprintf("%v, %s(%v)", i.Rt, signedHex(int32(i.Imm)), i.Rs)
	case i.IsBranch():
		return fmt.Sprintf("%v, %v, %s", i.Rs, i.Rt, signedHex(int32(i.Imm)<<2))
	case i.Cmd == CmdANDI || i.Cmd == CmdORI || i.Cmd == CmdXORI:
		return fmt.Sprintf("%v, %v, 0x%X", i.Rt, i.Rs, uint16(i.Imm))
	default:
		return fmt.Sprintf("%v, %v, %s", i.Rt, i.Rs, signedHex(int32(i.Imm)))
	}
}

func signedHex(v int32) string {
	if v < 0 {
		return fmt.Sprintf("-0x%X", -int64(v))
	}
	return fmt.Sprintf("0x%X", v)
}

// Disassemble renders consecutive words starting at addr, one per line.
func Disassemble(words []uint32, addr uint32) string {
	var sb strings.Builder
	for n, w := range words {
		fmt.Fprintf(&sb, "%08X: %08X  %s\n", addr+uint32(n)*4, w, Decode(w))
	}
	return sb.String()
}
