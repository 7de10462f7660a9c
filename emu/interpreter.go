package emu

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/mem"
)

// Result is the outcome of one bounded run.
type Result struct {
	// Regs is the register file after the last instruction.
	Regs RegFile

	// Stores lists every executed store in program order.
	Stores []Store

	// Executed is the number of instructions fetched from inside the image.
	Executed int
}

// StoredValues returns the distinct non-zero values written by the run's
// stores, in ascending order.
func (r Result) StoredValues() []uint32 {
	values := make([]uint32, 0, len(r.Stores))
	for _, s := range r.Stores {
		if s.Value != 0 {
			values = append(values, s.Value)
		}
	}
	slices.Sort(values)
	return slices.Compact(values)
}

// Interpreter executes a straight-line window of instructions. Branches,
// jumps and calls never redirect the PC, so every run visits exactly the
// words it was asked to. Coprocessor moves, CACHE and SYNC have no effect.
type Interpreter struct {
	image   *mem.Image
	decoder *insts.Decoder
	logger  *log.Logger
	seeds   map[insts.Register]uint32
}

// InterpreterOption is a functional option for configuring the Interpreter.
type InterpreterOption func(*Interpreter)

// WithRegister seeds a register before every run.
func WithRegister(reg insts.Register, value uint32) InterpreterOption {
	return func(in *Interpreter) {
		in.seeds[reg] = value
	}
}

// WithGP seeds the global pointer so GP-relative stores resolve to their
// real addresses.
func WithGP(gp uint32) InterpreterOption {
	return WithRegister(insts.RegGP, gp)
}

// WithLogger traces every executed instruction at debug level.
func WithLogger(logger *log.Logger) InterpreterOption {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// NewInterpreter creates an interpreter over img.
func NewInterpreter(img *mem.Image, opts ...InterpreterOption) *Interpreter {
	in := &Interpreter{
		image:   img,
		decoder: insts.NewDecoder(),
		seeds:   make(map[insts.Register]uint32),
	}

	for _, opt := range opts {
		opt(in)
	}

	return in
}

// Run executes count instructions starting at the byte address startPC.
// Each run starts from a fresh register file holding only the seeded
// values; words outside the image are skipped.
func (in *Interpreter) Run(startPC uint32, count int) Result {
	regFile := &RegFile{PC: startPC}
	for reg, v := range in.seeds {
		regFile.WriteReg(reg, v)
	}

	alu := NewALU(regFile)
	lsu := NewLoadStoreUnit(regFile, in.image)

	executed := 0
	for n := 0; n < count; n++ {
		if i, ok := in.image.Index(regFile.PC); ok {
			inst := in.decoder.Decode(in.image.Word(i))
			if in.logger != nil {
				in.logger.Debug("exec", "pc", regFile.PC, "inst", inst)
			}
			in.execute(regFile, alu, lsu, inst)
			executed++
		}
		regFile.PC += 4
	}

	return Result{
		Regs:     *regFile,
		Stores:   lsu.Stores(),
		Executed: executed,
	}
}

// execute dispatches a decoded instruction. It never touches the PC.
func (in *Interpreter) execute(regFile *RegFile, alu *ALU, lsu *LoadStoreUnit, inst insts.Instruction) {
	pc := regFile.PC

	switch inst.Cmd {
	case insts.CmdADD, insts.CmdADDU:
		alu.ADDU(inst.Rd, inst.Rs, inst.Rt)
	case insts.CmdSUB, insts.CmdSUBU:
		alu.SUBU(inst.Rd, inst.Rs, inst.Rt)
	case insts.CmdAND:
		alu.AND(inst.Rd, inst.Rs, inst.Rt)
	case insts.CmdOR:
		alu.OR(inst.Rd, inst.Rs, inst.Rt)
	case insts.CmdXOR:
		alu.XOR(inst.Rd, inst.Rs, inst.Rt)
	case insts.CmdNOR:
		alu.NOR(inst.Rd, inst.Rs, inst.Rt)
	case insts.CmdSLT:
		alu.SLT(inst.Rd, inst.Rs, inst.Rt)
	case insts.CmdSLTU:
		alu.SLTU(inst.Rd, inst.Rs, inst.Rt)

	case insts.CmdSLL:
		alu.SLL(inst.Rd, inst.Rt, inst.Shamt)
	case insts.CmdSRL:
		alu.SRL(inst.Rd, inst.Rt, inst.Shamt)
	case insts.CmdSRA:
		alu.SRA(inst.Rd, inst.Rt, inst.Shamt)
	case insts.CmdSLLV:
		alu.SLLV(inst.Rd, inst.Rt, inst.Rs)
	case insts.CmdSRLV:
		alu.SRLV(inst.Rd, inst.Rt, inst.Rs)
	case insts.CmdSRAV:
		alu.SRAV(inst.Rd, inst.Rt, inst.Rs)

	case insts.CmdMULT:
		alu.MULT(inst.Rs, inst.Rt)
	case insts.CmdMULTU:
		alu.MULTU(inst.Rs, inst.Rt)
	case insts.CmdDIV:
		alu.DIV(inst.Rs, inst.Rt)
	case insts.CmdDIVU:
		alu.DIVU(inst.Rs, inst.Rt)
	case insts.CmdMFHI:
		alu.MFHI(inst.Rd)
	case insts.CmdMFLO:
		alu.MFLO(inst.Rd)
	case insts.CmdMTHI:
		alu.MTHI(inst.Rs)
	case insts.CmdMTLO:
		alu.MTLO(inst.Rs)

	case insts.CmdADDI, insts.CmdADDIU:
		alu.ADDIU(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdSLTI:
		alu.SLTI(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdSLTIU:
		alu.SLTIU(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdANDI:
		alu.ANDI(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdORI:
		alu.ORI(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdXORI:
		alu.XORI(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdLUI:
		alu.LUI(inst.Rt, inst.Imm)

	case insts.CmdLW:
		lsu.LW(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdLH:
		lsu.LH(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdLHU:
		lsu.LHU(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdLB:
		lsu.LB(inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdLBU:
		lsu.LBU(inst.Rt, inst.Rs, inst.Imm)

	case insts.CmdSW:
		lsu.SW(pc, inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdSH:
		lsu.SH(pc, inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdSB:
		lsu.SB(pc, inst.Rt, inst.Rs, inst.Imm)
	case insts.CmdSWL, insts.CmdSWR, insts.CmdSD:
		lsu.StoreUnaligned(pc, inst.Cmd, inst.Rt, inst.Rs, inst.Imm)
	}

	// Everything else (branches, jumps, JAL, unaligned and FPU loads, COP0,
	// CACHE, SYNC, SYSCALL, BREAK, unknown words) is a no-op. JAL does not
	// write RA.
}

// RunBefore runs the window instructions preceding callSite plus the call
// and its delay slot.
func RunBefore(img *mem.Image, callSite, window int, opts ...InterpreterOption) Result {
	start := img.Addr(callSite) - uint32(4*window)
	return NewInterpreter(img, opts...).Run(start, window+2)
}

// ArgumentAt returns the value of reg at the call at callSite, interpreting
// the window instructions before it plus the delay slot.
func ArgumentAt(img *mem.Image, callSite int, reg insts.Register, window int, opts ...InterpreterOption) uint32 {
	res := RunBefore(img, callSite, window, opts...)
	return res.Regs.ReadReg(reg)
}
