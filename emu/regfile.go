// Package emu provides a bounded, straight-line MIPS interpreter used to
// recover argument values and stored constants around call sites.
package emu

import "github.com/sarchlab/mipscan/insts"

// RegFile represents the MIPS integer register file.
type RegFile struct {
	// GPR holds R0-RA. GPR[0] is never written and always reads as 0.
	GPR [insts.NumGPR]uint32

	// PC is the program counter.
	PC uint32

	// HI and LO hold multiply/divide results.
	HI uint32
	LO uint32
}

// ReadReg reads a register value. R0 and the RegAny placeholder read as 0.
func (r *RegFile) ReadReg(reg insts.Register) uint32 {
	if reg == insts.RegR0 || int(reg) >= insts.NumGPR {
		return 0
	}
	return r.GPR[reg]
}

// WriteReg writes a register value. Writes to R0 and RegAny are ignored.
func (r *RegFile) WriteReg(reg insts.Register, value uint32) {
	if reg == insts.RegR0 || int(reg) >= insts.NumGPR {
		return
	}
	r.GPR[reg] = value
}
