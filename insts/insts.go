// Package insts provides MIPS instruction definitions, decoding and encoding.
//
// This package maps 32-bit MIPS machine words to structured instruction
// representations and back. It covers the integer subset that shows up in
// libultra-era code:
//   - SPECIAL: shifts, HI/LO moves, multiply/divide, register ALU ops, JR, JALR
//   - REGIMM: BLTZ, BGEZ and their likely/link forms
//   - Immediate ALU ops, LUI, loads and stores, CACHE
//   - J, JAL and the conditional branches
//   - COP0 register moves (MFC0, MTC0)
//
// Decoding is total: a word outside the supported set, or one with non-zero
// bits in a field its mnemonic does not use, decodes to CmdUnknown and keeps
// the raw word, so every word survives a decode/encode round trip.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x27BDFFE8) // ADDIU SP, SP, -0x18
//	fmt.Printf("Cmd: %v, Rt: %v, Rs: %v, Imm: %d\n", inst.Cmd, inst.Rt, inst.Rs, inst.Imm)
package insts
