package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/emu"
	"github.com/sarchlab/mipscan/insts"
)

var _ = Describe("ALU", func() {
	var (
		regFile *emu.RegFile
		alu     *emu.ALU
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		alu = emu.NewALU(regFile)
	})

	Describe("RegFile", func() {
		It("should keep R0 at zero", func() {
			regFile.WriteReg(insts.RegR0, 42)
			Expect(regFile.ReadReg(insts.RegR0)).To(BeZero())
		})

		It("should ignore the placeholder register", func() {
			regFile.WriteReg(insts.RegAny, 42)
			Expect(regFile.ReadReg(insts.RegAny)).To(BeZero())
		})
	})

	Describe("register operations", func() {
		BeforeEach(func() {
			regFile.WriteReg(insts.RegA0, 0xFFFFFFFE) // -2
			regFile.WriteReg(insts.RegA1, 3)
		})

		It("should add and subtract with wraparound", func() {
			alu.ADDU(insts.RegV0, insts.RegA0, insts.RegA1)
			Expect(regFile.ReadReg(insts.RegV0)).To(Equal(uint32(1)))

			alu.SUBU(insts.RegV1, insts.RegA1, insts.RegA0)
			Expect(regFile.ReadReg(insts.RegV1)).To(Equal(uint32(5)))
		})

		It("should apply the logical ops", func() {
			alu.AND(insts.RegT0, insts.RegA0, insts.RegA1)
			alu.OR(insts.RegT1, insts.RegA0, insts.RegA1)
			alu.XOR(insts.RegT2, insts.RegA0, insts.RegA1)
			alu.NOR(insts.RegT3, insts.RegR0, insts.RegA1)

			Expect(regFile.ReadReg(insts.RegT0)).To(Equal(uint32(2)))
			Expect(regFile.ReadReg(insts.RegT1)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(regFile.ReadReg(insts.RegT2)).To(Equal(uint32(0xFFFFFFFD)))
			Expect(regFile.ReadReg(insts.RegT3)).To(Equal(uint32(0xFFFFFFFC)))
		})

		It("should compare signed and unsigned", func() {
			alu.SLT(insts.RegT0, insts.RegA0, insts.RegA1)
			alu.SLTU(insts.RegT1, insts.RegA0, insts.RegA1)

			Expect(regFile.ReadReg(insts.RegT0)).To(Equal(uint32(1)))
			Expect(regFile.ReadReg(insts.RegT1)).To(BeZero())
		})

		It("should multiply into HI and LO", func() {
			alu.MULT(insts.RegA0, insts.RegA1)
			Expect(regFile.LO).To(Equal(uint32(0xFFFFFFFA)))
			Expect(regFile.HI).To(Equal(uint32(0xFFFFFFFF)))

			alu.MULTU(insts.RegA0, insts.RegA1)
			Expect(regFile.LO).To(Equal(uint32(0xFFFFFFFA)))
			Expect(regFile.HI).To(Equal(uint32(2)))
		})

		It("should divide and leave HI/LO alone on division by zero", func() {
			regFile.WriteReg(insts.RegT0, 7)
			alu.DIV(insts.RegT0, insts.RegA1)
			Expect(regFile.LO).To(Equal(uint32(2)))
			Expect(regFile.HI).To(Equal(uint32(1)))

			alu.DIVU(insts.RegT0, insts.RegR0)
			Expect(regFile.LO).To(Equal(uint32(2)))
			Expect(regFile.HI).To(Equal(uint32(1)))

			alu.MFLO(insts.RegV0)
			alu.MFHI(insts.RegV1)
			Expect(regFile.ReadReg(insts.RegV0)).To(Equal(uint32(2)))
			Expect(regFile.ReadReg(insts.RegV1)).To(Equal(uint32(1)))
		})
	})

	Describe("immediate operations", func() {
		It("should sign-extend ADDIU and zero-extend the logical immediates", func() {
			alu.ADDIU(insts.RegT0, insts.RegR0, -1)
			alu.ORI(insts.RegT1, insts.RegR0, -1)
			alu.ANDI(insts.RegT2, insts.RegT0, 0x00F0)
			alu.XORI(insts.RegT3, insts.RegT0, 0x00FF)

			Expect(regFile.ReadReg(insts.RegT0)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(regFile.ReadReg(insts.RegT1)).To(Equal(uint32(0x0000FFFF)))
			Expect(regFile.ReadReg(insts.RegT2)).To(Equal(uint32(0xF0)))
			Expect(regFile.ReadReg(insts.RegT3)).To(Equal(uint32(0xFFFFFF00)))
		})

		It("should build addresses with LUI and ADDIU", func() {
			alu.LUI(insts.RegA2, int16(-0x7FFD)) // 0x8003
			alu.ADDIU(insts.RegA2, insts.RegA2, 0x3000)
			Expect(regFile.ReadReg(insts.RegA2)).To(Equal(uint32(0x80033000)))

			alu.ADDIU(insts.RegA2, insts.RegA2, -0x10)
			Expect(regFile.ReadReg(insts.RegA2)).To(Equal(uint32(0x80032FF0)))
		})

		It("should compare against immediates", func() {
			regFile.WriteReg(insts.RegA0, 5)
			alu.SLTI(insts.RegT0, insts.RegA0, -1)
			alu.SLTIU(insts.RegT1, insts.RegA0, -1)

			Expect(regFile.ReadReg(insts.RegT0)).To(BeZero())
			Expect(regFile.ReadReg(insts.RegT1)).To(Equal(uint32(1)))
		})
	})

	Describe("shifts", func() {
		BeforeEach(func() {
			regFile.WriteReg(insts.RegA0, 0x80000010)
			regFile.WriteReg(insts.RegA1, 36) // shifts use the low 5 bits
		})

		It("should shift by an amount", func() {
			alu.SLL(insts.RegT0, insts.RegA0, 4)
			alu.SRL(insts.RegT1, insts.RegA0, 4)
			alu.SRA(insts.RegT2, insts.RegA0, 4)

			Expect(regFile.ReadReg(insts.RegT0)).To(Equal(uint32(0x00000100)))
			Expect(regFile.ReadReg(insts.RegT1)).To(Equal(uint32(0x08000001)))
			Expect(regFile.ReadReg(insts.RegT2)).To(Equal(uint32(0xF8000001)))
		})

		It("should shift by a register", func() {
			alu.SLLV(insts.RegT0, insts.RegA0, insts.RegA1)
			alu.SRLV(insts.RegT1, insts.RegA0, insts.RegA1)
			alu.SRAV(insts.RegT2, insts.RegA0, insts.RegA1)

			Expect(regFile.ReadReg(insts.RegT0)).To(Equal(uint32(0x00000100)))
			Expect(regFile.ReadReg(insts.RegT1)).To(Equal(uint32(0x08000001)))
			Expect(regFile.ReadReg(insts.RegT2)).To(Equal(uint32(0xF8000001)))
		})
	})
})
