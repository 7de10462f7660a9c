package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Immediate ALU", func() {
		// ADDIU SP, SP, -0x18 -> 0x27BDFFE8
		It("should decode a frame allocation", func() {
			inst := decoder.Decode(0x27BDFFE8)

			Expect(inst.Cmd).To(Equal(insts.CmdADDIU))
			Expect(inst.Format).To(Equal(insts.FormatImm))
			Expect(inst.Rt).To(Equal(insts.RegSP))
			Expect(inst.Rs).To(Equal(insts.RegSP))
			Expect(inst.Imm).To(Equal(int16(-0x18)))
			Expect(inst.IsFrameAlloc()).To(BeTrue())
		})

		It("should not treat a frame release as an allocation", func() {
			// ADDIU SP, SP, 0x20
			inst := decoder.Decode(0x27BD0020)
			Expect(inst.Cmd).To(Equal(insts.CmdADDIU))
			Expect(inst.IsFrameAlloc()).To(BeFalse())
		})

		// LUI GP, 0x8003 -> 0x3C1C8003
		It("should decode LUI", func() {
			inst := decoder.Decode(0x3C1C8003)

			Expect(inst.Cmd).To(Equal(insts.CmdLUI))
			Expect(inst.Format).To(Equal(insts.FormatLUI))
			Expect(inst.Rt).To(Equal(insts.RegGP))
			Expect(uint16(inst.Imm)).To(Equal(uint16(0x8003)))
		})

		It("should sign-extend the immediate", func() {
			// ADDIU GP, GP, -0x73B0
			inst := decoder.Decode(0x279C8C50)
			Expect(inst.Imm).To(Equal(int16(-0x73B0)))
		})
	})

	Describe("SPECIAL", func() {
		// AND T1, T0, AT -> 0x01014824
		It("should decode three-register ALU ops", func() {
			inst := decoder.Decode(0x01014824)

			Expect(inst.Cmd).To(Equal(insts.CmdAND))
			Expect(inst.Format).To(Equal(insts.FormatR3))
			Expect(inst.Rd).To(Equal(insts.RegT1))
			Expect(inst.Rs).To(Equal(insts.RegT0))
			Expect(inst.Rt).To(Equal(insts.RegAT))
		})

		It("should decode JR RA", func() {
			inst := decoder.Decode(0x03E00008)

			Expect(inst.Cmd).To(Equal(insts.CmdJR))
			Expect(inst.Rs).To(Equal(insts.RegRA))
		})

		It("should decode word 0 as SLL R0, R0, 0", func() {
			inst := decoder.Decode(0)

			Expect(inst.Cmd).To(Equal(insts.CmdSLL))
			Expect(inst.Rd).To(Equal(insts.RegR0))
			Expect(inst.Shamt).To(BeZero())
		})

		It("should decode shifts with an amount", func() {
			// SRL V0, A0, 16 -> 0x00041402
			inst := decoder.Decode(0x00041402)

			Expect(inst.Cmd).To(Equal(insts.CmdSRL))
			Expect(inst.Rd).To(Equal(insts.RegV0))
			Expect(inst.Rt).To(Equal(insts.RegA0))
			Expect(inst.Shamt).To(Equal(uint8(16)))
		})

		It("should decode MFLO", func() {
			// MFLO V0 -> 0x00001012
			inst := decoder.Decode(0x00001012)

			Expect(inst.Cmd).To(Equal(insts.CmdMFLO))
			Expect(inst.Rd).To(Equal(insts.RegV0))
		})
	})

	Describe("Jumps and branches", func() {
		It("should decode JAL with a byte-granular target", func() {
			inst := decoder.Decode(0x0C000030)

			Expect(inst.Cmd).To(Equal(insts.CmdJAL))
			Expect(inst.IsCall()).To(BeTrue())
			Expect(inst.Target).To(Equal(uint32(0xC0)))
			Expect(inst.JumpAddress(0x80000100)).To(Equal(uint32(0x800000C0)))
		})

		It("should decode BNE with a negative offset", func() {
			inst := decoder.Decode(0x1420FFFD)

			Expect(inst.Cmd).To(Equal(insts.CmdBNE))
			Expect(inst.IsBranch()).To(BeTrue())
			Expect(inst.Rs).To(Equal(insts.RegAT))
			Expect(inst.Rt).To(Equal(insts.RegR0))
			Expect(inst.Imm).To(Equal(int16(-3)))
			Expect(inst.BranchAddress(0x80000010)).To(Equal(uint32(0x80000008)))
		})

		It("should decode BLEZ", func() {
			inst := decoder.Decode(0x18A00011)

			Expect(inst.Cmd).To(Equal(insts.CmdBLEZ))
			Expect(inst.Rs).To(Equal(insts.RegA1))
			Expect(inst.Imm).To(Equal(int16(0x11)))
		})

		It("should decode REGIMM branches", func() {
			inst := decoder.Decode(0x04110003)

			Expect(inst.Cmd).To(Equal(insts.CmdBGEZAL))
			Expect(inst.Format).To(Equal(insts.FormatBranchZ))
			Expect(inst.Rs).To(Equal(insts.RegR0))
		})
	})

	Describe("Loads, stores and cache ops", func() {
		It("should decode SW RA, 0x1C(SP)", func() {
			inst := decoder.Decode(0xAFBF001C)

			Expect(inst.Cmd).To(Equal(insts.CmdSW))
			Expect(inst.IsStore()).To(BeTrue())
			Expect(inst.Rt).To(Equal(insts.RegRA))
			Expect(inst.Rs).To(Equal(insts.RegSP))
			Expect(inst.Imm).To(Equal(int16(0x1C)))
		})

		It("should decode LW as a load", func() {
			inst := decoder.Decode(0x8FBF001C)

			Expect(inst.Cmd).To(Equal(insts.CmdLW))
			Expect(inst.IsLoad()).To(BeTrue())
			Expect(inst.IsStore()).To(BeFalse())
		})

		It("should decode CACHE", func() {
			inst := decoder.Decode(0xBD190000)

			Expect(inst.Cmd).To(Equal(insts.CmdCACHE))
			Expect(inst.Rs).To(Equal(insts.RegT0))
			Expect(inst.CacheOp).To(Equal(uint8(0x19)))
		})
	})

	Describe("COP0", func() {
		It("should decode MFC0 T0, Status", func() {
			inst := decoder.Decode(0x40086000)

			Expect(inst.Cmd).To(Equal(insts.CmdMFC0))
			Expect(inst.Rt).To(Equal(insts.RegT0))
			Expect(inst.CopReg).To(Equal(insts.Cop0Status))
		})

		It("should decode MTC0 T1, Status", func() {
			inst := decoder.Decode(0x40896000)

			Expect(inst.Cmd).To(Equal(insts.CmdMTC0))
			Expect(inst.Rt).To(Equal(insts.RegT1))
			Expect(inst.CopReg).To(Equal(insts.Cop0Status))
		})

		It("should decode MFC0 V0, Count", func() {
			inst := decoder.Decode(0x40024800)

			Expect(inst.Cmd).To(Equal(insts.CmdMFC0))
			Expect(inst.Rt).To(Equal(insts.RegV0))
			Expect(inst.CopReg).To(Equal(insts.Cop0Count))
		})
	})

	Describe("Unknown words", func() {
		DescribeTable("should decode to CmdUnknown and keep the raw word",
			func(word uint32) {
				inst := decoder.Decode(word)
				Expect(inst.Cmd).To(Equal(insts.CmdUnknown))
				Expect(inst.Raw).To(Equal(word))
			},
			Entry("unassigned SPECIAL funct", uint32(0x00000001)),
			Entry("unsupported primary opcode", uint32(0xF8000000)),
			Entry("SLL with a non-zero rs", uint32(0x00200000)),
			Entry("ADDU with a non-zero shift amount", uint32(0x00000061)),
			Entry("JR with a non-zero rd", uint32(0x03E00808)),
			Entry("LUI with a non-zero rs", uint32(0x3C200001)),
			Entry("BLEZ with a non-zero rt", uint32(0x18A10001)),
			Entry("MFC0 with low bits set", uint32(0x40086001)),
		)
	})
})
