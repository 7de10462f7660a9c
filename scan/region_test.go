package scan_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/scan"
)

var _ = Describe("Structural matching", func() {
	var img *mem.Image

	BeforeEach(func() {
		words := make([]uint32, 64)
		words[8] = 0x27BDFFE8 // ADDIU SP, SP, -0x18
		words[9] = 0xAFBF0014
		words[10] = jal(24)
		words[12] = jal(40)
		words[14] = jal(30)
		words[16] = jal(24)
		words[18] = 0x27BD0018 // ADDIU SP, SP, 0x18
		img = mem.New(words)
	})

	Describe("CountCalls", func() {
		It("should count distinct callees", func() {
			Expect(scan.CountCalls(img, scan.Region{Start: 10, End: 17})).To(Equal(3))
		})

		It("should treat the end as exclusive", func() {
			Expect(scan.CountCalls(img, scan.Region{Start: 10, End: 14})).To(Equal(2))
			Expect(scan.CountCalls(img, scan.Region{Start: 10, End: 15})).To(Equal(3))
		})

		It("should clip regions to the image", func() {
			Expect(scan.CountCalls(img, scan.Region{Start: -10, End: 1000})).To(Equal(3))
			Expect(scan.CountCalls(img, scan.Region{Start: 20, End: 10})).To(BeZero())
		})
	})

	Describe("FindPrologue", func() {
		It("should find the nearest frame allocation", func() {
			off, err := scan.FindPrologue(img, 10, 0x10)
			Expect(err).ToNot(HaveOccurred())
			Expect(off).To(Equal(8))
		})

		It("should stop before the scan limit", func() {
			_, err := scan.FindPrologue(img, 10, 2)
			Expect(err).To(MatchError(scan.ErrPrologueNotFound))

			off, err := scan.FindPrologue(img, 10, 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(off).To(Equal(8))
		})

		It("should ignore frame releases", func() {
			off, err := scan.FindPrologue(img, 20, 0x20)
			Expect(err).ToNot(HaveOccurred())
			Expect(off).To(Equal(8))
		})

		It("should not scan below offset 0", func() {
			_, err := scan.FindPrologue(img, 4, 0x100)
			Expect(err).To(MatchError(scan.ErrPrologueNotFound))
		})
	})

	It("should recognize ADDIU SP, SP, -N as a prologue", func() {
		Expect(scan.IsPrologue(insts.Decode(0x27BDFFE8))).To(BeTrue())
		Expect(scan.IsPrologue(insts.Decode(0x27BD0018))).To(BeFalse())
		// ADDIU SP, A0, -0x18
		Expect(scan.IsPrologue(insts.Decode(0x249DFFE8))).To(BeFalse())
	})

	It("should measure regions", func() {
		Expect(scan.Region{Start: 3, End: 7}.Len()).To(Equal(4))
		Expect(scan.Region{Start: 7, End: 3}.Len()).To(BeZero())
	})
})
