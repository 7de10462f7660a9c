package scan_test

import (
	"encoding/json"

	fuzz "github.com/google/gofuzz"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/scan"
)

var _ = Describe("MaskPair", func() {
	// MFC0 __, Status
	mfc0 := scan.MaskPair{Value: 0x40006000, Mask: 0x001F0000}

	It("should match any non-zero register in the masked field", func() {
		Expect(mfc0.Matches(0x40086000)).To(BeTrue())
		Expect(mfc0.Matches(0x400C6000)).To(BeTrue())
	})

	It("should not match when every masked bit is clear", func() {
		Expect(mfc0.Matches(0x40006000)).To(BeFalse())
	})

	It("should not match when a fixed bit differs", func() {
		Expect(mfc0.Matches(0x40084800)).To(BeFalse())
	})

	It("should treat a zero mask as an exact comparison", func() {
		nop := scan.MaskPair{}
		Expect(nop.Matches(0)).To(BeTrue())
		Expect(nop.Matches(1)).To(BeFalse())
	})

	Describe("text form", func() {
		It("should render and parse masked pairs", func() {
			text, err := mfc0.MarshalText()
			Expect(err).ToNot(HaveOccurred())
			Expect(string(text)).To(Equal("40006000/001F0000"))

			var p scan.MaskPair
			Expect(p.UnmarshalText(text)).To(Succeed())
			Expect(p).To(Equal(mfc0))
		})

		It("should parse a bare value as an exact pair", func() {
			var p scan.MaskPair
			Expect(p.UnmarshalText([]byte("0x03E00008"))).To(Succeed())
			Expect(p).To(Equal(scan.MaskPair{Value: 0x03E00008}))
		})

		It("should reject a value that overlaps its mask", func() {
			var p scan.MaskPair
			Expect(p.UnmarshalText([]byte("40086000/001F0000"))).ToNot(Succeed())
		})

		It("should reject garbage", func() {
			var p scan.MaskPair
			Expect(p.UnmarshalText([]byte("zz"))).ToNot(Succeed())
			Expect(p.UnmarshalText([]byte("00000000/xyz"))).ToNot(Succeed())
		})

		It("should work inside JSON documents", func() {
			in := []scan.MaskPair{mfc0, {Value: 0x03E00008}}
			data, err := json.Marshal(in)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal(`["40006000/001F0000","03E00008"]`))

			var out []scan.MaskPair
			Expect(json.Unmarshal(data, &out)).To(Succeed())
			Expect(out).To(Equal(in))
		})
	})
})

var _ = Describe("FindAll", func() {
	words := []uint32{
		0x40086000, 0x2401FFFE, 0x01014824, 0x40896000, // 0
		0x00000000, 0x40086000, 0x2401FFFE, 0x00000000, // 4
		0x400C6000, 0x2401FFFE, 0x03E00008, 0x00000000, // 8
	}
	img := mem.New(words)

	sig := []scan.MaskPair{
		{Value: 0x40006000, Mask: 0x001F0000},
		{Value: 0x2400FFFE, Mask: 0x001F0000},
	}

	It("should return every match in ascending order", func() {
		Expect(scan.FindAll(img, sig)).To(Equal([]int{0, 5, 8}))
	})

	It("should return nothing for a signature longer than the image", func() {
		long := make([]scan.MaskPair, img.Len()+1)
		Expect(scan.FindAll(img, long)).To(BeEmpty())
		Expect(scan.FindAll(img, nil)).To(BeEmpty())
	})

	It("should find the first match", func() {
		off, err := scan.FindFirst(img, sig)
		Expect(err).ToNot(HaveOccurred())
		Expect(off).To(Equal(0))
	})

	It("should report a missing pattern", func() {
		_, err := scan.FindFirst(img, scan.Exact(0xDEADBEEF))
		Expect(err).To(MatchError(scan.ErrPatternNotFound))
	})

	It("should find exact sequences and single words", func() {
		Expect(scan.FindAllExact(img, []uint32{0x00000000, 0x40086000})).To(Equal([]int{4}))
		Expect(scan.FindWord(img, 0x00000000)).To(Equal([]int{4, 7, 11}))
	})

	It("should report overlapping matches and a match ending on the last word", func() {
		img := mem.New([]uint32{7, 7, 7, 1, 7, 7})
		Expect(scan.FindAllExact(img, []uint32{7, 7})).To(Equal([]int{0, 1, 4}))
		Expect(scan.FindAll(img, scan.Exact(7, 7))).To(Equal([]int{0, 1, 4}))
	})

	Context("on random images", func() {
		var (
			f      *fuzz.Fuzzer
			random []uint32
		)

		BeforeEach(func() {
			f = fuzz.New().NilChance(0).NumElements(16, 256)
			random = nil
			f.Fuzz(&random)
		})

		It("should find a window copied out of the image at its own offset", func() {
			img := mem.New(random)
			for range 20 {
				var at uint8
				f.Fuzz(&at)
				o := int(at) % (img.Len() - 4)

				Expect(scan.FindAllExact(img, img.Words(o, o+4))).To(ContainElement(o))
				Expect(scan.FindAll(img, scan.Exact(img.Words(o, o+4)...))).To(ContainElement(o))
			}
		})

		It("should only report offsets where every pair matches", func() {
			img := mem.New(random)
			mask := []scan.MaskPair{{Value: 0, Mask: 0xFFFF0000}, {Value: 0, Mask: 0xFFFFFFFF}}
			for _, o := range scan.FindAll(img, mask) {
				Expect(mask[0].Matches(img.Word(o))).To(BeTrue())
				Expect(mask[1].Matches(img.Word(o + 1))).To(BeTrue())
			}
		})

		// Random words keep bit 31 clear so that only injected marker words
		// have it set.
		clean := func() []uint32 {
			words := make([]uint32, len(random))
			for i, w := range random {
				words[i] = w &^ 0x80000000
			}
			return words
		}

		It("should return exactly the injected offsets", func() {
			needle := []uint32{0x80000001, 0x80000002, 0x80000003}
			masked := []scan.MaskPair{
				{Value: 0x80000000, Mask: 0x7FFFFFFF},
				{Value: 0x80000000, Mask: 0x7FFFFFFF},
				{Value: 0x80000000, Mask: 0x7FFFFFFF},
			}
			n := len(needle)

			for range 20 {
				words := clean()
				last := len(words) - n

				var at uint8
				f.Fuzz(&at)
				mid := n + 1 + int(at)%(last-2*n-1)

				for _, o := range []int{0, mid, last} {
					copy(words[o:], needle)
				}
				img := mem.New(words)

				want := []int{0, mid, last}
				Expect(scan.FindAllExact(img, needle)).To(Equal(want))
				Expect(scan.FindAll(img, scan.Exact(needle...))).To(Equal(want))
				Expect(scan.FindAll(img, masked)).To(Equal(want))
			}
		})

		It("should return every offset of a self-overlapping run", func() {
			const marker = 0x80000007
			words := clean()
			last := len(words) - 2
			copy(words, []uint32{marker, marker, marker})
			copy(words[last:], []uint32{marker, marker})
			img := mem.New(words)

			want := []int{0, 1, last}
			Expect(scan.FindAllExact(img, []uint32{marker, marker})).To(Equal(want))
			Expect(scan.FindAll(img, scan.Exact(marker, marker))).To(Equal(want))
		})

		It("should agree with the exact matcher for mask-free signatures", func() {
			img := mem.New(random)
			needle := img.Words(3, 5)
			Expect(scan.FindAll(img, scan.Exact(needle...))).To(Equal(scan.FindAllExact(img, needle)))
		})
	})
})
