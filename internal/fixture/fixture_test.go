package fixture_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/internal/fixture"
	"github.com/sarchlab/mipscan/mem"
)

var _ = Describe("Bytes", func() {
	DescribeTable("should serialize every word",
		func(order binary.ByteOrder) {
			b := fixture.Bytes(order)
			Expect(b).To(HaveLen(fixture.Len * 4))
			Expect(order.Uint32(b)).To(Equal(fixture.Magic))

			img := mem.FromBytes(b, order)
			Expect(img.Words(0, img.Len())).To(Equal(fixture.Words()))
		},
		Entry("big endian", binary.BigEndian),
		Entry("little endian", binary.LittleEndian),
	)
})
