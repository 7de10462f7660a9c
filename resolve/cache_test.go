package resolve_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/internal/fixture"
	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/resolve"
)

var _ = Describe("CachedResolver", func() {
	var c *resolve.CachedResolver

	BeforeEach(func() {
		c = resolve.NewCachedResolver(resolve.NewResolver(), 2)
	})

	It("should resolve an unchanged image once", func() {
		first, err := c.Resolve(fixture.Image())
		Expect(err).ToNot(HaveOccurred())

		again, err := c.Resolve(fixture.Image())
		Expect(err).ToNot(HaveOccurred())
		Expect(again).To(BeIdenticalTo(first))
		Expect(c.Len()).To(Equal(1))
	})

	It("should cache failures too", func() {
		empty := mem.New(make([]uint32, 64))

		_, err := c.Resolve(empty)
		Expect(err).To(MatchError(resolve.ErrExhausted))
		_, err = c.Resolve(empty)
		Expect(err).To(MatchError(resolve.ErrExhausted))
		Expect(c.Len()).To(Equal(1))
	})

	It("should evict the oldest image", func() {
		for n := 1; n <= 3; n++ {
			_, _ = c.Resolve(mem.New(make([]uint32, n)))
		}
		Expect(c.Len()).To(Equal(2))

		c.Purge()
		Expect(c.Len()).To(Equal(0))
	})
})
