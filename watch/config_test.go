package watch_test

import (
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/watch"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "watch-config-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Default Config", func() {
		It("should create a valid default config", func() {
			cfg := watch.DefaultConfig()
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.PollInterval().Milliseconds()).To(Equal(int64(30)))
			Expect(cfg.RescanInterval().Seconds()).To(Equal(1.0))
			Expect(cfg.IdleTimeout().Seconds()).To(Equal(5.0))
			Expect(cfg.RAMSize).To(Equal(uint32(0x400000)))
		})
	})

	Describe("Save and Load", func() {
		It("should survive a round trip", func() {
			cfg := watch.DefaultConfig()
			cfg.BaseHints = []uint64{0x7F3A00000000}
			cfg.MagicOffset = 0x20

			path := filepath.Join(tempDir, "watch.json")
			Expect(cfg.SaveConfig(path)).To(Succeed())

			loaded, err := watch.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(cfg, loaded)).To(BeEmpty())
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"poll_interval_ms": 16}`), 0644)).To(Succeed())

			cfg, err := watch.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.PollIntervalMs).To(Equal(uint64(16)))
			Expect(cfg.Magic).To(Equal(uint32(0x3C1A8000)))
		})

		It("should report unreadable and malformed files", func() {
			_, err := watch.LoadConfig(filepath.Join(tempDir, "missing.json"))
			Expect(err).To(HaveOccurred())

			path := filepath.Join(tempDir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"poll_interval_ms": "fast"}`), 0644)).To(Succeed())
			_, err = watch.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})

	DescribeTable("should reject invalid values",
		func(mutate func(*watch.Config)) {
			cfg := watch.DefaultConfig()
			mutate(cfg)
			Expect(cfg.Validate()).NotTo(Succeed())
		},
		Entry("zero poll interval", func(c *watch.Config) { c.PollIntervalMs = 0 }),
		Entry("rescan faster than poll", func(c *watch.Config) { c.RescanIntervalMs = 10 }),
		Entry("unaligned RAM size", func(c *watch.Config) { c.RAMSize = 0x400001 }),
		Entry("empty mask", func(c *watch.Config) { c.MagicMask = 0 }),
		Entry("magic outside mask", func(c *watch.Config) { c.Magic = 0x3C1A8001 }),
		Entry("byte order", func(c *watch.Config) { c.ByteOrder = "middle" }),
		Entry("strategy", func(c *watch.Config) { c.Strategy = "closest" }),
	)

	It("should clone deeply", func() {
		cfg := watch.DefaultConfig()
		cfg.BaseHints = []uint64{1, 2}

		clone := cfg.Clone()
		clone.BaseHints[0] = 9
		clone.PollIntervalMs = 1

		Expect(cfg.BaseHints[0]).To(Equal(uint64(1)))
		Expect(cfg.PollIntervalMs).To(Equal(uint64(30)))
	})
})
