package watch_test

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipscan/internal/fixture"
	"github.com/sarchlab/mipscan/resolve"
	"github.com/sarchlab/mipscan/watch"
)

const (
	hostBase = 0x7F3A00000000
	ramSize  = 0x40000
	padWord  = 0x900040C0
)

// liveRAM returns the synthetic image as an emulator would hold it: host
// byte order, with a status word at the target address.
func liveRAM() []byte {
	ram := make([]byte, ramSize)
	copy(ram, fixture.Bytes(binary.LittleEndian))
	binary.LittleEndian.PutUint32(ram[fixture.Target&0xFFFFFF:], padWord)
	return ram
}

var _ = Describe("LocateRAM", func() {
	var cfg *watch.Config

	BeforeEach(func() {
		cfg = watch.DefaultConfig()
	})

	It("should find the magic at the start of a mapping", func() {
		src := &watch.BufferSource{Base: hostBase, Data: liveRAM()}

		base, err := watch.LocateRAM(src, cfg, binary.LittleEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(base).To(Equal(uint64(hostBase)))
	})

	It("should skip a header with the magic offset", func() {
		src := &watch.BufferSource{Base: hostBase, Data: append(make([]byte, 0x20), liveRAM()...)}
		cfg.MagicOffset = 0x20

		base, err := watch.LocateRAM(src, cfg, binary.LittleEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(base).To(Equal(uint64(hostBase + 0x20)))
	})

	It("should try the hints first", func() {
		src := &watch.BufferSource{Base: hostBase, Data: append(make([]byte, 0x40), liveRAM()...)}
		cfg.BaseHints = []uint64{0x1000, hostBase + 0x40}

		base, err := watch.LocateRAM(src, cfg, binary.LittleEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(base).To(Equal(uint64(hostBase + 0x40)))
	})

	It("should fail without the magic", func() {
		src := &watch.BufferSource{Base: hostBase, Data: make([]byte, 64)}

		_, err := watch.LocateRAM(src, cfg, binary.LittleEndian)
		Expect(errors.Is(err, watch.ErrRAMNotFound)).To(BeTrue())
	})

	It("should not match the magic in the wrong byte order", func() {
		src := &watch.BufferSource{Base: hostBase, Data: liveRAM()}

		_, err := watch.LocateRAM(src, cfg, binary.BigEndian)
		Expect(errors.Is(err, watch.ErrRAMNotFound)).To(BeTrue())
	})
})

var _ = Describe("Snapshot and Verify", func() {
	var (
		src *watch.BufferSource
		t   *resolve.Target
	)

	BeforeEach(func() {
		src = &watch.BufferSource{Base: hostBase, Data: liveRAM()}

		img, err := watch.Snapshot(src, hostBase, 0x400000, binary.LittleEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Len()).To(Equal(ramSize / 4))

		t, err = resolve.NewResolver().Resolve(img)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should accept unchanged memory", func() {
		Expect(watch.Verify(src, hostBase, t)).To(Succeed())

		pad, err := watch.ReadPad(src, hostBase, t, binary.LittleEndian)
		Expect(err).NotTo(HaveOccurred())
		Expect(pad).To(Equal(watch.DecodePad(padWord)))
	})

	It("should notice changed code", func() {
		src.Data[t.FingerprintByteOffset()+4] ^= 0xFF

		err := watch.Verify(src, hostBase, t)
		Expect(errors.Is(err, watch.ErrStale)).To(BeTrue())
	})

	It("should report unreadable memory as stale", func() {
		err := watch.Verify(src, hostBase+ramSize, t)
		Expect(errors.Is(err, watch.ErrStale)).To(BeTrue())
	})

	It("should fail on a snapshot outside memory", func() {
		_, err := watch.Snapshot(src, 0x1000, 0x100, binary.LittleEndian)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Watcher", func() {
	var (
		src *watch.BufferSource
		cfg *watch.Config
		now time.Time
		w   *watch.Watcher
	)

	// Offset of the store of the status value inside the caller.
	statusStore := (fixture.FingerprintOffset + 8) * 4

	BeforeEach(func() {
		src = &watch.BufferSource{Base: hostBase, Data: liveRAM()}
		cfg = watch.DefaultConfig()
		cfg.RAMSize = ramSize
		now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		var err error
		w, err = watch.NewWatcher(src, cfg, watch.WithClock(func() time.Time { return now }))
		Expect(err).NotTo(HaveOccurred())
		Expect(w.State()).To(Equal(watch.StateInit))
	})

	It("should resolve on the first tick and report the pad", func() {
		ev, err := w.Tick()
		Expect(err).NotTo(HaveOccurred())

		Expect(ev.State).To(Equal(watch.StateRunning))
		Expect(ev.Base).To(Equal(uint64(hostBase)))
		Expect(ev.Target.Address).To(Equal(fixture.Target))
		Expect(ev.Pad).NotTo(BeNil())
		Expect(ev.Pad.Pressed(watch.ButtonA)).To(BeTrue())
		Expect(w.Target()).To(BeIdenticalTo(ev.Target))
	})

	It("should follow a changing status word", func() {
		_, err := w.Tick()
		Expect(err).NotTo(HaveOccurred())

		binary.LittleEndian.PutUint32(src.Data[fixture.Target&0xFFFFFF:], 0x40000000)
		now = now.Add(30 * time.Millisecond)

		ev, err := w.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Pad.Held()).To(Equal([]string{"B"}))
	})

	It("should invalidate, idle and recover when the code changes", func() {
		_, err := w.Tick()
		Expect(err).NotTo(HaveOccurred())

		saved := append([]byte(nil), src.Data[statusStore:statusStore+4]...)
		copy(src.Data[statusStore:], []byte{0, 0, 0, 0})

		now = now.Add(30 * time.Millisecond)
		ev, err := w.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.State).To(Equal(watch.StateInvalidated))
		Expect(ev.Pad).To(BeNil())
		Expect(ev.Idle).To(BeFalse())

		now = now.Add(6 * time.Second)
		ev, err = w.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.State).To(Equal(watch.StateInvalidated))
		Expect(ev.Idle).To(BeTrue())

		copy(src.Data[statusStore:], saved)
		now = now.Add(500 * time.Millisecond)
		ev, err = w.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.State).To(Equal(watch.StateInvalidated))

		now = now.Add(time.Second)
		ev, err = w.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.State).To(Equal(watch.StateRunning))
		Expect(ev.Pad).NotTo(BeNil())
	})

	It("should stop when the source disconnects", func() {
		Expect(src.Close()).To(Succeed())

		_, err := w.Tick()
		Expect(errors.Is(err, watch.ErrDisconnected)).To(BeTrue())
	})

	It("should poll until the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var events []watch.Event
		err := w.Run(ctx, func(ev watch.Event) {
			events = append(events, ev)
			if len(events) == 2 {
				cancel()
			}
		})

		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(events).To(HaveLen(2))
		Expect(events[1].State).To(Equal(watch.StateRunning))
	})

	It("should reject an invalid config", func() {
		cfg.PollIntervalMs = 0
		_, err := watch.NewWatcher(src, cfg)
		Expect(err).To(HaveOccurred())
	})
})
