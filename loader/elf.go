package loader

import (
	"debug/elf"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/sarchlab/mipscan/mem"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// MaxImageSize bounds the span an executable's segments may cover. RDRAM
// with the expansion pak is 8 MiB; anything far beyond it is not a
// console executable.
const MaxImageSize = 64 << 20

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment is loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program is a loaded MIPS executable.
type Program struct {
	// EntryPoint is the virtual address where execution begins.
	EntryPoint uint32
	// Segments contains all loadable segments, in file order.
	Segments []Segment
	// ByteOrder is the data encoding of the file.
	ByteOrder binary.ByteOrder
}

// LoadELF parses a 32-bit MIPS ELF executable.
func LoadELF(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ELF file")
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, errors.New("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_MIPS {
		return nil, errors.Newf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		ByteOrder:  f.ByteOrder,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, errors.Wrapf(err, "failed to read segment at 0x%x", phdr.Vaddr)
			}
			if uint64(n) != phdr.Filesz {
				return nil, errors.Newf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	if len(prog.Segments) == 0 {
		return nil, errors.New("no loadable segments")
	}

	return prog, nil
}

// Image lays the segments out at their virtual addresses. The image starts
// at the lowest segment and spans to the end of the highest one; gaps and
// BSS are zero. opts are applied after the segment base, so WithBase
// relocates the image.
func (p *Program) Image(opts ...mem.Option) (*mem.Image, error) {
	lo, hi := uint64(^uint32(0)), uint64(0)
	for _, s := range p.Segments {
		lo = min(lo, uint64(s.VirtAddr))
		hi = max(hi, uint64(s.VirtAddr)+uint64(max(s.MemSize, uint32(len(s.Data)))))
	}

	if lo%4 != 0 {
		return nil, errors.Newf("segment address 0x%x is not word aligned", lo)
	}
	if hi-lo > MaxImageSize {
		return nil, errors.Newf("segments span 0x%x bytes", hi-lo)
	}

	buf := make([]byte, (hi-lo+3)&^3)
	for _, s := range p.Segments {
		copy(buf[uint64(s.VirtAddr)-lo:], s.Data)
	}

	opts = append([]mem.Option{mem.WithBase(uint32(lo))}, opts...)
	return mem.FromBytes(buf, p.ByteOrder, opts...), nil
}
