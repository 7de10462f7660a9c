// Package loader reads memory images from files: raw RDRAM dumps, possibly
// compressed, and MIPS ELF executables.
package loader

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"

	"github.com/sarchlab/mipscan/mem"
)

var (
	elfMagic    = []byte{0x7F, 'E', 'L', 'F'}
	gzipMagic   = []byte{0x1F, 0x8B}
	snappyMagic = []byte{0xFF, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}
)

// ParseByteOrder parses "big" or "little" (also "be" and "le").
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(name) {
	case "big", "be":
		return binary.BigEndian, nil
	case "little", "le":
		return binary.LittleEndian, nil
	}
	return nil, errors.Newf("unknown byte order %q (want big or little)", name)
}

// Load reads path as an ELF executable if it starts with the ELF magic and
// as a raw dump in the given byte order otherwise. opts apply to both.
func Load(path string, order binary.ByteOrder, opts ...mem.Option) (*mem.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, len(elfMagic))
	n, _ := io.ReadFull(f, head)
	if n == len(elfMagic) && bytes.Equal(head, elfMagic) {
		prog, err := LoadELF(path)
		if err != nil {
			return nil, err
		}
		return prog.Image(opts...)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind image")
	}
	img, err := ReadDump(f, order, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return img, nil
}

// LoadDump reads a raw dump file.
func LoadDump(path string, order binary.ByteOrder, opts ...mem.Option) (*mem.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open dump")
	}
	defer func() { _ = f.Close() }()

	img, err := ReadDump(f, order, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return img, nil
}

// ReadDump reads consecutive words in the given byte order. Gzip and
// framed snappy streams are decompressed transparently.
func ReadDump(r io.Reader, order binary.ByteOrder, opts ...mem.Option) (*mem.Image, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	switch {
	case hasPrefix(br, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "bad gzip stream")
		}
		defer func() { _ = zr.Close() }()
		src = zr
	case hasPrefix(br, snappyMagic):
		src = snappy.NewReader(br)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dump")
	}
	if len(data) < 4 {
		return nil, errors.Newf("dump holds %d bytes, not a single word", len(data))
	}

	return mem.FromBytes(data, order, opts...), nil
}

func hasPrefix(br *bufio.Reader, magic []byte) bool {
	head, _ := br.Peek(len(magic))
	return bytes.Equal(head, magic)
}
