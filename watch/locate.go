package watch

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/resolve"
)

// ErrRAMNotFound is returned when no candidate address holds the RAM magic.
var ErrRAMNotFound = errors.New("console RAM not found")

// ErrStale is returned when the fingerprint no longer matches live memory.
var ErrStale = errors.New("fingerprint does not match")

func readWord(src Source, addr uint64, order binary.ByteOrder) (uint32, error) {
	var buf [4]byte
	if _, err := src.ReadAt(buf[:], int64(addr)); err != nil {
		return 0, errors.Wrapf(err, "failed to read word at 0x%X", addr)
	}
	return order.Uint32(buf[:]), nil
}

// IsRAMBase reports whether the word at addr holds the RAM magic.
func IsRAMBase(src Source, addr uint64, cfg *Config, order binary.ByteOrder) bool {
	w, err := readWord(src, addr, order)
	return err == nil && w&cfg.MagicMask == cfg.Magic
}

// LocateRAM finds the host address of console RAM. The configured hints
// are tried first, then the start of every readable mapping shifted by the
// magic offset.
func LocateRAM(src Source, cfg *Config, order binary.ByteOrder) (uint64, error) {
	for _, hint := range cfg.BaseHints {
		if IsRAMBase(src, hint, cfg, order) {
			return hint, nil
		}
	}

	maps, err := src.Mappings()
	if err != nil {
		return 0, err
	}
	for _, m := range maps {
		addr := m.Start + cfg.MagicOffset
		if addr+4 > m.End {
			continue
		}
		if IsRAMBase(src, addr, cfg, order) {
			return addr, nil
		}
	}

	return 0, ErrRAMNotFound
}

// Snapshot copies size bytes of RAM at base into an image whose word 0 is
// the start of KSEG0.
func Snapshot(src Source, base uint64, size uint32, order binary.ByteOrder) (*mem.Image, error) {
	buf := make([]byte, size)
	n, err := src.ReadAt(buf, int64(base))
	if n < 4 {
		if err == nil {
			err = errors.New("short read")
		}
		return nil, errors.Wrapf(err, "failed to snapshot RAM at 0x%X", base)
	}
	return mem.FromBytes(buf[:n], order), nil
}

// Verify checks that the target's fingerprint is still in place.
func Verify(src Source, base uint64, t *resolve.Target) error {
	live := make([]byte, len(t.Fingerprint))
	if _, err := src.ReadAt(live, int64(base)+int64(t.FingerprintByteOffset())); err != nil {
		return errors.Wrap(ErrStale, err.Error())
	}
	if !bytes.Equal(live, t.Fingerprint) {
		return errors.Wrapf(ErrStale, "at RAM offset 0x%X", t.FingerprintByteOffset())
	}
	return nil
}

// ReadPad reads and decodes the status word of the target.
func ReadPad(src Source, base uint64, t *resolve.Target, order binary.ByteOrder) (Pad, error) {
	w, err := readWord(src, base+uint64(t.SegmentOffset()), order)
	if err != nil {
		return Pad{}, err
	}
	return DecodePad(w), nil
}

// hostAddr formats a host address for logging.
func hostAddr(addr uint64) string {
	return fmt.Sprintf("0x%X", addr)
}
