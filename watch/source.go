package watch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/process"
)

// ErrDisconnected is returned once the watched process has gone away.
var ErrDisconnected = errors.New("source disconnected")

// Mapping is a readable range [Start, End) of host addresses.
type Mapping struct {
	Start uint64
	End   uint64
	Path  string
}

// Source is host memory the watcher reads from.
type Source interface {
	io.ReaderAt

	// Mappings lists the readable ranges, in ascending order.
	Mappings() ([]Mapping, error)

	// Alive reports whether the memory is still there to read.
	Alive() bool
}

// ProcessMemory reads another process's memory through /proc.
type ProcessMemory struct {
	pid  int32
	proc *process.Process
	mem  *os.File
}

// OpenProcess opens the memory of the process with the given pid. Reading
// it needs ptrace access to the process.
func OpenProcess(pid int32) (*ProcessMemory, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, errors.Wrapf(err, "no process %d", pid)
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open memory of process %d", pid)
	}

	return &ProcessMemory{pid: pid, proc: proc, mem: f}, nil
}

// FindProcess returns the pid of the first process whose name contains
// name, case-insensitively.
func FindProcess(name string) (int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return 0, errors.Wrap(err, "failed to list processes")
	}

	want := strings.ToLower(name)
	for _, p := range procs {
		n, err := p.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(n), want) {
			return p.Pid, nil
		}
	}
	return 0, errors.Newf("no process matching %q", name)
}

// ReadAt reads host memory at address off.
func (pm *ProcessMemory) ReadAt(p []byte, off int64) (int, error) {
	return pm.mem.ReadAt(p, off)
}

// Mappings parses /proc/<pid>/maps and keeps the readable ranges.
func (pm *ProcessMemory) Mappings() ([]Mapping, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pm.pid))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read mappings")
	}
	defer func() { _ = f.Close() }()

	return parseMaps(f)
}

// Alive reports whether the process is still running.
func (pm *ProcessMemory) Alive() bool {
	running, err := pm.proc.IsRunning()
	return err == nil && running
}

// Close releases the memory handle.
func (pm *ProcessMemory) Close() error {
	return pm.mem.Close()
}

// parseMaps reads the /proc maps format:
// start-end perms offset dev inode [path].
func parseMaps(r io.Reader) ([]Mapping, error) {
	var maps []Mapping

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || !strings.HasPrefix(fields[1], "r") {
			continue
		}

		lo, hi, ok := strings.Cut(fields[0], "-")
		if !ok {
			return nil, errors.Newf("bad mapping range %q", fields[0])
		}
		start, err := strconv.ParseUint(lo, 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad mapping start %q", lo)
		}
		end, err := strconv.ParseUint(hi, 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad mapping end %q", hi)
		}

		m := Mapping{Start: start, End: end}
		if len(fields) > 5 {
			m.Path = strings.Join(fields[5:], " ")
		}
		maps = append(maps, m)
	}

	return maps, errors.Wrap(sc.Err(), "failed to scan mappings")
}

// BufferSource serves a byte slice placed at a host address. It stands in
// for a process when replaying a saved dump.
type BufferSource struct {
	Base uint64
	Data []byte

	closed bool
}

// ReadAt reads from the buffer.
func (b *BufferSource) ReadAt(p []byte, off int64) (int, error) {
	if b.closed {
		return 0, os.ErrClosed
	}
	if off < 0 || uint64(off) < b.Base || uint64(off)-b.Base >= uint64(len(b.Data)) {
		return 0, io.EOF
	}
	n := copy(p, b.Data[uint64(off)-b.Base:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Mappings returns the buffer as a single mapping.
func (b *BufferSource) Mappings() ([]Mapping, error) {
	return []Mapping{{Start: b.Base, End: b.Base + uint64(len(b.Data))}}, nil
}

// Alive reports whether Close has not been called.
func (b *BufferSource) Alive() bool {
	return !b.closed
}

// Close marks the source as gone.
func (b *BufferSource) Close() error {
	b.closed = true
	return nil
}
