// Package watch follows a resolved target in the memory of a running
// emulator: it finds console RAM in the host process, resolves the
// controller status word, and polls it while checking that the code it was
// recovered from is still in place.
package watch

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sarchlab/mipscan/loader"
	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/resolve"
)

// State is the state of a Watcher.
type State int

// Watcher states.
const (
	StateInit State = iota
	StateRunning
	StateInvalidated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// Resolver turns a RAM snapshot into a target.
type Resolver interface {
	Resolve(img *mem.Image) (*resolve.Target, error)
}

// Event is the outcome of one poll.
type Event struct {
	Time  time.Time
	State State

	// Idle is set when the watcher has been invalidated for longer than
	// the idle timeout.
	Idle bool

	// Pad is the decoded status word; nil unless running and readable.
	Pad *Pad

	Target *resolve.Target
	Base   uint64
}

// Watcher polls a target in live memory.
type Watcher struct {
	src      Source
	cfg      *Config
	order    binary.ByteOrder
	resolver Resolver
	logger   *log.Logger
	now      func() time.Time

	state       State
	base        uint64
	target      *resolve.Target
	lastScan    time.Time
	lastRunning time.Time
}

// WatcherOption is a functional option for configuring the Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithResolver replaces the default cached resolver.
func WithResolver(r Resolver) WatcherOption {
	return func(w *Watcher) {
		w.resolver = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) WatcherOption {
	return func(w *Watcher) {
		w.now = now
	}
}

// NewWatcher creates a watcher over src.
func NewWatcher(src Source, cfg *Config, opts ...WatcherOption) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	order, _ := loader.ParseByteOrder(cfg.ByteOrder)
	w := &Watcher{
		src:   src,
		cfg:   cfg.Clone(),
		order: order,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	if w.resolver == nil {
		strategy, _ := resolve.ParseStrategy(cfg.Strategy)
		w.resolver = resolve.NewCachedResolver(
			resolve.NewResolver(resolve.WithStrategy(strategy), resolve.WithLogger(w.logger)),
			resolve.DefaultCacheSize)
	}

	w.lastRunning = w.now()
	return w, nil
}

// State returns the current state.
func (w *Watcher) State() State {
	return w.state
}

// Target returns the target being followed, or nil.
func (w *Watcher) Target() *resolve.Target {
	return w.target
}

func (w *Watcher) setState(s State) {
	if s != StateRunning && s != w.state {
		w.lastRunning = w.now()
	}
	if s != w.state {
		w.logger.Debug("watch state", "from", w.state, "to", s)
	}
	w.state = s
}

// Scan locates RAM and resolves the target from a fresh snapshot.
func (w *Watcher) Scan() error {
	w.lastScan = w.now()

	base, err := LocateRAM(w.src, w.cfg, w.order)
	if err != nil {
		w.setState(StateInvalidated)
		return err
	}

	img, err := Snapshot(w.src, base, w.cfg.RAMSize, w.order)
	if err != nil {
		w.setState(StateInvalidated)
		return err
	}

	t, err := w.resolver.Resolve(img)
	if err != nil {
		w.setState(StateInvalidated)
		return err
	}

	w.base, w.target = base, t
	w.setState(StateRunning)
	w.logger.Info("target resolved",
		"ram", hostAddr(base),
		"address", fmt.Sprintf("0x%08X", t.Address),
		"profile", t.Profile)
	return nil
}

func (w *Watcher) scan() {
	if err := w.Scan(); err != nil {
		w.logger.Debug("scan failed", "err", err)
	}
}

// Tick performs one poll. It fails only when the source is gone.
func (w *Watcher) Tick() (Event, error) {
	now := w.now()
	if !w.src.Alive() {
		return Event{Time: now, State: w.state}, ErrDisconnected
	}

	if w.state == StateInit {
		w.scan()
	}

	ev := Event{Time: now}
	if w.state == StateInvalidated {
		if now.Sub(w.lastScan) > w.cfg.RescanInterval() {
			w.scan()
		}
		ev.Idle = w.state == StateInvalidated && now.Sub(w.lastRunning) > w.cfg.IdleTimeout()
	}

	if w.state != StateRunning {
		ev.State = w.state
		return ev, nil
	}

	if err := Verify(w.src, w.base, w.target); err != nil {
		w.logger.Debug("target lost", "err", err)
		w.setState(StateInvalidated)
		w.scan()
		ev.State = w.state
		return ev, nil
	}

	ev.State, ev.Target, ev.Base = StateRunning, w.target, w.base

	// A failed read of the status word is treated as transient.
	pad, err := ReadPad(w.src, w.base, w.target, w.order)
	if err != nil {
		w.logger.Debug("status read failed", "err", err)
		return ev, nil
	}
	ev.Pad = &pad
	return ev, nil
}

// Run polls every PollInterval and hands each event to fn until ctx is
// done or the source disconnects.
func (w *Watcher) Run(ctx context.Context, fn func(Event)) error {
	ticker := time.NewTicker(w.cfg.PollInterval())
	defer ticker.Stop()

	for {
		ev, err := w.Tick()
		if err != nil {
			return err
		}
		fn(ev)

		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
