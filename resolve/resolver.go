package resolve

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/sarchlab/mipscan/emu"
	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/scan"
	"github.com/sarchlab/mipscan/sigdb"
)

// Report records what one profile run found at every level. It is filled
// in as far as the run got, including on failure.
type Report struct {
	Profile string
	State   State

	// Furthest is the last stage that produced candidates.
	Furthest State

	Leaves       map[string]scan.Offsets
	LeafCalls    map[string]scan.Offsets
	Wrappers     map[string]scan.Offsets
	WrapperCalls map[string]scan.Offsets
	Targets      scan.Offsets
	TargetCalls  scan.Offsets

	Target *Target
}

func newReport(profile string) *Report {
	return &Report{
		Profile:      profile,
		State:        SeedingLeaves,
		Furthest:     SeedingLeaves,
		Leaves:       make(map[string]scan.Offsets),
		LeafCalls:    make(map[string]scan.Offsets),
		Wrappers:     make(map[string]scan.Offsets),
		WrapperCalls: make(map[string]scan.Offsets),
	}
}

// Resolver locates the target variable in memory images.
type Resolver struct {
	profiles []*sigdb.Profile
	strategy Strategy
	logger   *log.Logger
}

// ResolverOption is a functional option for configuring the Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for stage transitions and rejected
// candidates.
func WithLogger(logger *log.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithStrategy sets how the address is picked among the stored values.
func WithStrategy(s Strategy) ResolverOption {
	return func(r *Resolver) {
		r.strategy = s
	}
}

// WithDatabase tries every profile of db, in order.
func WithDatabase(db *sigdb.Database) ResolverOption {
	return func(r *Resolver) {
		r.profiles = r.profiles[:0]
		for i := range db.Profiles {
			r.profiles = append(r.profiles, &db.Profiles[i])
		}
	}
}

// WithProfiles restricts the resolver to the given profiles.
func WithProfiles(profiles ...*sigdb.Profile) ResolverOption {
	return func(r *Resolver) {
		r.profiles = append(r.profiles[:0], profiles...)
	}
}

// NewResolver creates a resolver. Without options it uses the built-in
// signature database and StrategyBelow.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{strategy: StrategyBelow}
	WithDatabase(sigdb.Default())(r)

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}

	return r
}

// Strategy returns the configured strategy.
func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Resolve tries each profile in order and returns the first resolution.
func (r *Resolver) Resolve(img *mem.Image) (*Target, error) {
	var errs error
	for _, p := range r.profiles {
		report, err := r.ResolveProfile(img, p)
		if err == nil {
			return report.Target, nil
		}
		errs = errors.CombineErrors(errs, err)
	}

	if errs == nil {
		return nil, errors.Wrap(ErrExhausted, "no profiles")
	}
	return nil, errs
}

// ResolveProfile runs a single profile against img.
func (r *Resolver) ResolveProfile(img *mem.Image, p *sigdb.Profile) (*Report, error) {
	run := &run{
		img:    img,
		p:      p,
		report: newReport(p.Name),
		logger: r.logger.With("profile", p.Name),
		pick:   r.strategy,
	}
	return run.report, run.execute()
}

// run holds the state of one profile run.
type run struct {
	img    *mem.Image
	p      *sigdb.Profile
	report *Report
	logger *log.Logger
	pick   Strategy
}

func (rn *run) enter(s State) {
	rn.report.State = s
	rn.logger.Debug("stage", "state", s)
}

// reached records that the current stage produced candidates.
func (rn *run) reached() {
	rn.report.Furthest = rn.report.State
}

func (rn *run) exhausted() error {
	rn.report.State = Exhausted
	rn.logger.Debug("exhausted", "furthest", rn.report.Furthest)
	return errors.Wrapf(ErrExhausted, "profile %s: stopped after %s",
		rn.p.Name, rn.report.Furthest)
}

func (rn *run) reject(routine string, site int, err error) {
	rn.logger.Debug("candidate rejected",
		"routine", routine,
		"site", fmt.Sprintf("0x%X", site),
		"err", err)
}

func (rn *run) execute() error {
	steps := []func() bool{
		rn.seedLeaves,
		rn.crossReferenceLeaves,
		rn.matchWrappers,
		rn.crossReferenceWrappers,
		rn.matchTarget,
	}
	for _, step := range steps {
		if !step() {
			return rn.exhausted()
		}
		rn.reached()
	}

	rn.report.State = Resolved
	t := rn.report.Target
	rn.logger.Info("resolved",
		"address", fmt.Sprintf("0x%08X", t.Address),
		"callSite", fmt.Sprintf("0x%X", t.CallSite))
	return nil
}

func (rn *run) seedLeaves() bool {
	rn.enter(SeedingLeaves)

	found := false
	for _, leaf := range rn.p.Leaves {
		entries := leaf.Entries(rn.img)
		rn.report.Leaves[leaf.Name] = entries
		rn.logger.Debug("leaf", "name", leaf.Name, "entries", len(entries))
		found = found || len(entries) > 0
	}
	return found
}

func (rn *run) crossReferenceLeaves() bool {
	rn.enter(CrossReferencingLeaves)

	found := false
	for _, leaf := range rn.p.Leaves {
		calls := scan.CallersOfAny(rn.img, rn.report.Leaves[leaf.Name])
		rn.report.LeafCalls[leaf.Name] = calls
		found = found || len(calls) > 0
	}
	return found
}

// callsOf returns the call sites of a routine found so far.
func (rn *run) callsOf(name string) scan.Offsets {
	if calls, ok := rn.report.LeafCalls[name]; ok {
		return calls
	}
	if calls, ok := rn.report.WrapperCalls[name]; ok {
		return calls
	}

	// A wrapper used by a later wrapper is cross-referenced on demand.
	if entries, ok := rn.report.Wrappers[name]; ok {
		calls := scan.CallersOfAny(rn.img, entries)
		rn.report.WrapperCalls[name] = calls
		return calls
	}
	return nil
}

func (rn *run) matchWrappers() bool {
	rn.enter(MatchingMidLevel)

	found := false
	for _, w := range rn.p.Wrappers {
		var entries []int
		for _, s := range rn.callsOf(w.First) {
			prologue, err := rn.matchWrapper(w, s)
			if err != nil {
				rn.reject(w.Name, s, err)
				continue
			}
			entries = append(entries, slack(prologue, w.EntrySlack)...)
		}

		rn.report.Wrappers[w.Name] = scan.NewOffsets(entries...)
		rn.logger.Debug("wrapper", "name", w.Name, "entries", len(rn.report.Wrappers[w.Name]))
		found = found || len(entries) > 0
	}
	return found
}

// matchWrapper checks the call shape starting at the First call s and
// returns the prologue offset of the enclosing routine.
func (rn *run) matchWrapper(w sigdb.Wrapper, s int) (int, error) {
	e, ok := rn.callsOf(w.Last).Between(s, s+w.MaxSpan).First()
	if !ok {
		return 0, mismatchf("no call to %s within 0x%X words", w.Last, w.MaxSpan)
	}

	for _, inner := range w.Inner {
		if len(rn.callsOf(inner).Between(s, e)) == 0 {
			return 0, mismatchf("no call to %s between 0x%X and 0x%X", inner, s, e)
		}
	}

	if n := scan.CountCalls(rn.img, scan.Region{Start: s, End: e + 1}); n != w.Callees {
		return 0, mismatchf("%d distinct callees, want %d", n, w.Callees)
	}

	return scan.FindPrologue(rn.img, s, w.PrologueScan)
}

func (rn *run) crossReferenceWrappers() bool {
	rn.enter(CrossReferencingMidLevel)

	found := false
	for _, w := range rn.p.Wrappers {
		calls := rn.callsOf(w.Name)
		found = found || len(calls) > 0
	}
	return found
}

func (rn *run) matchTarget() bool {
	rn.enter(MatchingTarget)

	t := rn.p.Target
	var entries []int
	for _, s := range rn.callsOf(t.Anchor) {
		prologue, err := rn.matchTargetAt(t, s)
		if err != nil {
			rn.reject(t.Name, s, err)
			continue
		}
		entries = append(entries, slack(prologue, t.EntrySlack)...)
	}

	rn.report.Targets = scan.NewOffsets(entries...)
	rn.report.TargetCalls = scan.CallersOfAny(rn.img, rn.report.Targets)
	if len(rn.report.TargetCalls) == 0 {
		if len(rn.report.Targets) > 0 {
			rn.reached()
		}
		return false
	}
	rn.reached()

	for _, c := range rn.report.TargetCalls {
		target, err := rn.resolveAt(c)
		if err != nil {
			rn.reject(t.Name+" caller", c, err)
			continue
		}
		rn.report.Target = target
		return true
	}
	return false
}

func (rn *run) matchTargetAt(t sigdb.Target, s int) (int, error) {
	paired := rn.callsOf(t.Paired).Between(s, s+t.Window)
	if len(paired) != t.Calls {
		return 0, mismatchf("%d calls to %s, want %d", len(paired), t.Paired, t.Calls)
	}

	reg := t.ArgReg()
	var arg uint32
	for i, c := range paired {
		v := emu.ArgumentAt(rn.img, c, reg, t.ArgWindow)
		if i > 0 && v != arg {
			return 0, mismatchf("%v differs between calls: 0x%08X, 0x%08X", reg, arg, v)
		}
		arg = v
	}
	if t.AddressCheck && !IsDataAddress(arg) {
		return 0, mismatchf("%v = 0x%08X is not a data address", reg, arg)
	}

	return scan.FindPrologue(rn.img, s, t.PrologueScan)
}

// resolveAt recovers the address from the caller c of the target routine.
func (rn *run) resolveAt(c int) (*Target, error) {
	res := rn.p.Target.Resolve
	if c < res.Window {
		return nil, mismatchf("call too close to the start of the image")
	}

	var opts []emu.InterpreterOption
	if res.SeedGP {
		if gp, ok := rn.p.GP(rn.img); ok {
			opts = append(opts, emu.WithGP(gp))
		}
	}

	result := emu.RunBefore(rn.img, c, res.Window, opts...)
	status := result.Regs.ReadReg(res.StatusReg())
	values := result.StoredValues()
	if len(values) < 2 || !slices.Contains(values, status) {
		return nil, mismatchf("status 0x%08X not among %d stored values", status, len(values))
	}

	candidates := slices.DeleteFunc(values, func(v uint32) bool { return v == status })
	addr, _ := rn.pick.Pick(status, candidates)
	return newTarget(rn.img, rn.p.Name, addr, c, res.Window), nil
}

// slack returns prologue, prologue-1, ... down to n entries, stopping at
// the start of the image.
func slack(prologue, n int) []int {
	out := make([]int, 0, n)
	for k := 0; k < n && prologue-k >= 0; k++ {
		out = append(out, prologue-k)
	}
	return out
}
