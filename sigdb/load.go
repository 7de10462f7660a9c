package sigdb

import (
	"bytes"
	_ "embed"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/mipscan/insts"
)

// SupportedVersions is the range of database format versions this build
// reads.
const SupportedVersions = "^1"

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in database.
func Default() *Database {
	db, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(errors.Wrap(err, "built-in signature database"))
	}
	return db
}

// Load reads and validates a YAML database.
func Load(r io.Reader) (*Database, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	db := &Database{}
	if err := dec.Decode(db); err != nil {
		return nil, errors.Wrap(err, "decode signature database")
	}

	if err := db.Validate(); err != nil {
		return nil, err
	}
	return db, nil
}

// LoadFile reads and validates a YAML database from path.
func LoadFile(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open signature database")
	}
	defer func() { _ = f.Close() }()

	db, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return db, nil
}

// Save writes db as YAML.
func (db *Database) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(db); err != nil {
		return errors.Wrap(err, "encode signature database")
	}
	return enc.Close()
}

// Validate checks the format version and that every profile is
// self-consistent.
func (db *Database) Validate() error {
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return errors.Wrap(err, "version constraint")
	}
	v, err := semver.NewVersion(db.Version)
	if err != nil {
		return errors.Wrapf(err, "database version %q", db.Version)
	}
	if !c.Check(v) {
		return errors.Newf("database version %s not in %s", v, SupportedVersions)
	}

	if len(db.Profiles) == 0 {
		return errors.New("database has no profiles")
	}

	seen := make(map[string]bool)
	for i := range db.Profiles {
		p := &db.Profiles[i]
		if seen[p.Name] {
			return errors.Newf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true

		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "profile %q", p.Name)
		}
	}
	return nil
}

// Validate checks that every name a profile refers to is defined and that
// the numeric shape parameters are usable.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.New("missing name")
	}

	routines := make(map[string]bool)
	for _, l := range p.Leaves {
		if l.Name == "" || routines[l.Name] {
			return errors.Newf("leaf %q: empty or duplicate name", l.Name)
		}
		if len(l.Signatures) == 0 {
			return errors.Newf("leaf %q: no signatures", l.Name)
		}
		for _, s := range l.Signatures {
			if len(s.Words) == 0 {
				return errors.Newf("leaf %q: empty signature", l.Name)
			}
		}
		routines[l.Name] = true
	}

	// Wrappers may build on leaves and on wrappers listed before them.
	for _, w := range p.Wrappers {
		if w.Name == "" || routines[w.Name] {
			return errors.Newf("wrapper %q: empty or duplicate name", w.Name)
		}
		for _, ref := range append([]string{w.First, w.Last}, w.Inner...) {
			if !routines[ref] {
				return errors.Newf("wrapper %q: unknown routine %q", w.Name, ref)
			}
		}
		if w.MaxSpan <= 0 || w.Callees <= 0 || w.PrologueScan <= 0 || w.EntrySlack <= 0 {
			return errors.Newf("wrapper %q: maxSpan, callees, prologueScan and entrySlack must be positive", w.Name)
		}
		routines[w.Name] = true
	}

	return p.Target.validate(routines)
}

func (t *Target) validate(routines map[string]bool) error {
	if t.Name == "" {
		return errors.New("target: missing name")
	}
	for _, ref := range []string{t.Anchor, t.Paired} {
		if !routines[ref] {
			return errors.Newf("target %q: unknown routine %q", t.Name, ref)
		}
	}
	if t.Window <= 0 || t.Calls <= 0 || t.ArgWindow < 0 || t.PrologueScan <= 0 || t.EntrySlack <= 0 {
		return errors.Newf("target %q: window, calls, prologueScan and entrySlack must be positive", t.Name)
	}
	if t.Resolve.Window <= 0 {
		return errors.Newf("target %q: resolve window must be positive", t.Name)
	}

	for _, name := range []string{t.ArgRegister, t.Resolve.StatusRegister} {
		reg, err := insts.ParseRegister(name)
		if err != nil {
			return errors.Wrapf(err, "target %q", t.Name)
		}
		if reg == insts.RegAny {
			return errors.Newf("target %q: placeholder register not allowed", t.Name)
		}
	}
	return nil
}
