// Package sigdb holds the signature database: the instruction patterns that
// identify library leaf routines, the call-shape idioms that identify the
// routines wrapping them, and the shape of the routine that references the
// target variable.
package sigdb

import (
	"github.com/sarchlab/mipscan/insts"
	"github.com/sarchlab/mipscan/mem"
	"github.com/sarchlab/mipscan/scan"
)

// MaskPair matches one instruction word. See scan.MaskPair.
type MaskPair = scan.MaskPair

// Signature is one compiled form of a routine.
type Signature struct {
	// Words is the pattern, matched word by word.
	Words []MaskPair `yaml:"words" json:"words"`

	// Anchors are the deltas from a match offset to candidate entry
	// offsets. Several deltas model slack in where the pattern starts
	// inside the routine. Empty means [0].
	Anchors []int `yaml:"anchors,omitempty" json:"anchors,omitempty"`
}

// Entries returns the candidate entry offsets of the routine in img.
func (s Signature) Entries(img *mem.Image) scan.Offsets {
	return scan.EntriesOf(img, s.Words, s.Anchors...)
}

// Leaf is a routine recognized directly from its instruction words. Any of
// its alternative signatures may match.
type Leaf struct {
	Name       string      `yaml:"name" json:"name"`
	Signatures []Signature `yaml:"signatures" json:"signatures"`
}

// Entries returns the union of the entries of every alternative.
func (l Leaf) Entries(img *mem.Image) scan.Offsets {
	lists := make([]scan.Offsets, 0, len(l.Signatures))
	for _, s := range l.Signatures {
		lists = append(lists, s.Entries(img))
	}
	return scan.MergeOffsets(lists...)
}

// Wrapper describes a routine recognized by the calls it makes: a call to
// First followed within MaxSpan words by a call to Last, with a call to
// every Inner routine in between and exactly Callees distinct callees over
// the whole span.
type Wrapper struct {
	Name    string   `yaml:"name" json:"name"`
	First   string   `yaml:"first" json:"first"`
	Last    string   `yaml:"last" json:"last"`
	Inner   []string `yaml:"inner,omitempty" json:"inner,omitempty"`
	MaxSpan int      `yaml:"maxSpan" json:"maxSpan"`
	Callees int      `yaml:"callees" json:"callees"`

	// PrologueScan bounds the backward search for the frame allocation.
	PrologueScan int `yaml:"prologueScan" json:"prologueScan"`

	// EntrySlack is the number of candidate entries registered, starting
	// at the prologue and going backwards one word at a time.
	EntrySlack int `yaml:"entrySlack" json:"entrySlack"`
}

// Target describes the routine that references the target variable and
// how the variable's address is recovered from its callers.
type Target struct {
	Name string `yaml:"name" json:"name"`

	// Anchor is called first; Paired must be called exactly Calls times
	// within Window words after it.
	Anchor string `yaml:"anchor" json:"anchor"`
	Paired string `yaml:"paired" json:"paired"`
	Window int    `yaml:"window" json:"window"`
	Calls  int    `yaml:"calls" json:"calls"`

	// ArgRegister must carry the same value into every Paired call,
	// recovered by interpreting ArgWindow instructions before each.
	ArgRegister string `yaml:"argRegister" json:"argRegister"`
	ArgWindow   int    `yaml:"argWindow" json:"argWindow"`

	// AddressCheck requires that value to be a KSEG0 data address.
	AddressCheck bool `yaml:"addressCheck" json:"addressCheck"`

	PrologueScan int `yaml:"prologueScan" json:"prologueScan"`
	EntrySlack   int `yaml:"entrySlack" json:"entrySlack"`

	Resolve Resolution `yaml:"resolve" json:"resolve"`
}

// ArgReg returns the parsed ArgRegister. Call Validate first.
func (t Target) ArgReg() insts.Register {
	reg, _ := insts.ParseRegister(t.ArgRegister)
	return reg
}

// Resolution describes how a caller of the target routine yields the
// variable's address.
type Resolution struct {
	// Window is the number of instructions interpreted before the call.
	// The same words form the fingerprint.
	Window int `yaml:"window" json:"window"`

	// StatusRegister holds an address passed to the call that is stored
	// alongside the target; it is excluded from the candidates.
	StatusRegister string `yaml:"statusRegister" json:"statusRegister"`

	// SeedGP seeds GP from the image's GP setup routine.
	SeedGP bool `yaml:"seedGP" json:"seedGP"`
}

// StatusReg returns the parsed StatusRegister. Call Validate first.
func (r Resolution) StatusReg() insts.Register {
	reg, _ := insts.ParseRegister(r.StatusRegister)
	return reg
}

// Profile is one self-contained way of locating the target.
type Profile struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Leaves      []Leaf    `yaml:"leaves" json:"leaves"`
	Wrappers    []Wrapper `yaml:"wrappers" json:"wrappers"`
	Target      Target    `yaml:"target" json:"target"`

	// GPSetup matches the routine that loads GP:
	// LUI GP, hi / JR RA / ADDIU GP, GP, lo.
	GPSetup []MaskPair `yaml:"gpSetup,omitempty" json:"gpSetup,omitempty"`
}

// Leaf returns the leaf with the given name.
func (p *Profile) Leaf(name string) (Leaf, bool) {
	for _, l := range p.Leaves {
		if l.Name == name {
			return l, true
		}
	}
	return Leaf{}, false
}

// GP returns the global pointer value set up by the image, if the GP setup
// idiom is found.
func (p *Profile) GP(img *mem.Image) (uint32, bool) {
	if len(p.GPSetup) == 0 {
		return 0, false
	}

	off, err := scan.FindFirst(img, p.GPSetup)
	if err != nil {
		return 0, false
	}

	hi := insts.Decode(img.Word(off))
	lo := insts.Decode(img.Word(off + len(p.GPSetup) - 1))
	return uint32(uint16(hi.Imm))<<16 + uint32(int32(lo.Imm)), true
}

// Database is a versioned set of profiles.
type Database struct {
	Version  string    `yaml:"version" json:"version"`
	Profiles []Profile `yaml:"profiles" json:"profiles"`
}

// Profile returns the profile with the given name.
func (db *Database) Profile(name string) (*Profile, bool) {
	for i := range db.Profiles {
		if db.Profiles[i].Name == name {
			return &db.Profiles[i], true
		}
	}
	return nil, false
}

// Names returns the profile names in order.
func (db *Database) Names() []string {
	names := make([]string, len(db.Profiles))
	for i, p := range db.Profiles {
		names[i] = p.Name
	}
	return names
}
