// Package resolve chains the scanners across recognition levels, from
// library leaf routines up to the routine that references the target
// variable, and produces the variable's address with a fingerprint.
package resolve

// State is a stage of a resolution run.
type State int

// Resolution stages, in the order a run moves through them.
const (
	SeedingLeaves State = iota
	CrossReferencingLeaves
	MatchingMidLevel
	CrossReferencingMidLevel
	MatchingTarget
	Resolved
	Exhausted
)

var stateNames = [...]string{
	SeedingLeaves:            "SeedingLeaves",
	CrossReferencingLeaves:   "CrossReferencingLeaves",
	MatchingMidLevel:         "MatchingMidLevel",
	CrossReferencingMidLevel: "CrossReferencingMidLevel",
	MatchingTarget:           "MatchingTarget",
	Resolved:                 "Resolved",
	Exhausted:                "Exhausted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Resolved || s == Exhausted
}
