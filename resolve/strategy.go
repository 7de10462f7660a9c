package resolve

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Strategy chooses the target address among the values stored around a
// call, once the status value has been removed.
type Strategy int

const (
	// StrategyBelow picks the value reached first when counting down from
	// the status value with 32-bit wraparound: the closest value below it,
	// or the farthest above it when none is below. The lowest value wins
	// ties.
	StrategyBelow Strategy = iota

	// StrategyNearest picks the value closest to the status value in
	// either direction; the lowest value wins ties.
	StrategyNearest

	// StrategyFirst picks the lowest value.
	StrategyFirst

	// StrategyFarthest picks the value farthest from the status value; the
	// lowest value wins ties.
	StrategyFarthest
)

var strategyNames = map[Strategy]string{
	StrategyBelow:    "below",
	StrategyNearest:  "nearest",
	StrategyFirst:    "first",
	StrategyFarthest: "farthest",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStrategy parses a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, errors.Newf("unknown strategy %q (want below, nearest, first or farthest)", name)
}

// Pick chooses among candidates, which must be in ascending order.
func (s Strategy) Pick(status uint32, candidates []uint32) (uint32, bool) {
	if len(candidates) == 0 {
		return 0, false
	}

	best := candidates[0]
	if s == StrategyFirst {
		return best, true
	}

	dist := distance
	if s == StrategyBelow {
		dist = below
	}

	bestDist := dist(best, status)
	for _, c := range candidates[1:] {
		d := dist(c, status)
		if (s != StrategyFarthest && d < bestDist) || (s == StrategyFarthest && d > bestDist) {
			best, bestDist = c, d
		}
	}
	return best, true
}

func distance(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// below is how far v lies under status, modulo 2^32.
func below(v, status uint32) uint32 {
	return status - v
}
