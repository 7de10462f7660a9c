package resolve

import "github.com/cockroachdb/errors"

// ErrStructuralMismatch rejects a single candidate whose call shape or
// argument values do not fit the idiom. It never escapes a run.
var ErrStructuralMismatch = errors.New("structural mismatch")

// ErrExhausted is returned when no candidate survived to a resolution.
var ErrExhausted = errors.New("no candidate survived")

func mismatchf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrStructuralMismatch, format, args...)
}
