// Package level defines the ordered scale of how much detail has been
// computed for a lazily materialised light class.
package level

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Level is a point on the computation scale. Ordering follows the numeric
// value: None < Partial < Full.
type Level uint8

const (
	None    Level = iota // nothing computed yet
	Partial              // structural (dummy) stub computed
	Full                 // fully resolved stub computed
)

const (
	// Bottom is the level every guard starts at.
	Bottom = None
	// Max is the highest level; nothing can be computed past it.
	Max = Full
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Partial:
		return "partial"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// Valid reports whether l is one of the declared levels.
func (l Level) Valid() bool {
	return l <= Max
}

// Ordinal returns the position of l on the scale.
func (l Level) Ordinal() int {
	return int(l)
}

// ParseLevel converts a string to a Level. "dummy" is accepted as an alias
// of "partial".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return None, nil
	case "partial", "dummy":
		return Partial, nil
	case "full":
		return Full, nil
	default:
		return None, fmt.Errorf("invalid level: %q (expected: none|partial|full)", s)
	}
}

// FromOrdinal converts an integer read from an external format into a Level.
func FromOrdinal(n int) (Level, error) {
	v, err := safecast.Conv[uint8](n)
	if err != nil {
		return None, fmt.Errorf("level ordinal %d: %w", n, err)
	}
	l := Level(v)
	if !l.Valid() {
		return None, fmt.Errorf("level ordinal %d out of range [0, %d]", n, Max.Ordinal())
	}
	return l, nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", l)
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
