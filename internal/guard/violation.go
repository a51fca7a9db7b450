package guard

import (
	"fmt"
	"strings"

	"lazycheck/internal/level"
	"lazycheck/internal/stub"
	"lazycheck/internal/subject"
)

// ViolationKind classifies a rejected report.
type ViolationKind uint8

const (
	// NonMonotonic: the reported level did not strictly increase.
	NonMonotonic ViolationKind = iota + 1
	// ExceedsAllowed: the producer computed past the caller's ceiling.
	ExceedsAllowed
	// UnknownContextKind: the report's context names no known tier.
	UnknownContextKind
	// SubjectMismatch: the report is about a different subject.
	SubjectMismatch
)

// String returns the snake_case name used in fixtures and traces.
func (k ViolationKind) String() string {
	switch k {
	case NonMonotonic:
		return "non_monotonic"
	case ExceedsAllowed:
		return "exceeds_allowed"
	case UnknownContextKind:
		return "unknown_context_kind"
	case SubjectMismatch:
		return "subject_mismatch"
	default:
		return "unknown"
	}
}

// ParseViolationKind converts a name produced by String back to a kind.
func ParseViolationKind(s string) (ViolationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "non_monotonic":
		return NonMonotonic, nil
	case "exceeds_allowed":
		return ExceedsAllowed, nil
	case "unknown_context_kind":
		return UnknownContextKind, nil
	case "subject_mismatch":
		return SubjectMismatch, nil
	default:
		return 0, fmt.Errorf("invalid violation kind: %q", s)
	}
}

// Sentinels for errors.Is. A *Violation matches the sentinel of its kind.
var (
	ErrNonMonotonic       = &Violation{Kind: NonMonotonic}
	ErrExceedsAllowed     = &Violation{Kind: ExceedsAllowed}
	ErrUnknownContextKind = &Violation{Kind: UnknownContextKind}
	ErrSubjectMismatch    = &Violation{Kind: SubjectMismatch}
)

// Violation is returned by ReportAchieved when a report breaks the guard's
// contract. The guard state is left as it was before the report.
type Violation struct {
	Kind     ViolationKind
	Subject  subject.Key // guard's subject
	Reported subject.Key // subject named by the report
	Context  stub.Kind
	Level    level.Level // reported level
	Current  level.Level
	Allowed  level.Level
}

func (v *Violation) Error() string {
	switch v.Kind {
	case NonMonotonic:
		return fmt.Sprintf("%s: level should not decrease at any point: %s -> %s", v.Subject, v.Current, v.Level)
	case ExceedsAllowed:
		return fmt.Sprintf("%s: level increased before it was expected %s -> %s, allowed: %s", v.Subject, v.Current, v.Level, v.Allowed)
	case UnknownContextKind:
		return fmt.Sprintf("%s: unknown context %s", v.Subject, v.Context)
	case SubjectMismatch:
		return fmt.Sprintf("%s: report is about %s", v.Subject, v.Reported)
	default:
		return fmt.Sprintf("%s: guard violation", v.Subject)
	}
}

// Is matches any *Violation of the same kind.
func (v *Violation) Is(target error) bool {
	t, ok := target.(*Violation)
	return ok && t.Kind == v.Kind
}
