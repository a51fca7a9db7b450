package guard

import (
	"fmt"

	"lazycheck/internal/level"
	"lazycheck/internal/stub"
	"lazycheck/internal/subject"
)

// Op is the guard operation an Entry records.
type Op uint8

const (
	OpAllow Op = iota + 1
	OpReport
)

func (o Op) String() string {
	switch o {
	case OpAllow:
		return "allow"
	case OpReport:
		return "report"
	default:
		return "unknown"
	}
}

// Entry is one operation in a guard's history. For reports, Violation is
// zero when the report was accepted.
type Entry struct {
	Op        Op            `msgpack:"op" json:"op"`
	Level     level.Level   `msgpack:"level" json:"level"`
	Kind      stub.Kind     `msgpack:"kind,omitempty" json:"kind,omitempty"`
	Subject   subject.Key   `msgpack:"subject,omitempty" json:"subject,omitempty"`
	Violation ViolationKind `msgpack:"violation,omitempty" json:"violation,omitempty"`
}

// Accepted reports whether the entry is an accepted report.
func (e Entry) Accepted() bool {
	return e.Op == OpReport && e.Violation == 0
}

func (e Entry) String() string {
	switch e.Op {
	case OpAllow:
		return "allow " + e.Level.String()
	case OpReport:
		if e.Violation != 0 {
			return fmt.Sprintf("report %s (%s) rejected: %s", e.Level, e.Kind, e.Violation)
		}
		return fmt.Sprintf("report %s (%s)", e.Level, e.Kind)
	default:
		return e.Op.String()
	}
}

// Apply replays e onto g and returns what ReportAchieved returned.
func (e Entry) Apply(g *Guard) error {
	switch e.Op {
	case OpAllow:
		g.Allow(e.Level)
		return nil
	case OpReport:
		return g.ReportAchieved(e.Level, stub.Context{Subject: e.Subject, Kind: e.Kind})
	default:
		return fmt.Errorf("unknown guard op %d", e.Op)
	}
}
