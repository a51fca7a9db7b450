package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1 // start of a run or session
	KindSpanEnd                   // end of a run or session
	KindAccept                    // guard accepted a report
	KindReject                    // guard rejected a report
	KindPoint                     // anything else
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindAccept:
		return "accept"
	case KindReject:
		return "reject"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeRun     Scope = iota + 1 // whole CLI invocation
	ScopeSession                  // one subject checked end to end
	ScopeReport                   // one stub report
	ScopeDetail                   // allow calls and other fine-grained steps
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopeSession:
		return "session"
	case ScopeReport:
		return "report"
	case ScopeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // span name or subject key
	Detail   string
	Extra    map[string]string
}
