package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff     Level = iota // no tracing
	LevelError                // rejected reports only
	LevelSession              // run + session boundaries
	LevelReport               // every guard report
	LevelDebug                // everything
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelSession:
		return "session"
	case LevelReport:
		return "report"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "session":
		return LevelSession, nil
	case "report":
		return LevelReport, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|session|report|debug)", s)
	}
}

// ShouldEmit reports whether ev passes this level.
func (l Level) ShouldEmit(ev *Event) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return ev.Kind == KindReject
	case LevelSession:
		return ev.Scope <= ScopeSession || ev.Kind == KindReject
	case LevelReport:
		return ev.Scope <= ScopeReport
	case LevelDebug:
		return true
	}
	return false
}
