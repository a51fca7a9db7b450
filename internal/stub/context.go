// Package stub describes what a light-class producer reports after it
// computes a stub, and the observer hook it reports through.
package stub

import (
	"errors"
	"fmt"
	"strings"

	"lazycheck/internal/level"
	"lazycheck/internal/subject"
)

// ErrUnknownKind is returned when a computation kind cannot be decoded.
var ErrUnknownKind = errors.New("unknown stub context kind")

// Kind identifies which construction tier produced a stub.
type Kind uint8

const (
	// KindInvalid is the zero value and never names a real tier.
	KindInvalid Kind = iota
	// KindDummy is the cheap structural stub built without resolution.
	KindDummy
	// KindFull is the stub built from complete resolution.
	KindFull
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindDummy:
		return "dummy"
	case KindFull:
		return "full"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Known reports whether k is a recognised tier.
func (k Kind) Known() bool {
	return k == KindDummy || k == KindFull
}

// Level maps the kind onto the computation scale.
func (k Kind) Level() (level.Level, bool) {
	switch k {
	case KindDummy:
		return level.Partial, true
	case KindFull:
		return level.Full, true
	default:
		return level.None, false
	}
}

// ParseKind decodes a kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dummy", "partial":
		return KindDummy, nil
	case "full":
		return KindFull, nil
	default:
		return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// KindFor returns the tier that produces l. None has no producing tier.
func KindFor(l level.Level) (Kind, bool) {
	switch l {
	case level.Partial:
		return KindDummy, true
	case level.Full:
		return KindFull, true
	default:
		return KindInvalid, false
	}
}

// Context accompanies every stub notification.
type Context struct {
	Subject subject.Key
	Kind    Kind
}

// Dummy returns the context of a structural stub for key.
func Dummy(key subject.Key) Context {
	return Context{Subject: key, Kind: KindDummy}
}

// Full returns the context of a fully resolved stub for key.
func Full(key subject.Key) Context {
	return Context{Subject: key, Kind: KindFull}
}

// Level returns the computation level the context describes.
func (c Context) Level() (level.Level, bool) {
	return c.Kind.Level()
}

func (c Context) String() string {
	return fmt.Sprintf("%s stub of %s", c.Kind, c.Subject)
}

// Observer is notified synchronously each time a producer finishes
// computing a stub. A non-nil error aborts the access that triggered the
// computation.
type Observer interface {
	OnStubComputed(ctx Context) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx Context) error

// OnStubComputed calls f(ctx).
func (f ObserverFunc) OnStubComputed(ctx Context) error {
	return f(ctx)
}
