// Package guard enforces that a lazily built light class only computes as
// much as its caller allowed, one level at a time.
//
// A Guard is bound to one subject. The caller raises the ceiling with
// Allow before touching the light class; the producer reports every stub
// it computes through ReportAchieved (or the stub.Observer hook). A report
// is accepted only if it strictly raises the current level without going
// past the ceiling. Rejected reports leave the guard untouched.
package guard

import (
	"sync"

	"lazycheck/internal/level"
	"lazycheck/internal/stub"
	"lazycheck/internal/subject"
	"lazycheck/internal/trace"
)

// Guard tracks the computation level of a single subject. It is safe for
// concurrent use; every operation runs under one mutex.
type Guard struct {
	mu      sync.Mutex
	key     subject.Key
	current level.Level
	allowed level.Level
	history []Entry

	tracer trace.Tracer
	parent uint64
}

// Option configures a Guard.
type Option func(*Guard)

// WithTracer emits an event for every allow and report. parent is the
// span the events hang under.
func WithTracer(t trace.Tracer, parent uint64) Option {
	return func(g *Guard) {
		if t != nil {
			g.tracer = t
			g.parent = parent
		}
	}
}

// New returns a guard for key with both levels at the bottom.
func New(key subject.Key, opts ...Option) *Guard {
	g := &Guard{
		key:     key,
		current: level.Bottom,
		allowed: level.Bottom,
		tracer:  trace.Nop,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Subject returns the subject the guard is bound to.
func (g *Guard) Subject() subject.Key { return g.key }

// Allow sets the ceiling. It may lower it as well as raise it. A level
// past level.Max is clamped to it.
func (g *Guard) Allow(l level.Level) {
	if !l.Valid() {
		l = level.Max
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.allowed = l
	g.history = append(g.history, Entry{Op: OpAllow, Level: l})
	trace.Point(g.tracer, trace.KindPoint, trace.ScopeDetail, g.key.String(), "allow "+l.String(), g.parent, nil)
}

// ReportAchieved records that the producer finished computing l for the
// subject named in ctx. It fails with a *Violation when the subject
// differs, the context kind is unknown, l does not strictly increase the
// current level, or l exceeds the ceiling, checked in that order. A level
// past level.Max always exceeds the ceiling, so Full is terminal.
func (g *Guard) ReportAchieved(l level.Level, ctx stub.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.validate(l, ctx); err != nil {
		g.history = append(g.history, Entry{Op: OpReport, Level: l, Kind: ctx.Kind, Subject: ctx.Subject, Violation: err.Kind})
		g.emit(trace.KindReject, l, err.Kind.String())
		return err
	}

	g.current = l
	g.history = append(g.history, Entry{Op: OpReport, Level: l, Kind: ctx.Kind, Subject: ctx.Subject})
	g.emit(trace.KindAccept, l, "")
	return nil
}

func (g *Guard) validate(l level.Level, ctx stub.Context) *Violation {
	v := &Violation{
		Subject:  g.key,
		Reported: ctx.Subject,
		Context:  ctx.Kind,
		Level:    l,
		Current:  g.current,
		Allowed:  g.allowed,
	}
	switch {
	case ctx.Subject != g.key:
		v.Kind = SubjectMismatch
	case !ctx.Kind.Known():
		v.Kind = UnknownContextKind
	case !l.Valid():
		v.Kind = ExceedsAllowed
	case l <= g.current:
		v.Kind = NonMonotonic
	case l > g.allowed:
		v.Kind = ExceedsAllowed
	default:
		return nil
	}
	return v
}

func (g *Guard) emit(kind trace.Kind, l level.Level, detail string) {
	if !g.tracer.Enabled() {
		return
	}
	extra := map[string]string{
		"level":   l.String(),
		"current": g.current.String(),
		"allowed": g.allowed.String(),
	}
	trace.Point(g.tracer, kind, trace.ScopeReport, g.key.String(), detail, g.parent, extra)
}

// OnStubComputed implements stub.Observer by reporting the level the
// context's kind describes.
func (g *Guard) OnStubComputed(ctx stub.Context) error {
	l, _ := ctx.Level()
	return g.ReportAchieved(l, ctx)
}

// CheckExactLevel reports whether the current level is exactly l.
func (g *Guard) CheckExactLevel(l level.Level) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current == l
}

// Current returns the highest accepted level.
func (g *Guard) Current() level.Level {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Allowed returns the ceiling.
func (g *Guard) Allowed() level.Level {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowed
}

// History returns a copy of every operation applied to the guard.
func (g *Guard) History() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Entry, len(g.history))
	copy(out, g.history)
	return out
}

var _ stub.Observer = (*Guard)(nil)
