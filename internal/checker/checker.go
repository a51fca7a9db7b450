// Package checker runs laziness sessions: for each declaration it builds a
// light class, guards it, and touches it in the order a well-behaved
// caller would, failing as soon as the producer computes more than it was
// allowed to.
package checker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lazycheck/internal/guard"
	"lazycheck/internal/level"
	"lazycheck/internal/lightclass"
	"lazycheck/internal/stub"
	"lazycheck/internal/subject"
	"lazycheck/internal/trace"
)

// ErrLevelMismatch is returned when a session ends a step at a level other
// than the one the step should have reached.
var ErrLevelMismatch = errors.New("unexpected computation level")

// Options configures a Checker.
type Options struct {
	Jobs     int  // parallel sessions, <= 0 means GOMAXPROCS
	Eager    bool // build classes with an eager producer
	FailFast bool // stop RunAll at the first failed session
	Root     string
	Logger   *zap.Logger
}

// Result is the outcome of one session. A zero Started means the session
// never ran.
type Result struct {
	Name     string        `json:"name"` // declaration name as given
	Subject  subject.Key   `json:"subject"`
	Started  time.Time     `json:"started"`
	Level    level.Level   `json:"level"`
	History  []guard.Entry `json:"history"`
	Duration time.Duration `json:"duration_ns"`
	Err      error         `json:"-"`
}

// Passed reports whether the session completed without error.
func (r Result) Passed() bool { return r.Err == nil }

// Violation returns the guard violation that failed the session, if any.
func (r Result) Violation() (*guard.Violation, bool) {
	var v *guard.Violation
	if errors.As(r.Err, &v) {
		return v, true
	}
	return nil, false
}

// Checker runs sessions.
type Checker struct {
	opts Options
	log  *zap.Logger
}

// New returns a Checker.
func New(opts Options) *Checker {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{opts: opts, log: log}
}

func (c *Checker) builder() *lightclass.Builder {
	var opts []lightclass.Option
	if c.opts.Eager {
		opts = append(opts, lightclass.Eager())
	}
	opts = append(opts, lightclass.WithRoot(c.opts.Root))
	return lightclass.NewBuilder(opts...)
}

// Check raises the ceiling one level at a time and touches only what each
// level is supposed to compute: fields at partial, the superclass at full.
func Check(cls *lightclass.Class, g *guard.Guard) error {
	g.Allow(level.Partial)
	if _, err := cls.Fields(); err != nil {
		return err
	}
	if !g.CheckExactLevel(level.Partial) {
		return fmt.Errorf("%s: after fields: %w: %s, want %s", cls.Key(), ErrLevelMismatch, g.Current(), level.Partial)
	}

	g.Allow(level.Full)
	if _, err := cls.SuperClass(); err != nil {
		return err
	}
	return nil
}

// CheckStructure touches every accessor of cls.
func CheckStructure(cls *lightclass.Class) error {
	if cls.Name() == "" {
		return fmt.Errorf("light class has no name")
	}
	if _, err := cls.Fields(); err != nil {
		return err
	}
	if _, err := cls.Methods(); err != nil {
		return err
	}
	if _, err := cls.SuperClass(); err != nil {
		return err
	}
	_, err := cls.Interfaces()
	return err
}

// Run checks one declaration. Failures are reported in the Result.
func (c *Checker) Run(ctx context.Context, decl lightclass.Declaration) Result {
	start := time.Now()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeSession, decl.Name, trace.ParentFrom(ctx))

	res := c.run(decl, tracer, span.ID())
	res.Name = decl.Name
	res.Started = start
	res.Duration = time.Since(start)

	if res.Err != nil {
		span.WithExtra("level", res.Level.String()).End(res.Err.Error())
		c.log.Warn("laziness check failed",
			zap.String("subject", decl.Name),
			zap.Stringer("level", res.Level),
			zap.Error(res.Err))
		return res
	}
	span.WithExtra("level", res.Level.String()).End("ok")
	c.log.Debug("laziness check passed",
		zap.String("subject", decl.Name),
		zap.Duration("took", res.Duration))
	return res
}

func (c *Checker) run(decl lightclass.Declaration, tracer trace.Tracer, spanID uint64) Result {
	b := c.builder()
	cls, err := b.Build(decl)
	if err != nil {
		key, _ := subject.NewKey(decl.Name)
		return Result{Subject: key, Err: err}
	}

	g := guard.New(cls.Key(), guard.WithTracer(tracer, spanID))
	obs := stub.ObserverFunc(func(ctx stub.Context) error {
		c.log.Debug("stub computed",
			zap.Stringer("subject", ctx.Subject),
			zap.Stringer("kind", ctx.Kind))
		return g.OnStubComputed(ctx)
	})
	err = lightclass.WithObserver(b, obs, func() error {
		if err := Check(cls, g); err != nil {
			return err
		}
		g.Allow(level.Full)
		return CheckStructure(cls)
	})
	if err == nil && !g.CheckExactLevel(level.Full) {
		err = fmt.Errorf("%s: after structure pass: %w: %s, want %s", cls.Key(), ErrLevelMismatch, g.Current(), level.Full)
	}
	return Result{
		Subject: cls.Key(),
		Level:   g.Current(),
		History: g.History(),
		Err:     err,
	}
}

// RunAll checks decls in parallel and returns results in input order.
// With FailFast the first failed session cancels the rest and its error
// is returned; otherwise the error is non-nil only if ctx was cancelled.
func (c *Checker) RunAll(ctx context.Context, decls []lightclass.Declaration) ([]Result, error) {
	results := make([]Result, len(decls))
	if len(decls) == 0 {
		return results, nil
	}

	jobs := c.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeRun, "check", trace.ParentFrom(ctx))
	ctx = trace.WithParent(ctx, span.ID())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(decls)))

	for i, decl := range decls {
		i, decl := i, decl
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.Run(gctx, decl)
			if c.opts.FailFast && results[i].Err != nil {
				return fmt.Errorf("%s: %w", decl.Name, results[i].Err)
			}
			return nil
		})
	}
	err := g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	span.WithExtra("sessions", fmt.Sprint(len(decls))).WithExtra("failed", fmt.Sprint(failed)).End("")
	c.log.Info("laziness check finished",
		zap.Int("sessions", len(decls)),
		zap.Int("failed", failed),
		zap.Int("jobs", jobs))
	return results, err
}
