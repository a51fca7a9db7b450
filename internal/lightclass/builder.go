package lightclass

import (
	"errors"
	"fmt"
	"sync"

	"lazycheck/internal/stub"
	"lazycheck/internal/subject"
)

// ErrObserverBusy is returned when an observer is installed while another
// one is still active.
var ErrObserverBusy = errors.New("lightclass: an observer is already installed")

// DefaultRoot is the superclass of declarations that name none.
const DefaultRoot = "lang.Any"

// Builder creates light classes and reports stub computations to at most
// one observer at a time.
type Builder struct {
	eager bool
	root  string

	mu     sync.RWMutex
	active stub.Observer
	gen    uint64
}

// Option configures a Builder.
type Option func(*Builder)

// Eager makes structural accessors compute the full stub first. It models
// a producer that ignores laziness.
func Eager() Option {
	return func(b *Builder) { b.eager = true }
}

// WithRoot sets the implicit superclass.
func WithRoot(name string) Option {
	return func(b *Builder) {
		if name != "" {
			b.root = name
		}
	}
}

// NewBuilder returns a Builder with no observer installed.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{root: DefaultRoot}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates a Class for decl. No stub is computed.
func (b *Builder) Build(decl Declaration) (*Class, error) {
	if err := decl.Validate(); err != nil {
		return nil, err
	}
	key, err := subject.NewKey(decl.Name)
	if err != nil {
		return nil, err
	}
	return &Class{key: key, decl: decl, builder: b}, nil
}

// Observe installs obs as the active observer. The returned release
// function uninstalls it and is safe to call more than once.
func (b *Builder) Observe(obs stub.Observer) (release func(), err error) {
	if obs == nil {
		return nil, fmt.Errorf("lightclass: nil observer")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active != nil {
		return nil, ErrObserverBusy
	}
	b.active = obs
	b.gen++
	gen := b.gen

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gen == gen {
				b.active = nil
			}
			b.mu.Unlock()
		})
	}, nil
}

// WithObserver runs fn with obs installed and uninstalls it on every exit
// path, including panics.
func WithObserver(b *Builder, obs stub.Observer, fn func() error) error {
	release, err := b.Observe(obs)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (b *Builder) notify(ctx stub.Context) error {
	b.mu.RLock()
	obs := b.active
	b.mu.RUnlock()
	if obs == nil {
		return nil
	}
	return obs.OnStubComputed(ctx)
}

func (b *Builder) resolve(super string) string {
	if super == "" {
		return b.root
	}
	return super
}
