// Package lightclass builds lazily materialised views of declarations.
//
// A Class answers structural questions (name, fields, methods) from a
// cheap dummy stub and semantic questions (supertypes) from a fully
// resolved stub. Each stub is computed at most once, on first demand, and
// the builder's active observer is told about it before the answer is
// returned.
package lightclass

import (
	"fmt"
	"sync"

	"lazycheck/internal/stub"
	"lazycheck/internal/subject"
)

// Declaration is the source-level description a Class is built from.
type Declaration struct {
	Name       string   `toml:"name" yaml:"name"`
	Super      string   `toml:"super" yaml:"super"`
	Interfaces []string `toml:"interfaces" yaml:"interfaces"`
	Fields     []string `toml:"fields" yaml:"fields"`
	Methods    []string `toml:"methods" yaml:"methods"`
}

// Validate checks the declaration can be turned into a Class.
func (d Declaration) Validate() error {
	if _, err := subject.NewKey(d.Name); err != nil {
		return fmt.Errorf("declaration: %w", err)
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("declaration %s: duplicate field %q", d.Name, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// dummyStub holds what can be known without resolution.
type dummyStub struct {
	fields  []string
	methods []string
}

// fullStub holds resolved supertypes.
type fullStub struct {
	super      string
	interfaces []string
}

// Class is a light class for one declaration.
type Class struct {
	key     subject.Key
	decl    Declaration
	builder *Builder

	mu    sync.Mutex
	dummy *dummyStub
	full  *fullStub
}

// Key returns the qualified name of the class.
func (c *Class) Key() subject.Key { return c.key }

// Name returns the qualified name. It needs no stub.
func (c *Class) Name() string { return c.key.String() }

// Fields returns the declared fields. Needs the dummy stub.
func (c *Class) Fields() ([]string, error) {
	d, err := c.structural()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), d.fields...), nil
}

// Methods returns the declared methods. Needs the dummy stub.
func (c *Class) Methods() ([]string, error) {
	d, err := c.structural()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), d.methods...), nil
}

// SuperClass returns the resolved superclass, "" for the root type.
// Needs the full stub.
func (c *Class) SuperClass() (string, error) {
	f, err := c.resolved()
	if err != nil {
		return "", err
	}
	return f.super, nil
}

// Interfaces returns the resolved interfaces. Needs the full stub.
func (c *Class) Interfaces() ([]string, error) {
	f, err := c.resolved()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), f.interfaces...), nil
}

func (c *Class) structural() (*dummyStub, error) {
	if c.builder.eager {
		if _, err := c.resolved(); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dummy != nil {
		return c.dummy, nil
	}
	d := &dummyStub{
		fields:  append([]string(nil), c.decl.Fields...),
		methods: append([]string(nil), c.decl.Methods...),
	}
	if err := c.builder.notify(stub.Dummy(c.key)); err != nil {
		return nil, err
	}
	c.dummy = d
	return d, nil
}

func (c *Class) resolved() (*fullStub, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full != nil {
		return c.full, nil
	}
	f := &fullStub{
		super:      c.builder.resolve(c.decl.Super),
		interfaces: append([]string(nil), c.decl.Interfaces...),
	}
	if err := c.builder.notify(stub.Full(c.key)); err != nil {
		return nil, err
	}
	c.full = f
	// A full stub answers structural questions too.
	if c.dummy == nil {
		c.dummy = &dummyStub{
			fields:  append([]string(nil), c.decl.Fields...),
			methods: append([]string(nil), c.decl.Methods...),
		}
	}
	return f, nil
}
