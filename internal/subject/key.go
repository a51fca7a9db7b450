// Package subject names the declarations whose lazy computation is tracked.
package subject

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyKey is returned when a subject name is blank.
var ErrEmptyKey = errors.New("subject key is empty")

// Key is a stable identifier for a subject, usually a fully-qualified name.
// Keys are NFC-normalised so that equal names compare equal.
type Key struct {
	name string
}

// NewKey builds a Key from a qualified name.
func NewKey(name string) (Key, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Key{}, ErrEmptyKey
	}
	return Key{name: norm.NFC.String(name)}, nil
}

// MustKey is like NewKey but panics on an empty name. Intended for
// literals in tests and fixtures.
func MustKey(name string) Key {
	k, err := NewKey(name)
	if err != nil {
		panic(err)
	}
	return k
}

// String returns the qualified name.
func (k Key) String() string { return k.name }

// IsZero reports whether k was never initialised.
func (k Key) IsZero() bool { return k.name == "" }

// Short returns the last dotted segment of the name.
func (k Key) Short() string {
	if i := strings.LastIndexByte(k.name, '.'); i >= 0 {
		return k.name[i+1:]
	}
	return k.name
}

// Matches reports whether k names the declaration called short, either
// exactly or as the trailing segment of the qualified name.
func (k Key) Matches(short string) bool {
	short = norm.NFC.String(strings.TrimSpace(short))
	if short == "" {
		return false
	}
	return k.name == short || k.Short() == short
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text decodes to
// the zero Key.
func (k *Key) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Key{}
		return nil
	}
	parsed, err := NewKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
