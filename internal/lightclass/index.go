package lightclass

import (
	"fmt"
	"sort"

	"lazycheck/internal/subject"
)

// Index finds declarations by name.
type Index struct {
	byKey map[subject.Key]Declaration
	keys  []subject.Key
}

// NewIndex indexes decls. Duplicate qualified names are an error.
func NewIndex(decls []Declaration) (*Index, error) {
	idx := &Index{byKey: make(map[subject.Key]Declaration, len(decls))}
	for _, d := range decls {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		key := subject.MustKey(d.Name)
		if _, dup := idx.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate declaration %s", key)
		}
		idx.byKey[key] = d
		idx.keys = append(idx.keys, key)
	}
	sort.Slice(idx.keys, func(i, j int) bool { return idx.keys[i].String() < idx.keys[j].String() })
	return idx, nil
}

// Lookup finds a declaration by qualified name, falling back to the first
// declaration (in name order) whose short name matches.
func (idx *Index) Lookup(name string) (Declaration, bool) {
	if key, err := subject.NewKey(name); err == nil {
		if d, ok := idx.byKey[key]; ok {
			return d, true
		}
	}
	for _, k := range idx.keys {
		if k.Matches(name) {
			return idx.byKey[k], true
		}
	}
	return Declaration{}, false
}
