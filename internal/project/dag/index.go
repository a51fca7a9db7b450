// Package dag orders declarations by their type hierarchy: a supertype
// comes before every class that extends or implements it.
package dag

import (
	"sort"

	"lazycheck/internal/lightclass"
)

type ClassID uint32

type ClassIndex struct {
	NameToID map[string]ClassID
	IDToName []string
}

// BuildIndex collects every declared name and every supertype named by a
// declaration, sorts them and hands out IDs in order.
func BuildIndex(decls []lightclass.Declaration) ClassIndex {
	uniq := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		if d.Name != "" {
			uniq[d.Name] = struct{}{}
		}
		for _, super := range supertypes(d) {
			uniq[super] = struct{}{}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]ClassID, len(names))
	for i, name := range names {
		nameToID[name] = ClassID(i)
	}

	return ClassIndex{
		NameToID: nameToID,
		IDToName: names,
	}
}

func supertypes(d lightclass.Declaration) []string {
	out := make([]string, 0, 1+len(d.Interfaces))
	if d.Super != "" {
		out = append(out, d.Super)
	}
	for _, iface := range d.Interfaces {
		if iface != "" {
			out = append(out, iface)
		}
	}
	return out
}
