package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"lazycheck/internal/lightclass"
)

var (
	ErrDuplicate     = errors.New("duplicate declaration")
	ErrSelfSupertype = errors.New("class is its own supertype")
	ErrCycle         = errors.New("supertype cycle")
)

type Graph struct {
	Edges   [][]ClassID // Edges[super] = []sub
	Indeg   []int       // in-degree for Kahn, counting declared supertypes only
	Present []bool      // declared in the project, not just named as a supertype
}

// BuildGraph links every declared class to its supertypes. Supertypes
// that are not declared (library types such as lang.Any) are kept in the
// index but add no ordering constraint. Problems are joined into the
// returned error; the graph is still usable without the offending edges.
func BuildGraph(idx ClassIndex, decls []lightclass.Declaration) (Graph, error) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ClassID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	byID := make([]*lightclass.Declaration, nodeCount)

	var errs []error
	for i := range decls {
		d := &decls[i]
		id, ok := idx.NameToID[d.Name]
		if !ok {
			// index is built from the same declarations
			continue
		}
		if g.Present[int(id)] {
			errs = append(errs, fmt.Errorf("%w %q", ErrDuplicate, d.Name))
			continue
		}
		g.Present[int(id)] = true
		byID[int(id)] = d
	}

	for sub, d := range byID {
		if d == nil {
			continue
		}
		seen := make(map[ClassID]struct{})
		for _, super := range supertypes(*d) {
			superID := idx.NameToID[super]
			if int(superID) == sub {
				errs = append(errs, fmt.Errorf("%w: %q", ErrSelfSupertype, d.Name))
				continue
			}
			if _, dup := seen[superID]; dup {
				continue
			}
			seen[superID] = struct{}{}
			if !g.Present[int(superID)] {
				continue
			}
			g.Edges[int(superID)] = append(g.Edges[int(superID)], ClassID(sub))
			g.Indeg[sub]++
		}
	}
	for from := range g.Edges {
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, errors.Join(errs...)
}

// CycleError names the classes left over by a cyclic sort.
func CycleError(idx ClassIndex, topo *Topo) error {
	if !topo.Cyclic || len(topo.Cycles) == 0 {
		return nil
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	return fmt.Errorf("%w: %s", ErrCycle, strings.Join(names, ", "))
}

// Order returns decls sorted supertypes first, ties broken by name. It
// fails on duplicate names, self supertypes and cycles.
func Order(decls []lightclass.Declaration) ([]lightclass.Declaration, error) {
	idx := BuildIndex(decls)
	g, err := BuildGraph(idx, decls)
	if err != nil {
		return nil, err
	}
	topo := ToposortKahn(g)
	if err := CycleError(idx, topo); err != nil {
		return nil, err
	}

	byName := make(map[string]lightclass.Declaration, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}
	out := make([]lightclass.Declaration, 0, len(decls))
	for _, id := range topo.Order {
		out = append(out, byName[idx.IDToName[int(id)]])
	}
	return out, nil
}
