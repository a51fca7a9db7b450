package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []ClassID   // linear order, declared classes only
	Batches [][]ClassID // waves of classes whose supertypes are all earlier
	Cyclic  bool
	Cycles  []ClassID // nodes left inside a cycle
}

func classID(i int) ClassID {
	id, err := safecast.Conv[ClassID](i)
	if err != nil {
		panic(fmt.Errorf("class id overflow: %w", err))
	}
	return id
}

func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]ClassID, 0, nodeCount),
		Batches: make([][]ClassID, 0),
	}

	active := 0
	current := make([]ClassID, 0, nodeCount)
	for i := 0; i < nodeCount; i++ {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, classID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		var next []ClassID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := 0; i < nodeCount; i++ {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, classID(i))
			}
		}
	}

	return topo
}
