package dag

import (
	"errors"
	"testing"

	"lazycheck/internal/lightclass"
)

func idsToNames(idx ClassIndex, ids []ClassID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func names(decls []lightclass.Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildIndexIncludesSupertypes(t *testing.T) {
	decls := []lightclass.Declaration{
		{Name: "geo.Circle", Super: "geo.Shape", Interfaces: []string{"lang.Comparable"}},
		{Name: "geo.Shape"},
	}

	idx := BuildIndex(decls)

	want := []string{"geo.Circle", "geo.Shape", "lang.Comparable"}
	if !equal(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
	for i, name := range want {
		if id, ok := idx.NameToID[name]; !ok || int(id) != i {
			t.Fatalf("NameToID[%q] = %v, want %d", name, id, i)
		}
	}
}

func TestToposortBatches(t *testing.T) {
	decls := []lightclass.Declaration{
		{Name: "geo.Square", Super: "geo.Rect"},
		{Name: "geo.Rect", Super: "geo.Shape"},
		{Name: "geo.Circle", Super: "geo.Shape", Interfaces: []string{"lang.Comparable"}},
		{Name: "geo.Shape", Super: "lang.Any"},
	}
	idx := BuildIndex(decls)
	g, err := BuildGraph(idx, decls)
	if err != nil {
		t.Fatal(err)
	}
	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", idsToNames(idx, topo.Cycles))
	}

	wantBatches := [][]string{
		{"geo.Shape"},
		{"geo.Circle", "geo.Rect"},
		{"geo.Square"},
	}
	if len(topo.Batches) != len(wantBatches) {
		t.Fatalf("got %d batches, want %d", len(topo.Batches), len(wantBatches))
	}
	for i, want := range wantBatches {
		if got := idsToNames(idx, topo.Batches[i]); !equal(got, want) {
			t.Errorf("batch %d = %v, want %v", i, got, want)
		}
	}
	if got := idsToNames(idx, topo.Order); !equal(got, []string{"geo.Shape", "geo.Circle", "geo.Rect", "geo.Square"}) {
		t.Errorf("order = %v", got)
	}
}

func TestOrder(t *testing.T) {
	decls := []lightclass.Declaration{
		{Name: "b.Sub", Super: "a.Base"},
		{Name: "a.Base"},
		{Name: "c.Lonely"},
	}
	got, err := Order(decls)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.Base", "c.Lonely", "b.Sub"}; !equal(names(got), want) {
		t.Errorf("Order = %v, want %v", names(got), want)
	}
}

func TestOrderReportsProblems(t *testing.T) {
	tests := []struct {
		name  string
		decls []lightclass.Declaration
		want  error
	}{
		{
			name:  "cycle",
			decls: []lightclass.Declaration{{Name: "A", Super: "B"}, {Name: "B", Interfaces: []string{"C"}}, {Name: "C", Super: "A"}, {Name: "D", Super: "A"}},
			want:  ErrCycle,
		},
		{
			name:  "self",
			decls: []lightclass.Declaration{{Name: "A", Super: "A"}},
			want:  ErrSelfSupertype,
		},
		{
			name:  "duplicate",
			decls: []lightclass.Declaration{{Name: "A"}, {Name: "A"}},
			want:  ErrDuplicate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Order(tt.decls)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCycleErrorNamesMembers(t *testing.T) {
	decls := []lightclass.Declaration{{Name: "A", Super: "B"}, {Name: "B", Super: "A"}, {Name: "C"}}
	idx := BuildIndex(decls)
	g, err := BuildGraph(idx, decls)
	if err != nil {
		t.Fatal(err)
	}
	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatal("expected a cycle")
	}
	if got := idsToNames(idx, topo.Cycles); !equal(got, []string{"A", "B"}) {
		t.Errorf("cycles = %v", got)
	}
	if err := CycleError(idx, topo); err == nil || err.Error() != "supertype cycle: A, B" {
		t.Errorf("CycleError = %v", err)
	}
}
