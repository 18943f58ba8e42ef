package graph

import "testing"

func levelsOf(g *Graph) map[string]int {
	out := map[string]int{}
	for _, grp := range g.GetParallelGroups() {
		for _, id := range grp.IDs {
			out[id] = grp.Level
		}
	}
	return out
}

func TestLinearChainLevels(t *testing.T) {
	g := New([]string{"a", "b", "c"}, []Connection{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
	})
	if errs := g.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	levels := levelsOf(g)
	if levels["a"] != 0 || levels["b"] != 1 || levels["c"] != 2 {
		t.Errorf("levels = %v, want a=0 b=1 c=2", levels)
	}
}

func TestDiamondParallelMiddle(t *testing.T) {
	g := New([]string{"a", "b", "c", "d"}, []Connection{
		{From: "a", To: "b"},
		{From: "a", To: "c"},
		{From: "b", To: "d"},
		{From: "c", To: "d"},
	})
	groups := g.GetParallelGroups()
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if len(groups[1].IDs) != 2 {
		t.Errorf("level 1 has %d nodes, want 2 (b,c)", len(groups[1].IDs))
	}
}

func TestIsolatedNodesAllLevelZero(t *testing.T) {
	g := New([]string{"a", "b", "c"}, nil)
	groups := g.GetParallelGroups()
	if len(groups) != 1 || groups[0].Level != 0 || len(groups[0].IDs) != 3 {
		t.Fatalf("got groups=%v, want single level 0 with 3 ids", groups)
	}
}

func TestEmptyGraphIsValid(t *testing.T) {
	g := New(nil, nil)
	if errs := g.Validate(); len(errs) != 0 {
		t.Errorf("empty graph should be valid, got %v", errs)
	}
	if len(g.GetParallelGroups()) != 0 {
		t.Errorf("empty graph should have no parallel groups")
	}
}

func TestCycleDetected(t *testing.T) {
	g := New([]string{"a", "b"}, []Connection{
		{From: "a", To: "b"},
		{From: "b", To: "a"},
	})
	errs := g.Validate()
	if len(errs) == 0 {
		t.Fatalf("expected cycle validation errors, got none")
	}
}

func TestDuplicateConnectionDoesNotDuplicateDependency(t *testing.T) {
	g := New([]string{"a", "b"}, []Connection{
		{From: "a", To: "b"},
		{From: "a", To: "b"},
	})
	if deps := g.Deps("b"); len(deps) != 1 {
		t.Errorf("Deps(b) = %v, want exactly one dependency on a", deps)
	}
	if conns := g.Connections("b"); len(conns) != 2 {
		t.Errorf("Connections(b) = %v, want both retained for I/O mapping", conns)
	}
}

func TestCanExecute(t *testing.T) {
	g := New([]string{"a", "b"}, []Connection{{From: "a", To: "b"}})
	completed := map[string]bool{}
	failed := map[string]bool{}
	if g.CanExecute("b", completed, failed) {
		t.Errorf("b should not be executable before a completes")
	}
	completed["a"] = true
	if !g.CanExecute("b", completed, failed) {
		t.Errorf("b should be executable once a completes")
	}
	delete(completed, "a")
	failed["a"] = true
	if g.CanExecute("b", completed, failed) {
		t.Errorf("b should not be executable once a has failed")
	}
}

func TestStartAndEndNodes(t *testing.T) {
	g := New([]string{"a", "b", "c"}, []Connection{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
	})
	start := g.GetStartNodes()
	end := g.GetEndNodes()
	if len(start) != 1 || start[0] != "a" {
		t.Errorf("GetStartNodes() = %v, want [a]", start)
	}
	if len(end) != 1 || end[0] != "c" {
		t.Errorf("GetEndNodes() = %v, want [c]", end)
	}
}
