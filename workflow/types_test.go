package workflow

import "testing"

func TestAddNodeRejectsDuplicate(t *testing.T) {
	w := New("wf-1", "test", "")
	if err := w.AddNode(NodeSpec{ID: "a", Type: "http"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.AddNode(NodeSpec{ID: "a", Type: "http"}); err == nil {
		t.Fatalf("expected duplicate id error, got nil")
	}
}

func TestAddNodeRejectsEmptyID(t *testing.T) {
	w := New("wf-1", "test", "")
	if err := w.AddNode(NodeSpec{ID: "", Type: "http"}); err == nil {
		t.Fatalf("expected empty id error, got nil")
	}
}

func TestAddConnectionDefaultsSlots(t *testing.T) {
	w := New("wf-1", "test", "")
	_ = w.AddConnection(Connection{From: "a", To: "b"})
	if w.Connections[0].FromOutput != "output" {
		t.Errorf("FromOutput default = %q, want %q", w.Connections[0].FromOutput, "output")
	}
	if w.Connections[0].ToInput != "input" {
		t.Errorf("ToInput default = %q, want %q", w.Connections[0].ToInput, "input")
	}
}

func TestValidateRejectsUnknownConnectionEndpoint(t *testing.T) {
	w := New("wf-1", "test", "")
	_ = w.AddNode(NodeSpec{ID: "a", Type: "http"})
	_ = w.AddConnection(Connection{From: "a", To: "missing"})
	if err := w.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown endpoint, got nil")
	}
}

func TestValidateAcceptsWellFormedWorkflow(t *testing.T) {
	w := New("wf-1", "test", "")
	_ = w.AddNode(NodeSpec{ID: "a", Type: "http"})
	_ = w.AddNode(NodeSpec{ID: "b", Type: "http"})
	_ = w.AddConnection(Connection{From: "a", To: "b"})
	if err := w.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNodeIDsSorted(t *testing.T) {
	w := New("wf-1", "test", "")
	_ = w.AddNode(NodeSpec{ID: "c", Type: "http"})
	_ = w.AddNode(NodeSpec{ID: "a", Type: "http"})
	_ = w.AddNode(NodeSpec{ID: "b", Type: "http"})
	ids := w.NodeIDs()
	want := []string{"a", "b", "c"}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("NodeIDs()[%d] = %q, want %q", i, id, want[i])
		}
	}
}
