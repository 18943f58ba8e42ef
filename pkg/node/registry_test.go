package node

import (
	"context"
	"testing"
)

type stubNode struct{ Base }

func newStub(id, name string, config map[string]any) (Node, error) {
	return &stubNode{Base: NewBase(id, name, "stub", config)}, nil
}

func (n *stubNode) Validate() bool  { return true }
func (n *stubNode) Describe() Describe { return Describe{} }
func (n *stubNode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	return &Result{Success: true}, nil
}

func TestFindExactThenCaseInsensitiveThenSubstring(t *testing.T) {
	r := NewRegistry(false)
	_ = r.Register("httpRequest", newStub)

	if _, ok := r.Find("httpRequest"); !ok {
		t.Fatalf("exact match failed")
	}
	if _, ok := r.Find("HTTPREQUEST"); !ok {
		t.Fatalf("case-insensitive match failed")
	}
	if _, ok := r.Find("http"); !ok {
		t.Fatalf("substring match failed")
	}
	if _, ok := r.Find("nonexistent"); ok {
		t.Fatalf("expected no match for unregistered type")
	}
}

func TestAliasesShareFactory(t *testing.T) {
	r := NewRegistry(false)
	_ = r.Register("http", newStub, "httpRequest", "api")
	if _, ok := r.Find("api"); !ok {
		t.Fatalf("alias 'api' should resolve to the http factory")
	}
}

func TestStrictModeRejectsCollision(t *testing.T) {
	r := NewRegistry(true)
	if err := r.Register("stub", newStub); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := r.Register("stub", newStub); err == nil {
		t.Fatalf("expected collision error in strict mode")
	}
}

func TestDefaultModeOverwritesOnCollision(t *testing.T) {
	r := NewRegistry(false)
	_ = r.Register("stub", newStub)
	if err := r.Register("stub", newStub); err != nil {
		t.Fatalf("default mode should overwrite silently, got %v", err)
	}
}

func TestCreateFillsDefaultsAndValidates(t *testing.T) {
	r := NewRegistry(false)
	_ = r.Register("stub", newStub)
	n, err := r.Create("stub", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.ID() == "" {
		t.Errorf("expected a generated id")
	}
	if n.Name() != "stub Node" {
		t.Errorf("Name() = %q, want %q", n.Name(), "stub Node")
	}
}

func TestCreateWithIDPreservesCallerIdentity(t *testing.T) {
	r := NewRegistry(false)
	_ = r.Register("stub", newStub)
	n, err := r.CreateWithID("stub", "node-A", "A", map[string]any{"stopWorkflowOnFail": false})
	if err != nil {
		t.Fatalf("CreateWithID: %v", err)
	}
	if n.ID() != "node-A" || n.Name() != "A" {
		t.Errorf("got id=%q name=%q, want node-A/A", n.ID(), n.Name())
	}
	if n.StopWorkflowOnFail() {
		t.Errorf("StopWorkflowOnFail() = true, want false per config")
	}
}
