package runner

import (
	"context"
	"strings"
	"testing"

	"github.com/flowcraft/dagrunner/pkg/execution"
	"github.com/flowcraft/dagrunner/pkg/node"
	"github.com/flowcraft/dagrunner/workflow"
)

// scriptedNode lets tests script success/failure and capture received input.
type scriptedNode struct {
	node.Base
	succeed     bool
	output      any
	errMsg      string
	gotInput    map[string]any
	executed    *int
}

func newScripted(succeed bool, output any, errMsg string, executed *int) func(id, name string, config map[string]any) (node.Node, error) {
	return func(id, name string, config map[string]any) (node.Node, error) {
		return &scriptedNode{Base: node.NewBase(id, name, "scripted", config), succeed: succeed, output: output, errMsg: errMsg, executed: executed}, nil
	}
}

func (n *scriptedNode) Validate() bool         { return true }
func (n *scriptedNode) Describe() node.Describe { return node.Describe{} }
func (n *scriptedNode) Execute(ctx context.Context, input map[string]any) (*node.Result, error) {
	n.gotInput = input
	if n.executed != nil {
		*n.executed++
	}
	if !n.succeed {
		return &node.Result{Success: false, Error: n.errMsg}, nil
	}
	return &node.Result{Success: true, Data: n.output}, nil
}

func newRegistry(t *testing.T, factories map[string]func(id, name string, config map[string]any) (node.Node, error)) *node.Registry {
	t.Helper()
	r := node.NewRegistry(false)
	for typ, f := range factories {
		if err := r.Register(typ, f); err != nil {
			t.Fatalf("register %s: %v", typ, err)
		}
	}
	return r
}

// TestLinearPipelineCompletes is S1: a straight A->B->C chain where every
// node succeeds runs to completion with each downstream node receiving its
// upstream's output.
func TestLinearPipelineCompletes(t *testing.T) {
	reg := newRegistry(t, map[string]func(id, name string, config map[string]any) (node.Node, error){
		"scripted": newScripted(true, map[string]any{"output": "A-out"}, "", nil),
	})

	wf := workflow.New("wf1", "linear", "")
	_ = wf.AddNode(workflow.NodeSpec{ID: "A", Type: "scripted"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "B", Type: "scripted"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "C", Type: "scripted"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "B"})
	_ = wf.AddConnection(workflow.Connection{From: "B", To: "C"})

	r := New(DefaultConfig(), reg, execution.NewMemoryStore(), nil)
	exec, err := r.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.StatusOf() != execution.StatusCompleted {
		t.Fatalf("status = %s, want completed", exec.StatusOf())
	}
}

// TestDiamondParallelMiddleRunsConcurrently is S2-shaped: A fans out to B
// and C (async, so they share the level's worker pool), both feed D; all
// four complete.
func TestDiamondParallelMiddleRunsConcurrently(t *testing.T) {
	reg := newRegistry(t, map[string]func(id, name string, config map[string]any) (node.Node, error){
		"scripted": newScripted(true, map[string]any{"output": "ok"}, "", nil),
	})

	wf := workflow.New("wf2", "diamond", "")
	for _, id := range []string{"A", "B", "C", "D"} {
		spec := workflow.NodeSpec{ID: id, Type: "scripted"}
		if id == "B" || id == "C" {
			spec.Config = map[string]any{"executionMode": "async"}
		}
		_ = wf.AddNode(spec)
	}
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "B"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "C"})
	_ = wf.AddConnection(workflow.Connection{From: "B", To: "D"})
	_ = wf.AddConnection(workflow.Connection{From: "C", To: "D"})

	r := New(DefaultConfig(), reg, execution.NewMemoryStore(), nil)
	exec, err := r.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.StatusOf() != execution.StatusCompleted {
		t.Fatalf("status = %s, want completed", exec.StatusOf())
	}
}

// TestFatalFailureStopsDependents is S3: B fails with stopWorkflowOnFail
// (the default), so D (which depends on B) never runs and the execution
// fails, while A and C (not downstream of B) still complete.
func TestFatalFailureStopsDependents(t *testing.T) {
	dExecuted := 0
	reg := node.NewRegistry(false)
	_ = reg.Register("ok", newScripted(true, "ok", "", nil))
	_ = reg.Register("fail", newScripted(false, nil, "boom", nil))
	_ = reg.Register("counted", newScripted(true, "ok", "", &dExecuted))

	wf := workflow.New("wf3", "fatal", "")
	_ = wf.AddNode(workflow.NodeSpec{ID: "A", Type: "ok"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "B", Type: "fail"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "C", Type: "ok"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "D", Type: "counted"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "B"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "C"})
	_ = wf.AddConnection(workflow.Connection{From: "B", To: "D"})

	r := New(DefaultConfig(), reg, execution.NewMemoryStore(), nil)
	exec, err := r.Execute(context.Background(), wf, nil)
	if err == nil {
		t.Fatalf("expected a fatal failure error")
	}
	if !strings.Contains(err.Error(), "B") {
		t.Errorf("error %q should name the failed node B", err.Error())
	}
	if exec.StatusOf() != execution.StatusFailed {
		t.Fatalf("status = %s, want failed", exec.StatusOf())
	}
	if dExecuted != 0 {
		t.Errorf("D executed %d times, want 0 (unreachable)", dExecuted)
	}
}

// TestNonFatalFailureLetsWorkflowComplete is S4: B fails with
// stopWorkflowOnFail=false, so D still runs but receives no input keyed by
// B, and the overall execution completes.
func TestNonFatalFailureLetsWorkflowComplete(t *testing.T) {
	reg := node.NewRegistry(false)
	_ = reg.Register("ok", newScripted(true, "ok", "", nil))
	_ = reg.Register("fail", func(id, name string, config map[string]any) (node.Node, error) {
		if config == nil {
			config = map[string]any{}
		}
		config["stopWorkflowOnFail"] = false
		return newScripted(false, nil, "boom", nil)(id, name, config)
	})

	var dNode *scriptedNode
	_ = reg.Register("capture", func(id, name string, config map[string]any) (node.Node, error) {
		n := &scriptedNode{Base: node.NewBase(id, name, "capture", config), succeed: true, output: "ok"}
		dNode = n
		return n, nil
	})

	wf := workflow.New("wf4", "nonfatal", "")
	_ = wf.AddNode(workflow.NodeSpec{ID: "A", Type: "ok"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "B", Type: "fail"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "C", Type: "ok"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "D", Type: "capture"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "B"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "C"})
	_ = wf.AddConnection(workflow.Connection{From: "B", To: "D"})
	_ = wf.AddConnection(workflow.Connection{From: "C", To: "D"})

	r := New(DefaultConfig(), reg, execution.NewMemoryStore(), nil)
	exec, err := r.Execute(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.StatusOf() != execution.StatusCompleted {
		t.Fatalf("status = %s, want completed", exec.StatusOf())
	}
	if dNode == nil {
		t.Fatalf("D never ran")
	}
	if _, ok := dNode.gotInput["B"]; ok {
		t.Errorf("D received input keyed by B, want none published")
	}
	if _, ok := dNode.gotInput["C"]; !ok {
		t.Errorf("D should still receive input from C")
	}
}

// TestCycleRejected is S5: a graph with a cycle is rejected before any node
// executes.
func TestCycleRejected(t *testing.T) {
	executed := 0
	reg := newRegistry(t, map[string]func(id, name string, config map[string]any) (node.Node, error){
		"scripted": newScripted(true, "ok", "", &executed),
	})

	wf := workflow.New("wf5", "cycle", "")
	_ = wf.AddNode(workflow.NodeSpec{ID: "A", Type: "scripted"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "B", Type: "scripted"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "B"})
	_ = wf.AddConnection(workflow.Connection{From: "B", To: "A"})

	r := New(DefaultConfig(), reg, execution.NewMemoryStore(), nil)
	_, err := r.Execute(context.Background(), wf, nil)
	if err == nil {
		t.Fatalf("expected cycle rejection")
	}
	if executed != 0 {
		t.Errorf("executed %d nodes, want 0 for a rejected cycle", executed)
	}
}

// TestTemplateSubstitutionAppliedBeforeExecute exercises §4.2 step 5.b: the
// node's config is interpolated against the live context before Execute.
func TestTemplateSubstitutionAppliedBeforeExecute(t *testing.T) {
	var capturedConfig map[string]any
	reg := node.NewRegistry(false)
	_ = reg.Register("templated", func(id, name string, config map[string]any) (node.Node, error) {
		return &templateCapturingNode{Base: node.NewBase(id, name, "templated", config), captured: &capturedConfig}, nil
	})

	wf := workflow.New("wf6", "templated", "")
	_ = wf.AddNode(workflow.NodeSpec{ID: "A", Type: "templated", Config: map[string]any{"greeting": "hello {{ name }}"}})

	r := New(DefaultConfig(), reg, execution.NewMemoryStore(), nil)
	_, err := r.Execute(context.Background(), wf, map[string]any{"name": "world"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if capturedConfig["greeting"] != "hello world" {
		t.Errorf("greeting = %v, want interpolated value", capturedConfig["greeting"])
	}
}

// TestMaxNodeExecutionsStopsRun exercises the optional node-execution-count
// guard (SPEC_FULL.md §C): once the configured limit is exceeded mid-run,
// the breaching node is treated as fatal regardless of its own
// stopWorkflowOnFail setting, and the run ends failed.
func TestMaxNodeExecutionsStopsRun(t *testing.T) {
	reg := node.NewRegistry(false)
	_ = reg.Register("lenient", func(id, name string, config map[string]any) (node.Node, error) {
		if config == nil {
			config = map[string]any{}
		}
		config["stopWorkflowOnFail"] = false
		return newScripted(true, "ok", "", nil)(id, name, config)
	})

	wf := workflow.New("wf7", "limited", "")
	_ = wf.AddNode(workflow.NodeSpec{ID: "A", Type: "lenient"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "B", Type: "lenient"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "C", Type: "lenient"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "B"})
	_ = wf.AddConnection(workflow.Connection{From: "B", To: "C"})

	cfg := DefaultConfig()
	cfg.MaxNodeExecutions = 2
	r := New(cfg, reg, execution.NewMemoryStore(), nil)
	exec, err := r.Execute(context.Background(), wf, nil)
	if err == nil {
		t.Fatalf("expected the node-execution limit to fail the run")
	}
	if exec.StatusOf() != execution.StatusFailed {
		t.Fatalf("status = %s, want failed", exec.StatusOf())
	}
}

// TestCancellationObservedBetweenLevels is S6: an external Cancel call is
// honored once the in-flight level quiesces, not mid-node; a node in a
// later, not-yet-started level never runs, and the execution ends failed
// with the reserved "cancelled" error while the already-completed node
// stays completed.
func TestCancellationObservedBetweenLevels(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	cExecuted := 0

	reg := node.NewRegistry(false)
	_ = reg.Register("fast", newScripted(true, "ok", "", nil))
	_ = reg.Register("slow", func(id, name string, config map[string]any) (node.Node, error) {
		return &blockingNode{Base: node.NewBase(id, name, "slow", config), started: started, proceed: proceed}, nil
	})
	_ = reg.Register("counted", newScripted(true, "ok", "", &cExecuted))

	wf := workflow.New("wf8", "cancel", "")
	_ = wf.AddNode(workflow.NodeSpec{ID: "A", Type: "fast"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "B", Type: "slow"})
	_ = wf.AddNode(workflow.NodeSpec{ID: "C", Type: "counted"})
	_ = wf.AddConnection(workflow.Connection{From: "A", To: "B"})
	_ = wf.AddConnection(workflow.Connection{From: "B", To: "C"})

	store := execution.NewMemoryStore()
	r := New(DefaultConfig(), reg, store, nil)

	var exec *execution.Execution
	var runErr error
	done := make(chan struct{})
	go func() {
		exec, runErr = r.Execute(context.Background(), wf, nil)
		close(done)
	}()

	<-started // B (level 1) has begun; A (level 0) already completed.

	ids, err := store.ListRunning(context.Background())
	if err != nil || len(ids) != 1 {
		t.Fatalf("ListRunning = %v, %v; want exactly one running execution", ids, err)
	}
	if err := r.Cancel(context.Background(), ids[0]); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	close(proceed) // let B finish its own level
	<-done

	if runErr == nil {
		t.Fatalf("expected a cancellation error")
	}
	if exec.StatusOf() != execution.StatusFailed {
		t.Fatalf("status = %s, want failed", exec.StatusOf())
	}
	if exec.Error != execution.ErrCancelled {
		t.Errorf("error = %q, want %q", exec.Error, execution.ErrCancelled)
	}
	if cExecuted != 0 {
		t.Errorf("C executed %d times, want 0: cancellation should be honored before the next level starts", cExecuted)
	}
}

type blockingNode struct {
	node.Base
	started chan struct{}
	proceed chan struct{}
}

func (n *blockingNode) Validate() bool          { return true }
func (n *blockingNode) Describe() node.Describe { return node.Describe{} }
func (n *blockingNode) Execute(ctx context.Context, input map[string]any) (*node.Result, error) {
	close(n.started)
	<-n.proceed
	return &node.Result{Success: true, Data: "ok"}, nil
}

type templateCapturingNode struct {
	node.Base
	captured *map[string]any
}

func (n *templateCapturingNode) Validate() bool          { return true }
func (n *templateCapturingNode) Describe() node.Describe { return node.Describe{} }
func (n *templateCapturingNode) Execute(ctx context.Context, input map[string]any) (*node.Result, error) {
	*n.captured = n.Config()
	return &node.Result{Success: true}, nil
}
