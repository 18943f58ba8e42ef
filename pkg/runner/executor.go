// Package runner is the Executor: it drives a Workflow's DependencyGraph
// level by level, assembling each node's input, applying template
// substitution to its config, dispatching sync nodes inline and async nodes
// to a bounded worker pool, and persisting the run through a StateStore.
// Grounded on parallel_executor.go's level-based semaphore scheduling fused
// with pkg/engine/engine.go's failure-policy and logging/observer wiring.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowcraft/dagrunner/pkg/dagcontext"
	"github.com/flowcraft/dagrunner/pkg/execution"
	"github.com/flowcraft/dagrunner/pkg/graph"
	"github.com/flowcraft/dagrunner/pkg/logging"
	"github.com/flowcraft/dagrunner/pkg/node"
	"github.com/flowcraft/dagrunner/workflow"
)

// errCancelled is the sentinel returned by executeLevels when the run's
// context was cancelled externally (via Cancel), as distinct from a fatal
// node failure also using context cancellation to halt in-level dispatch.
// It maps to the reserved Execution.Error literal "cancelled" (§4.2.3/§7).
var errCancelled = errors.New("cancelled")

// Runner is the Executor. A single Runner may execute many workflows/runs
// concurrently; all per-run state lives in the unexported run struct.
type Runner struct {
	cfg       Config
	registry  *node.Registry
	store     execution.StateStore
	logger    *logging.Logger
	observers []Observer

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// New builds a Runner. A nil store disables persistence (NoopStore); a nil
// logger gets the package default.
func New(cfg Config, registry *node.Registry, store execution.StateStore, logger *logging.Logger) *Runner {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultConfig().MaxWorkers
	}
	if store == nil {
		store = execution.NoopStore{}
	}
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	return &Runner{cfg: cfg, registry: registry, store: store, logger: logger, running: map[string]context.CancelFunc{}}
}

// RegisterObserver adds an observer notified of every lifecycle event. Not
// safe to call concurrently with Execute.
func (r *Runner) RegisterObserver(o Observer) *Runner {
	if o != nil {
		r.observers = append(r.observers, o)
	}
	return r
}

// run holds everything one Execute call needs that must not leak between
// concurrent runs of the same Runner.
type run struct {
	r          *Runner
	wf        *workflow.Workflow
	graph     *graph.Graph
	ctx       *dagcontext.Context
	exec      *execution.Execution
	log       *logging.Logger
	nodes     map[string]node.Node
	outputs   map[string]any
	outputsMu sync.Mutex
	completed map[string]bool
	failed    map[string]bool
	unreach   map[string]bool
	statusMu  sync.Mutex
	// levelCancel stops dispatching further same-level async nodes once a
	// fatal failure is observed; it is rebound fresh for every level (levels
	// run strictly sequentially, so no synchronization is needed around the
	// field itself) and is distinct from the run's externally-triggered
	// cancellation context so the two signals never get confused in Execute.
	levelCancel context.CancelFunc

	execCount   int
	execLimited bool
}

// Execute runs wf to completion (or to its first stopWorkflowOnFail
// failure, or to caller cancellation) and returns the final Execution
// record. A non-nil error is also reflected in exec.Status/Error when exec
// is non-nil; execution construction failures before a run starts return a
// nil Execution.
func (r *Runner) Execute(ctx context.Context, wf *workflow.Workflow, initialContext map[string]any) (*execution.Execution, error) {
	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	ids := wf.NodeIDs()
	g := graph.New(ids, wf.GraphConnections())
	if errs := g.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("runner: invalid workflow graph: %v", errs)
	}

	nodes := make(map[string]node.Node, len(ids))
	for _, id := range ids {
		spec := wf.Nodes[id]
		n, err := r.registry.CreateWithID(spec.Type, spec.ID, spec.Name, spec.Config)
		if err != nil {
			return nil, fmt.Errorf("runner: instantiate node %q: %w", id, err)
		}
		nodes[id] = n
	}

	execID := uuid.New().String()
	exec := execution.New(execID, wf.ID, initialContext)
	if err := exec.Start(); err != nil {
		return nil, err
	}

	log := r.logger.WithWorkflowID(wf.ID).WithExecutionID(execID)
	_ = r.store.SaveExecution(ctx, exec)
	_ = r.store.AddToRunning(ctx, execID)
	log.Info("workflow execution started")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.running[execID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.running, execID)
		r.mu.Unlock()
	}()

	rn := &run{
		r:         r,
		wf:        wf,
		graph:     g,
		ctx:       dagcontext.New(initialContext),
		exec:      exec,
		log:       log,
		nodes:     nodes,
		outputs:   map[string]any{},
		completed: map[string]bool{},
		failed:    map[string]bool{},
		unreach:   map[string]bool{},
	}

	startTime := time.Now()
	r.notify(ctx, Event{Type: EventWorkflowStart, Timestamp: startTime, ExecutionID: execID, WorkflowID: wf.ID, StartTime: startTime})

	runErr := rn.executeLevels(runCtx)

	exec.SetContext(rn.ctx.Snapshot())
	_ = r.store.RemoveFromRunning(ctx, execID)

	if errors.Is(runErr, errCancelled) {
		_ = exec.Fail(execution.ErrCancelled)
		log.Warn("workflow execution cancelled")
		r.notify(ctx, Event{Type: EventExecutionCancelled, Timestamp: time.Now(), ExecutionID: execID, WorkflowID: wf.ID, StartTime: startTime, ElapsedTime: time.Since(startTime)})
	} else if runErr != nil {
		_ = exec.Fail(runErr.Error())
		log.WithError(runErr).Error("workflow execution failed")
	} else {
		_ = exec.Complete()
		log.WithField("duration_ms", exec.Duration().Milliseconds()).Info("workflow execution completed")
	}
	_ = r.store.SaveExecution(ctx, exec)
	_ = r.store.AppendHistory(ctx, wf.ID, exec)

	r.notify(ctx, Event{
		Type: EventWorkflowEnd, Timestamp: time.Now(), ExecutionID: execID, WorkflowID: wf.ID,
		StartTime: startTime, ElapsedTime: time.Since(startTime), Error: runErr,
	})

	return exec, runErr
}

// Cancel transitions a running execution to failed("cancelled"). If this
// Runner process is the one actually driving the execution, its in-flight
// Execute call is cancelled too: the run stops at the next level boundary
// (§4.2.3/§9), async nodes of the current level still waiting for a worker
// slot are not dispatched, and nodes already running see their context
// cancelled. Otherwise the request is
// purely StateStore-mediated and becomes observable to the user on the next
// persisted update or via ListRunning, matching §4.5.
func (r *Runner) Cancel(ctx context.Context, executionID string) error {
	r.mu.Lock()
	cancel, ok := r.running[executionID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return r.store.Cancel(ctx, executionID)
}

// executeLevels drives the graph level by level, stopping early once a
// fatal failure or external cancellation is observed.
func (rn *run) executeLevels(ctx context.Context) error {
	for _, group := range rn.graph.GetParallelGroups() {
		select {
		case <-ctx.Done():
			return errCancelled
		default:
		}

		runnable, skipped := rn.partitionReachable(group.IDs)
		for _, id := range skipped {
			rn.markUnreachable(id)
		}
		if len(runnable) == 0 {
			continue
		}

		rn.executeLevel(ctx, runnable)
		rn.exec.SetContext(rn.ctx.Snapshot())

		// §4.2 step 5.d: after a level, if it produced any fatal failure,
		// report that in preference to the cancellation it triggered.
		if err := rn.levelFailureError(runnable); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return errCancelled
		}
	}
	if ctx.Err() != nil {
		return errCancelled
	}
	return nil
}

// levelFailureError reports the "Some nodes failed: <ids>" error exactly
// when ids contains one or more nodes this level marked fatally failed.
func (rn *run) levelFailureError(ids []string) error {
	rn.statusMu.Lock()
	defer rn.statusMu.Unlock()
	var failedIDs []string
	for _, id := range ids {
		if rn.failed[id] {
			failedIDs = append(failedIDs, id)
		}
	}
	if len(failedIDs) == 0 {
		return nil
	}
	sort.Strings(failedIDs)
	return fmt.Errorf("Some nodes failed: %s", strings.Join(failedIDs, ", "))
}

// partitionReachable splits a level's ids into those whose every
// dependency is either completed or non-fatally-failed (runnable), and
// those with a dependency on the unreachable set (skipped: permanently
// unreachable per §4.2.2).
func (rn *run) partitionReachable(ids []string) (runnable, skipped []string) {
	for _, id := range ids {
		reachable := true
		for _, dep := range rn.graph.Deps(id) {
			if rn.unreach[dep] || rn.failed[dep] {
				reachable = false
				break
			}
		}
		if reachable {
			runnable = append(runnable, id)
		} else {
			skipped = append(skipped, id)
		}
	}
	return runnable, skipped
}

func (rn *run) markUnreachable(id string) {
	rn.unreach[id] = true
	rn.log.WithNodeID(id).Warn("node unreachable: an upstream dependency fatally failed")
}

// executeLevel runs every node in a level in id order: sync nodes run inline
// on the calling goroutine, async nodes each get a goroutine that acquires a
// slot bounded by cfg.MaxWorkers shared across the level's async nodes. A
// barrier (WaitGroup) separates levels, mirroring parallel_executor.go's
// executeLevel.
//
// It derives a level-scoped child context so a fatal in-level failure can
// stop dispatching the level's remaining not-yet-started async nodes
// (rn.levelCancel) without being confused with the run's own externally
// triggered cancellation, which callers observe on ctx itself (still
// propagated into the child, so an external Cancel also halts any
// still-queued dispatch in the current level immediately).
func (rn *run) executeLevel(ctx context.Context, ids []string) {
	levelCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	rn.levelCancel = cancel

	if len(ids) == 1 {
		rn.runNode(levelCtx, ids[0])
		return
	}

	sorted := append([]string{}, ids...)
	sort.Strings(sorted)

	sem := make(chan struct{}, rn.r.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for _, id := range sorted {
		n := rn.nodes[id]
		wg.Add(1)
		if n.ExecutionMode() == node.ModeAsync {
			go func(id string) {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-levelCtx.Done():
					return
				}
				rn.runNode(levelCtx, id)
			}(id)
		} else {
			rn.runNode(levelCtx, id)
			wg.Done()
		}
	}
	wg.Wait()
}

// runNode executes a single node: assembles input, applies template
// substitution to its config (§4.2 step 5.b), invokes Execute, and applies
// the failure policy of §4.2.2.
func (rn *run) runNode(ctx context.Context, id string) {
	n := rn.nodes[id]
	log := rn.log.WithNodeID(id).WithNodeType(n.Type())

	if limit := rn.r.cfg.MaxNodeExecutions; limit > 0 {
		rn.statusMu.Lock()
		rn.execCount++
		overLimit := rn.execCount > limit
		if overLimit {
			rn.execLimited = true
		}
		rn.statusMu.Unlock()
		if overLimit {
			rn.handleFailure(ctx, id, n, log, time.Now(), 0, fmt.Errorf("node execution limit exceeded (max %d)", limit))
			return
		}
	}

	startTime := time.Now()
	rn.r.notify(ctx, Event{Type: EventNodeStart, Timestamp: startTime, ExecutionID: rn.exec.ID, WorkflowID: rn.wf.ID, NodeID: id, NodeType: n.Type(), StartTime: startTime})

	input := rn.assembleInput(id)
	n.ApplyConfig(rn.ctx.ProcessTemplates(n.Config()).(map[string]any))

	log.Debug("node execution started")
	result, err := n.Execute(ctx, input)
	elapsed := time.Since(startTime)

	if err != nil {
		rn.handleFailure(ctx, id, n, log, startTime, elapsed, err)
		return
	}
	if result == nil {
		result = &node.Result{Success: false, Error: "node returned a nil result"}
	}
	if len(result.Logs) > 0 {
		rn.exec.AppendLogs(id, result.Logs...)
	}

	if !result.Success {
		rn.handleFailure(ctx, id, n, log, startTime, elapsed, fmt.Errorf("%s", result.Error))
		return
	}

	rn.outputsMu.Lock()
	rn.outputs[id] = result.Data
	rn.outputsMu.Unlock()
	rn.ctx.Set("nodes."+id+".output", result.Data)

	rn.statusMu.Lock()
	rn.completed[id] = true
	rn.statusMu.Unlock()

	log.WithField("duration_ms", elapsed.Milliseconds()).Info("node execution completed")
	rn.r.notify(ctx, Event{Type: EventNodeSuccess, Timestamp: time.Now(), ExecutionID: rn.exec.ID, WorkflowID: rn.wf.ID, NodeID: id, NodeType: n.Type(), StartTime: startTime, ElapsedTime: elapsed, Result: result.Data})
}

// handleFailure applies §4.2.2: stopWorkflowOnFail=true marks the node
// failed and the whole run fatal (its dependents become unreachable);
// otherwise the node is marked completed with no published output, so
// dependents simply receive no input from it.
func (rn *run) handleFailure(ctx context.Context, id string, n node.Node, log *logging.Logger, startTime time.Time, elapsed time.Duration, err error) {
	log.WithError(err).Error("node execution failed")
	rn.r.notify(ctx, Event{Type: EventNodeFailure, Timestamp: time.Now(), ExecutionID: rn.exec.ID, WorkflowID: rn.wf.ID, NodeID: id, NodeType: n.Type(), StartTime: startTime, ElapsedTime: elapsed, Error: err})

	rn.statusMu.Lock()
	defer rn.statusMu.Unlock()

	// A node-execution-limit breach is always fatal, regardless of the
	// node's own stopWorkflowOnFail setting: it is ambient resource
	// exhaustion, not a node-local failure policy decision.
	if n.StopWorkflowOnFail() || rn.execLimited {
		rn.failed[id] = true
		rn.levelCancel() // stop dispatching nodes still waiting for a worker slot
		return
	}
	// Non-fatal: node completes without publishing output.
	rn.completed[id] = true
}

// assembleInput builds the per-node input map per §4.2.1: keyed by upstream
// node id (the raw/extracted output value), and also exposed under each
// connection's ToInput slot name. An explicit "nodes.<id>.input" context
// entry, if a map, overrides the assembled input wholesale.
func (rn *run) assembleInput(id string) map[string]any {
	input := map[string]any{}
	rn.outputsMu.Lock()
	for _, c := range rn.graph.Connections(id) {
		val, ok := rn.outputs[c.From]
		if !ok {
			continue
		}
		slot := val
		if m, isMap := val.(map[string]any); isMap {
			if v, exists := m[c.FromOutput]; exists {
				slot = v
			}
		}
		input[c.From] = slot
		input[c.ToInput] = slot
	}
	rn.outputsMu.Unlock()

	if override, ok := rn.ctx.Get("nodes." + id + ".input"); ok {
		if m, isMap := override.(map[string]any); isMap {
			return m
		}
	}
	return input
}
