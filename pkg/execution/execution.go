// Package execution models a single workflow run: the Execution state
// machine (§3/§4.2.3) and the StateStore abstraction used to persist it for
// observability and cancellation (§4.5). Persistence is best-effort and
// lossy by design — these records are not a durable recovery log.
package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/flowcraft/dagrunner/pkg/node"
)

// Status is the run's state machine value.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrCancelled is the reserved error string used when a cancel request
// transitions a running execution to failed.
const ErrCancelled = "cancelled"

// Execution is the run's observable state: status, accumulated context,
// per-node logs, and timing. The executor is the single writer during a
// run; concurrent readers (StateStore consumers, cancel callers) take the
// RWMutex.
type Execution struct {
	mu         sync.RWMutex
	ID         string
	WorkflowID string
	Context    map[string]any
	Logs       map[string][]node.LogEntry
	Status     Status
	Error      string
	StartTime  time.Time
	EndTime    time.Time
	// Sequence is this execution's position within its workflow's history,
	// assigned by StateStore.AppendHistory for stable pagination.
	Sequence int
}

// New creates a pending Execution snapshotting initialContext as the
// starting context.
func New(id, workflowID string, initialContext map[string]any) *Execution {
	ctx := map[string]any{}
	for k, v := range initialContext {
		ctx[k] = v
	}
	return &Execution{
		ID:         id,
		WorkflowID: workflowID,
		Context:    ctx,
		Logs:       map[string][]node.LogEntry{},
		Status:     StatusPending,
	}
}

// Start transitions pending -> running.
func (e *Execution) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Status != StatusPending {
		return fmt.Errorf("execution: cannot start from status %s", e.Status)
	}
	e.Status = StatusRunning
	e.StartTime = time.Now()
	return nil
}

// Complete transitions running -> completed (terminal).
func (e *Execution) Complete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Status != StatusRunning {
		return fmt.Errorf("execution: cannot complete from status %s", e.Status)
	}
	e.Status = StatusCompleted
	e.EndTime = time.Now()
	return nil
}

// Fail transitions pending|running -> failed (terminal) with the given error.
func (e *Execution) Fail(errMsg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Status == StatusCompleted || e.Status == StatusFailed {
		return fmt.Errorf("execution: cannot fail from terminal status %s", e.Status)
	}
	e.Status = StatusFailed
	e.Error = errMsg
	e.EndTime = time.Now()
	return nil
}

// Cancel is the StateStore-backed cancel operation of §4.2.3/§4.5: if the
// execution is running, it transitions to failed("cancelled"); otherwise a
// no-op (terminal states are sinks; pending->cancel is not contracted).
func (e *Execution) Cancel() error {
	e.mu.Lock()
	running := e.Status == StatusRunning
	e.mu.Unlock()
	if !running {
		return nil
	}
	return e.Fail(ErrCancelled)
}

// AppendLogs merges entries into the per-node log under nodeID.
func (e *Execution) AppendLogs(nodeID string, entries ...node.LogEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Logs[nodeID] = append(e.Logs[nodeID], entries...)
}

// SetContext replaces the stored context snapshot (called by the executor
// after each level completes).
func (e *Execution) SetContext(ctx map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Context = ctx
}

// StatusOf returns the current status under lock.
func (e *Execution) StatusOf() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Status
}

// Duration returns EndTime - StartTime once both are set, else zero.
func (e *Execution) Duration() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// Snapshot returns a deep-enough copy suitable for persistence/serialization
// without holding the execution's lock afterward.
func (e *Execution) Snapshot() *Execution {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ctx := make(map[string]any, len(e.Context))
	for k, v := range e.Context {
		ctx[k] = v
	}
	logs := make(map[string][]node.LogEntry, len(e.Logs))
	for k, v := range e.Logs {
		logs[k] = append([]node.LogEntry{}, v...)
	}
	return &Execution{
		ID:         e.ID,
		WorkflowID: e.WorkflowID,
		Context:    ctx,
		Logs:       logs,
		Status:     e.Status,
		Error:      e.Error,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		Sequence:   e.Sequence,
	}
}
