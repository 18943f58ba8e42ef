package runner

import (
	"context"
	"time"
)

// EventType distinguishes workflow- and node-level lifecycle notifications,
// adapted from the teacher's observer.EventType but decoupled from its
// types.NodeType dependency (node types are plain strings here).
type EventType string

const (
	EventWorkflowStart      EventType = "workflow_start"
	EventWorkflowEnd        EventType = "workflow_end"
	EventNodeStart          EventType = "node_start"
	EventNodeSuccess        EventType = "node_success"
	EventNodeFailure        EventType = "node_failure"
	EventExecutionCancelled EventType = "execution_cancelled"
)

// Event carries everything an Observer needs to react to one lifecycle
// notification; Result/Error are populated only for the *End/*Success/*Failure
// variants.
type Event struct {
	Type        EventType
	Timestamp   time.Time
	ExecutionID string
	WorkflowID  string
	NodeID      string
	NodeType    string
	StartTime   time.Time
	ElapsedTime time.Duration
	Result      any
	Error       error
}

// Observer receives lifecycle notifications. Implementations must not block
// meaningfully; OnEvent is called synchronously on the goroutine running the
// node (the executor's own for workflow events and sync nodes, a worker
// goroutine for async nodes), so calls may arrive concurrently.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

func (r *Runner) notify(ctx context.Context, event Event) {
	for _, o := range r.observers {
		o.OnEvent(ctx, event)
	}
}
