package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowcraft/dagrunner/pkg/runner"
)

// Observer implements runner.Observer, translating lifecycle events into
// OpenTelemetry spans and Prometheus metrics via the shared Provider.
// Grounded on the teacher's observer-pattern telemetry bridge, rewired onto
// pkg/runner's decoupled Event/EventType rather than the teacher's
// types.NodeType-coupled observer.Event.
type Observer struct {
	provider *Provider

	mu                sync.Mutex
	workflowSpans     map[string]trace.Span
	workflowStarts    map[string]time.Time
	nodeSpans         map[string]trace.Span
	nodeStarts        map[string]time.Time
}

// NewObserver creates a runner.Observer backed by provider.
func NewObserver(provider *Provider) *Observer {
	return &Observer{
		provider:       provider,
		workflowSpans:  make(map[string]trace.Span),
		workflowStarts: make(map[string]time.Time),
		nodeSpans:      make(map[string]trace.Span),
		nodeStarts:     make(map[string]time.Time),
	}
}

var _ runner.Observer = (*Observer)(nil)

// OnEvent handles one lifecycle notification from the Runner.
func (o *Observer) OnEvent(ctx context.Context, event runner.Event) {
	switch event.Type {
	case runner.EventWorkflowStart:
		o.handleWorkflowStart(ctx, event)
	case runner.EventWorkflowEnd:
		o.handleWorkflowEnd(ctx, event)
	case runner.EventNodeStart:
		o.handleNodeStart(ctx, event)
	case runner.EventNodeSuccess, runner.EventNodeFailure:
		o.handleNodeEnd(ctx, event)
	}
}

func (o *Observer) handleWorkflowStart(ctx context.Context, event runner.Event) {
	_, span := o.provider.Tracer().Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String("workflow.id", event.WorkflowID),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	o.mu.Lock()
	o.workflowSpans[event.ExecutionID] = span
	o.workflowStarts[event.ExecutionID] = event.Timestamp
	o.mu.Unlock()
}

func (o *Observer) handleWorkflowEnd(ctx context.Context, event runner.Event) {
	o.mu.Lock()
	span := o.workflowSpans[event.ExecutionID]
	delete(o.workflowSpans, event.ExecutionID)
	delete(o.workflowStarts, event.ExecutionID)
	o.mu.Unlock()

	o.provider.RecordWorkflowExecution(ctx, event.WorkflowID, event.ElapsedTime, event.Error == nil, 0)

	if span == nil {
		return
	}
	if event.Error != nil {
		span.RecordError(event.Error)
		span.SetStatus(codes.Error, event.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "workflow completed successfully")
	}
	span.End()
}

func (o *Observer) handleNodeStart(ctx context.Context, event runner.Event) {
	key := event.ExecutionID + "/" + event.NodeID

	o.mu.Lock()
	parent := o.workflowSpans[event.ExecutionID]
	o.mu.Unlock()

	spanCtx := ctx
	if parent != nil {
		spanCtx = trace.ContextWithSpan(ctx, parent)
	}

	_, span := o.provider.Tracer().Start(spanCtx, "node.execute",
		trace.WithAttributes(
			attribute.String("node.id", event.NodeID),
			attribute.String("node.type", event.NodeType),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	o.mu.Lock()
	o.nodeSpans[key] = span
	o.nodeStarts[key] = event.Timestamp
	o.mu.Unlock()
}

func (o *Observer) handleNodeEnd(ctx context.Context, event runner.Event) {
	key := event.ExecutionID + "/" + event.NodeID

	o.mu.Lock()
	span := o.nodeSpans[key]
	delete(o.nodeSpans, key)
	delete(o.nodeStarts, key)
	o.mu.Unlock()

	o.provider.RecordNodeExecution(ctx, event.NodeID, event.NodeType, event.ElapsedTime, event.Type == runner.EventNodeSuccess)

	if span == nil {
		return
	}
	if event.Error != nil {
		span.RecordError(event.Error)
		span.SetStatus(codes.Error, event.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "node completed successfully")
	}
	span.End()
}
