// Package node defines the polymorphic node capability the executor drives
// and the alias-resolving registry that constructs nodes by type name.
package node

import (
	"context"
	"time"
)

// LogEntry is one log line a node's execution produced, merged into the
// execution log under that node's id.
type LogEntry struct {
	Level     string
	Message   string
	Data      map[string]any
	Timestamp time.Time
}

// Result is what every node returns. Exactly one of the success/failure
// branches is taken; Logs may be empty.
type Result struct {
	Success bool
	Data    any
	Error   string
	Logs    []LogEntry
}

// Describe is the static capability description exposed to tooling; the
// registry does not validate against its schemas at construction time.
type Describe struct {
	Description  string
	Category     string
	Icon         string
	InputSchema  string
	OutputSchema string
}

// ExecutionMode selects whether a node runs inline on the executor thread
// or is dispatched to the bounded worker pool.
type ExecutionMode string

const (
	ModeSync  ExecutionMode = "sync"
	ModeAsync ExecutionMode = "async"
)

// Node is the narrow capability every registered kind must expose: identity
// and config, plus execute/validate/describe. Variants correspond to
// registered kinds; new kinds are added by registering a factory, never by
// subclassing.
type Node interface {
	ID() string
	Name() string
	Type() string
	Config() map[string]any
	// ApplyConfig replaces the node's config with the executor's
	// template-interpolated copy, computed fresh from the current Context
	// before each invocation (§4.2 step 5.b: "apply template substitution
	// to the node's config using the current Context").
	ApplyConfig(config map[string]any)
	StopWorkflowOnFail() bool
	ExecutionMode() ExecutionMode
	Execute(ctx context.Context, input map[string]any) (*Result, error)
	Validate() bool
	Describe() Describe
}

// Base implements the identity/config bookkeeping shared by every concrete
// node type; concrete types embed Base and provide Type/Execute/Validate/Describe.
type Base struct {
	id     string
	name   string
	typ    string
	config map[string]any
}

// NewBase builds the shared identity/config fields (a nil config becomes an
// empty map); the two core config keys' defaults are applied on read by
// StopWorkflowOnFail and ExecutionMode.
func NewBase(id, name, typ string, config map[string]any) Base {
	if config == nil {
		config = map[string]any{}
	}
	return Base{id: id, name: name, typ: typ, config: config}
}

func (b Base) ID() string             { return b.id }
func (b Base) Name() string           { return b.name }
func (b Base) Type() string           { return b.typ }
func (b Base) Config() map[string]any { return b.config }

// ApplyConfig replaces the stored config wholesale. Safe without locking:
// a node instance is single-use within one run, never shared across
// goroutines concurrently.
func (b *Base) ApplyConfig(config map[string]any) { b.config = config }

func (b Base) StopWorkflowOnFail() bool {
	if v, ok := b.config["stopWorkflowOnFail"]; ok {
		if bv, ok := v.(bool); ok {
			return bv
		}
	}
	return true
}

func (b Base) ExecutionMode() ExecutionMode {
	if v, ok := b.config["executionMode"]; ok {
		if sv, ok := v.(string); ok && sv == string(ModeAsync) {
			return ModeAsync
		}
	}
	return ModeSync
}
