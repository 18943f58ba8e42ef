// Package workflow is the declarative Workflow value: the immutable
// definition of nodes and connections the executor builds a DependencyGraph
// and a live Node set from. Parsing this from JSON is an external adapter
// (see pkg/jsonformat), not a concern of this package.
package workflow

import (
	"fmt"
	"sort"

	"github.com/flowcraft/dagrunner/pkg/graph"
)

// NodeSpec is a node's declaration within a Workflow: identity, registered
// type, and its config tree (which may carry the two core keys
// stopWorkflowOnFail/executionMode alongside node-specific options).
type NodeSpec struct {
	ID     string
	Name   string
	Type   string
	Config map[string]any
}

// Connection is a directed edge from one node's output slot to another
// node's input slot. FromOutput/ToInput default to "output"/"input".
type Connection struct {
	From       string
	To         string
	FromOutput string
	ToInput    string
}

// Workflow is immutable during execution: a named id/nodes/connections
// triple satisfying the invariant that every connection endpoint names an
// existing node.
type Workflow struct {
	ID          string
	Name        string
	Description string
	Nodes       map[string]NodeSpec
	Connections []Connection
}

// New builds an empty Workflow shell.
func New(id, name, description string) *Workflow {
	return &Workflow{
		ID:          id,
		Name:        name,
		Description: description,
		Nodes:       map[string]NodeSpec{},
	}
}

// AddNode registers a node spec, rejecting a duplicate or empty id.
func (w *Workflow) AddNode(spec NodeSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("workflow: node id must not be empty")
	}
	if _, exists := w.Nodes[spec.ID]; exists {
		return fmt.Errorf("workflow: duplicate node id %q", spec.ID)
	}
	if spec.Config == nil {
		spec.Config = map[string]any{}
	}
	w.Nodes[spec.ID] = spec
	return nil
}

// AddConnection appends a connection, defaulting FromOutput/ToInput.
func (w *Workflow) AddConnection(c Connection) error {
	if c.FromOutput == "" {
		c.FromOutput = "output"
	}
	if c.ToInput == "" {
		c.ToInput = "input"
	}
	w.Connections = append(w.Connections, c)
	return nil
}

// Validate checks that every connection endpoint references an existing
// node. This is the workflow-level structural invariant from §3; cycle and
// level validity is the DependencyGraph's concern (pkg/graph).
func (w *Workflow) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("workflow: id must not be empty")
	}
	for _, c := range w.Connections {
		if _, ok := w.Nodes[c.From]; !ok {
			return fmt.Errorf("workflow: connection references unknown node %q", c.From)
		}
		if _, ok := w.Nodes[c.To]; !ok {
			return fmt.Errorf("workflow: connection references unknown node %q", c.To)
		}
	}
	return nil
}

// NodeIDs returns every node id in sorted order.
func (w *Workflow) NodeIDs() []string {
	ids := make([]string, 0, len(w.Nodes))
	for id := range w.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GraphConnections converts the workflow's connections into the primitive
// form pkg/graph builds the DependencyGraph from.
func (w *Workflow) GraphConnections() []graph.Connection {
	out := make([]graph.Connection, 0, len(w.Connections))
	for _, c := range w.Connections {
		out = append(out, graph.Connection{
			From: c.From, To: c.To, FromOutput: c.FromOutput, ToInput: c.ToInput,
		})
	}
	return out
}
