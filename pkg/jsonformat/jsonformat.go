// Package jsonformat is the external JSON adapter for the Workflow and
// Execution wire shapes of §6: an on-disk/over-the-wire format, explicitly
// a non-core format adapter per §1 (workflow.Workflow and
// execution.Execution carry no JSON tags of their own). Grounded loosely on the teacher's
// pkg/types/node_decoder.go decode-by-type approach, simplified here since
// the core's Node.Config is an untyped map rather than a polymorphic
// per-kind struct.
package jsonformat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowcraft/dagrunner/pkg/execution"
	"github.com/flowcraft/dagrunner/pkg/node"
	"github.com/flowcraft/dagrunner/workflow"
)

// wireNode is one entry of the JSON "nodes" array (§6: a list, not the
// internal map-by-id the core's workflow.Workflow holds).
type wireNode struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

type wireConnection struct {
	From       string `json:"from"`
	To         string `json:"to"`
	FromOutput string `json:"fromOutput,omitempty"`
	ToInput    string `json:"toInput,omitempty"`
}

type wireWorkflow struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Nodes       []wireNode       `json:"nodes"`
	Connections []wireConnection `json:"connections"`
}

// ParseWorkflow decodes the canonical Workflow JSON of §6 into a
// *workflow.Workflow, applying the connection defaults ("output"/"input")
// and rejecting the required-field violations §6 names.
func ParseWorkflow(data []byte) (*workflow.Workflow, error) {
	var w wireWorkflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("jsonformat: decode workflow: %w", err)
	}
	if w.ID == "" {
		return nil, fmt.Errorf("jsonformat: workflow missing required field \"id\"")
	}
	if w.Name == "" {
		return nil, fmt.Errorf("jsonformat: workflow missing required field \"name\"")
	}
	if len(w.Nodes) == 0 {
		return nil, fmt.Errorf("jsonformat: workflow missing required field \"nodes\"")
	}

	wf := workflow.New(w.ID, w.Name, w.Description)
	for _, n := range w.Nodes {
		if n.ID == "" || n.Name == "" || n.Type == "" {
			return nil, fmt.Errorf("jsonformat: node missing required id/name/type")
		}
		if err := wf.AddNode(workflow.NodeSpec{ID: n.ID, Name: n.Name, Type: n.Type, Config: n.Config}); err != nil {
			return nil, fmt.Errorf("jsonformat: %w", err)
		}
	}
	for _, c := range w.Connections {
		if c.From == "" || c.To == "" {
			return nil, fmt.Errorf("jsonformat: connection missing required from/to")
		}
		if err := wf.AddConnection(workflow.Connection{From: c.From, To: c.To, FromOutput: c.FromOutput, ToInput: c.ToInput}); err != nil {
			return nil, fmt.Errorf("jsonformat: %w", err)
		}
	}
	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("jsonformat: %w", err)
	}
	return wf, nil
}

// SerializeWorkflow renders wf back into the canonical JSON shape; the
// round-trip invariant (§8 property 6) is parse(serialize(w)) ≡ w for any
// valid w.
func SerializeWorkflow(wf *workflow.Workflow) ([]byte, error) {
	w := wireWorkflow{ID: wf.ID, Name: wf.Name, Description: wf.Description}
	for _, id := range wf.NodeIDs() {
		n := wf.Nodes[id]
		w.Nodes = append(w.Nodes, wireNode{ID: n.ID, Name: n.Name, Type: n.Type, Config: n.Config})
	}
	for _, c := range wf.Connections {
		w.Connections = append(w.Connections, wireConnection{From: c.From, To: c.To, FromOutput: c.FromOutput, ToInput: c.ToInput})
	}
	blob, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("jsonformat: encode workflow: %w", err)
	}
	return blob, nil
}

// timeLayout is §6's "Times are formatted YYYY-MM-DD HH:MM:SS.uuuuuu".
const timeLayout = "2006-01-02 15:04:05.000000"

// wireExecution is the Execution JSON of §6.
type wireExecution struct {
	ID         string                     `json:"id"`
	WorkflowID string                     `json:"workflowId"`
	Status     execution.Status           `json:"status"`
	Context    map[string]any             `json:"context"`
	Logs       map[string][]node.LogEntry `json:"logs"`
	StartTime  string                     `json:"startTime,omitempty"`
	EndTime    string                     `json:"endTime,omitempty"`
	Duration   *float64                   `json:"duration,omitempty"`
}

// SerializeExecution renders an Execution snapshot into the observed §6
// wire shape, with microsecond-precision timestamps and duration in
// seconds.
func SerializeExecution(exec *execution.Execution) ([]byte, error) {
	snap := exec.Snapshot()
	w := wireExecution{
		ID: snap.ID, WorkflowID: snap.WorkflowID, Status: snap.Status,
		Context: snap.Context, Logs: snap.Logs,
	}
	if !snap.StartTime.IsZero() {
		w.StartTime = snap.StartTime.UTC().Format(timeLayout)
	}
	if !snap.EndTime.IsZero() {
		w.EndTime = snap.EndTime.UTC().Format(timeLayout)
		seconds := snap.EndTime.Sub(snap.StartTime).Seconds()
		w.Duration = &seconds
	}
	blob, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("jsonformat: encode execution: %w", err)
	}
	return blob, nil
}

// ParseTimestamp parses a §6-formatted timestamp string.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
