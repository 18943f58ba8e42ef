package logging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.English)

type jsonEntry struct {
	Timestamp   string         `json:"timestamp"`
	Level       string         `json:"level"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	ExecutionID string         `json:"execution_id,omitempty"`
	NodeID      string         `json:"node_id,omitempty"`
}

// ExportJSON renders entries as a pretty-printed JSON array.
func ExportJSON(entries []Entry) ([]byte, error) {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{
			Timestamp:   e.Timestamp.Format("2006-01-02 15:04:05.000000"),
			Level:       e.Level.String(),
			Message:     e.Message,
			Data:        e.Data,
			ExecutionID: e.ExecutionID,
			NodeID:      e.NodeID,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// ExportCSV renders entries with the header timestamp,level,message,
// execution_id,node_id, CRLF-terminated, quoted rows.
func ExportCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write([]string{"timestamp", "level", "message", "execution_id", "node_id"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp.Format("2006-01-02 15:04:05.000000"),
			e.Level.String(),
			e.Message,
			e.ExecutionID,
			e.NodeID,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportText renders entries as "[ts] LEVEL: message (Execution: …)(Node: …)".
func ExportText(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s: %s",
			e.Timestamp.Format("2006-01-02 15:04:05.000000"),
			upper.String(e.Level.String()),
			e.Message,
		)
		if e.ExecutionID != "" || e.NodeID != "" {
			b.WriteString(" ")
		}
		if e.ExecutionID != "" {
			fmt.Fprintf(&b, "(Execution: %s)", e.ExecutionID)
		}
		if e.NodeID != "" {
			fmt.Fprintf(&b, "(Node: %s)", e.NodeID)
		}
		b.WriteString("\n")
	}
	return b.String()
}
