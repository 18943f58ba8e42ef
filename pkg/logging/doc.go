// Package logging provides structured logging capabilities for the workflow engine.
//
// # Overview
//
// The logging package wraps log/slog with a workflow-specific builder API,
// a five-level filter, an in-process ordered buffer of emitted entries, an
// optional StateStore sink, and JSON/CSV/text export of buffered entries.
//
// # Features
//
//   - Structured logging: slog's JSON handler, or its text handler when
//     Config.Pretty is set
//   - Log levels: debug, info, warning, error, critical
//   - Context fields: execution id, workflow id, node id, node type
//   - Thread-safe: Safe for concurrent use
//   - Flexible output: Write to any io.Writer
//
// # Log Levels
//
//   - debug: Detailed diagnostic information
//   - info: General informational messages
//   - warning: Warning messages for potential issues ("warn" is also
//     accepted in Config.Level)
//   - error: Error messages for failures
//   - critical: Failures above error; Fatal and Fatalf log at this level
//     and then exit the process
//
// An unrecognised Config.Level falls back to info.
//
// # Basic Usage
//
//	import "github.com/flowcraft/dagrunner/pkg/logging"
//
//	// Create logger
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	// Log messages
//	logger.WithWorkflowID("wf-123").
//	    WithField("node_count", 42).
//	    Info("Workflow started")
//
//	logger.WithNodeID("node-5").WithError(err).Error("Execution failed")
//
// Every message method takes a plain string; structured fields are attached
// beforehand with WithField, WithFields, WithError, WithExecutionID,
// WithNodeID, WithWorkflowID and WithNodeType, each of which returns a new
// Logger and leaves the receiver unchanged. Debugf, Infof, Warnf, Errorf and
// Criticalf format their message with fmt.Sprintf.
//
// # Context Integration
//
// WithContext stores the logger in a context.Context; FromContext retrieves
// it, or returns a logger built from DefaultConfig when none is stored:
//
//	ctx = logger.WithExecutionID("exec-456").WithContext(ctx)
//	logging.FromContext(ctx).Info("Node executing")
//
// # Configuration
//
// Logger configuration options:
//
//	config := logging.Config{
//	    Level:         "debug",   // Minimum level to log
//	    Output:        os.Stdout, // Where to write logs (nil means os.Stdout)
//	    Pretty:        false,     // Text handler instead of JSON
//	    IncludeCaller: true,      // Include file:line
//	    BufferSize:    1000,      // In-process buffer bound (0 = unbounded)
//	}
//
// DefaultConfig returns level info, os.Stdout, JSON output and no caller.
//
// # Buffer, StateStore Sink and Export
//
// Every emitted entry is appended to an in-process buffer shared by a logger
// and the loggers derived from it; Buffer returns a copy, oldest first.
// WithStateStore attaches a sink that also receives every entry, keyed by
// its UTC date. ExportJSON, ExportCSV and ExportText render a slice of
// entries.
//
// # Common Logging Patterns
//
// Node execution:
//
//	logger.WithNodeID(id).WithNodeType(typ).Debug("Node executing")
//
// Performance metrics:
//
//	logger.WithField("duration_ms", elapsed.Milliseconds()).
//	    Info("Workflow completed")
//
// The runner logs workflow and node lifecycle events itself through the
// Logger it is given; this package has no observer of its own.
//
// # Best Practices
//
//   - Use structured fields instead of string formatting
//   - Include execution context (workflow_id, node_id, etc.)
//   - Log at appropriate levels (avoid debug in production)
//   - Add timing information for performance analysis
//   - Include error context (not just error message)
//   - Use consistent field names across the codebase
//
// # Thread Safety
//
// All logger operations are thread-safe and can be used concurrently
// from multiple goroutines without additional synchronization.
//
// # Testing
//
// For testing, use a logger with a buffer:
//
//	buf := &bytes.Buffer{}
//	logger := logging.New(logging.Config{
//	    Output: buf,
//	})
//
//	// Execute code
//	// Verify log output
//	if !strings.Contains(buf.String(), "expected message") {
//	    t.Error("missing log line")
//	}
package logging
