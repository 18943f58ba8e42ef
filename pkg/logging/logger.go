// Package logging provides the level-filtered structured log pipeline of
// §4.6: five levels (debug < info < warning < error < critical), an
// in-process ordered buffer, StateStore-backed persistence, and export to
// JSON/CSV/plain text. Built on Go's slog, in the teacher's builder style
// (WithField/WithError/... return a new immutable *Logger).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level is one of the five severities §4.6 requires.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return "info"
	}
}

func parseLevel(level string) Level {
	switch level {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	case "critical":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// slogLevel maps a Level onto slog's scale; critical sits above slog's
// built-in Error level since slog has no native fifth severity.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelCritical:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// contextKey avoids collisions with other packages' context keys.
type contextKey string

const ContextKeyLogger contextKey = "logger"

// Entry is one emitted log line, timestamped to microsecond precision.
type Entry struct {
	Timestamp   time.Time
	Level       Level
	Message     string
	Data        map[string]any
	ExecutionID string
	NodeID      string
}

// StateStoreSink is the subset of execution.StateStore the logger needs;
// declared locally to avoid an import cycle between pkg/logging and
// pkg/execution (the executor wires the concrete StateStore in).
type StateStoreSink interface {
	AppendLog(ctx context.Context, date string, entry LogRecord) error
}

// LogRecord mirrors execution.LogRecord's shape; kept as a local type so
// this package has no hard dependency on pkg/execution.
type LogRecord struct {
	Timestamp   time.Time
	Level       string
	Message     string
	ExecutionID string
	NodeID      string
	Data        map[string]any
}

// Config holds logging configuration.
type Config struct {
	Level         string
	Output        io.Writer
	Pretty        bool
	IncludeCaller bool
	// BufferSize bounds the in-process ordered buffer (0 = unbounded).
	BufferSize int
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Output: os.Stdout, Pretty: false, IncludeCaller: false}
}

// Logger wraps slog.Logger with the workflow-specific builder API, a
// level filter over the five severities, an in-process buffer, and an
// optional StateStore sink.
type Logger struct {
	logger      *slog.Logger
	minLevel    Level
	executionID string
	nodeID      string
	fields      map[string]any

	bufMu      *sync.Mutex // shared with derived loggers, like buffer
	buffer     *[]Entry
	bufferSize int
	store      StateStoreSink
}

// New creates a Logger from cfg.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level).slogLevel(), AddSource: cfg.IncludeCaller}
	var handler slog.Handler
	if cfg.Pretty {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}
	return &Logger{
		logger:     slog.New(handler),
		minLevel:   parseLevel(cfg.Level),
		fields:     map[string]any{},
		bufMu:      &sync.Mutex{},
		buffer:     &[]Entry{},
		bufferSize: cfg.BufferSize,
	}
}

// WithContext adds the logger to a context.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyLogger, l)
}

// FromContext retrieves the logger from context, or a default logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ContextKeyLogger).(*Logger); ok {
		return logger
	}
	return New(DefaultConfig())
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		logger:      l.logger,
		minLevel:    l.minLevel,
		executionID: l.executionID,
		nodeID:      l.nodeID,
		fields:      fields,
		bufMu:       l.bufMu,
		buffer:      l.buffer,
		bufferSize:  l.bufferSize,
		store:       l.store,
	}
}

// WithStateStore attaches a StateStore sink; every emitted entry is also
// appended via AppendLog, keyed by the entry's UTC date.
func (l *Logger) WithStateStore(store StateStoreSink) *Logger {
	c := l.clone()
	c.store = store
	return c
}

func (l *Logger) WithWorkflowID(workflowID string) *Logger {
	c := l.clone()
	c.logger = c.logger.With(slog.String("workflow_id", workflowID))
	c.fields["workflow_id"] = workflowID
	return c
}

func (l *Logger) WithExecutionID(executionID string) *Logger {
	c := l.clone()
	c.logger = c.logger.With(slog.String("execution_id", executionID))
	c.executionID = executionID
	return c
}

func (l *Logger) WithNodeID(nodeID string) *Logger {
	c := l.clone()
	c.logger = c.logger.With(slog.String("node_id", nodeID))
	c.nodeID = nodeID
	return c
}

func (l *Logger) WithNodeType(nodeType string) *Logger {
	c := l.clone()
	c.logger = c.logger.With(slog.String("node_type", nodeType))
	return c
}

func (l *Logger) WithField(key string, value any) *Logger {
	c := l.clone()
	c.logger = c.logger.With(slog.Any(key, value))
	c.fields[key] = value
	return c
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	c := l.clone()
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
		c.fields[k] = v
	}
	c.logger = c.logger.With(args...)
	return c
}

func (l *Logger) WithError(err error) *Logger {
	c := l.clone()
	c.logger = c.logger.With(slog.Any("error", err))
	c.fields["error"] = err
	return c
}

func (l *Logger) log(level Level, msg string) {
	if level < l.minLevel {
		return
	}
	l.logger.Log(context.Background(), level.slogLevel(), msg)

	entry := Entry{
		Timestamp:   time.Now(),
		Level:       level,
		Message:     msg,
		Data:        l.fields,
		ExecutionID: l.executionID,
		NodeID:      l.nodeID,
	}
	l.bufMu.Lock()
	*l.buffer = append(*l.buffer, entry)
	if l.bufferSize > 0 && len(*l.buffer) > l.bufferSize {
		*l.buffer = (*l.buffer)[len(*l.buffer)-l.bufferSize:]
	}
	l.bufMu.Unlock()

	if l.store != nil {
		_ = l.store.AppendLog(context.Background(), entry.Timestamp.UTC().Format("2006-01-02"), LogRecord{
			Timestamp:   entry.Timestamp,
			Level:       level.String(),
			Message:     msg,
			ExecutionID: l.executionID,
			NodeID:      l.nodeID,
			Data:        l.fields,
		})
	}
}

// Buffer returns a copy of the in-process ordered log buffer.
func (l *Logger) Buffer() []Entry {
	l.bufMu.Lock()
	defer l.bufMu.Unlock()
	return append([]Entry{}, *l.buffer...)
}

func (l *Logger) Debug(msg string)                          { l.log(LevelDebug, msg) }
func (l *Logger) Debugf(format string, args ...any)          { l.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Info(msg string)                            { l.log(LevelInfo, msg) }
func (l *Logger) Infof(format string, args ...any)           { l.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warn(msg string)                            { l.log(LevelWarning, msg) }
func (l *Logger) Warnf(format string, args ...any)           { l.log(LevelWarning, fmt.Sprintf(format, args...)) }
func (l *Logger) Error(msg string)                           { l.log(LevelError, msg) }
func (l *Logger) Errorf(format string, args ...any)          { l.log(LevelError, fmt.Sprintf(format, args...)) }
func (l *Logger) Critical(msg string)                        { l.log(LevelCritical, msg) }
func (l *Logger) Criticalf(format string, args ...any)       { l.log(LevelCritical, fmt.Sprintf(format, args...)) }

func (l *Logger) Fatal(msg string) {
	l.log(LevelCritical, msg)
	os.Exit(1)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.log(LevelCritical, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// GetSlogLogger returns the underlying slog.Logger for advanced use cases.
func (l *Logger) GetSlogLogger() *slog.Logger { return l.logger }
