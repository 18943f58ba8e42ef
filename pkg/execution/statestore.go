package execution

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Keyspace prefixes, matching the Redis-like scheme described in §6 for
// implementations backed by a list/KV store (e.g. pkg/pgstore).
const (
	KeyExecution = "workflow_execution"
	KeyRunning   = "running_executions"
	KeyHistory   = "workflow_history"
	KeyLogs      = "workflow_logs"

	ttlExecution = time.Hour
	ttlHistory   = 7 * 24 * time.Hour
	ttlLogs      = 30 * 24 * time.Hour
	maxHistory   = 100
)

// LogRecord is one entry appended to a per-day log list via AppendLog.
type LogRecord struct {
	Timestamp   time.Time
	Level       string
	Message     string
	ExecutionID string
	NodeID      string
	Data        map[string]any
}

// StateStore is the abstract persistence collaborator of §4.5. All
// operations are optional/no-op if unconfigured (see NoopStore).
type StateStore interface {
	SaveExecution(ctx context.Context, exec *Execution) error
	AddToRunning(ctx context.Context, id string) error
	RemoveFromRunning(ctx context.Context, id string) error
	ListRunning(ctx context.Context) ([]string, error)
	AppendHistory(ctx context.Context, workflowID string, exec *Execution) error
	ListHistory(ctx context.Context, workflowID string) ([]*Execution, error)
	AppendLog(ctx context.Context, date string, entry LogRecord) error
	GetExecution(ctx context.Context, id string) (*Execution, error)
	// Cancel loads the execution; if running, transitions it to
	// failed("cancelled") and saves it back.
	Cancel(ctx context.Context, id string) error
}

type expiring[T any] struct {
	value     T
	expiresAt time.Time
}

func (e expiring[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process StateStore following the teacher's
// mutex+map storage style, snapshotting executions on write, with TTL
// modeled as a lazily evicted expiry timestamp per entry.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]expiring[*Execution]
	running   map[string]struct{}
	history   map[string][]expiring[*Execution]
	logs      map[string][]expiring[LogRecord]
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    map[string]expiring[*Execution]{},
		running: map[string]struct{}{},
		history: map[string][]expiring[*Execution]{},
		logs:    map[string][]expiring[LogRecord]{},
	}
}

func (s *MemoryStore) SaveExecution(ctx context.Context, exec *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[exec.ID] = expiring[*Execution]{value: exec.Snapshot(), expiresAt: time.Now().Add(ttlExecution)}
	return nil
}

func (s *MemoryStore) AddToRunning(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[id] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveFromRunning(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
	return nil
}

func (s *MemoryStore) ListRunning(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.running))
	for id := range s.running {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, workflowID string, exec *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := exec.Snapshot()
	snap.Sequence = 0
	if prev := s.history[workflowID]; len(prev) > 0 {
		snap.Sequence = prev[0].value.Sequence + 1
	}
	entry := expiring[*Execution]{value: snap, expiresAt: time.Now().Add(ttlHistory)}
	// prepend: head is newest
	list := append([]expiring[*Execution]{entry}, s.history[workflowID]...)
	if len(list) > maxHistory {
		list = list[:maxHistory]
	}
	s.history[workflowID] = list
	return nil
}

func (s *MemoryStore) ListHistory(ctx context.Context, workflowID string) ([]*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	out := make([]*Execution, 0, len(s.history[workflowID]))
	for _, e := range s.history[workflowID] {
		if e.expired(now) {
			continue
		}
		out = append(out, e.value)
	}
	return out, nil
}

func (s *MemoryStore) AppendLog(ctx context.Context, date string, entry LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[date] = append(s.logs[date], expiring[LogRecord]{value: entry, expiresAt: time.Now().Add(ttlLogs)})
	return nil
}

func (s *MemoryStore) GetExecution(ctx context.Context, id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok || e.expired(time.Now()) {
		return nil, fmt.Errorf("execution: %s not found", id)
	}
	return e.value, nil
}

func (s *MemoryStore) Cancel(ctx context.Context, id string) error {
	exec, err := s.GetExecution(ctx, id)
	if err != nil {
		return err
	}
	if exec.StatusOf() != StatusRunning {
		return nil
	}
	if err := exec.Cancel(); err != nil {
		return err
	}
	return s.SaveExecution(ctx, exec)
}

// NoopStore is used when no stateStore connection is configured (§6): writes
// and Cancel succeed trivially and list reads return empty; GetExecution
// returns a "persistence disabled" error, since there is nothing to load.
type NoopStore struct{}

func (NoopStore) SaveExecution(context.Context, *Execution) error         { return nil }
func (NoopStore) AddToRunning(context.Context, string) error              { return nil }
func (NoopStore) RemoveFromRunning(context.Context, string) error         { return nil }
func (NoopStore) ListRunning(context.Context) ([]string, error)           { return nil, nil }
func (NoopStore) AppendHistory(context.Context, string, *Execution) error { return nil }
func (NoopStore) ListHistory(context.Context, string) ([]*Execution, error) {
	return nil, nil
}
func (NoopStore) AppendLog(context.Context, string, LogRecord) error { return nil }
func (NoopStore) GetExecution(context.Context, string) (*Execution, error) {
	return nil, fmt.Errorf("execution: persistence disabled")
}
func (NoopStore) Cancel(context.Context, string) error { return nil }

var _ StateStore = (*MemoryStore)(nil)
var _ StateStore = NoopStore{}
