package execution

import (
	"context"
	"fmt"
	"testing"
)

func TestStateMachineTransitions(t *testing.T) {
	e := New("exec-1", "wf-1", nil)
	if e.StatusOf() != StatusPending {
		t.Fatalf("new execution status = %s, want pending", e.StatusOf())
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if e.StatusOf() != StatusCompleted {
		t.Errorf("status = %s, want completed", e.StatusOf())
	}
	if err := e.Fail("boom"); err == nil {
		t.Errorf("expected error failing a terminal execution")
	}
}

func TestDurationRequiresBothTimestamps(t *testing.T) {
	e := New("exec-1", "wf-1", nil)
	if d := e.Duration(); d != 0 {
		t.Errorf("Duration() before start/end = %v, want 0", d)
	}
	_ = e.Start()
	_ = e.Complete()
	if d := e.Duration(); d < 0 {
		t.Errorf("Duration() = %v, want >= 0", d)
	}
}

func TestCancelOnlyAffectsRunning(t *testing.T) {
	e := New("exec-1", "wf-1", nil)
	if err := e.Cancel(); err != nil {
		t.Fatalf("Cancel on pending: %v", err)
	}
	if e.StatusOf() != StatusPending {
		t.Errorf("cancel on pending execution should be a no-op, got %s", e.StatusOf())
	}
	_ = e.Start()
	if err := e.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if e.StatusOf() != StatusFailed || e.Error != ErrCancelled {
		t.Errorf("cancelled execution = status %s error %q, want failed/cancelled", e.StatusOf(), e.Error)
	}
}

func TestMemoryStoreHistoryTrimsAndOrdersNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < maxHistory+5; i++ {
		e := New(fmt.Sprintf("exec-%d", i), "wf-1", nil)
		_ = store.AppendHistory(ctx, "wf-1", e)
	}
	hist, err := store.ListHistory(ctx, "wf-1")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(hist) != maxHistory {
		t.Errorf("history length = %d, want %d", len(hist), maxHistory)
	}
	if len(hist) > 1 {
		want := fmt.Sprintf("exec-%d", maxHistory+4)
		if hist[0].ID != want || hist[0].Sequence <= hist[1].Sequence {
			t.Errorf("history head = %s (sequence %d, next %d), want newest %s with the highest sequence",
				hist[0].ID, hist[0].Sequence, hist[1].Sequence, want)
		}
	}
}

func TestMemoryStoreRunningSet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.AddToRunning(ctx, "exec-1")
	_ = store.AddToRunning(ctx, "exec-2")
	running, _ := store.ListRunning(ctx)
	if len(running) != 2 {
		t.Fatalf("ListRunning() = %v, want 2 entries", running)
	}
	_ = store.RemoveFromRunning(ctx, "exec-1")
	running, _ = store.ListRunning(ctx)
	if len(running) != 1 || running[0] != "exec-2" {
		t.Errorf("ListRunning() after removal = %v, want [exec-2]", running)
	}
}

func TestMemoryStoreCancel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	e := New("exec-1", "wf-1", nil)
	_ = e.Start()
	_ = store.SaveExecution(ctx, e)

	if err := store.Cancel(ctx, "exec-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, err := store.GetExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if got.StatusOf() != StatusFailed || got.Error != ErrCancelled {
		t.Errorf("stored execution = status %s error %q, want failed/cancelled", got.StatusOf(), got.Error)
	}
}

func TestNoopStoreIsSafeWithoutConfiguration(t *testing.T) {
	var store StateStore = NoopStore{}
	ctx := context.Background()
	if err := store.SaveExecution(ctx, New("e", "w", nil)); err != nil {
		t.Errorf("SaveExecution: %v", err)
	}
	if _, err := store.GetExecution(ctx, "missing"); err == nil {
		t.Errorf("expected absent read to error on noop store")
	}
	if running, err := store.ListRunning(ctx); err != nil || running != nil {
		t.Errorf("ListRunning() = %v, %v, want nil, nil", running, err)
	}
}
