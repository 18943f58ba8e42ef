package pgstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/flowcraft/dagrunner/pkg/execution"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewWithDB(mock), mock
}

func TestSaveExecutionUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	exec := execution.New("exec-1", "wf-1", map[string]any{"x": 1})

	mock.ExpectExec("INSERT INTO workflow_executions").
		WithArgs("exec-1", "wf-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.SaveExecution(context.Background(), exec); err != nil {
		t.Fatalf("SaveExecution: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetExecutionRoundTrip(t *testing.T) {
	store, mock := newMockStore(t)
	exec := execution.New("exec-1", "wf-1", map[string]any{"x": float64(1)})
	blob, _ := json.Marshal(exec.Snapshot())

	mock.ExpectQuery("SELECT data FROM workflow_executions").
		WithArgs("exec-1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(blob))

	got, err := store.GetExecution(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if got.ID != "exec-1" || got.WorkflowID != "wf-1" {
		t.Errorf("got = %+v, want id=exec-1 workflowId=wf-1", got)
	}
	if got.Context["x"] != float64(1) {
		t.Errorf("Context[x] = %v, want 1", got.Context["x"])
	}
}

func TestListRunningReturnsSortedIDs(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id FROM running_executions").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := store.ListRunning(context.Background())
	if err != nil {
		t.Fatalf("ListRunning: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v, want [a b]", ids)
	}
}

func TestCancelTransitionsRunningToFailed(t *testing.T) {
	store, mock := newMockStore(t)
	exec := execution.New("exec-1", "wf-1", nil)
	_ = exec.Start()
	blob, _ := json.Marshal(exec.Snapshot())

	mock.ExpectQuery("SELECT data FROM workflow_executions").
		WithArgs("exec-1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(blob))
	mock.ExpectExec("INSERT INTO workflow_executions").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Cancel(context.Background(), "exec-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// The upsert is issued only after the running execution was moved to failed.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
