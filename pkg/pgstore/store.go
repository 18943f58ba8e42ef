package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowcraft/dagrunner/pkg/execution"
)

// DB abstracts the database operations the Store issues. Satisfied by
// *pgxpool.Pool in production and by pgxmock.PgxPoolIface in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed execution.StateStore.
type Store struct {
	db DB
}

// New wraps an existing pool. Run Schema against the same database first.
func New(db *pgxpool.Pool) *Store { return &Store{db: db} }

// NewWithDB wraps a DB directly (e.g. a pgxmock.PgxPoolIface in tests).
func NewWithDB(db DB) *Store { return &Store{db: db} }

const (
	ttlExecution = time.Hour
	ttlHistory   = 7 * 24 * time.Hour
	ttlLogs      = 30 * 24 * time.Hour
	maxHistory   = 100
)

func (s *Store) SaveExecution(ctx context.Context, exec *execution.Execution) error {
	snap := exec.Snapshot()
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pgstore: marshal execution: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, data, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`,
		snap.ID, snap.WorkflowID, blob, time.Now().Add(ttlExecution))
	if err != nil {
		return fmt.Errorf("pgstore: save execution: %w", err)
	}
	return nil
}

func (s *Store) AddToRunning(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO running_executions (id) VALUES ($1) ON CONFLICT DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("pgstore: add running: %w", err)
	}
	return nil
}

func (s *Store) RemoveFromRunning(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM running_executions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgstore: remove running: %w", err)
	}
	return nil
}

func (s *Store) ListRunning(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM running_executions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list running: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgstore: scan running: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) AppendHistory(ctx context.Context, workflowID string, exec *execution.Execution) error {
	snap := exec.Snapshot()
	var seq int64
	row := s.db.QueryRow(ctx, `SELECT COALESCE(MAX(sequence), -1) + 1 FROM workflow_history WHERE workflow_id = $1`, workflowID)
	if err := row.Scan(&seq); err != nil {
		return fmt.Errorf("pgstore: next history sequence: %w", err)
	}
	snap.Sequence = int(seq)

	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pgstore: marshal history entry: %w", err)
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO workflow_history (workflow_id, sequence, data, expires_at) VALUES ($1, $2, $3, $4)`,
		workflowID, seq, blob, time.Now().Add(ttlHistory)); err != nil {
		return fmt.Errorf("pgstore: append history: %w", err)
	}
	// Retain only the most recent maxHistory rows per §4.5.
	if _, err := s.db.Exec(ctx, `
		DELETE FROM workflow_history
		WHERE workflow_id = $1 AND sequence NOT IN (
			SELECT sequence FROM workflow_history WHERE workflow_id = $1 ORDER BY sequence DESC LIMIT $2
		)`, workflowID, maxHistory); err != nil {
		return fmt.Errorf("pgstore: trim history: %w", err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, workflowID string) ([]*execution.Execution, error) {
	rows, err := s.db.Query(ctx, `
		SELECT data FROM workflow_history
		WHERE workflow_id = $1 AND expires_at > now()
		ORDER BY sequence DESC LIMIT $2`, workflowID, maxHistory)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list history: %w", err)
	}
	defer rows.Close()

	var out []*execution.Execution
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("pgstore: scan history: %w", err)
		}
		exec := &execution.Execution{}
		if err := json.Unmarshal(blob, exec); err != nil {
			return nil, fmt.Errorf("pgstore: unmarshal history: %w", err)
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}

func (s *Store) AppendLog(ctx context.Context, date string, entry execution.LogRecord) error {
	blob, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("pgstore: marshal log entry: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO workflow_logs (log_date, data, expires_at) VALUES ($1, $2, $3)`,
		date, blob, time.Now().Add(ttlLogs))
	if err != nil {
		return fmt.Errorf("pgstore: append log: %w", err)
	}
	return nil
}

func (s *Store) GetExecution(ctx context.Context, id string) (*execution.Execution, error) {
	row := s.db.QueryRow(ctx, `SELECT data FROM workflow_executions WHERE id = $1 AND expires_at > now()`, id)
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		return nil, fmt.Errorf("pgstore: execution %s not found: %w", id, err)
	}
	exec := &execution.Execution{}
	if err := json.Unmarshal(blob, exec); err != nil {
		return nil, fmt.Errorf("pgstore: unmarshal execution: %w", err)
	}
	return exec, nil
}

func (s *Store) Cancel(ctx context.Context, id string) error {
	exec, err := s.GetExecution(ctx, id)
	if err != nil {
		return err
	}
	if exec.StatusOf() != execution.StatusRunning {
		return nil
	}
	if err := exec.Cancel(); err != nil {
		return err
	}
	return s.SaveExecution(ctx, exec)
}

var _ execution.StateStore = (*Store)(nil)
