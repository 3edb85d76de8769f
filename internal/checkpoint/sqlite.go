package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quarrylabs/quarry/internal/agent"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	goal       TEXT NOT NULL,
	status     TEXT NOT NULL,
	iteration  INTEGER NOT NULL,
	state      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// SQLiteStore keeps one row per run, the full snapshot as JSON plus a few
// queryable columns.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, st *agent.RunState) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode run state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, goal, status, iteration, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			iteration = excluded.iteration,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		st.RunID, st.Goal, string(st.Status), st.Iteration, string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", st.RunID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, runID string) (*agent.RunState, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM runs WHERE run_id = ?`, runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	var st agent.RunState
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
