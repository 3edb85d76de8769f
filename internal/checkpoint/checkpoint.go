// Package checkpoint persists run snapshots so an interrupted run can be
// inspected or resumed.
package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/quarrylabs/quarry/config"
	"github.com/quarrylabs/quarry/internal/agent"
)

// ErrNotFound is returned when no snapshot exists for a run ID.
var ErrNotFound = errors.New("checkpoint: run not found")

// Store persists and retrieves run snapshots. Save overwrites any previous
// snapshot for the same run ID.
type Store interface {
	Save(ctx context.Context, st *agent.RunState) error
	Load(ctx context.Context, runID string) (*agent.RunState, error)
	Close() error
}

// NewStore builds the configured backend. Backend "none" yields a nil Store;
// callers pass that straight to the runner, which treats a nil sink as
// persistence disabled.
func NewStore(cfg config.CheckpointConfig) (Store, error) {
	switch cfg.Backend {
	case "none", "":
		return nil, nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "redis":
		return NewRedisStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend: %s", cfg.Backend)
	}
}
