package checkpoint

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/quarrylabs/quarry/config"
	"github.com/quarrylabs/quarry/internal/agent"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "quarry.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	st := agent.NewRunState("run-42", "find marketing websites", 5)
	st.Status = agent.StatusInProgress
	st.Iteration = 2
	st.AddQueries("q1", "q2")
	st.MarkAttempted("q1")
	st.AddResult(agent.Result{ID: "r1", Title: "HubSpot", URL: "https://hubspot.com"})

	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Load(ctx, "run-42")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Goal != st.Goal || got.Status != st.Status || got.Iteration != st.Iteration {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
	if len(got.Results) != 1 || got.Results[0].URL != "https://hubspot.com" {
		t.Fatalf("results not preserved: %#v", got.Results)
	}
	if !got.Attempted["q1"] || got.Attempted["q2"] {
		t.Fatalf("attempted set not preserved: %#v", got.Attempted)
	}
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	st := agent.NewRunState("run-1", "find websites", 5)
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	st.Status = agent.StatusCompleted
	st.Iteration = 3
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := store.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Status != agent.StatusCompleted || got.Iteration != 3 {
		t.Fatalf("expected latest snapshot, got %+v", got)
	}
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	store := newTestSQLiteStore(t)
	if _, err := store.Load(context.Background(), "no-such-run"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewStore_Backends(t *testing.T) {
	store, err := NewStore(config.CheckpointConfig{Backend: "none"})
	if err != nil || store != nil {
		t.Fatalf("backend none must yield a nil store, got %v, %v", store, err)
	}

	store, err = NewStore(config.CheckpointConfig{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "quarry.db"),
	})
	if err != nil {
		t.Fatalf("sqlite backend failed: %v", err)
	}
	store.Close()

	if _, err := NewStore(config.CheckpointConfig{Backend: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
