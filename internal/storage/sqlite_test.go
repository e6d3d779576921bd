//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "hpfold.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	for _, r := range []string{"a", "b", "c"} {
		created := map[string]string{"a": "2026-01-01T00:00:00Z", "b": "2026-01-03T00:00:00Z", "c": "2026-01-02T00:00:00Z"}[r]
		if err := store.SaveRun(ctx, testRecord(r, created)); err != nil {
			t.Fatalf("save run %s: %v", r, err)
		}
	}

	loaded, ok, err := store.GetRun(ctx, "b")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected run b")
	}
	if loaded.Sequence != "HPPH" || len(loaded.Final) != 4 {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].RunID != "b" || runs[2].RunID != "a" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	limited, err := store.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 run, got %d", len(limited))
	}

	if err := store.DeleteRun(ctx, "b"); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, ok, _ := store.GetRun(ctx, "b"); ok {
		t.Fatal("expected run b to be deleted")
	}
}

func TestSQLiteStoreReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "hpfold.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveRun(ctx, testRecord("persisted", "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	if _, ok, err := second.GetRun(ctx, "persisted"); err != nil || !ok {
		t.Fatalf("expected persisted run after reopen: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "hpfold.db"))
	if err := store.SaveRun(context.Background(), testRecord("x", "")); err == nil {
		t.Fatal("expected uninitialized store error")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected path validation error")
	}
}
