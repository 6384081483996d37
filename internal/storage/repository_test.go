package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "fintrack.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, found, err := repo.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("expected absent key, found=%v err=%v", found, err)
	}

	if err := repo.Put(ctx, "transactions:alice", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "transactions:alice", []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, found, err := repo.Get(ctx, "transactions:alice")
	if err != nil || !found || string(got) != `[1,2]` {
		t.Fatalf("get after overwrite: %q found=%v err=%v", got, found, err)
	}

	if err := repo.Delete(ctx, "transactions:alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := repo.Get(ctx, "transactions:alice"); found {
		t.Fatalf("key still present after delete")
	}
}

func TestSQLiteRepositoryKeys(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, k := range []string{"budgets:bob", "transactions:bob", "transactions:alice", "transactions_x"} {
		if err := repo.Put(ctx, k, []byte(`{}`)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	keys, err := repo.Keys(ctx, "transactions:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "transactions:alice" || keys[1] != "transactions:bob" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestSQLiteRepositoryReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fintrack.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.Put(ctx, KeyDarkMode, []byte(`true`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	got, found, err := repo.Get(ctx, KeyDarkMode)
	if err != nil || !found || string(got) != "true" {
		t.Fatalf("value lost across reopen: %q found=%v err=%v", got, found, err)
	}
}
