package postgres

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"testing"
)

// newTestRepo connects to FINTRACK_TEST_DATABASE_URL, skipping when unset.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("FINTRACK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINTRACK_TEST_DATABASE_URL not set")
	}
	repo, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_, _ = repo.pool.Exec(context.Background(), `DELETE FROM kv WHERE key LIKE 'test:%'`)
		repo.Close()
	})
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, found, err := repo.Get(ctx, "test:missing"); err != nil || found {
		t.Fatalf("expected absent key, found=%v err=%v", found, err)
	}
	if err := repo.Put(ctx, "test:a", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "test:a", []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, found, err := repo.Get(ctx, "test:a")
	if err != nil || !found || string(got) != `[1,2]` {
		t.Fatalf("get after overwrite: %q found=%v err=%v", got, found, err)
	}

	_ = repo.Put(ctx, "test:b_c", []byte(`{}`))
	_ = repo.Put(ctx, "test:bxc", []byte(`{}`))
	keys, err := repo.Keys(ctx, "test:b_")
	if err != nil || len(keys) != 1 || keys[0] != "test:b_c" {
		t.Fatalf("underscore must match literally, got %v err=%v", keys, err)
	}

	if err := repo.Delete(ctx, "test:a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := repo.Get(ctx, "test:a"); found {
		t.Fatal("key still present after delete")
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New(context.Background(), "not a url ::"); err == nil {
		t.Fatal("expected error for malformed url")
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := migrationSource()
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("first migration: %v", err)
	}
	for {
		up, _, err := src.ReadUp(version)
		if err != nil {
			t.Fatalf("version %d has no up migration: %v", version, err)
		}
		body, _ := io.ReadAll(up)
		up.Close()
		if strings.Contains(strings.ToUpper(string(body)), "DATETIME") {
			t.Fatalf("version %d uses DATETIME, which postgres does not know", version)
		}
		down, _, err := src.ReadDown(version)
		if err != nil {
			t.Fatalf("version %d has no down migration: %v", version, err)
		}
		down.Close()

		version, err = src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			t.Fatalf("next migration: %v", err)
		}
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	url := os.Getenv("FINTRACK_TEST_DATABASE_URL")
	if err := RunMigrations(url); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var version int
	if err := repo.pool.QueryRow(context.Background(), `SELECT version FROM schema_migrations`).Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 1 {
		t.Fatalf("schema version = %d, want 1", version)
	}
}
