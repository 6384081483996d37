package backend

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

func testFactory() Factory {
	return NewFactory(log.New(log.Config{Output: &bytes.Buffer{}}))
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config must fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("unknown backend must fail")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDirectory: "d"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataDirectory != "d" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"postgres", Config{Type: PostgresBackend, DatabaseURL: "postgres://localhost/fintrack"}, false},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := testFactory().CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Publisher != nil || res.Cleanup != nil {
		t.Fatal("memory backend has no publisher or cleanup")
	}
	if err := res.Store.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fintrack.db")
	res, err := testFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if err := res.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := res.Store.Put(ctx, "transactions:guest", []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := res.Store.Get(ctx, "transactions:guest")
	if err != nil || !ok || string(v) != "[]" {
		t.Fatalf("get = %q %v %v", v, ok, err)
	}
}

func TestCreateJournalFallsBackToMemory(t *testing.T) {
	res, err := testFactory().CreateJournal(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}
	if res.Kind != "memory" || res.Journal == nil {
		t.Fatalf("unexpected journal %+v", res)
	}
}
