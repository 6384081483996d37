package storage_test

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type failingStore struct{ *memory.Store }

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func TestLoadJSONFallbacks(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	got, err := storage.LoadJSON(ctx, s, "budgets:guest", map[string]int{"default": 1})
	if err != nil || got["default"] != 1 {
		t.Fatalf("absent key should yield fallback, got %v err=%v", got, err)
	}

	_ = s.Put(ctx, "budgets:guest", []byte(`{not json`))
	got, err = storage.LoadJSON(ctx, s, "budgets:guest", map[string]int{})
	if err != nil || len(got) != 0 {
		t.Fatalf("corrupt value should yield fallback, got %v err=%v", got, err)
	}

	if err := storage.SaveJSON(ctx, s, "budgets:guest", map[string]int{"Food": 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = storage.LoadJSON(ctx, s, "budgets:guest", map[string]int{})
	if err != nil || got["Food"] != 3 {
		t.Fatalf("round trip failed: %v err=%v", got, err)
	}
}

func TestLoadJSONReportsStoreErrors(t *testing.T) {
	_, err := storage.LoadJSON(context.Background(), failingStore{memory.New()}, "x", 0)
	if err == nil {
		t.Fatalf("expected read failure to surface")
	}
}

func TestScopedKeys(t *testing.T) {
	if got := storage.TransactionsKey(""); got != "transactions:guest" {
		t.Fatalf("got %q", got)
	}
	if got := storage.BudgetsKey("alice"); got != "budgets:alice" {
		t.Fatalf("got %q", got)
	}
}

func TestLikePrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"transactions:", "transactions:%"},
		{"a_b", `a\_b%`},
		{"50%", `50\%%`},
		{`c:\d`, `c:\\d%`},
		{"", "%"},
	}
	for _, tt := range tests {
		if got := storage.LikePrefix(tt.prefix); got != tt.want {
			t.Errorf("LikePrefix(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestStoresListKeys(t *testing.T) {
	var _ storage.KeyLister = memory.New()
	var _ storage.KeyLister = (*storage.SQLiteRepository)(nil)
}
