package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New()

	buf := []byte(`"dark"`)
	_ = s.Put(ctx, "k", buf)
	buf[1] = 'X'

	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(got) != `"dark"` {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
	got[1] = 'Y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != `"dark"` {
		t.Fatalf("returned value aliased internal buffer: %q", again)
	}

	_ = s.Delete(ctx, "k")
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("expected key removed")
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	seed := `{"darkMode": true, "transactions:guest": [{"id":1,"type":"expense","amount":5}]}`
	if err := os.WriteFile(filepath.Join(dir, "seed.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromFiles(dir)

	keys, _ := s.Keys(context.Background(), "")
	if len(keys) != 2 || keys[0] != "darkMode" {
		t.Fatalf("unexpected keys %v", keys)
	}
	v, found, _ := s.Get(context.Background(), "darkMode")
	if !found || string(v) != "true" {
		t.Fatalf("unexpected seeded value %q", v)
	}

	if empty := NewFromFiles(filepath.Join(dir, "missing")); len(empty.data) != 0 {
		t.Fatalf("missing seed should give an empty store")
	}
}
