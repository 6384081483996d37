package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2025, "2025 Transactions"},
		{" Journal ", 2024, "2024 Journal"},
		{"2023 Journal", 2025, "2023 Journal"},
		{"Q1 2025", 2025, "2025 Q1 2025"},
	}
	for _, tc := range cases {
		if got := yearPrefixedName(tc.base, tc.year); got != tc.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tc.base, tc.year, got, tc.want)
		}
	}
}

func TestCredentialsResolution(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	got, err := credentials(Config{CredentialsJSON: ` {"type":"service_account"} `})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline json: %q err=%v", got, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = credentials(Config{CredentialsFile: path})
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("file: %q err=%v", got, err)
	}

	if _, err := credentials(Config{}); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without spreadsheet id")
	}
}

func TestAppendWithoutService(t *testing.T) {
	c := &Client{}
	if _, err := c.Append(context.Background(), core.TransactionEvent{Scope: "guest"}); err == nil {
		t.Fatal("expected error without service")
	}
}
