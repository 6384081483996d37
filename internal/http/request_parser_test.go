package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth time.Month
	}{
		{"both values provided", url.Values{"year": {"2024"}, "month": {"12"}}, 2024, time.December},
		{"defaults to now", url.Values{}, 2025, time.March},
		{"invalid values are ignored", url.Values{"year": {"abc"}, "month": {"x"}}, 2025, time.March},
		{"month out of range", url.Values{"month": {"13"}}, 2025, time.March},
		{"month zero", url.Values{"month": {"0"}}, 2025, time.March},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMonthParams(tt.query, now)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func newParser(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse %q: %v", body, err)
	}
	return p
}

func TestRequestBodyParserJSON(t *testing.T) {
	p := newParser(t, `{"type":"expense","amount":12.5,"description":"  lunch\u0007 ","flag":true,"nothing":null}`)

	if !p.IsJSON() {
		t.Fatal("expected JSON body")
	}
	if got := p.Get("amount"); got != "12.5" {
		t.Errorf("amount = %q", got)
	}
	if got := p.Get("description"); got != "lunch" {
		t.Errorf("description = %q, want sanitized value", got)
	}
	if got := p.Get("flag"); got != "true" {
		t.Errorf("flag = %q", got)
	}
	if p.Has("nothing") || p.Has("missing") || !p.Has("type") {
		t.Error("Has reports wrong presence")
	}
}

func TestRequestBodyParserForm(t *testing.T) {
	p := newParser(t, "type=income&amount=12%2C34&category=")

	if p.IsJSON() {
		t.Fatal("expected form body")
	}
	amount, err := p.Amount("amount")
	if err != nil || amount.String() != "12.34" {
		t.Fatalf("amount = %v, %v", amount, err)
	}
	if !p.Has("category") || p.Get("category") != "" {
		t.Error("empty form field should be present and blank")
	}
}

func TestRequestBodyParserDates(t *testing.T) {
	p := newParser(t, `{"good":"2025-01-31","bad":"31/01/2025"}`)

	d, err := p.Date("good")
	if err != nil || d.String() != "2025-01-31" {
		t.Fatalf("good date = %v, %v", d, err)
	}
	if _, err := p.Date("bad"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("bad date should be a validation error, got %v", err)
	}
	if d, err := p.Date("missing"); err != nil || !d.IsZero() {
		t.Fatalf("missing date = %v, %v", d, err)
	}
}

func TestRequestBodyParserMalformed(t *testing.T) {
	for _, body := range []string{`{"a":`, `[1,2]`, "a=%zz"} {
		p := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		if err := p.Parse(); !errors.Is(err, errMalformedBody) {
			t.Errorf("body %q: got %v", body, err)
		}
	}
}

func TestRequestBodyParserEmpty(t *testing.T) {
	p := newParser(t, "")
	if p.Has("x") || p.Get("x") != "" {
		t.Fatal("empty body has no fields")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Fatalf("got %q", got)
	}
}
