package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Journal keeps journal rows in process. It stands in for the spreadsheet
// when none is configured.
type Journal struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.JournalWriter = (*Journal)(nil)

func New() *Journal {
	return &Journal{}
}

// Append stores the event row and returns a synthetic row reference.
func (j *Journal) Append(_ context.Context, ev core.TransactionEvent) (string, error) {
	if ev.Scope == "" {
		return "", fmt.Errorf("event without scope")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, sheets.JournalRow(ev))
	return fmt.Sprintf("mem:%d", len(j.rows)), nil
}

// Rows returns a copy of the stored rows.
func (j *Journal) Rows() [][]any {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([][]any, len(j.rows))
	for i, r := range j.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
