package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// JournalWriter appends one row per transaction event to an external journal.
	JournalWriter interface {
		Append(ctx context.Context, ev core.TransactionEvent) (rowRef string, err error)
	}

	// HeaderWriter is implemented by journals that need a header row.
	HeaderWriter interface {
		EnsureHeader(ctx context.Context) error
	}
)

// JournalHeader names the journal columns, in order.
var JournalHeader = []string{"Occurred At", "Action", "Scope", "ID", "Date", "Type", "Category", "Description", "Amount"}

// JournalRow renders ev as a journal row matching JournalHeader.
func JournalRow(ev core.TransactionEvent) []any {
	t := ev.Transaction
	amount, _ := t.Amount.Round(2).Float64()
	return []any{
		ev.OccurredAt.UTC().Format("2006-01-02 15:04:05"),
		string(ev.Action),
		ev.Scope,
		t.ID,
		t.Date.String(),
		string(t.Type),
		t.Category,
		t.Description,
		amount,
	}
}
