package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
)

// SyncWorker mirrors transaction events into an external journal
type SyncWorker struct {
	journal sheets.JournalWriter
}

func NewSyncWorker(journal sheets.JournalWriter) *SyncWorker {
	return &SyncWorker{journal: journal}
}

// Prepare readies the journal before the first event, writing its header
// when the journal needs one.
func (w *SyncWorker) Prepare(ctx context.Context) error {
	hw, ok := w.journal.(sheets.HeaderWriter)
	if !ok {
		return nil
	}
	if err := hw.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("prepare journal: %w", err)
	}
	return nil
}

// HandleEventMessage appends one event to the journal. An error makes the
// consumer retry the message with backoff.
func (w *SyncWorker) HandleEventMessage(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	ev := msg.Event()
	ref, err := w.journal.Append(ctx, ev)
	if err != nil {
		return fmt.Errorf("append %s event for transaction %d: %w", ev.Action, ev.Transaction.ID, err)
	}

	slog.InfoContext(ctx, "Transaction event journaled",
		"action", ev.Action,
		"scope", ev.Scope,
		"id", ev.Transaction.ID,
		"ref", ref)
	return nil
}
