package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// TransactionEventMessage carries one transaction mutation to the sync worker.
// The full record travels with the message since the worker has no access to
// the key-value store.
type TransactionEventMessage struct {
	Action      core.EventAction `json:"action"`
	Scope       string           `json:"scope"`
	Transaction core.Transaction `json:"transaction"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewTransactionEventMessage wraps ev for publishing
func NewTransactionEventMessage(ev core.TransactionEvent) *TransactionEventMessage {
	return &TransactionEventMessage{
		Action:      ev.Action,
		Scope:       ev.Scope,
		Transaction: ev.Transaction,
		OccurredAt:  ev.OccurredAt,
		Timestamp:   time.Now(),
	}
}

// Event returns the domain event carried by the message
func (m *TransactionEventMessage) Event() core.TransactionEvent {
	return core.TransactionEvent{
		Action:      m.Action,
		Scope:       m.Scope,
		Transaction: m.Transaction,
		OccurredAt:  m.OccurredAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON decodes and sanity-checks a message
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case core.ActionCreated, core.ActionUpdated, core.ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if msg.Scope == "" {
		return nil, fmt.Errorf("message without scope")
	}
	return &msg, nil
}
