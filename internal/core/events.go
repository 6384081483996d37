package core

import "time"

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

type EventAction string

// TransactionEvent describes one successful mutation of a transaction store.
type TransactionEvent struct {
	Action      EventAction `json:"action"`
	Scope       string      `json:"scope"`
	Transaction Transaction `json:"transaction"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
