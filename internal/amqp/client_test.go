package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestRetryTracker_BacksOffThenRejects(t *testing.T) {
	r := newRetryTracker(maxHandleAttempts)

	for i := 0; i < maxHandleAttempts-1; i++ {
		requeue, wait := r.fail("m1", 0)
		if !requeue {
			t.Fatalf("attempt %d: expected requeue", i+1)
		}
		if want := exponentialBackoff(i); wait != want {
			t.Errorf("attempt %d: wait = %v, want %v", i+1, wait, want)
		}
	}
	requeue, wait := r.fail("m1", 0)
	if requeue || wait != 0 {
		t.Fatalf("last attempt should reject without requeue, got requeue=%v wait=%v", requeue, wait)
	}
	if len(r.failures) != 0 {
		t.Errorf("rejected message should be forgotten, got %v", r.failures)
	}

	// A fresh delivery of the same id starts over.
	if requeue, _ := r.fail("m1", 0); !requeue {
		t.Error("counter should restart after a rejection")
	}
}

func TestRetryTracker_SuccessResets(t *testing.T) {
	r := newRetryTracker(3)
	r.fail("m1", 0)
	r.fail("m2", 0)
	r.done("m1")

	if _, ok := r.failures["m1"]; ok {
		t.Error("done should forget the message")
	}
	if requeue, wait := r.fail("m1", 0); !requeue || wait != exponentialBackoff(0) {
		t.Errorf("m1 should start over, got requeue=%v wait=%v", requeue, wait)
	}
	if requeue, _ := r.fail("m2", 0); !requeue {
		t.Error("m2 has one earlier failure and should still requeue")
	}
	if requeue, _ := r.fail("m2", 0); requeue {
		t.Error("m2 reached the limit and should be rejected")
	}
}

func TestRetryTracker_UsesBrokerDeliveryCount(t *testing.T) {
	r := newRetryTracker(maxHandleAttempts)
	// The worker restarted and lost its counters; the broker still knows.
	if requeue, _ := r.fail("m1", maxHandleAttempts-1); requeue {
		t.Error("message delivered maxHandleAttempts times should be rejected")
	}
	requeue, wait := r.fail("m2", 2)
	if !requeue || wait != exponentialBackoff(2) {
		t.Errorf("got requeue=%v wait=%v, want requeue with %v", requeue, wait, exponentialBackoff(2))
	}
}

func TestDeliveryCount(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp091.Table
		want    int
	}{
		{"no headers", nil, 0},
		{"int64", amqp091.Table{"x-delivery-count": int64(3)}, 3},
		{"int32", amqp091.Table{"x-delivery-count": int32(2)}, 2},
		{"wrong type", amqp091.Table{"x-delivery-count": "3"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deliveryCount(amqp091.Delivery{Headers: tt.headers}); got != tt.want {
				t.Errorf("deliveryCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessageKey(t *testing.T) {
	msg := &TransactionEventMessage{
		Action:      core.ActionCreated,
		Scope:       "alice",
		Transaction: core.Transaction{ID: 7},
		OccurredAt:  time.Unix(100, 0),
	}
	if got := messageKey(amqp091.Delivery{MessageId: "abc"}, msg); got != "abc" {
		t.Errorf("message id should win, got %q", got)
	}
	a := messageKey(amqp091.Delivery{}, msg)
	other := *msg
	other.Transaction.ID = 8
	if a == messageKey(amqp091.Delivery{}, &other) {
		t.Errorf("different transactions share key %q", a)
	}
	if a != messageKey(amqp091.Delivery{}, msg) {
		t.Error("key should be stable across redeliveries")
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should be open after max failures")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should close the circuit and reset failures")
	}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should be half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatal("state should be half-open after the timeout")
	}

	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("a failure while half-open should reopen the circuit")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	ev := core.TransactionEvent{Action: core.ActionCreated, Scope: "guest"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishTransactionEvent(ctx, ev); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	err := client.PublishTransactionEvent(context.Background(), ev)
	if err == nil || !strings.Contains(err.Error(), "channel not available") {
		t.Fatalf("expected missing channel error, got %v", err)
	}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	if err := client.PublishTransactionEvent(context.Background(), ev); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit error, got %v", err)
	}
}

func TestTransactionEventMessage_JSON(t *testing.T) {
	occurred := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ev := core.TransactionEvent{
		Action: core.ActionUpdated,
		Scope:  "alice",
		Transaction: core.Transaction{
			ID: 42, Type: core.Expense, Amount: decimal.RequireFromString("9.90"),
			Category: "Food", Date: core.NewDate(2025, 1, 1),
		},
		OccurredAt: occurred,
	}

	msg := NewTransactionEventMessage(ev)
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp should be set")
	}
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionEventMessageFromJSON(body)
	if err != nil {
		t.Fatalf("TransactionEventMessageFromJSON() error = %v", err)
	}
	got := parsed.Event()
	if got.Action != ev.Action || got.Scope != ev.Scope || !got.OccurredAt.Equal(occurred) {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Transaction.ID != 42 || !got.Transaction.Amount.Equal(ev.Transaction.Amount) {
		t.Fatalf("unexpected transaction %+v", got.Transaction)
	}
}

func TestTransactionEventMessage_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"action": 1}`,
		`{"action": "archived", "scope": "alice"}`,
		`{"action": "created"}`,
	} {
		if _, err := TransactionEventMessageFromJSON([]byte(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}
