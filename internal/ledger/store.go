// Package ledger implements the transaction store of one identity scope.
//
// The store keeps its collection newest-first in memory and writes the whole
// collection back to the key-value store on every mutation, before the
// mutation returns.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Publisher receives an event after every successful mutation.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, ev core.TransactionEvent) error
}

type Option func(*Store)

// WithPublisher attaches an event publisher. Publish failures are logged and
// never fail the mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithClock overrides the time source used for ids and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	mu        sync.Mutex
	kv        storage.Store
	scope     string
	items     []core.Transaction
	lastID    int64
	publisher Publisher
	now       func() time.Time
}

// Open loads the collection of scope from kv. A missing or unreadable
// collection starts empty.
func Open(ctx context.Context, kv storage.Store, scope string, opts ...Option) (*Store, error) {
	s := &Store{
		kv:    kv,
		scope: storage.ScopeOrGuest(scope),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := storage.LoadJSON(ctx, kv, storage.TransactionsKey(s.scope), []core.Transaction{})
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", s.scope, err)
	}
	s.items = items
	for _, t := range items {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	return s, nil
}

// Scope returns the storage partition this store belongs to.
func (s *Store) Scope() string { return s.scope }

// List returns a copy of the collection, newest first.
func (s *Store) List() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the transaction with the given id.
func (s *Store) Get(id int64) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return core.Transaction{}, false
}

// Add validates tx, assigns it an id and prepends it to the collection.
// Invalid input leaves the store untouched.
func (s *Store) Add(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	now := s.now()
	tx.ID = s.nextID(now)
	tx.Category = core.CategoryOrDefault(tx.Category)
	tx.Description = strings.TrimSpace(tx.Description)
	if tx.Date.IsZero() {
		tx.Date = core.DateOf(now)
	}

	prev := s.items
	s.items = append([]core.Transaction{tx}, prev...)
	if err := s.persistLocked(ctx); err != nil {
		s.items = prev
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.lastID = tx.ID
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction added", "scope", s.scope, "id", tx.ID, "type", tx.Type, "category", tx.Category)
	s.publish(ctx, core.ActionCreated, tx)
	return tx, nil
}

// Edit merges patch into the transaction with the given id. found is false,
// and nothing changes, when no such transaction exists.
func (s *Store) Edit(ctx context.Context, id int64, patch core.TransactionPatch) (updated core.Transaction, found bool, err error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, false, nil
	}

	updated = patch.Apply(s.items[i])
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, true, err
	}

	prev := s.items[i]
	s.items[i] = updated
	if err := s.persistLocked(ctx); err != nil {
		s.items[i] = prev
		s.mu.Unlock()
		return core.Transaction{}, true, err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction updated", "scope", s.scope, "id", id)
	s.publish(ctx, core.ActionUpdated, updated)
	return updated, true, nil
}

// Remove deletes the transaction with the given id. found is false when no
// such transaction exists.
func (s *Store) Remove(ctx context.Context, id int64) (found bool, err error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}

	prev := s.items
	removed := prev[i]
	next := make([]core.Transaction, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	s.items = next
	if err := s.persistLocked(ctx); err != nil {
		s.items = prev
		s.mu.Unlock()
		return true, err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction removed", "scope", s.scope, "id", id)
	s.publish(ctx, core.ActionDeleted, removed)
	return true, nil
}

// nextID derives an id from the creation time, bumped past the last id so
// ids stay unique and increasing even within one millisecond.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}

func (s *Store) indexOf(id int64) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) error {
	if err := storage.SaveJSON(ctx, s.kv, storage.TransactionsKey(s.scope), s.items); err != nil {
		return fmt.Errorf("persist ledger %s: %w", s.scope, err)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, action core.EventAction, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	ev := core.TransactionEvent{Action: action, Scope: s.scope, Transaction: tx, OccurredAt: s.now().UTC()}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"scope", s.scope, "id", tx.ID, "action", action, "error", err)
	}
}
