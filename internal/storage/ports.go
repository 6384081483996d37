package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Keys of the persisted key-value namespace.
const (
	KeyCurrentUser  = "currentUser"
	KeyDarkMode     = "darkMode"
	KeyUserRegistry = "userRegistry"

	// GuestScope partitions the data of unauthenticated sessions.
	GuestScope = "guest"
)

// Store is the key-value persistence port. Writes are atomic per key;
// nothing spans keys.
type Store interface {
	// Get returns the value stored at key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// KeyLister is implemented by stores that can enumerate their keys.
type KeyLister interface {
	// Keys lists the stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// TransactionsPrefix starts every transaction collection key.
const TransactionsPrefix = "transactions:"

// LikePrefix escapes prefix for a SQL LIKE ... ESCAPE '\' pattern that
// matches every string starting with it.
func LikePrefix(prefix string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix) + "%"
}

// TransactionsKey is the key of the transaction collection of a scope.
func TransactionsKey(scope string) string {
	return TransactionsPrefix + ScopeOrGuest(scope)
}

// BudgetsKey is the key of the budget set of a scope.
func BudgetsKey(scope string) string {
	return "budgets:" + ScopeOrGuest(scope)
}

// ScopeOrGuest maps an empty identity name to the guest partition.
func ScopeOrGuest(scope string) string {
	if scope == "" {
		return GuestScope
	}
	return scope
}

// LoadJSON decodes the JSON value at key into a T. An absent key or an
// unparsable value yields fallback; the latter is logged, never returned.
// Only read failures of the store itself are reported as errors.
func LoadJSON[T any](ctx context.Context, s Store, key string, fallback T) (T, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return fallback, fmt.Errorf("load %s: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return fallback, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.WarnContext(ctx, "Discarding unreadable stored value", "key", key, "error", err)
		return fallback, nil
	}
	return v, nil
}

// SaveJSON encodes v and writes it at key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
