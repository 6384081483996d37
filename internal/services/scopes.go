package services

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/budget"
	"fintrack/internal/ledger"
	"fintrack/internal/storage"
)

// Scopes hands out one Scope per storage partition. Sessions sharing a Scopes
// read and write the same ledger and budgets of a partition.
type Scopes struct {
	mu         sync.Mutex
	kv         storage.Store
	ledgerOpts []ledger.Option
	byName     map[string]*Scope
}

func NewScopes(kv storage.Store, opts ...ledger.Option) *Scopes {
	return &Scopes{kv: kv, ledgerOpts: opts, byName: make(map[string]*Scope)}
}

// Get returns the Scope of name, loading it on first use. An empty name is
// the guest partition.
func (r *Scopes) Get(ctx context.Context, name string) (*Scope, error) {
	name = storage.ScopeOrGuest(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if sc, ok := r.byName[name]; ok {
		return sc, nil
	}

	l, err := ledger.Open(ctx, r.kv, name, r.ledgerOpts...)
	if err != nil {
		return nil, fmt.Errorf("load scope %s: %w", name, err)
	}
	b, err := budget.Open(ctx, r.kv, name)
	if err != nil {
		return nil, fmt.Errorf("load scope %s: %w", name, err)
	}
	sc := &Scope{Name: name, Ledger: l, Budgets: b}
	r.byName[name] = sc
	return sc, nil
}

// Len returns the number of loaded partitions.
func (r *Scopes) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}
