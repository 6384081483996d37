// Package budget tracks per-category spending limits of one identity scope.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

type Tracker struct {
	mu     sync.Mutex
	kv     storage.Store
	scope  string
	limits core.Budget
}

// Open loads the budget set of scope. A missing or unreadable set starts empty.
func Open(ctx context.Context, kv storage.Store, scope string) (*Tracker, error) {
	scope = storage.ScopeOrGuest(scope)
	limits, err := storage.LoadJSON(ctx, kv, storage.BudgetsKey(scope), core.Budget{})
	if err != nil {
		return nil, fmt.Errorf("open budgets %s: %w", scope, err)
	}
	if limits == nil {
		limits = core.Budget{}
	}
	return &Tracker{kv: kv, scope: scope, limits: limits}, nil
}

// Limits returns a copy of the configured limits.
func (t *Tracker) Limits() core.Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limits.Clone()
}

// SetLimit sets or replaces the limit of category. Negative limits are rejected.
func (t *Tracker) SetLimit(ctx context.Context, category string, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return core.ErrInvalidLimit
	}
	category = core.CategoryOrDefault(category)

	t.mu.Lock()
	defer t.mu.Unlock()
	prev, had := t.limits[category]
	t.limits[category] = limit
	if err := t.persistLocked(ctx); err != nil {
		if had {
			t.limits[category] = prev
		} else {
			delete(t.limits, category)
		}
		return err
	}
	slog.InfoContext(ctx, "Budget limit set", "scope", t.scope, "category", category, "limit", limit.String())
	return nil
}

// RemoveLimit drops the limit of category, if any.
func (t *Tracker) RemoveLimit(ctx context.Context, category string) error {
	category = core.CategoryOrDefault(category)

	t.mu.Lock()
	defer t.mu.Unlock()
	prev, had := t.limits[category]
	if !had {
		return nil
	}
	delete(t.limits, category)
	if err := t.persistLocked(ctx); err != nil {
		t.limits[category] = prev
		return err
	}
	return nil
}

// Status derives the spending status of category from txs.
func (t *Tracker) Status(category string, txs []core.Transaction) core.BudgetStatus {
	category = core.CategoryOrDefault(category)
	t.mu.Lock()
	limit := t.limits[category]
	t.mu.Unlock()
	return Compute(category, report.GroupTotals(txs)[category], limit)
}

// Statuses returns the status of every budgeted category, sorted by name.
func (t *Tracker) Statuses(txs []core.Transaction) []core.BudgetStatus {
	limits := t.Limits()
	spent := report.GroupTotals(txs)
	out := make([]core.BudgetStatus, 0, len(limits))
	for category, limit := range limits {
		out = append(out, Compute(category, spent[category], limit))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Compute derives a status. A zero limit means unbudgeted: nothing is used
// and nothing is exceeded.
func Compute(category string, spent, limit decimal.Decimal) core.BudgetStatus {
	st := core.BudgetStatus{Category: category, Spent: spent, Limit: limit}
	if !limit.IsPositive() {
		return st
	}
	pct := spent.Div(limit).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	st.PercentUsed = int(pct)
	st.Exceeded = spent.GreaterThan(limit)
	return st
}

func (t *Tracker) persistLocked(ctx context.Context) error {
	if err := storage.SaveJSON(ctx, t.kv, storage.BudgetsKey(t.scope), t.limits); err != nil {
		return fmt.Errorf("persist budgets %s: %w", t.scope, err)
	}
	return nil
}
