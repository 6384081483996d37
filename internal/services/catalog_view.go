package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
)

// CatalogFetcher loads the remote product catalog.
type CatalogFetcher interface {
	FetchAll(ctx context.Context) ([]core.Product, error)
}

// CatalogView keeps the outcome of the latest catalog fetch: either the
// products or the error. Concurrent refreshes are not deduplicated; whichever
// finishes last wins.
type CatalogView struct {
	fetcher CatalogFetcher

	mu        sync.RWMutex
	products  []core.Product
	err       error
	loaded    bool
	fetchedAt time.Time
}

func NewCatalogView(f CatalogFetcher) *CatalogView {
	return &CatalogView{fetcher: f}
}

// Refresh performs one fetch and records its outcome.
func (v *CatalogView) Refresh(ctx context.Context) ([]core.Product, error) {
	products, err := v.fetcher.FetchAll(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Catalog fetch failed", "error", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.products, v.err, v.loaded, v.fetchedAt = products, err, true, time.Now()
	return products, err
}

// Products returns the last outcome, fetching first if nothing was loaded yet.
func (v *CatalogView) Products(ctx context.Context) ([]core.Product, error) {
	v.mu.RLock()
	loaded, products, err := v.loaded, v.products, v.err
	v.mu.RUnlock()
	if !loaded {
		return v.Refresh(ctx)
	}
	return products, err
}

// FetchedAt returns when the last fetch finished, zero if never.
func (v *CatalogView) FetchedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fetchedAt
}
