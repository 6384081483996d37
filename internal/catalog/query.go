package catalog

import (
	"sort"
	"strings"

	"fintrack/internal/core"
)

const (
	SortName      SortKey = "name"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
)

type SortKey string

// ParseSortKey maps a query value to a SortKey. Unknown values sort by name.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceAsc, SortPriceDesc, SortRating:
		return k
	default:
		return SortName
	}
}

// Search returns the products whose title or category contains term,
// ignoring case. A blank term matches everything.
func Search(products []core.Product, term string) []core.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]core.Product, 0, len(products))
	for _, p := range products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a sorted copy of products. Equal keys keep their input order.
func Sort(products []core.Product, key SortKey) []core.Product {
	out := make([]core.Product, len(products))
	copy(out, products)

	var less func(a, b core.Product) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b core.Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceDesc:
		less = func(a, b core.Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortRating:
		less = func(a, b core.Product) bool { return a.Rating > b.Rating }
	default:
		less = func(a, b core.Product) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Find returns the product with the given id.
func Find(products []core.Product, id int) (core.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return core.Product{}, false
}
