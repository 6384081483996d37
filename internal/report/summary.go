package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// RecentCount is the number of transactions shown on the dashboard.
	RecentCount = 5
	// TrendMonths is the length of the expense trend in reports.
	TrendMonths = 12
)

var hundred = decimal.NewFromInt(100)

// Share returns part as a percentage of whole with one decimal, or zero when
// whole is zero.
func Share(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(1)
}

// Breakdown turns a category->amount map into a slice sorted by amount
// descending, then by name, with each share of the overall total.
func Breakdown(totals map[string]decimal.Decimal) []core.CategoryAmount {
	whole := decimal.Zero
	for _, v := range totals {
		whole = whole.Add(v)
	}
	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount, Share: Share(amount, whole)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthlyTrend returns the expense totals of the last months months ending
// with now's month, oldest first.
func MonthlyTrend(txs []core.Transaction, now time.Time, months int) []core.MonthTotal {
	if months <= 0 {
		return nil
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	out := make([]core.MonthTotal, 0, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		out = append(out, core.MonthTotal{
			Year:   m.Year(),
			Month:  int(m.Month()),
			Amount: MonthlyTotal(txs, m.Year(), m.Month()),
		})
	}
	return out
}

// AverageMonthlyExpense spreads the total expense evenly over a year.
func AverageMonthlyExpense(txs []core.Transaction) decimal.Decimal {
	return TotalExpense(txs).Div(decimal.NewFromInt(12)).Round(2)
}

// Recent returns up to n transactions from the head of an already
// newest-first collection.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	if n > len(txs) {
		n = len(txs)
	}
	if n <= 0 {
		return []core.Transaction{}
	}
	out := make([]core.Transaction, n)
	copy(out, txs[:n])
	return out
}

// Summarize builds the dashboard and report overview for a collection.
func Summarize(txs []core.Transaction, now time.Time) core.Overview {
	return core.Overview{
		TotalIncome:           TotalIncome(txs),
		TotalExpense:          TotalExpense(txs),
		Balance:               Balance(txs),
		AverageMonthlyExpense: AverageMonthlyExpense(txs),
		ByCategory:            Breakdown(GroupTotals(txs)),
		Trend:                 MonthlyTrend(txs, now, TrendMonths),
		Recent:                Recent(txs, RecentCount),
	}
}

// CategoryStats groups catalog products by category with count, total,
// average price and share of the catalog total.
func CategoryStats(products []core.Product) []core.CategoryAmount {
	groups := make(map[string][]core.Product)
	for _, p := range products {
		name := core.CategoryOrDefault(p.Category)
		groups[name] = append(groups[name], p)
	}
	stats := Breakdown(GroupBy(products, func(p core.Product) string { return p.Category }, ProductPrice))
	for i := range stats {
		items := groups[stats[i].Name]
		stats[i].Count = len(items)
		stats[i].Average = Average(items, ProductPrice).Round(2)
	}
	return stats
}

// Catalog summarizes the product catalog viewed as sample expenses.
func Catalog(products []core.Product) core.CatalogSummary {
	s := core.CatalogSummary{
		Count:      len(products),
		Total:      Total(products, ProductPrice, nil),
		Average:    Average(products, ProductPrice).Round(2),
		ByCategory: CategoryStats(products),
	}
	hi, okHi := Highest(products, ProductPrice)
	lo, okLo := Lowest(products, ProductPrice)
	if okHi && okLo {
		s.Highest, s.Lowest = &hi, &lo
		s.Range = hi.Price.Sub(lo.Price)
	}
	return s
}

// InMonth returns the transactions dated within the given month, keeping
// their order.
func InMonth(txs []core.Transaction, year int, month time.Month) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, t := range txs {
		if t.Date.IsZero() {
			continue
		}
		if t.Date.Year() == year && t.Date.Month() == month {
			out = append(out, t)
		}
	}
	return out
}

// Month builds the report of one calendar month.
func Month(txs []core.Transaction, year int, month time.Month) core.MonthReport {
	in := InMonth(txs, year, month)
	return core.MonthReport{
		Year:         year,
		Month:        int(month),
		TotalIncome:  TotalIncome(in),
		TotalExpense: TotalExpense(in),
		Balance:      Balance(in),
		ByCategory:   Breakdown(GroupTotals(in)),
		Transactions: in,
	}
}
