// Package report implements the aggregation engine shared by the transaction
// views and the product catalog.
//
// Every function is pure: inputs are never mutated, empty inputs produce zero
// values and nothing here panics or returns an error.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// AmountFunc extracts the aggregated value from a record.
type AmountFunc[T any] func(T) decimal.Decimal

// Total sums the amounts of the records accepted by keep. A nil keep accepts
// every record.
func Total[T any](items []T, amount AmountFunc[T], keep func(T) bool) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if keep != nil && !keep(it) {
			continue
		}
		total = total.Add(amount(it))
	}
	return total
}

// Average returns the arithmetic mean of the amounts, or zero for no records.
func Average[T any](items []T, amount AmountFunc[T]) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	return Total(items, amount, nil).Div(decimal.NewFromInt(int64(len(items))))
}

// Extremum returns the record whose amount beats every other according to
// better. The first record wins ties. ok is false for an empty input.
func Extremum[T any](items []T, amount AmountFunc[T], better func(a, b decimal.Decimal) bool) (best T, ok bool) {
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	bestAmount := amount(best)
	for _, it := range items[1:] {
		if a := amount(it); better(a, bestAmount) {
			best, bestAmount = it, a
		}
	}
	return best, true
}

// Highest returns the record with the largest amount.
func Highest[T any](items []T, amount AmountFunc[T]) (T, bool) {
	return Extremum(items, amount, decimal.Decimal.GreaterThan)
}

// Lowest returns the record with the smallest amount.
func Lowest[T any](items []T, amount AmountFunc[T]) (T, bool) {
	return Extremum(items, amount, decimal.Decimal.LessThan)
}

// GroupBy sums amounts per key. Blank keys are grouped under
// core.DefaultCategory.
func GroupBy[T any](items []T, key func(T) string, amount AmountFunc[T]) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, it := range items {
		k := core.CategoryOrDefault(key(it))
		out[k] = out[k].Add(amount(it))
	}
	return out
}

// TransactionAmount is the AmountFunc for transactions.
func TransactionAmount(t core.Transaction) decimal.Decimal { return t.Amount }

// ProductPrice is the AmountFunc for catalog products.
func ProductPrice(p core.Product) decimal.Decimal { return p.Price }

// TotalIncome sums income transactions.
func TotalIncome(txs []core.Transaction) decimal.Decimal {
	return Total(txs, TransactionAmount, core.Transaction.IsIncome)
}

// TotalExpense sums expense transactions.
func TotalExpense(txs []core.Transaction) decimal.Decimal {
	return Total(txs, TransactionAmount, core.Transaction.IsExpense)
}

// Balance is total income minus total expense.
func Balance(txs []core.Transaction) decimal.Decimal {
	return TotalIncome(txs).Sub(TotalExpense(txs))
}

// GroupTotals sums expense amounts per category. Income is ignored.
func GroupTotals(txs []core.Transaction) map[string]decimal.Decimal {
	return GroupBy(expenses(txs), func(t core.Transaction) string { return t.Category }, TransactionAmount)
}

// MonthlyTotal sums the expenses dated within the given month, from the first
// day inclusive to the first day of the next month exclusive.
func MonthlyTotal(txs []core.Transaction, year int, month time.Month) decimal.Decimal {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return Total(txs, TransactionAmount, func(t core.Transaction) bool {
		if !t.IsExpense() || t.Date.IsZero() {
			return false
		}
		return !t.Date.Before(start) && t.Date.Before(end)
	})
}

func expenses(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.IsExpense() {
			out = append(out, t)
		}
	}
	return out
}
