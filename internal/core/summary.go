package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count,omitempty"`
	// Average is the mean item amount. Only catalog categories fill it.
	Average decimal.Decimal `json:"average"`
	// Share is the percentage of the overall total, rounded to one decimal.
	Share decimal.Decimal `json:"share"`
}

// MonthTotal is the expense total for a specific year+month.
type MonthTotal struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"` // 1-12
	Amount decimal.Decimal `json:"amount"`
}

// Overview is the dashboard and report summary of one identity's transactions.
type Overview struct {
	TotalIncome           decimal.Decimal  `json:"totalIncome"`
	TotalExpense          decimal.Decimal  `json:"totalExpense"`
	Balance               decimal.Decimal  `json:"balance"`
	AverageMonthlyExpense decimal.Decimal  `json:"averageMonthlyExpense"`
	ByCategory            []CategoryAmount `json:"byCategory"`
	Trend                 []MonthTotal     `json:"trend"`
	Recent                []Transaction    `json:"recent"`
}

// CatalogSummary aggregates the product catalog viewed as sample expenses.
type CatalogSummary struct {
	Count      int              `json:"count"`
	Total      decimal.Decimal  `json:"total"`
	Average    decimal.Decimal  `json:"average"`
	Highest    *Product         `json:"highest,omitempty"`
	Lowest     *Product         `json:"lowest,omitempty"`
	Range      decimal.Decimal  `json:"range"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// MonthReport summarizes one calendar month.
type MonthReport struct {
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	TotalIncome  decimal.Decimal  `json:"totalIncome"`
	TotalExpense decimal.Decimal  `json:"totalExpense"`
	Balance      decimal.Decimal  `json:"balance"`
	ByCategory   []CategoryAmount `json:"byCategory"`
	Transactions []Transaction    `json:"transactions"`
}
