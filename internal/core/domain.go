package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DefaultCategory is used when a transaction or product carries no category.
const DefaultCategory = "Other"

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	// Date is a plain calendar date stored at UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64           `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        Date            `json:"date"`
	}

	// TransactionPatch carries the fields to change on an existing transaction.
	// Nil fields are left untouched.
	TransactionPatch struct {
		Type        *TransactionType `json:"type,omitempty"`
		Amount      *decimal.Decimal `json:"amount,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Description *string          `json:"description,omitempty"`
		Date        *Date            `json:"date,omitempty"`
	}

	Identity struct {
		Name         string    `json:"name"`
		PasswordHash string    `json:"passwordHash"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// Budget maps a category to its spending limit.
	Budget map[string]decimal.Decimal

	BudgetStatus struct {
		Category    string          `json:"category"`
		Spent       decimal.Decimal `json:"spent"`
		Limit       decimal.Decimal `json:"limit"`
		PercentUsed int             `json:"percentUsed"`
		Exceeded    bool            `json:"exceeded"`
	}

	// Product is a read-only catalog item fetched from the remote demo API.
	Product struct {
		ID                 int             `json:"id"`
		Title              string          `json:"title"`
		Description        string          `json:"description,omitempty"`
		Category           string          `json:"category"`
		Price              decimal.Decimal `json:"price"`
		DiscountPercentage float64         `json:"discountPercentage"`
		Rating             float64         `json:"rating"`
		Stock              int             `json:"stock"`
		Brand              string          `json:"brand,omitempty"`
		Thumbnail          string          `json:"thumbnail,omitempty"`
		Images             []string        `json:"images,omitempty"`
	}
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrInvalidType   = fmt.Errorf("%w: type must be income or expense", ErrValidation)
	ErrInvalidLimit  = fmt.Errorf("%w: limit must not be negative", ErrValidation)
	ErrInvalidDate   = fmt.Errorf("%w: invalid date", ErrValidation)
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string. Full RFC 3339 timestamps are accepted
// and truncated to their date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails: an unreadable date decodes to the zero Date so a
// single corrupt record does not discard a whole persisted collection.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// CategoryOrDefault returns the trimmed category, or DefaultCategory when blank.
func CategoryOrDefault(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return DefaultCategory
	}
	return category
}

// Validate checks the invariants a transaction must satisfy before storage.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Apply returns a copy of t with the non-nil patch fields merged in.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = CategoryOrDefault(*p.Category)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil && !p.Date.IsZero() {
		t.Date = *p.Date
	}
	return t
}

// IsExpense reports whether the transaction counts as spending.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// IsIncome reports whether the transaction counts as income.
func (t Transaction) IsIncome() bool {
	return t.Type == Income
}

// Clone returns a copy of the budget map.
func (b Budget) Clone() Budget {
	out := make(Budget, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
