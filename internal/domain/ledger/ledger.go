// Package ledger defines the existing income and expense records the
// import pipeline reconciles against, and the store interface that keeps
// persistence outside the pipeline. The pipeline only ever reads these
// records during an import; writes happen in the explicit commit step.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finly-app/finly/pkg/money"
)

// Income is an existing income record. Source is the free-text origin of
// the income and is the field duplicate detection compares against.
type Income struct {
	ID           uuid.UUID `csv:"id" json:"id"`
	UserID       uuid.UUID `csv:"user_id" json:"user_id"`
	Source       string    `csv:"source" json:"source"`
	AmountMinor  int64     `csv:"amount_minor" json:"amount_minor"`
	CurrencyCode string    `csv:"currency" json:"currency"`
	Date         time.Time `csv:"date" json:"date"`
}

// Amount returns the income value in major units.
func (i Income) Amount() decimal.Decimal {
	return money.MajorUnits(i.AmountMinor, i.CurrencyCode)
}

// Expense is an existing expense record. Expenses carry no free-text
// description, so duplicate detection compares against Category.
type Expense struct {
	ID           uuid.UUID `csv:"id" json:"id"`
	UserID       uuid.UUID `csv:"user_id" json:"user_id"`
	Category     string    `csv:"category" json:"category"`
	AmountMinor  int64     `csv:"amount_minor" json:"amount_minor"`
	CurrencyCode string    `csv:"currency" json:"currency"`
	Date         time.Time `csv:"date" json:"date"`
}

// Amount returns the expense value in major units.
func (e Expense) Amount() decimal.Decimal {
	return money.MajorUnits(e.AmountMinor, e.CurrencyCode)
}

// Store is the ledger collaborator boundary. The import pipeline uses
// only the List methods; the Add methods serve the post-review commit
// step.
type Store interface {
	ListIncomes(ctx context.Context, userID uuid.UUID) ([]Income, error)
	ListExpenses(ctx context.Context, userID uuid.UUID) ([]Expense, error)
	AddIncomes(ctx context.Context, userID uuid.UUID, incomes []Income) (int, error)
	AddExpenses(ctx context.Context, userID uuid.UUID, expenses []Expense) (int, error)
}
