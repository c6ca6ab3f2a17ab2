// Package repository implements the Postgres-backed ledger store.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finly-app/finly/internal/domain/ledger"
)

// DB is the slice of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists incomes and expenses in Postgres.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresStoreWithDB wires an explicit DB, used by tests.
func NewPostgresStoreWithDB(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListIncomes(ctx context.Context, userID uuid.UUID) ([]ledger.Income, error) {
	query := `
		SELECT id, user_id, source, amount_minor, currency, income_date
		FROM incomes
		WHERE user_id = $1
		ORDER BY income_date DESC, id`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing incomes: %w", err)
	}
	defer rows.Close()

	var incomes []ledger.Income
	for rows.Next() {
		var in ledger.Income
		if err := rows.Scan(&in.ID, &in.UserID, &in.Source, &in.AmountMinor, &in.CurrencyCode, &in.Date); err != nil {
			return nil, fmt.Errorf("scanning income row: %w", err)
		}
		incomes = append(incomes, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading income rows: %w", err)
	}
	return incomes, nil
}

func (s *PostgresStore) ListExpenses(ctx context.Context, userID uuid.UUID) ([]ledger.Expense, error) {
	query := `
		SELECT id, user_id, category, amount_minor, currency, expense_date
		FROM expenses
		WHERE user_id = $1
		ORDER BY expense_date DESC, id`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []ledger.Expense
	for rows.Next() {
		var ex ledger.Expense
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Category, &ex.AmountMinor, &ex.CurrencyCode, &ex.Date); err != nil {
			return nil, fmt.Errorf("scanning expense row: %w", err)
		}
		expenses = append(expenses, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading expense rows: %w", err)
	}
	return expenses, nil
}

func (s *PostgresStore) AddIncomes(ctx context.Context, userID uuid.UUID, incomes []ledger.Income) (int, error) {
	query := `
		INSERT INTO incomes (id, user_id, source, amount_minor, currency, income_date)
		VALUES ($1, $2, $3, $4, $5, $6)`

	inserted := 0
	for _, in := range incomes {
		if in.ID == uuid.Nil {
			in.ID = uuid.New()
		}
		tag, err := s.db.Exec(ctx, query, in.ID, userID, in.Source, in.AmountMinor, in.CurrencyCode, in.Date)
		if err != nil {
			return inserted, fmt.Errorf("inserting income: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) AddExpenses(ctx context.Context, userID uuid.UUID, expenses []ledger.Expense) (int, error) {
	query := `
		INSERT INTO expenses (id, user_id, category, amount_minor, currency, expense_date)
		VALUES ($1, $2, $3, $4, $5, $6)`

	inserted := 0
	for _, ex := range expenses {
		if ex.ID == uuid.Nil {
			ex.ID = uuid.New()
		}
		tag, err := s.db.Exec(ctx, query, ex.ID, userID, ex.Category, ex.AmountMinor, ex.CurrencyCode, ex.Date)
		if err != nil {
			return inserted, fmt.Errorf("inserting expense: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

var _ ledger.Store = (*PostgresStore)(nil)
