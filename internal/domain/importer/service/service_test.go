package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finly-app/finly/internal/domain/categorization"
	"github.com/finly-app/finly/internal/domain/importer/dedup"
	"github.com/finly-app/finly/internal/domain/importer/dispatcher"
	"github.com/finly-app/finly/internal/domain/importer/fields"
	"github.com/finly-app/finly/internal/domain/importer/normalizer"
	"github.com/finly-app/finly/internal/domain/importer/parser"
	"github.com/finly-app/finly/internal/domain/importer/validator"
	"github.com/finly-app/finly/internal/domain/ledger"
	"github.com/finly-app/finly/pkg/metrics"
)

func newTestService(store ledger.Store) *ImportService {
	logger := slog.Default()
	return New(
		store,
		dispatcher.New(parser.DefaultPDFOptions(), logger),
		normalizer.New(categorization.NewMatcher(categorization.DefaultRules())),
		dedup.New(dedup.DefaultThreshold),
		logger,
		metrics.NewImportMetrics(prometheus.NewRegistry()),
		"USD",
	)
}

const statementCSV = "Date,Narration,Debit,Credit\n" +
	"2024-01-05,Coffee Shop,4.50,\n" +
	"2024-01-06,ACME Payroll,,2500.00\n" +
	"2024-01-07,Broken Row,0,\n"

func TestPreviewEndToEnd(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()

	result, err := svc.Preview(context.Background(), userID, dispatcher.Upload{
		Filename: "statement.csv",
		Data:     []byte(statementCSV),
	})
	require.NoError(t, err)
	require.True(t, result.Parse.Success)
	require.Len(t, result.Rows, 2)

	expense := result.Rows[0]
	assert.Equal(t, "Coffee Shop", expense.Description)
	assert.Equal(t, fields.TypeExpense, expense.Type)
	assert.True(t, expense.Amount.Equal(decimal.RequireFromString("4.50")))
	assert.True(t, expense.Include)

	income := result.Rows[1]
	assert.Equal(t, fields.TypeIncome, income.Type)

	// zero-amount row reported, not silently dropped
	require.Len(t, result.Parse.Errors, 1)
	assert.Equal(t, 4, result.Parse.Errors[0].Row)

	assert.Empty(t, result.Defects)
}

func TestPreviewFlagsDuplicates(t *testing.T) {
	store := ledger.NewMemoryStore()
	userID := uuid.New()
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	_, err := store.AddExpenses(context.Background(), userID, []ledger.Expense{
		{Category: "Coffee Shop", AmountMinor: 450, CurrencyCode: "USD", Date: date},
	})
	require.NoError(t, err)

	svc := newTestService(store)
	result, err := svc.Preview(context.Background(), userID, dispatcher.Upload{
		Filename: "statement.csv",
		Data:     []byte(statementCSV),
	})
	require.NoError(t, err)

	assert.True(t, result.Rows[0].IsDuplicate)
	assert.NotEqual(t, uuid.Nil, result.Rows[0].DuplicateOf)
	assert.False(t, result.Rows[1].IsDuplicate)
}

func TestPreviewParseFailureIsNotAnError(t *testing.T) {
	svc := newTestService(ledger.NewMemoryStore())

	result, err := svc.Preview(context.Background(), uuid.New(), dispatcher.Upload{
		Filename: "statement.csv",
		Data:     []byte("Narration,Debit\nCoffee,4.50\n"),
	})
	require.NoError(t, err)
	assert.False(t, result.Parse.Success)
	assert.Empty(t, result.Rows)
	require.NotEmpty(t, result.Parse.Errors)
	assert.Contains(t, result.Parse.Errors[0].Message, "date column")
}

func TestPreviewUnsupportedFormat(t *testing.T) {
	svc := newTestService(ledger.NewMemoryStore())

	_, err := svc.Preview(context.Background(), uuid.New(), dispatcher.Upload{
		Filename: "statement.bin",
		Data:     []byte{0x00, 0x01, 0x02, 0x03},
	})
	assert.ErrorIs(t, err, dispatcher.ErrUnsupportedFormat)
}

func TestCommitStoresIncludedRows(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()

	result, err := svc.Preview(context.Background(), userID, dispatcher.Upload{
		Filename: "statement.csv",
		Data:     []byte(statementCSV),
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	storedIncomes, storedExpenses, err := svc.Commit(context.Background(), userID, result.Rows)
	require.NoError(t, err)
	assert.Equal(t, 1, storedIncomes)
	assert.Equal(t, 1, storedExpenses)

	expenses, err := store.ListExpenses(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, int64(450), expenses[0].AmountMinor)
	assert.Equal(t, "USD", expenses[0].CurrencyCode)

	incomes, err := store.ListIncomes(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, "ACME Payroll", incomes[0].Source)
	assert.Equal(t, int64(250000), incomes[0].AmountMinor)
}

func TestCommitSkipsExcludedRows(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := newTestService(store)
	userID := uuid.New()

	result, err := svc.Preview(context.Background(), userID, dispatcher.Upload{
		Filename: "statement.csv",
		Data:     []byte(statementCSV),
	})
	require.NoError(t, err)

	for i := range result.Rows {
		result.Rows[i].Include = false
	}
	storedIncomes, storedExpenses, err := svc.Commit(context.Background(), userID, result.Rows)
	require.NoError(t, err)
	assert.Zero(t, storedIncomes)
	assert.Zero(t, storedExpenses)
}

func TestNormalizeThenValidateRoundTrip(t *testing.T) {
	norm := normalizer.New(nil)
	rows := norm.Normalize([]parser.ParsedTransaction{
		{
			Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Description: "Coffee Shop",
			Amount:      decimal.RequireFromString("4.50"),
			Type:        fields.TypeExpense,
		},
	})
	require.Len(t, rows, 1)
	assert.Empty(t, validator.ValidateAll(rows))
}
