// Package service orchestrates the statement import pipeline: dispatch,
// parse, normalize, validate, duplicate-flag, and finally commit the
// rows the user kept.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finly-app/finly/internal/domain/importer/dedup"
	"github.com/finly-app/finly/internal/domain/importer/dispatcher"
	"github.com/finly-app/finly/internal/domain/importer/fields"
	"github.com/finly-app/finly/internal/domain/importer/normalizer"
	"github.com/finly-app/finly/internal/domain/importer/parser"
	"github.com/finly-app/finly/internal/domain/importer/validator"
	"github.com/finly-app/finly/internal/domain/ledger"
	"github.com/finly-app/finly/pkg/metrics"
	"github.com/finly-app/finly/pkg/money"
)

// PreviewResult is what the review UI renders: one row per surviving
// transaction, the raw parse outcome, and validation defects keyed by
// row id.
type PreviewResult struct {
	Rows    []normalizer.PreviewRow `json:"rows"`
	Parse   *parser.ParseResult     `json:"parse"`
	Defects map[string][]string     `json:"defects,omitempty"`
}

// ImportService runs the pipeline. Metrics may be nil (the CLI path
// runs without a registry).
type ImportService struct {
	store      ledger.Store
	dispatcher *dispatcher.Dispatcher
	normalizer *normalizer.Normalizer
	detector   *dedup.Detector
	logger     *slog.Logger
	metrics    *metrics.ImportMetrics
	currency   string
}

func New(
	store ledger.Store,
	disp *dispatcher.Dispatcher,
	norm *normalizer.Normalizer,
	detector *dedup.Detector,
	logger *slog.Logger,
	m *metrics.ImportMetrics,
	currency string,
) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	if currency == "" {
		currency = "USD"
	}
	return &ImportService{
		store:      store,
		dispatcher: disp,
		normalizer: norm,
		detector:   detector,
		logger:     logger,
		metrics:    m,
		currency:   currency,
	}
}

// Preview parses the upload and returns rows for user review. Nothing
// is persisted; a failed parse returns the ParseResult with its
// file-level error rather than a Go error, so callers can surface the
// message as-is. Only transport-level problems (unsupported format,
// password signals) surface as errors.
func (s *ImportService) Preview(ctx context.Context, userID uuid.UUID, upload dispatcher.Upload) (*PreviewResult, error) {
	start := time.Now()
	format := dispatcher.DetectFormat(upload.Filename, upload.Data)

	result, err := s.dispatcher.Dispatch(ctx, upload)
	if err != nil {
		s.countFileFailure(format)
		return nil, err
	}

	s.observeParse(format, result, time.Since(start))

	if !result.Success {
		s.logger.Warn("statement parse failed",
			slog.String("filename", upload.Filename),
			slog.String("format", string(format)),
			slog.Int("errors", len(result.Errors)))
		return &PreviewResult{Parse: result}, nil
	}

	rows := s.normalizer.Normalize(result.Transactions)

	incomes, err := s.store.ListIncomes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading existing incomes: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading existing expenses: %w", err)
	}
	s.detector.Flag(rows, incomes, expenses)

	duplicates := 0
	for _, row := range rows {
		if row.IsDuplicate {
			duplicates++
		}
	}
	if s.metrics != nil {
		s.metrics.Duplicates.Add(float64(duplicates))
	}

	s.logger.Info("statement parsed",
		slog.String("filename", upload.Filename),
		slog.String("format", string(format)),
		slog.Int("rows", len(rows)),
		slog.Int("row_errors", len(result.Errors)),
		slog.Int("duplicates", duplicates),
		slog.Duration("elapsed", time.Since(start)))

	return &PreviewResult{
		Rows:    rows,
		Parse:   result,
		Defects: validator.ValidateAll(rows),
	}, nil
}

// Commit persists the rows the user kept. Rows with Include=false or
// any validation defect are skipped. Returns counts of stored incomes
// and expenses.
func (s *ImportService) Commit(ctx context.Context, userID uuid.UUID, rows []normalizer.PreviewRow) (int, int, error) {
	var incomes []ledger.Income
	var expenses []ledger.Expense

	for _, row := range rows {
		if !row.Include || len(validator.Validate(row)) > 0 {
			continue
		}
		switch row.Type {
		case fields.TypeIncome:
			incomes = append(incomes, ledger.Income{
				Source:       row.Description,
				AmountMinor:  s.toMinor(row),
				CurrencyCode: s.currency,
				Date:         row.Date,
			})
		case fields.TypeExpense:
			expenses = append(expenses, ledger.Expense{
				Category:     row.Category,
				AmountMinor:  s.toMinor(row),
				CurrencyCode: s.currency,
				Date:         row.Date,
			})
		}
	}

	storedIncomes := 0
	storedExpenses := 0
	if len(incomes) > 0 {
		var err error
		storedIncomes, err = s.store.AddIncomes(ctx, userID, incomes)
		if err != nil {
			return storedIncomes, 0, fmt.Errorf("committing incomes: %w", err)
		}
	}
	if len(expenses) > 0 {
		var err error
		storedExpenses, err = s.store.AddExpenses(ctx, userID, expenses)
		if err != nil {
			return storedIncomes, storedExpenses, fmt.Errorf("committing expenses: %w", err)
		}
	}

	s.logger.Info("import committed",
		slog.Int("incomes", storedIncomes),
		slog.Int("expenses", storedExpenses))
	return storedIncomes, storedExpenses, nil
}

func (s *ImportService) toMinor(row normalizer.PreviewRow) int64 {
	return money.NewFromDecimal(row.Amount, s.currency).Amount()
}

func (s *ImportService) observeParse(format dispatcher.Format, result *parser.ParseResult, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	label := string(format)
	s.metrics.RowsParsed.WithLabelValues(label).Add(float64(len(result.Transactions)))
	s.metrics.ParseDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	for _, e := range result.Errors {
		if e.Row == 0 {
			s.metrics.FileFailures.WithLabelValues(label).Inc()
		} else {
			s.metrics.RowErrors.WithLabelValues(label).Inc()
		}
	}
}

func (s *ImportService) countFileFailure(format dispatcher.Format) {
	if s.metrics != nil {
		s.metrics.FileFailures.WithLabelValues(string(format)).Inc()
	}
}
