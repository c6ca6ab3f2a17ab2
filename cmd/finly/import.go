package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/finly-app/finly/internal/domain/categorization"
	"github.com/finly-app/finly/internal/domain/importer/dedup"
	"github.com/finly-app/finly/internal/domain/importer/dispatcher"
	"github.com/finly-app/finly/internal/domain/importer/normalizer"
	"github.com/finly-app/finly/internal/domain/importer/parser"
	"github.com/finly-app/finly/internal/domain/importer/service"
	"github.com/finly-app/finly/internal/domain/ledger"
	"github.com/finly-app/finly/internal/domain/ledger/repository"
	"github.com/finly-app/finly/pkg/config"
	"github.com/finly-app/finly/pkg/db"
	"github.com/finly-app/finly/pkg/metrics"
)

type importFlags struct {
	password    string
	incomesCSV  string
	expensesCSV string
	currency    string
	user        string
	postgres    bool
	commit      bool
	verbose     bool
}

func newImportCmd() *cobra.Command {
	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import <statement-file>",
		Short: "Parse a bank statement and preview its transactions",
		Long: `Parses a CSV, spreadsheet, or PDF bank statement and prints the
transactions it would add to the ledger. Rows matching existing incomes
or expenses (loaded from the snapshot files) are marked DUP. Nothing is
stored unless --commit is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.password, "password", "", "password for protected PDF statements")
	cmd.Flags().StringVar(&flags.incomesCSV, "incomes", "", "CSV snapshot of existing incomes")
	cmd.Flags().StringVar(&flags.expensesCSV, "expenses", "", "CSV snapshot of existing expenses")
	cmd.Flags().StringVar(&flags.currency, "currency", "USD", "currency code for committed amounts")
	cmd.Flags().StringVar(&flags.user, "user", "", "ledger user id (defaults to a fresh one)")
	cmd.Flags().BoolVar(&flags.postgres, "postgres", false, "use the Postgres ledger configured via POSTGRES_* instead of an in-memory one")
	cmd.Flags().BoolVar(&flags.commit, "commit", false, "store the previewed rows")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func runImport(ctx context.Context, path string, flags *importFlags) error {
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading statement: %w", err)
	}

	userID := uuid.New()
	if flags.user != "" {
		userID, err = uuid.Parse(flags.user)
		if err != nil {
			return fmt.Errorf("invalid --user id: %w", err)
		}
	}

	var store ledger.Store
	if flags.postgres {
		dsn := cfg.Database.DSN()
		if err := db.Migrate(dsn); err != nil {
			return err
		}
		dbh, err := db.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		defer dbh.Close()
		store = repository.NewPostgresStore(dbh.Pool)
	} else {
		store = ledger.NewMemoryStore()
	}
	if err := seedStore(ctx, store, userID, flags); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	if flags.verbose {
		defer logMetrics(logger, reg)
	}

	svc := service.New(
		store,
		dispatcher.New(parser.PDFOptions{
			RowTolerance:      cfg.Import.PDFRowTolerance,
			CellGap:           cfg.Import.PDFCellGap,
			HeaderScanRows:    cfg.Import.HeaderScanRows,
			MinDescriptionLen: cfg.Import.MinDescriptionLen,
		}, logger),
		normalizer.New(categorization.NewMatcher(categorization.DefaultRules())),
		dedup.New(cfg.Import.DuplicateThreshold),
		logger,
		metrics.NewImportMetrics(reg),
		flags.currency,
	)

	result, err := svc.Preview(ctx, userID, dispatcher.Upload{
		Filename: filepath.Base(path),
		Data:     data,
		Password: flags.password,
	})
	switch {
	case errors.Is(err, parser.ErrPasswordRequired):
		return errors.New("this PDF is password protected, rerun with --password")
	case errors.Is(err, parser.ErrBadPassword):
		return errors.New("the supplied PDF password is incorrect")
	case err != nil:
		return err
	}

	printPreview(result)

	if !result.Parse.Success {
		return errors.New("statement could not be imported")
	}

	if flags.commit {
		incomes, expenses, err := svc.Commit(ctx, userID, result.Rows)
		if err != nil {
			return err
		}
		fmt.Printf("\ncommitted %d incomes, %d expenses\n", incomes, expenses)
	}
	return nil
}

// logMetrics dumps the run's import counters to the debug log. A
// one-shot command has no scrape endpoint, so this is how --verbose
// surfaces them.
func logMetrics(logger *slog.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gathering import metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := make([]any, 0, 2*len(m.GetLabel())+2)
			for _, l := range m.GetLabel() {
				attrs = append(attrs, l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs, "samples", m.GetHistogram().GetSampleCount())
			}
			logger.Debug(mf.GetName(), attrs...)
		}
	}
}

func seedStore(ctx context.Context, store ledger.Store, userID uuid.UUID, flags *importFlags) error {
	if flags.incomesCSV != "" {
		f, err := os.Open(flags.incomesCSV)
		if err != nil {
			return fmt.Errorf("opening income snapshot: %w", err)
		}
		defer f.Close()
		incomes, err := ledger.LoadIncomesCSV(f)
		if err != nil {
			return err
		}
		if _, err := store.AddIncomes(ctx, userID, incomes); err != nil {
			return err
		}
	}
	if flags.expensesCSV != "" {
		f, err := os.Open(flags.expensesCSV)
		if err != nil {
			return fmt.Errorf("opening expense snapshot: %w", err)
		}
		defer f.Close()
		expenses, err := ledger.LoadExpensesCSV(f)
		if err != nil {
			return err
		}
		if _, err := store.AddExpenses(ctx, userID, expenses); err != nil {
			return err
		}
	}
	return nil
}

func printPreview(result *service.PreviewResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tDESCRIPTION\tCATEGORY\tFLAGS")
	for _, row := range result.Rows {
		var flags []string
		if row.IsDuplicate {
			flags = append(flags, "DUP")
		}
		if defects, ok := result.Defects[row.ID.String()]; ok {
			flags = append(flags, defects...)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Date.Format("2006-01-02"),
			row.Type,
			row.Amount.StringFixed(2),
			row.Description,
			row.Category,
			strings.Join(flags, ", "))
	}
	w.Flush()

	for _, e := range result.Parse.Errors {
		if e.Row > 0 {
			fmt.Printf("row %d skipped: %s\n", e.Row, e.Message)
		} else {
			fmt.Printf("import failed: %s\n", e.Message)
		}
	}
}
