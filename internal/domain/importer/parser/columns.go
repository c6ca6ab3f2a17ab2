package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finly-app/finly/internal/domain/importer/fields"
)

// Column roles are resolved by substring keyword matching against header
// cells. The tables below are deliberately declarative: supporting a new
// bank dialect should be a data change, not new conditionals.
var (
	dateKeywords        = []string{"date"}
	descriptionKeywords = []string{"description", "narration", "particulars", "details", "memo"}
	debitKeywords       = []string{"debit", "withdrawal", "out"}
	creditKeywords      = []string{"credit", "deposit", "in"}
	amountKeywords      = []string{"amount"}
	referenceKeywords   = []string{"reference", "transaction id", "ref"}
	categoryKeywords    = []string{"category"}
)

// headerKeywords is the superset used for PDF header discovery.
var headerKeywords = []string{"date", "description", "amount", "debit", "credit"}

// columnMap holds resolved column indices, -1 when a role is absent.
type columnMap struct {
	date        int
	description int
	debit       int
	credit      int
	amount      int
	reference   int
	category    int
}

func containsAny(cell string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(cell, kw) {
			return true
		}
	}
	return false
}

// mapColumns resolves header cells to column roles. The first matching
// cell wins each role. A cell only counts as the generic amount column
// when it matches no debit/credit keyword, so "Debit Amount" resolves as
// a debit column rather than a generic amount.
func mapColumns(headers []string) columnMap {
	cols := columnMap{date: -1, description: -1, debit: -1, credit: -1, amount: -1, reference: -1, category: -1}

	for i, header := range headers {
		cell := strings.ToLower(strings.TrimSpace(header))
		if cell == "" {
			continue
		}
		if cols.date < 0 && containsAny(cell, dateKeywords) {
			cols.date = i
		}
		if cols.description < 0 && containsAny(cell, descriptionKeywords) {
			cols.description = i
		}
		if cols.debit < 0 && containsAny(cell, debitKeywords) {
			cols.debit = i
		}
		if cols.credit < 0 && containsAny(cell, creditKeywords) {
			cols.credit = i
		}
		if cols.amount < 0 && containsAny(cell, amountKeywords) &&
			!containsAny(cell, debitKeywords) && !containsAny(cell, creditKeywords) {
			cols.amount = i
		}
		if cols.reference < 0 && containsAny(cell, referenceKeywords) {
			cols.reference = i
		}
		if cols.category < 0 && containsAny(cell, categoryKeywords) {
			cols.category = i
		}
	}

	return cols
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// resolveAmounts extracts debit and credit magnitudes for a row. When
// neither a debit nor a credit column resolved but a generic amount
// column exists, the sign of its value decides direction: positive is a
// credit, negative a debit.
func resolveAmounts(cells []string, cols columnMap) (debit, credit decimal.Decimal) {
	if cols.debit >= 0 || cols.credit >= 0 {
		debit = fields.ParseAmount(cellAt(cells, cols.debit))
		credit = fields.ParseAmount(cellAt(cells, cols.credit))
		return debit, credit
	}
	if cols.amount >= 0 {
		signed := fields.ParseSignedAmount(cellAt(cells, cols.amount))
		if signed.IsNegative() {
			return signed.Abs(), decimal.Zero
		}
		return decimal.Zero, signed
	}
	return decimal.Zero, decimal.Zero
}

func parseTextDate(token string) (time.Time, error) {
	return fields.ParseDate(token)
}

// extractRow turns one grid row into a transaction. parseDateCell varies
// by format (spreadsheets additionally understand serial dates). It
// returns (nil, nil) for rows to skip silently and a RowError for rows
// worth reporting.
func extractRow(cells []string, rowNum int, cols columnMap, parseDateCell func(string) (time.Time, error)) (*ParsedTransaction, *RowError) {
	if len(cells) < 2 {
		return nil, nil
	}

	date, err := parseDateCell(cellAt(cells, cols.date))
	if err != nil {
		return nil, &RowError{Row: rowNum, Message: "unparseable date: " + err.Error()}
	}

	debit, credit := resolveAmounts(cells, cols)
	amount := decimal.Max(debit, credit)
	if !amount.IsPositive() {
		return nil, &RowError{Row: rowNum, Message: "no usable amount"}
	}

	return &ParsedTransaction{
		Date:        date,
		Description: cellAt(cells, cols.description),
		Amount:      amount,
		Type:        fields.DetermineType(debit, credit),
		Category:    cellAt(cells, cols.category),
		Reference:   cellAt(cells, cols.reference),
		Source:      SourceBankStatement,
		RawDebit:    debit,
		RawCredit:   credit,
		RowIndex:    rowNum,
	}, nil
}
