// Package parser turns raw statement bytes into normalized transaction
// sequences. Three parsers share one contract: delimited text, spreadsheet
// workbooks, and PDF statements all produce a ParseResult with the same
// row semantics, so everything downstream is format-agnostic.
package parser

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finly-app/finly/internal/domain/importer/fields"
)

// SourceBankStatement tags transactions whose provenance is an uploaded
// statement file.
const SourceBankStatement = "bank_statement"

// ParsedTransaction is one statement row after parsing, before
// normalization. Amount is always a non-negative magnitude; direction
// lives exclusively in Type.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        fields.TransactionType
	Category    string
	Reference   string
	Source      string

	// Raw values kept for traceability and debugging.
	RawDebit  decimal.Decimal
	RawCredit decimal.Decimal
	RowIndex  int
}

// RowError describes a defect in a single statement row. Row 0 marks a
// file-level failure that invalidates the whole import attempt.
type RowError struct {
	Row     int
	Message string
}

func (e RowError) Error() string {
	if e.Row == 0 {
		return e.Message
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ParseResult is the outcome of parsing one statement file. When Success
// is false, Transactions may still hold a best-effort partial parse but
// must be treated as non-authoritative.
type ParseResult struct {
	Success      bool
	Transactions []ParsedTransaction
	Errors       []RowError
}

func fileFailure(format string, args ...any) *ParseResult {
	return &ParseResult{
		Success: false,
		Errors:  []RowError{{Row: 0, Message: fmt.Sprintf(format, args...)}},
	}
}

func (r *ParseResult) addRowError(row int, format string, args ...any) {
	r.Errors = append(r.Errors, RowError{Row: row, Message: fmt.Sprintf(format, args...)})
}

// finish applies the shared terminal rule: an import with zero surviving
// transactions is a file-level failure regardless of how it got there.
func (r *ParseResult) finish() *ParseResult {
	if len(r.Transactions) == 0 {
		r.Success = false
		r.addRowError(0, "no transactions could be parsed from file")
		return r
	}
	r.Success = true
	return r
}
