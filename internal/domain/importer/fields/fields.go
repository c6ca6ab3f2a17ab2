// Package fields provides coercion of loosely formatted statement tokens
// into canonical dates, amounts, and transaction directions. Every parser
// in the import pipeline funnels its raw cell values through this package
// so that all three file formats agree on what a date or an amount means.
package fields

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a parsed transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the two known directions.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ErrUnknownDateFormat is returned when a token matches none of the
// supported date shapes.
var ErrUnknownDateFormat = errors.New("unrecognized date format")

// dateShapes pairs a structural pattern with the layout used to validate
// it. Order is priority: the first shape whose pattern matches decides how
// the token is read, so MM/DD wins over DD/MM by construction. That bias
// is a documented limitation, not something to fix with locale guessing.
var dateShapes = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`), "2006-1-2"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "1/2/2006"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`), "1/2/06"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), "1-2-2006"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2}$`), "1-2-06"},
}

// ParseDate parses a statement date token into a UTC calendar day.
// A token must first match one of the known shapes and then survive real
// calendar construction, so "13/45/2024" fails even though it is shaped
// like a date.
func ParseDate(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, ErrUnknownDateFormat
	}

	for _, shape := range dateShapes {
		if !shape.pattern.MatchString(token) {
			continue
		}
		t, err := time.Parse(shape.layout, token)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", token, err)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownDateFormat, token)
}

// currencyGlyphs is the fixed set of symbols stripped before numeric
// parsing. Multi-rune symbols must come before their prefixes.
var currencyGlyphs = []string{"R$", "$", "€", "£", "¥", "₹"}

func cleanAmountToken(token string) string {
	token = strings.TrimSpace(token)
	for _, glyph := range currencyGlyphs {
		token = strings.ReplaceAll(token, glyph, "")
	}
	token = strings.ReplaceAll(token, ",", "")
	return strings.Join(strings.Fields(token), "")
}

// ParseAmount parses an amount token into its non-negative magnitude.
// Currency glyphs, thousands separators, and stray whitespace are
// stripped first. Non-numeric input yields zero rather than an error:
// callers treat a zero amount as "no amount" and reject the row
// downstream if nothing else fills it in.
func ParseAmount(token string) decimal.Decimal {
	cleaned := cleanAmountToken(token)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs()
}

// ParseSignedAmount is ParseAmount without the absolute value, used where
// a single generic amount column carries direction in its sign.
func ParseSignedAmount(token string) decimal.Decimal {
	cleaned := cleanAmountToken(token)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DetermineType decides the direction of a row from its debit and credit
// magnitudes. A positive credit wins over a positive debit; rows with
// neither default to expense.
func DetermineType(debit, credit decimal.Decimal) TransactionType {
	if credit.IsPositive() {
		return TypeIncome
	}
	if debit.IsPositive() {
		return TypeExpense
	}
	return TypeExpense
}
