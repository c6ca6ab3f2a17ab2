// Package normalizer turns parsed transactions into preview rows ready
// for user review.
package normalizer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/finly-app/finly/internal/domain/importer/parser"
)

const (
	// DefaultCategory is assigned when no category could be inferred.
	DefaultCategory = "Uncategorized"

	// placeholderDescription replaces descriptions that are empty after
	// rail-token stripping.
	placeholderDescription = "Imported transaction"
)

// railTokens are payment-rail and card-network prefixes/suffixes banks
// prepend to narrations. They carry no merchant information, so they
// are stripped from either end of the description.
var railTokens = []string{
	"NEFT", "IMPS", "RTGS", "UPI", "ACH", "SEPA", "POS", "TRF",
	"VISA", "MASTERCARD", "MAESTRO", "AMEX",
}

// Categorizer infers a category from a cleaned description. The
// categorization matcher satisfies it.
type Categorizer interface {
	Infer(description string) (string, bool)
}

// PreviewRow is a normalized, not-yet-committed candidate ledger entry.
// IDs are unique within one import session only.
type PreviewRow struct {
	parser.ParsedTransaction

	ID          uuid.UUID `json:"id"`
	Include     bool      `json:"include"`
	IsDuplicate bool      `json:"is_duplicate"`
	DuplicateOf uuid.UUID `json:"duplicate_of,omitempty"`
}

// Normalizer maps ParsedTransactions to PreviewRows. A nil Categorizer
// is allowed; rows then fall back to DefaultCategory.
type Normalizer struct {
	categorizer Categorizer
}

func New(categorizer Categorizer) *Normalizer {
	return &Normalizer{categorizer: categorizer}
}

// Normalize produces one preview row per transaction, in input order.
func (n *Normalizer) Normalize(transactions []parser.ParsedTransaction) []PreviewRow {
	rows := make([]PreviewRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, n.normalizeOne(tx))
	}
	return rows
}

func (n *Normalizer) normalizeOne(tx parser.ParsedTransaction) PreviewRow {
	tx.Description = CleanDescription(tx.Description)
	if tx.Amount.IsNegative() {
		tx.Amount = tx.Amount.Abs()
	}
	if tx.Category == "" && n.categorizer != nil {
		if category, ok := n.categorizer.Infer(tx.Description); ok {
			tx.Category = category
		}
	}
	if tx.Category == "" {
		tx.Category = DefaultCategory
	}
	return PreviewRow{
		ParsedTransaction: tx,
		ID:                uuid.New(),
		Include:           true,
	}
}

// CleanDescription collapses internal whitespace and strips rail tokens
// from either end, case-insensitively. An empty result falls back to a
// placeholder.
func CleanDescription(description string) string {
	words := strings.Fields(description)

	for len(words) > 0 && isRailToken(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && isRailToken(words[len(words)-1]) {
		words = words[:len(words)-1]
	}

	cleaned := strings.Join(words, " ")
	if cleaned == "" {
		return placeholderDescription
	}
	return cleaned
}

func isRailToken(word string) bool {
	trimmed := strings.Trim(word, "-/:")
	for _, token := range railTokens {
		if strings.EqualFold(trimmed, token) {
			return true
		}
	}
	return false
}
