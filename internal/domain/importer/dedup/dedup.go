// Package dedup flags preview rows that are probable re-imports of
// existing ledger records.
package dedup

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finly-app/finly/internal/domain/importer/fields"
	"github.com/finly-app/finly/internal/domain/importer/normalizer"
	"github.com/finly-app/finly/internal/domain/ledger"
)

// DefaultThreshold is the minimum similarity score that marks a row as
// a duplicate once amount and date already match.
const DefaultThreshold = 0.7

// amountTolerance absorbs sub-cent drift between stored minor units and
// parsed decimals. A difference of a full cent is a different amount.
var amountTolerance = decimal.New(1, -2)

// Detector holds the similarity threshold. The zero value is not
// usable; construct with New.
type Detector struct {
	threshold float64
}

func New(threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Flag marks probable duplicates in place. Income rows are compared
// against income sources, expense rows against expense categories,
// since existing records carry no free-text description. The first
// qualifying match wins; collection order decides which id is reported,
// not whether a row is flagged.
func (d *Detector) Flag(rows []normalizer.PreviewRow, incomes []ledger.Income, expenses []ledger.Expense) {
	for i := range rows {
		switch rows[i].Type {
		case fields.TypeIncome:
			for _, in := range incomes {
				if d.matches(rows[i], in.Amount(), in.Date, in.Source) {
					rows[i].IsDuplicate = true
					rows[i].DuplicateOf = in.ID
					break
				}
			}
		case fields.TypeExpense:
			for _, ex := range expenses {
				if d.matches(rows[i], ex.Amount(), ex.Date, ex.Category) {
					rows[i].IsDuplicate = true
					rows[i].DuplicateOf = ex.ID
					break
				}
			}
		}
	}
}

// matches applies the cheap amount+date rejection before scoring text
// similarity.
func (d *Detector) matches(row normalizer.PreviewRow, amount decimal.Decimal, date time.Time, text string) bool {
	if row.Amount.Sub(amount).Abs().GreaterThanOrEqual(amountTolerance) {
		return false
	}
	if !sameDay(row.Date, date) {
		return false
	}
	return Similarity(row.Description, text) >= d.threshold
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Similarity scores two descriptions in [0,1]. Identical strings after
// case/whitespace folding score 1.0, a containment relationship scores
// 0.8, anything else falls back to the Dice coefficient over
// whitespace-delimited words.
func Similarity(a, b string) float64 {
	na := fold(a)
	nb := fold(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}

	wordsA := strings.Fields(na)
	wordsB := strings.Fields(nb)
	seen := make(map[string]int, len(wordsA))
	for _, w := range wordsA {
		seen[w]++
	}
	shared := 0
	for _, w := range wordsB {
		if seen[w] > 0 {
			seen[w]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(wordsA)+len(wordsB))
}

func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
