// Package validator checks preview rows for defects before commit.
package validator

import (
	"strings"

	"github.com/finly-app/finly/internal/domain/importer/normalizer"
)

// Validate returns human-readable defects for a preview row. It is
// advisory only: rows are never removed, callers decide whether any
// defect blocks commit.
func Validate(row normalizer.PreviewRow) []string {
	var defects []string
	if row.Date.IsZero() {
		defects = append(defects, "missing or unparseable date")
	}
	if strings.TrimSpace(row.Description) == "" {
		defects = append(defects, "missing description")
	}
	if !row.Amount.IsPositive() {
		defects = append(defects, "amount must be greater than zero")
	}
	if !row.Type.Valid() {
		defects = append(defects, "unknown transaction type: "+string(row.Type))
	}
	return defects
}

// ValidateAll maps row id to defects, omitting clean rows.
func ValidateAll(rows []normalizer.PreviewRow) map[string][]string {
	defects := make(map[string][]string)
	for _, row := range rows {
		if d := Validate(row); len(d) > 0 {
			defects[row.ID.String()] = d
		}
	}
	return defects
}
