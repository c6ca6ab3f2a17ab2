package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/finly-app/finly/internal/domain/importer/fields"
)

// excelEpoch is the reference date for spreadsheet day-count serials:
// serial 0 maps to 1899-12-30, absorbing the historical leap-year quirk
// of the 1900 date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// preferredSheets is the sheet-name preference order when a workbook has
// more than one sheet.
var preferredSheets = []string{"transactions", "statement", "data", "sheet1"}

// ExcelParser parses XLSX statement workbooks. Row semantics mirror the
// CSV parser exactly; the only format-specific behavior is sheet
// selection and serial date handling.
type ExcelParser struct{}

// NewExcelParser creates a spreadsheet parser.
func NewExcelParser() *ExcelParser {
	return &ExcelParser{}
}

func findStatementSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheets {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}

// parseSheetDate accepts both textual dates and numeric day-count
// serials, which is how spreadsheet cells without an explicit date format
// surface their value.
func parseSheetDate(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if serial, err := strconv.ParseFloat(token, 64); err == nil {
		if serial <= 0 || serial > 300000 {
			return time.Time{}, fmt.Errorf("serial date %q out of range", token)
		}
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}
	return fields.ParseDate(token)
}

// Parse converts workbook bytes into a ParseResult.
func (p *ExcelParser) Parse(data []byte) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := findStatementSheet(f)
	if sheet == "" {
		return fileFailure("workbook has no sheets"), nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return fileFailure("sheet %s is empty or has no header row", sheet), nil
	}

	cols := mapColumns(rows[0])
	if cols.date < 0 {
		return fileFailure("no date column found in header"), nil
	}

	result := &ParseResult{}
	for i, cells := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		tx, rowErr := extractRow(cells, rowNum, cols, parseSheetDate)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		if tx == nil {
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
	}

	return result.finish(), nil
}
