package parser

import (
	"strings"
)

// CSVParser parses delimited text statements. Quoting is handled
// minimally: quote characters are stripped from cells, but embedded
// delimiters inside quoted fields are not supported. Such rows misalign
// and are rejected by the date/amount checks rather than silently
// corrupted.
type CSVParser struct {
	delimiter rune
}

// NewCSVParser creates a CSV parser. A zero delimiter means comma.
func NewCSVParser(delimiter rune) *CSVParser {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVParser{delimiter: delimiter}
}

type numberedLine struct {
	num  int // 1-based physical line number
	text string
}

func splitLines(data []byte) []numberedLine {
	var lines []numberedLine
	for i, raw := range strings.Split(string(data), "\n") {
		text := strings.TrimRight(raw, "\r")
		if i == 0 {
			text = strings.TrimPrefix(text, "\uFEFF")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, numberedLine{num: i + 1, text: text})
	}
	return lines
}

func (p *CSVParser) splitCells(line string) []string {
	cells := strings.Split(line, string(p.delimiter))
	for i, cell := range cells {
		cells[i] = strings.Trim(strings.TrimSpace(cell), `"'`)
	}
	return cells
}

// Parse converts delimited statement text into a ParseResult. The first
// non-blank line is the header; rows that fail date or amount resolution
// produce row-level errors and the file keeps going.
func (p *CSVParser) Parse(data []byte) *ParseResult {
	lines := splitLines(data)
	if len(lines) < 2 {
		return fileFailure("file is empty or has no header row")
	}

	cols := mapColumns(p.splitCells(lines[0].text))
	if cols.date < 0 {
		return fileFailure("no date column found in header")
	}

	result := &ParseResult{}
	for _, line := range lines[1:] {
		cells := p.splitCells(line.text)
		tx, rowErr := extractRow(cells, line.num, cols, parseTextDate)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		if tx == nil {
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
	}

	return result.finish()
}
