package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dslipak/pdf"
)

// Sentinel errors for the password gate. Callers present a password
// prompt for these instead of a generic parse failure.
var (
	// ErrPasswordRequired means the document is encrypted and no
	// password was supplied.
	ErrPasswordRequired = errors.New("pdf statement is password protected")
	// ErrBadPassword means the supplied password did not unlock the
	// document.
	ErrBadPassword = errors.New("pdf password is incorrect")
)

// PDFOptions tunes table reconstruction. Bank-to-bank variance in fonts
// and line heights is the main source of misgrouped rows, so the
// tolerances are configuration rather than constants.
type PDFOptions struct {
	// RowTolerance is the y-coordinate band, in layout units, within
	// which fragments are considered to sit on one text row.
	RowTolerance float64
	// CellGap is the minimum horizontal gap, in layout units, that
	// separates two fragments into distinct cells.
	CellGap float64
	// HeaderScanRows caps how many leading rows are inspected for a
	// header before falling back to the first row.
	HeaderScanRows int
	// MinDescriptionLen rejects reconstructed rows whose description is
	// shorter than this, a guard against footer and page-number noise.
	MinDescriptionLen int
}

// DefaultPDFOptions returns the tolerances that work for the common
// single-column statement layouts.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		RowTolerance:      2.0,
		CellGap:           6.0,
		HeaderScanRows:    5,
		MinDescriptionLen: 3,
	}
}

// PDFParser reconstructs a transaction table from the positioned text
// fragments of a PDF statement. A PDF carries glyphs and coordinates,
// not rows and columns, so rows are rebuilt by y-proximity and cells by
// x-gaps before the usual column-role matching applies.
type PDFParser struct {
	opts PDFOptions
}

// NewPDFParser creates a PDF parser with the given options. Zero-valued
// options fall back to defaults field by field.
func NewPDFParser(opts PDFOptions) *PDFParser {
	def := DefaultPDFOptions()
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = def.RowTolerance
	}
	if opts.CellGap <= 0 {
		opts.CellGap = def.CellGap
	}
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = def.HeaderScanRows
	}
	if opts.MinDescriptionLen <= 0 {
		opts.MinDescriptionLen = def.MinDescriptionLen
	}
	return &PDFParser{opts: opts}
}

// classifyOpenError splits password/encryption failures from ordinary
// corruption. The password itself never appears in any error.
func classifyOpenError(err error, passwordSupplied bool) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if errors.Is(err, pdf.ErrInvalidPassword) ||
		strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
		if passwordSupplied {
			return ErrBadPassword
		}
		return ErrPasswordRequired
	}
	return fmt.Errorf("unreadable pdf: %w", err)
}

func openPDF(data []byte, password string) (r *pdf.Reader, err error) {
	// The underlying reader panics on some malformed cross-reference
	// tables; malformed input must stay a file-level failure.
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = fmt.Errorf("unreadable pdf: %v", rec)
		}
	}()

	// The reader calls the password callback repeatedly until it returns
	// an empty string, so the password is offered exactly once; a second
	// call means it was rejected and the loop must end.
	attempt := password
	r, openErr := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string {
		pw := attempt
		attempt = ""
		return pw
	})
	if openErr != nil {
		return nil, classifyOpenError(openErr, password != "")
	}
	return r, nil
}

// ProbeProtection attempts to open the document without a password. It
// returns ErrPasswordRequired for encrypted documents, a wrapped error
// for corrupt ones, and nil when the document opens cleanly. It never
// attempts password guessing.
func ProbeProtection(data []byte) error {
	_, err := openPDF(data, "")
	return err
}

// fragment is one positioned text run.
type fragment struct {
	x, y  float64
	width float64
	text  string
}

// bucketRows groups a page's fragments into text rows. Fragments whose
// y-coordinates round into the same tolerance band belong to one row;
// rows are ordered top-to-bottom (descending y, the PDF origin being
// bottom-left) and fragments within a row left-to-right.
func bucketRows(frags []fragment, tolerance float64) [][]fragment {
	if tolerance <= 0 {
		tolerance = 1
	}
	buckets := make(map[int][]fragment)
	for _, f := range frags {
		if strings.TrimSpace(f.text) == "" {
			continue
		}
		key := int(math.Round(f.y / tolerance))
		buckets[key] = append(buckets[key], f)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	rows := make([][]fragment, 0, len(keys))
	for _, k := range keys {
		row := buckets[k]
		sort.Slice(row, func(i, j int) bool { return row[i].x < row[j].x })
		rows = append(rows, row)
	}
	return rows
}

// mergeCells joins adjacent fragments into cell strings. Extraction
// yields one fragment per text run, often per word, so runs separated by
// less than the cell gap are the same logical cell.
func mergeCells(row []fragment, cellGap float64) []string {
	var cells []string
	var current strings.Builder
	var prevEnd float64

	for i, f := range row {
		if i > 0 && f.x-prevEnd > cellGap {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		} else if i > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(f.text)
		end := f.x + f.width
		if end < f.x {
			end = f.x
		}
		prevEnd = end
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}

	out := cells[:0]
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// findHeaderRow scans at most maxScan leading rows for one with at least
// 3 cells whose joined text mentions a known column keyword. The first
// row is the fallback header when nothing qualifies.
func findHeaderRow(rows [][]string, maxScan int) int {
	limit := len(rows)
	if limit > maxScan {
		limit = maxScan
	}
	for i := 0; i < limit; i++ {
		if len(rows[i]) < 3 {
			continue
		}
		joined := strings.ToLower(strings.Join(rows[i], " "))
		if containsAny(joined, headerKeywords) {
			return i
		}
	}
	return 0
}

// extractFragments collects the positioned text of every page, in page
// order. Page order matters: concatenation order encodes the statement's
// chronological layout, so pages are never extracted out of sequence.
func extractFragments(ctx context.Context, r *pdf.Reader) ([][]fragment, error) {
	pages := make([][]fragment, 0, r.NumPage())
	for n := 1; n <= r.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		frags := make([]fragment, 0, len(content.Text))
		for _, t := range content.Text {
			frags = append(frags, fragment{x: t.X, y: t.Y, width: t.W, text: t.S})
		}
		pages = append(pages, frags)
	}
	return pages, nil
}

// Parse reconstructs a transaction table from PDF bytes. Unlike the text
// and spreadsheet parsers, unusable rows are dropped without a row-level
// error: reconstructed text is noisy enough that reporting every
// non-transaction row would bury real defects. This asymmetry is
// deliberate.
func (p *PDFParser) Parse(ctx context.Context, data []byte, password string) (result *ParseResult, err error) {
	// Content extraction can also panic on malformed page trees.
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("unreadable pdf: %v", rec)
		}
	}()

	r, err := openPDF(data, password)
	if err != nil {
		return nil, err
	}

	pageFrags, err := extractFragments(ctx, r)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, frags := range pageFrags {
		for _, row := range bucketRows(frags, p.opts.RowTolerance) {
			if cells := mergeCells(row, p.opts.CellGap); len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}
	if len(rows) < 2 {
		return fileFailure("no tabular text could be reconstructed from pdf"), nil
	}

	headerIdx := findHeaderRow(rows, p.opts.HeaderScanRows)
	cols := mapColumns(rows[headerIdx])
	if cols.date < 0 {
		return fileFailure("no date column found in reconstructed header"), nil
	}

	result = &ParseResult{}
	for i, cells := range rows[headerIdx+1:] {
		tx, rowErr := extractRow(cells, headerIdx+i+2, cols, parseTextDate)
		if rowErr != nil || tx == nil {
			continue // silent drop, see above
		}
		if len(strings.TrimSpace(tx.Description)) < p.opts.MinDescriptionLen {
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
	}

	return result.finish(), nil
}
