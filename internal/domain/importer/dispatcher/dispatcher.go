// Package dispatcher inspects an uploaded statement and drives the
// correct parser. For PDF uploads it first probes for password
// protection so the caller can collect a credential before parsing is
// attempted; the credential is used for the single parse call and never
// retained or logged.
package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/finly-app/finly/internal/domain/importer/parser"
)

// Format identifies the ingestion path for an upload.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatExcel   Format = "excel"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// ErrUnsupportedFormat means the upload matched no known statement kind.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// DetectFormat classifies upload bytes, preferring content sniffing over
// the filename extension.
func DetectFormat(filename string, data []byte) Format {
	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatExcel
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	case ".xlsx", ".xls":
		return FormatExcel
	case ".pdf":
		return FormatPDF
	}

	if looksDelimited(data) {
		return FormatCSV
	}
	return FormatUnknown
}

// looksDelimited reports whether the leading bytes resemble delimited
// text: printable, line-structured, with at least one field separator.
func looksDelimited(data []byte) bool {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if len(sample) == 0 {
		return false
	}
	separators := 0
	for _, b := range sample {
		switch {
		case b == ',' || b == ';' || b == '\t' || b == '|':
			separators++
		case b >= 0x20 || b == '\n' || b == '\r':
			// printable
		default:
			return false
		}
	}
	return separators > 0
}

// DetectDelimiter picks the most frequent candidate delimiter on the
// first non-blank line.
func DetectDelimiter(data []byte) rune {
	var line string
	for _, candidate := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(candidate) != "" {
			line = candidate
			break
		}
	}

	best, bestCount := ',', 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}

// Upload is one statement file handed to the pipeline. Password is only
// consulted for PDF uploads and only after a password-required signal.
type Upload struct {
	Filename string
	Data     []byte
	Password string
}

// Dispatcher selects and runs the parser for an upload.
type Dispatcher struct {
	pdfOpts parser.PDFOptions
	logger  *slog.Logger
}

// New creates a dispatcher.
func New(pdfOpts parser.PDFOptions, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{pdfOpts: pdfOpts, logger: logger}
}

// ProbePDF checks whether a PDF upload needs a password before parsing.
// It returns parser.ErrPasswordRequired for protected documents and nil
// for readable ones.
func (d *Dispatcher) ProbePDF(data []byte) error {
	return parser.ProbeProtection(data)
}

// Dispatch parses an upload with the parser its format calls for.
// Password-gate outcomes (parser.ErrPasswordRequired, parser.ErrBadPassword)
// come back as errors distinct from parse failures, which are reported
// inside the ParseResult.
func (d *Dispatcher) Dispatch(ctx context.Context, upload Upload) (*parser.ParseResult, error) {
	format := DetectFormat(upload.Filename, upload.Data)
	d.logger.Debug("dispatching statement upload",
		slog.String("filename", upload.Filename),
		slog.String("format", string(format)),
		slog.Int("size_bytes", len(upload.Data)))

	switch format {
	case FormatCSV:
		return parser.NewCSVParser(DetectDelimiter(upload.Data)).Parse(upload.Data), nil

	case FormatExcel:
		result, err := parser.NewExcelParser().Parse(upload.Data)
		if err != nil {
			return nil, err
		}
		return result, nil

	case FormatPDF:
		if upload.Password == "" {
			if err := d.ProbePDF(upload.Data); err != nil {
				return nil, err
			}
		}
		return parser.NewPDFParser(d.pdfOpts).Parse(ctx, upload.Data, upload.Password)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, upload.Filename)
	}
}
