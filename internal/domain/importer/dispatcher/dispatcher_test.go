package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finly-app/finly/internal/domain/importer/parser"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     Format
	}{
		{"pdf magic beats extension", "statement.csv", []byte("%PDF-1.7 rest"), FormatPDF},
		{"zip magic means workbook", "statement.bin", []byte("PK\x03\x04rest"), FormatExcel},
		{"csv extension", "statement.csv", []byte("anything"), FormatCSV},
		{"tsv extension", "statement.TSV", []byte("anything"), FormatCSV},
		{"xlsx extension", "statement.xlsx", []byte("anything"), FormatExcel},
		{"pdf extension", "statement.pdf", []byte("anything"), FormatPDF},
		{"extensionless delimited text", "upload", []byte("Date,Amount\n2024-01-05,4.50\n"), FormatCSV},
		{"extensionless binary", "upload", []byte{0x00, 0x01, 0x02}, FormatUnknown},
		{"empty payload", "upload", nil, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.filename, tt.data))
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Date,Description,Amount\n", ','},
		{"semicolon", "Date;Description;Amount\n", ';'},
		{"tab", "Date\tDescription\tAmount\n", '\t'},
		{"pipe", "Date|Description|Amount\n", '|'},
		{"majority wins", "a;b;c,d\n", ';'},
		{"default comma", "singlecolumn\n", ','},
		{"skips blank leading lines", "\n\nDate;Amount\n", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.data)))
		})
	}
}

func TestDispatchCSV(t *testing.T) {
	d := New(parser.DefaultPDFOptions(), nil)

	result, err := d.Dispatch(t.Context(), Upload{
		Filename: "statement.csv",
		Data:     []byte("Date;Description;Amount\n2024-01-05;Coffee Shop;-4.50\n"),
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Coffee Shop", result.Transactions[0].Description)
}

func TestDispatchUnknownFormat(t *testing.T) {
	d := New(parser.DefaultPDFOptions(), nil)

	_, err := d.Dispatch(t.Context(), Upload{Filename: "blob", Data: []byte{0x00, 0xff}})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDispatchCorruptPDF(t *testing.T) {
	d := New(parser.DefaultPDFOptions(), nil)

	_, err := d.Dispatch(t.Context(), Upload{Filename: "statement.pdf", Data: []byte("%PDF-1.7 truncated")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, parser.ErrPasswordRequired)
}
