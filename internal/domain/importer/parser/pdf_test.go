package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketRows(t *testing.T) {
	frags := []fragment{
		{x: 200, y: 700.4, width: 30, text: "4.50"},
		{x: 10, y: 700.9, width: 40, text: "2024-01-05"},
		{x: 80, y: 699.8, width: 50, text: "Coffee"},
		{x: 10, y: 680.1, width: 40, text: "2024-01-06"},
		{x: 80, y: 680.0, width: 50, text: "Salary"},
		{x: 50, y: 690, width: 10, text: "   "},
	}

	rows := bucketRows(frags, 2.0)
	require.Len(t, rows, 2)

	// top row first (descending y), left-to-right within a row
	assert.Equal(t, "2024-01-05", rows[0][0].text)
	assert.Equal(t, "Coffee", rows[0][1].text)
	assert.Equal(t, "4.50", rows[0][2].text)
	assert.Equal(t, "2024-01-06", rows[1][0].text)
}

func TestBucketRowsSeparatesDistantLines(t *testing.T) {
	frags := []fragment{
		{x: 10, y: 700, text: "top"},
		{x: 10, y: 650, text: "bottom"},
	}
	rows := bucketRows(frags, 2.0)
	require.Len(t, rows, 2)
	assert.Equal(t, "top", rows[0][0].text)
}

func TestMergeCells(t *testing.T) {
	row := []fragment{
		{x: 10, width: 38, text: "2024-01-05"},
		{x: 80, width: 28, text: "Coffee"},
		{x: 110, width: 20, text: "Shop"}, // 2 units after "Coffee" ends
		{x: 200, width: 20, text: "4.50"},
	}

	cells := mergeCells(row, 6.0)
	assert.Equal(t, []string{"2024-01-05", "Coffee Shop", "4.50"}, cells)
}

func TestMergeCellsEmptyRow(t *testing.T) {
	assert.Empty(t, mergeCells(nil, 6.0))
}

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want int
	}{
		{
			"header after bank letterhead",
			[][]string{
				{"First National Bank"},
				{"Statement Period", "Jan 2024"},
				{"Date", "Description", "Debit", "Credit"},
				{"2024-01-05", "Coffee Shop", "4.50", ""},
			},
			2,
		},
		{
			"fallback to first row",
			[][]string{
				{"one", "two", "three"},
				{"2024-01-05", "Coffee", "4.50"},
			},
			0,
		},
		{
			"keyword row needs three cells",
			[][]string{
				{"Date", "Amount"},
				{"Date", "Description", "Amount"},
			},
			1,
		},
		{
			"scan window respected",
			[][]string{
				{"a"}, {"b"}, {"c"}, {"d"}, {"e"},
				{"Date", "Description", "Amount"},
			},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findHeaderRow(tt.rows, 5))
		})
	}
}

func TestClassifyOpenError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		passwordSupplied bool
		want             error
	}{
		{"encrypted without password", errors.New("file is encrypted"), false, ErrPasswordRequired},
		{"password mentions without password", errors.New("invalid password"), false, ErrPasswordRequired},
		{"wrong password", errors.New("invalid password"), true, ErrBadPassword},
		{"nil error", nil, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOpenError(tt.err, tt.passwordSupplied)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("corruption is not a password error", func(t *testing.T) {
		got := classifyOpenError(errors.New("malformed xref table"), false)
		assert.NotErrorIs(t, got, ErrPasswordRequired)
		assert.NotErrorIs(t, got, ErrBadPassword)
		assert.Contains(t, got.Error(), "unreadable pdf")
	})
}

// encryptedPDF builds a minimal document carrying a standard-security
// encryption dictionary. The owner and user hashes are arbitrary bytes,
// so no password can ever unlock it and every open attempt fails the
// password check.
func encryptedPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, 4)
	writeObj := func(num int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	writeObj(4, fmt.Sprintf(
		"<< /Filter /Standard /V 1 /R 2 /Length 40 /P -44 /O (%s) /U (%s) >>",
		strings.Repeat("O", 32), strings.Repeat("U", 32)))

	xref := buf.Len()
	buf.WriteString("xref\n0 5\n")
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d %05d n \n", off, 0)
	}
	buf.WriteString("trailer\n<< /Size 5 /Root 1 0 R /Encrypt 4 0 R /ID [(0123456789abcdef) (0123456789abcdef)] >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestEncryptedPDFPasswordGate(t *testing.T) {
	data := encryptedPDF()

	t.Run("protection detected without password", func(t *testing.T) {
		assert.ErrorIs(t, ProbeProtection(data), ErrPasswordRequired)
	})

	// Parse runs under a watchdog so a regression back to retrying the
	// same password forever fails the test instead of hanging it.
	t.Run("wrong password rejected", func(t *testing.T) {
		ctx := t.Context()
		done := make(chan error, 1)
		go func() {
			_, err := NewPDFParser(DefaultPDFOptions()).Parse(ctx, data, "not-the-password")
			done <- err
		}()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrBadPassword)
		case <-time.After(3 * time.Second):
			t.Fatal("parse did not return for an encrypted document")
		}
	})
}

func TestPDFParseGarbageBytes(t *testing.T) {
	p := NewPDFParser(DefaultPDFOptions())
	_, err := p.Parse(t.Context(), []byte("definitely not a pdf"), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordRequired)
}

func TestNewPDFParserDefaults(t *testing.T) {
	p := NewPDFParser(PDFOptions{})
	assert.Equal(t, DefaultPDFOptions(), p.opts)
}
