package fields

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"01/05/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"1/5/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"01/05/24", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"01-05-2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"01-05-24", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"12/31/2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %v", got)
		})
	}
}

func TestParseDate_Rejects(t *testing.T) {
	invalid := []string{
		"",
		"not a date",
		"13/45/2024", // shaped like a date, impossible calendar
		"2024-13-01", // month 13
		"05.01.2024", // dot separator is not a supported shape
		"January 5, 2024",
		"20240105",
	}

	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDate(input)
			assert.Error(t, err)
		})
	}
}

func TestParseDate_ShapePriority(t *testing.T) {
	// 01/02/2024 is ambiguous between MM/DD and DD/MM; shape priority
	// resolves it as January 2nd.
	got, err := ParseDate("01/02/2024")
	require.NoError(t, err)
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 2, got.Day())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "100.50", "100.5"},
		{"negative becomes magnitude", "-100.50", "100.5"},
		{"thousands separators", "1,234.56", "1234.56"},
		{"dollar glyph", "$4.50", "4.5"},
		{"euro glyph", "€99.00", "99"},
		{"real glyph", "R$12.00", "12"},
		{"internal whitespace", " 1 234.50 ", "1234.5"},
		{"non-numeric yields zero", "n/a", "0"},
		{"empty yields zero", "", "0"},
		{"glyph only yields zero", "$", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.input)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.expected)), "got %s", got)
		})
	}
}

func TestParseAmount_SignIdempotent(t *testing.T) {
	for _, token := range []string{"4.50", "1,234.56", "$250.00", "0.01"} {
		assert.True(t, ParseAmount(token).Equal(ParseAmount("-"+token)), "token %s", token)
	}
}

func TestParseSignedAmount(t *testing.T) {
	assert.True(t, ParseSignedAmount("-4.50").IsNegative())
	assert.True(t, ParseSignedAmount("4.50").IsPositive())
	assert.True(t, ParseSignedAmount("junk").IsZero())
}

func TestDetermineType(t *testing.T) {
	zero := decimal.Zero
	ten := decimal.NewFromInt(10)

	assert.Equal(t, TypeIncome, DetermineType(zero, ten))
	assert.Equal(t, TypeExpense, DetermineType(ten, zero))
	assert.Equal(t, TypeExpense, DetermineType(zero, zero))
	// Credit wins when both are set; should not normally occur.
	assert.Equal(t, TypeIncome, DetermineType(ten, ten))
}

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TypeIncome.Valid())
	assert.True(t, TypeExpense.Valid())
	assert.False(t, TransactionType("transfer").Valid())
}
