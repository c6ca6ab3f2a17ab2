// Package money provides currency-safe monetary values using integer
// minor units, wrapping go-money for currency metadata and
// shopspring/decimal for precise conversion.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common ISO-4217 currency codes.
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	INR = "INR"
	BRL = "BRL"
)

// Money is a monetary value with currency. The zero value is unusable;
// construct with New or NewFromDecimal.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units (cents) and a currency code.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{m: money.New(amountMinor, currencyCode)}
}

// NewFromDecimal creates Money from a major-unit decimal value, rounding
// to the currency's fraction.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()
	return New(minor, currencyCode)
}

// NewFromString parses a plain decimal amount string such as "100.50" or
// "1,234.56" into Money.
func NewFromString(amount, currencyCode string) (*Money, error) {
	amount = strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return NewFromDecimal(d, currencyCode), nil
}

// Amount returns the value in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// Decimal returns the value in major units as an exact decimal.
func (m *Money) Decimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// IsZero reports whether the value is exactly zero.
func (m *Money) IsZero() bool {
	return m.Amount() == 0
}

// Display renders the value with its currency symbol.
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// MajorUnits converts minor units to a major-unit decimal without
// constructing a Money value, honoring the currency's fraction.
func MajorUnits(amountMinor int64, currencyCode string) decimal.Decimal {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	return decimal.New(amountMinor, -int32(currency.Fraction))
}

// moneyJSON is the stable wire shape.
type moneyJSON struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// MarshalJSON implements json.Marshaler.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{AmountMinor: m.Amount(), Currency: m.Currency()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Currency == "" {
		raw.Currency = USD
	}
	m.m = money.New(raw.AmountMinor, raw.Currency)
	return nil
}
