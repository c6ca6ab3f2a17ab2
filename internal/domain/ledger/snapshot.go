package ledger

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// CSV snapshots let the CLI seed a MemoryStore from exported ledger
// data and write commits back out without a database. Dates and IDs
// round-trip through their text encodings (RFC 3339, canonical UUID).

func LoadIncomesCSV(r io.Reader) ([]Income, error) {
	var incomes []Income
	if err := gocsv.Unmarshal(r, &incomes); err != nil {
		return nil, fmt.Errorf("decoding income snapshot: %w", err)
	}
	return incomes, nil
}

func LoadExpensesCSV(r io.Reader) ([]Expense, error) {
	var expenses []Expense
	if err := gocsv.Unmarshal(r, &expenses); err != nil {
		return nil, fmt.Errorf("decoding expense snapshot: %w", err)
	}
	return expenses, nil
}

func WriteIncomesCSV(w io.Writer, incomes []Income) error {
	if err := gocsv.Marshal(&incomes, w); err != nil {
		return fmt.Errorf("encoding income snapshot: %w", err)
	}
	return nil
}

func WriteExpensesCSV(w io.Writer, expenses []Expense) error {
	if err := gocsv.Marshal(&expenses, w); err != nil {
		return fmt.Errorf("encoding expense snapshot: %w", err)
	}
	return nil
}
