package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a Store backed by process memory. The CLI uses it when
// no database is configured, seeded from CSV snapshots.
type MemoryStore struct {
	mu       sync.RWMutex
	incomes  map[uuid.UUID][]Income
	expenses map[uuid.UUID][]Expense
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		incomes:  make(map[uuid.UUID][]Income),
		expenses: make(map[uuid.UUID][]Expense),
	}
}

func (s *MemoryStore) ListIncomes(_ context.Context, userID uuid.UUID) ([]Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Income, len(s.incomes[userID]))
	copy(out, s.incomes[userID])
	return out, nil
}

func (s *MemoryStore) ListExpenses(_ context.Context, userID uuid.UUID) ([]Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Expense, len(s.expenses[userID]))
	copy(out, s.expenses[userID])
	return out, nil
}

func (s *MemoryStore) AddIncomes(_ context.Context, userID uuid.UUID, incomes []Income) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range incomes {
		if in.ID == uuid.Nil {
			in.ID = uuid.New()
		}
		in.UserID = userID
		s.incomes[userID] = append(s.incomes[userID], in)
	}
	return len(incomes), nil
}

func (s *MemoryStore) AddExpenses(_ context.Context, userID uuid.UUID, expenses []Expense) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range expenses {
		if ex.ID == uuid.Nil {
			ex.ID = uuid.New()
		}
		ex.UserID = userID
		s.expenses[userID] = append(s.expenses[userID], ex)
	}
	return len(expenses), nil
}

var _ Store = (*MemoryStore)(nil)
