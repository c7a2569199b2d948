package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chronos/gya-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	sales     map[string]*model.Sale
	banks     map[string]*model.Bank
	payments  []model.PaymentRecord
	transfers []model.Transfer
	movements []model.Movement
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sales: make(map[string]*model.Sale),
		banks: make(map[string]*model.Bank),
	}
}

func (s *MemoryStore) SeedBanks(_ context.Context, banks []model.Bank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range banks {
		if _, ok := s.banks[b.ID]; ok {
			continue
		}
		copy := b
		s.banks[b.ID] = &copy
	}
	return nil
}

// ApplyLedgerUpdate validates every referenced bank before mutating
// anything, so a failed update leaves the store untouched.
func (s *MemoryStore) ApplyLedgerUpdate(_ context.Context, u *model.LedgerUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range u.Movements {
		if _, ok := s.banks[m.BankID]; !ok {
			return fmt.Errorf("bank %s: %w", m.BankID, ErrNotFound)
		}
	}

	if u.Sale != nil {
		copy := *u.Sale
		s.sales[copy.ID] = &copy
	}
	if u.Payment != nil {
		s.payments = append(s.payments, *u.Payment)
	}
	if u.Transfer != nil {
		s.transfers = append(s.transfers, *u.Transfer)
	}
	for _, m := range u.Movements {
		m.Apply(s.banks[m.BankID])
		s.movements = append(s.movements, m)
	}
	return nil
}

func (s *MemoryStore) GetSale(_ context.Context, id string) (*model.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	copy := *sale
	return &copy, nil
}

func (s *MemoryStore) ListSales(_ context.Context) ([]model.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]model.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, *sale)
	}
	sort.Slice(sales, func(i, j int) bool {
		return sales[i].CreatedAt.After(sales[j].CreatedAt)
	})
	return sales, nil
}

func (s *MemoryStore) ListPaymentsBySale(_ context.Context, saleID string) ([]model.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.PaymentRecord
	for _, p := range s.payments {
		if p.SaleID == saleID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *MemoryStore) GetBank(_ context.Context, id string) (*model.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.banks[id]
	if !ok {
		return nil, fmt.Errorf("bank %s: %w", id, ErrNotFound)
	}
	copy := *b
	return &copy, nil
}

func (s *MemoryStore) ListBanks(_ context.Context) ([]model.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	banks := make([]model.Bank, 0, len(s.banks))
	for _, b := range s.banks {
		banks = append(banks, *b)
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].ID < banks[j].ID })
	return banks, nil
}

func (s *MemoryStore) ListMovementsByBank(_ context.Context, bankID string) ([]model.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Movement
	for _, m := range s.movements {
		if m.BankID == bankID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *MemoryStore) ListMovementsBySale(_ context.Context, saleID string) ([]model.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Movement
	for _, m := range s.movements {
		if m.SaleID == saleID {
			result = append(result, m)
		}
	}
	return result, nil
}
