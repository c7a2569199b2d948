// Package store defines the persistence interface for the ledger engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/chronos/gya-engine/internal/model"
)

// ErrNotFound is returned when a sale or bank does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Ledger writes ---

	// ApplyLedgerUpdate writes the sale, payment, transfer and movements of
	// u and applies the movements to bank balances, all or nothing.
	ApplyLedgerUpdate(ctx context.Context, u *model.LedgerUpdate) error

	// SeedBanks creates the given banks if they do not exist yet.
	SeedBanks(ctx context.Context, banks []model.Bank) error

	// --- Sales ---

	// GetSale retrieves a sale by its ID.
	GetSale(ctx context.Context, id string) (*model.Sale, error)

	// ListSales returns all sales, newest first.
	ListSales(ctx context.Context) ([]model.Sale, error)

	// ListPaymentsBySale returns the payments recorded against a sale.
	ListPaymentsBySale(ctx context.Context, saleID string) ([]model.PaymentRecord, error)

	// --- Banks ---

	// GetBank retrieves a bank by its ID.
	GetBank(ctx context.Context, id string) (*model.Bank, error)

	// ListBanks returns all banks ordered by ID.
	ListBanks(ctx context.Context) ([]model.Bank, error)

	// ListMovementsByBank returns a bank's movements in booking order.
	ListMovementsByBank(ctx context.Context, bankID string) ([]model.Movement, error)

	// ListMovementsBySale returns the movements booked for a sale.
	ListMovementsBySale(ctx context.Context, saleID string) ([]model.Movement, error)
}
