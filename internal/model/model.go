// Package model defines the core domain types shared across the ledger engine.
// All monetary values use shopspring/decimal; never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale lifecycle statuses.
const (
	SaleActive   = "active"
	SaleReturned = "returned"
)

// Bank IDs. The first three are the GYA pools that receive sale proceeds.
const (
	BankCostRecovery = "boveda_monte"
	BankFreight      = "flete_sur"
	BankProfit       = "utilidades"
	BankVaultUSA     = "boveda_usa"
	BankProfitFX     = "profit"
	BankLeftie       = "leftie"
	BankAzteca       = "azteca"
)

// Movement kinds.
const (
	MovementDistribution = "gya_distribution"
	MovementPayment      = "sale_payment"
	MovementAdjustment   = "sale_adjustment"
	MovementReturn       = "sale_return"
	MovementTransferOut  = "transfer_out"
	MovementTransferIn   = "transfer_in"
)

// Sale is a persisted sale record. Its GYA allocation is never stored; it is
// recomputed from the unit economics and amount paid whenever it is needed.
type Sale struct {
	ID               string          `json:"id" db:"id"`
	ClientID         string          `json:"client_id" db:"client_id"`
	LotID            string          `json:"lot_id,omitempty" db:"lot_id"` // purchase-order lot
	Quantity         int64           `json:"quantity" db:"quantity"`
	ReturnedQuantity int64           `json:"returned_quantity" db:"returned_quantity"`
	UnitSalePrice    decimal.Decimal `json:"unit_sale_price" db:"unit_sale_price"`
	UnitCostPrice    decimal.Decimal `json:"unit_cost_price" db:"unit_cost_price"`
	UnitFreightCost  decimal.Decimal `json:"unit_freight_cost" db:"unit_freight_cost"`
	TotalSaleValue   decimal.Decimal `json:"total_sale_value" db:"total_sale_value"`
	AmountPaid       decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	AmountRemaining  decimal.Decimal `json:"amount_remaining" db:"amount_remaining"`
	PaymentStatus    string          `json:"payment_status" db:"payment_status"` // a gya.Status value
	Status           string          `json:"status" db:"status"`
	Notes            string          `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Bank is a capital account. Capital is the collected balance; the historic
// columns accumulate every booked income and expense.
type Bank struct {
	ID              string          `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Capital         decimal.Decimal `json:"capital" db:"capital"`
	HistoricIncome  decimal.Decimal `json:"historic_income" db:"historic_income"`
	HistoricExpense decimal.Decimal `json:"historic_expense" db:"historic_expense"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Movement is an immutable ledger row. Amount is the signed change to the
// bank's capital; HistoricDelta is the signed change to its historic income,
// or to its historic expense for transfer_out movements.
type Movement struct {
	ID            string          `json:"id" db:"id"`
	BankID        string          `json:"bank_id" db:"bank_id"`
	Kind          string          `json:"kind" db:"kind"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	HistoricDelta decimal.Decimal `json:"historic_delta" db:"historic_delta"`
	SaleID        string          `json:"sale_id,omitempty" db:"sale_id"`
	PaymentID     string          `json:"payment_id,omitempty" db:"payment_id"`
	TransferID    string          `json:"transfer_id,omitempty" db:"transfer_id"`
	Concept       string          `json:"concept" db:"concept"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// PaymentRecord is a client payment (abono) applied to a sale.
type PaymentRecord struct {
	ID              string          `json:"id" db:"id"`
	SaleID          string          `json:"sale_id" db:"sale_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	AmountPaidAfter decimal.Decimal `json:"amount_paid_after" db:"amount_paid_after"`
	StatusAfter     string          `json:"status_after" db:"status_after"`
	Method          string          `json:"method,omitempty" db:"method"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Transfer moves capital between two banks.
type Transfer struct {
	ID        string          `json:"id" db:"id"`
	FromBank  string          `json:"from_bank" db:"from_bank"`
	ToBank    string          `json:"to_bank" db:"to_bank"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Concept   string          `json:"concept,omitempty" db:"concept"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// LedgerUpdate is the unit of work a store applies atomically. Bank balances
// change only through Movements.
type LedgerUpdate struct {
	Sale      *Sale          // inserted or replaced
	Payment   *PaymentRecord // appended
	Transfer  *Transfer      // appended
	Movements []Movement
}

// Apply adds the movement to the bank's balances.
func (m Movement) Apply(b *Bank) {
	b.Capital = b.Capital.Add(m.Amount)
	if m.Kind == MovementTransferOut {
		b.HistoricExpense = b.HistoricExpense.Add(m.HistoricDelta)
	} else {
		b.HistoricIncome = b.HistoricIncome.Add(m.HistoricDelta)
	}
	b.UpdatedAt = m.CreatedAt
}

// DefaultBanks lists the accounts seeded on first start.
func DefaultBanks() []Bank {
	return []Bank{
		{ID: BankCostRecovery, Name: "Bóveda Monte"},
		{ID: BankFreight, Name: "Flete Sur"},
		{ID: BankProfit, Name: "Utilidades"},
		{ID: BankVaultUSA, Name: "Bóveda USA"},
		{ID: BankProfitFX, Name: "Profit"},
		{ID: BankLeftie, Name: "Leftie"},
		{ID: BankAzteca, Name: "Azteca"},
	}
}
