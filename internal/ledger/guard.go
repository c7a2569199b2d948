package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientCapital is returned when a debit would take a bank's
	// capital below its reserve.
	ErrInsufficientCapital = errors.New("ledger: insufficient capital")

	// ErrSameBank is returned for a transfer whose source and destination match.
	ErrSameBank = errors.New("ledger: source and destination bank are the same")

	// ErrNonPositiveAmount is returned for a zero or negative debit.
	ErrNonPositiveAmount = errors.New("ledger: amount must be positive")
)

// CapitalGuard enforces that withdrawals never overdraw a bank.
//
// Reserve is the minimum capital every bank must keep after a debit.
// Reserves overrides it per bank; the GYA pools usually carry one so that
// cost-recovery capital stays available for restocking.
type CapitalGuard struct {
	Reserve  decimal.Decimal
	Reserves map[string]decimal.Decimal
}

// NewCapitalGuard creates a guard with a default reserve.
func NewCapitalGuard(reserve decimal.Decimal) *CapitalGuard {
	if reserve.IsNegative() {
		reserve = decimal.Zero
	}
	return &CapitalGuard{
		Reserve:  reserve,
		Reserves: make(map[string]decimal.Decimal),
	}
}

// SetReserve overrides the reserve for one bank.
func (g *CapitalGuard) SetReserve(bankID string, reserve decimal.Decimal) {
	g.Reserves[bankID] = reserve
}

// CheckDebit validates that amount can leave bankID given the current
// capital balances.
func (g *CapitalGuard) CheckDebit(bankID string, amount decimal.Decimal, balances map[string]decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	reserve, ok := g.Reserves[bankID]
	if !ok {
		reserve = g.Reserve
	}
	after := balances[bankID].Sub(amount)
	if after.LessThan(reserve) {
		return fmt.Errorf("%w: %s has %s, needs %s plus reserve %s",
			ErrInsufficientCapital, bankID, balances[bankID], amount, reserve)
	}
	return nil
}

// CheckTransfer validates a transfer between two banks.
func (g *CapitalGuard) CheckTransfer(from, to string, amount decimal.Decimal, balances map[string]decimal.Decimal) error {
	if from == to {
		return ErrSameBank
	}
	return g.CheckDebit(from, amount, balances)
}
