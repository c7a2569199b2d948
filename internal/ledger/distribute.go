// Package ledger turns GYA allocations into bank movements and guards
// withdrawals against available capital.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chronos/gya-engine/internal/gya"
	"github.com/chronos/gya-engine/internal/model"
)

// Ref identifies what a batch of movements belongs to.
type Ref struct {
	SaleID    string
	PaymentID string
	Kind      string
	Concept   string
	At        time.Time
}

// Distribute returns the movements that move each GYA pool from the
// allocation before to the allocation after. Amount carries the capital
// delta and HistoricDelta the target delta, so after any sequence of
// distributions a pool's totals equal the current allocations of its sales.
// Pools with no change produce no movement. Pass a zero Result as before for
// a new sale, or as after for a sale that no longer counts.
func Distribute(before, after gya.Result, ref Ref) []model.Movement {
	pools := []struct {
		bank          string
		label         string
		capitalDelta  decimal.Decimal
		historicDelta decimal.Decimal
	}{
		{model.BankCostRecovery, "GYA cost", after.CostRecoveryAmount.Sub(before.CostRecoveryAmount), after.TargetCostRecovery.Sub(before.TargetCostRecovery)},
		{model.BankFreight, "GYA freight", after.FreightAmount.Sub(before.FreightAmount), after.TargetFreight.Sub(before.TargetFreight)},
		{model.BankProfit, "GYA profit", after.ProfitAmount.Sub(before.ProfitAmount), after.TargetProfit.Sub(before.TargetProfit)},
	}

	concept := ref.Concept
	var movements []model.Movement
	for _, p := range pools {
		if p.capitalDelta.IsZero() && p.historicDelta.IsZero() {
			continue
		}
		if ref.Concept == "" {
			concept = fmt.Sprintf("%s - sale #%s", p.label, shortID(ref.SaleID))
		}
		movements = append(movements, model.Movement{
			ID:            uuid.New().String(),
			BankID:        p.bank,
			Kind:          ref.Kind,
			Amount:        p.capitalDelta,
			HistoricDelta: p.historicDelta,
			SaleID:        ref.SaleID,
			PaymentID:     ref.PaymentID,
			Concept:       concept,
			CreatedAt:     ref.At,
		})
	}
	return movements
}

// TransferMovements returns the outgoing and incoming movements of a transfer.
// The outgoing side books the amount as historic expense.
func TransferMovements(t *model.Transfer) []model.Movement {
	concept := t.Concept
	if concept == "" {
		concept = fmt.Sprintf("transfer %s -> %s", t.FromBank, t.ToBank)
	}
	return []model.Movement{
		{
			ID:            uuid.New().String(),
			BankID:        t.FromBank,
			Kind:          model.MovementTransferOut,
			Amount:        t.Amount.Neg(),
			HistoricDelta: t.Amount,
			TransferID:    t.ID,
			Concept:       concept,
			CreatedAt:     t.CreatedAt,
		},
		{
			ID:            uuid.New().String(),
			BankID:        t.ToBank,
			Kind:          model.MovementTransferIn,
			Amount:        t.Amount,
			HistoricDelta: t.Amount,
			TransferID:    t.ID,
			Concept:       concept,
			CreatedAt:     t.CreatedAt,
		},
	}
}

// Net sums the capital deltas of movements per bank.
func Net(movements []model.Movement) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, m := range movements {
		out[m.BankID] = out[m.BankID].Add(m.Amount)
	}
	return out
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
