// Package gya implements the three-pool (GYA) revenue allocation: the rule
// that splits a sale's collected proceeds into the Cost-Recovery, Freight and
// Profit pools in proportion to how much of the sale price has been paid.
//
//	targetCostRecovery = unitCostPrice × quantity
//	targetFreight      = unitFreightCost × quantity
//	targetProfit       = (unitSalePrice − unitCostPrice − unitFreightCost) × quantity
//	amount             = target × collectedFraction
//
// All monetary values use shopspring/decimal; never float64 for money.
// Allocate performs no rounding; MoneyScale is applied only for display.
package gya

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Payment statuses accepted by Allocate.
const (
	StatusPending  = "pending"
	StatusPartial  = "partial"
	StatusComplete = "complete"
)

var (
	// ErrInvalidQuantity is returned when quantity < 1.
	ErrInvalidQuantity = errors.New("gya: quantity must be at least 1")

	// ErrInvalidStatus is returned for a payment status outside
	// pending/partial/complete.
	ErrInvalidStatus = errors.New("gya: unknown payment status")

	// MoneyScale is the number of decimal places used when formatting
	// amounts for display.
	MoneyScale int32 = 2
)

var hundred = decimal.NewFromInt(100)

// Economics holds the unit economics of a sale. Values are read-only inputs
// to a calculation.
type Economics struct {
	Quantity        int64           `json:"quantity"`
	UnitSalePrice   decimal.Decimal `json:"unit_sale_price"`
	UnitCostPrice   decimal.Decimal `json:"unit_cost_price"`
	UnitFreightCost decimal.Decimal `json:"unit_freight_cost"`
}

// TotalSaleValue returns unitSalePrice × quantity.
func (e Economics) TotalSaleValue() decimal.Decimal {
	return e.UnitSalePrice.Mul(decimal.NewFromInt(e.Quantity))
}

// UnitMargin returns unitSalePrice − unitCostPrice − unitFreightCost.
func (e Economics) UnitMargin() decimal.Decimal {
	return e.UnitSalePrice.Sub(e.UnitCostPrice).Sub(e.UnitFreightCost)
}

// Payment is the collection state of a sale. AmountPaid is only read when
// Status is partial.
type Payment struct {
	Status     string          `json:"status"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// Result is the allocation of a sale across the three pools. The Target*
// fields are the amounts at full collection.
type Result struct {
	TotalSaleValue     decimal.Decimal `json:"total_sale_value"`
	CollectedFraction  decimal.Decimal `json:"collected_fraction"`
	CostRecoveryAmount decimal.Decimal `json:"cost_recovery_amount"`
	FreightAmount      decimal.Decimal `json:"freight_amount"`
	ProfitAmount       decimal.Decimal `json:"profit_amount"`
	TargetCostRecovery decimal.Decimal `json:"target_cost_recovery"`
	TargetFreight      decimal.Decimal `json:"target_freight"`
	TargetProfit       decimal.Decimal `json:"target_profit"`
}

// Collected returns the sum of the three pool amounts, which equals
// TotalSaleValue × CollectedFraction.
func (r Result) Collected() decimal.Decimal {
	return r.CostRecoveryAmount.Add(r.FreightAmount).Add(r.ProfitAmount)
}

// Rounded returns a copy with every amount rounded to MoneyScale places.
// Use it for presentation only; never feed a rounded result back into a
// ledger computation.
func (r Result) Rounded() Result {
	return Result{
		TotalSaleValue:     r.TotalSaleValue.Round(MoneyScale),
		CollectedFraction:  r.CollectedFraction,
		CostRecoveryAmount: r.CostRecoveryAmount.Round(MoneyScale),
		FreightAmount:      r.FreightAmount.Round(MoneyScale),
		ProfitAmount:       r.ProfitAmount.Round(MoneyScale),
		TargetCostRecovery: r.TargetCostRecovery.Round(MoneyScale),
		TargetFreight:      r.TargetFreight.Round(MoneyScale),
		TargetProfit:       r.TargetProfit.Round(MoneyScale),
	}
}

// Allocate computes how much of a sale's collected cash belongs to each pool.
//
// The collected fraction is 0 for pending, 1 for complete and
// amountPaid / totalSaleValue for partial (0 when the total is zero).
// AmountPaid is not clamped: an out-of-range value yields a fraction outside
// [0, 1], and callers must prevent that with ValidatePayment. A negative
// margin produces a negative profit amount.
func Allocate(e Economics, p Payment) (Result, error) {
	if e.Quantity < 1 {
		return Result{}, ErrInvalidQuantity
	}

	q := decimal.NewFromInt(e.Quantity)
	total := e.UnitSalePrice.Mul(q)

	var fraction decimal.Decimal
	switch p.Status {
	case StatusPending:
		fraction = decimal.Zero
	case StatusComplete:
		fraction = decimal.NewFromInt(1)
	case StatusPartial:
		if total.IsPositive() {
			fraction = p.AmountPaid.Div(total)
		}
	default:
		return Result{}, ErrInvalidStatus
	}

	targetCost := e.UnitCostPrice.Mul(q)
	targetFreight := e.UnitFreightCost.Mul(q)
	targetProfit := e.UnitMargin().Mul(q)

	return Result{
		TotalSaleValue:     total,
		CollectedFraction:  fraction,
		CostRecoveryAmount: targetCost.Mul(fraction),
		FreightAmount:      targetFreight.Mul(fraction),
		ProfitAmount:       targetProfit.Mul(fraction),
		TargetCostRecovery: targetCost,
		TargetFreight:      targetFreight,
		TargetProfit:       targetProfit,
	}, nil
}

// StatusFor derives the payment status of a sale from the amount paid so far.
func StatusFor(amountPaid, total decimal.Decimal) string {
	switch {
	case !amountPaid.IsPositive():
		return StatusPending
	case total.IsPositive() && amountPaid.GreaterThanOrEqual(total):
		return StatusComplete
	default:
		return StatusPartial
	}
}

// Margins are the profit ratios of a sale, in percent, rounded to MoneyScale.
type Margins struct {
	// Net is profit / totalSaleValue.
	Net decimal.Decimal `json:"net_margin"`
	// Gross is profit / (cost + freight).
	Gross decimal.Decimal `json:"gross_margin"`
}

// MarginsOf returns the margins implied by an allocation's targets.
// Either ratio is zero when its denominator is not positive.
func MarginsOf(r Result) Margins {
	var m Margins
	if r.TotalSaleValue.IsPositive() {
		m.Net = r.TargetProfit.Div(r.TotalSaleValue).Mul(hundred).Round(MoneyScale)
	}
	if costs := r.TargetCostRecovery.Add(r.TargetFreight); costs.IsPositive() {
		m.Gross = r.TargetProfit.Div(costs).Mul(hundred).Round(MoneyScale)
	}
	return m
}
