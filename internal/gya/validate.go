package gya

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativePrice     = errors.New("gya: unit prices must not be negative")
	ErrZeroSalePrice     = errors.New("gya: unit sale price must be positive")
	ErrInvalidMargin     = errors.New("gya: sale price is below cost plus freight")
	ErrOutOfRangePayment = errors.New("gya: amount paid is outside [0, total sale value]")
)

// DefaultLowMargin is the net margin, in percent, under which a sale is
// accepted with a warning.
var DefaultLowMargin = decimal.NewFromInt(10)

// Warning is a non-blocking remark about a sale that passed validation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning codes.
const (
	WarnZeroMargin = "zero_margin"
	WarnLowMargin  = "low_margin"
	WarnZeroCost   = "zero_cost"
)

// ValidateSale checks the unit economics of a sale before it is created or
// edited. It rejects non-positive quantities, negative prices, a zero sale
// price and negative margins, and returns warnings for zero margin, a net
// margin below lowMargin percent, and a zero cost price.
func ValidateSale(e Economics, lowMargin decimal.Decimal) ([]Warning, error) {
	if e.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if e.UnitSalePrice.IsNegative() || e.UnitCostPrice.IsNegative() || e.UnitFreightCost.IsNegative() {
		return nil, ErrNegativePrice
	}
	if e.UnitSalePrice.IsZero() {
		return nil, ErrZeroSalePrice
	}

	margin := e.UnitMargin()
	if margin.IsNegative() {
		return nil, fmt.Errorf("%w: sale %s < cost %s + freight %s",
			ErrInvalidMargin, e.UnitSalePrice, e.UnitCostPrice, e.UnitFreightCost)
	}

	var warnings []Warning
	if e.UnitCostPrice.IsZero() {
		warnings = append(warnings, Warning{Code: WarnZeroCost, Message: "unit cost price is 0"})
	}

	pct := margin.Div(e.UnitSalePrice).Mul(hundred)
	switch {
	case margin.IsZero():
		warnings = append(warnings, Warning{Code: WarnZeroMargin, Message: "sale has no profit"})
	case pct.LessThan(lowMargin):
		warnings = append(warnings, Warning{
			Code:    WarnLowMargin,
			Message: fmt.Sprintf("net margin %s%% is below %s%%", pct.StringFixed(1), lowMargin),
		})
	}
	return warnings, nil
}

// ValidatePayment checks that amountPaid lies in [0, total].
func ValidatePayment(amountPaid, total decimal.Decimal) error {
	if amountPaid.IsNegative() || amountPaid.GreaterThan(total) {
		return fmt.Errorf("%w: paid %s of %s", ErrOutOfRangePayment, amountPaid, total)
	}
	return nil
}
