package gya

import (
	"errors"
	"testing"
)

func TestValidateSale_Valid(t *testing.T) {
	warnings, err := ValidateSale(standardSale(), DefaultLowMargin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for a 25%% margin, got %v", warnings)
	}
}

func TestValidateSale_Errors(t *testing.T) {
	tests := []struct {
		name string
		e    Economics
		want error
	}{
		{"zero quantity", Economics{Quantity: 0, UnitSalePrice: d(10)}, ErrInvalidQuantity},
		{"negative cost", Economics{Quantity: 1, UnitSalePrice: d(10), UnitCostPrice: d(-1)}, ErrNegativePrice},
		{"negative freight", Economics{Quantity: 1, UnitSalePrice: d(10), UnitFreightCost: d(-1)}, ErrNegativePrice},
		{"zero sale price", Economics{Quantity: 1}, ErrZeroSalePrice},
		{"negative margin", Economics{Quantity: 1, UnitSalePrice: d(100), UnitCostPrice: d(80), UnitFreightCost: d(30)}, ErrInvalidMargin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSale(tt.e, DefaultLowMargin)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateSale_Warnings(t *testing.T) {
	tests := []struct {
		name string
		e    Economics
		want string
	}{
		{"zero margin", Economics{Quantity: 1, UnitSalePrice: d(100), UnitCostPrice: d(90), UnitFreightCost: d(10)}, WarnZeroMargin},
		{"low margin", Economics{Quantity: 1, UnitSalePrice: d(100), UnitCostPrice: d(90), UnitFreightCost: d(5)}, WarnLowMargin},
		{"zero cost", Economics{Quantity: 1, UnitSalePrice: d(100), UnitFreightCost: d(5)}, WarnZeroCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := ValidateSale(tt.e, DefaultLowMargin)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			found := false
			for _, w := range warnings {
				if w.Code == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("expected warning %s, got %v", tt.want, warnings)
			}
		})
	}
}

func TestValidatePayment(t *testing.T) {
	total := d(1000)
	for _, ok := range []float64{0, 1, 999.99, 1000} {
		if err := ValidatePayment(d(ok), total); err != nil {
			t.Errorf("paid %v: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []float64{-0.01, 1000.01} {
		if err := ValidatePayment(d(bad), total); !errors.Is(err, ErrOutOfRangePayment) {
			t.Errorf("paid %v: expected ErrOutOfRangePayment, got %v", bad, err)
		}
	}
}
