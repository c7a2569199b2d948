package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chronos/gya-engine/internal/gya"
	"github.com/chronos/gya-engine/internal/model"
)

func TestBankStatement(t *testing.T) {
	bank := model.Bank{ID: model.BankProfit, Name: "Utilidades", Capital: decimal.NewFromInt(10000)}
	movements := []model.Movement{
		{Kind: model.MovementDistribution, Concept: "GYA profit - sale #abc", Amount: decimal.NewFromInt(10000), HistoricDelta: decimal.NewFromInt(25000), SaleID: "abc", CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, BankStatement(&buf, bank, movements))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Statement", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Utilidades", name)

	concept, err := f.GetCellValue("Statement", "C7")
	require.NoError(t, err)
	assert.Equal(t, "GYA profit - sale #abc", concept)

	date, err := f.GetCellValue("Statement", "A7")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02 10:00", date)
}

func TestSalesReport(t *testing.T) {
	e := gya.Economics{Quantity: 10, UnitSalePrice: decimal.NewFromInt(10000), UnitCostPrice: decimal.NewFromInt(7000), UnitFreightCost: decimal.NewFromInt(500)}
	alloc, err := gya.Allocate(e, gya.Payment{Status: gya.StatusComplete})
	require.NoError(t, err)

	rows := []SaleRow{{
		Sale:       model.Sale{ID: "s1", ClientID: "c1", Quantity: 10, TotalSaleValue: e.TotalSaleValue(), PaymentStatus: gya.StatusComplete},
		Allocation: alloc,
	}}

	var buf bytes.Buffer
	require.NoError(t, SalesReport(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	all, err := f.GetRows("Sales")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s1", all[1][0])
	assert.Equal(t, "complete", all[1][6])
}

func TestSalesReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SalesReport(&buf, nil))
	assert.NotZero(t, buf.Len())
}
