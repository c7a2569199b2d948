// Package export renders ledger data as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/chronos/gya-engine/internal/gya"
	"github.com/chronos/gya-engine/internal/model"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const moneyFormat = "#,##0.00"

// SaleRow pairs a sale with its recomputed allocation.
type SaleRow struct {
	Sale       model.Sale
	Allocation gya.Result
}

// BankStatement writes a workbook with the bank's balances and every movement.
func BankStatement(w io.Writer, bank model.Bank, movements []model.Movement) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Statement"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	summary := [][]any{
		{"Bank", bank.Name},
		{"Capital", bank.Capital.InexactFloat64()},
		{"Historic income", bank.HistoricIncome.InexactFloat64()},
		{"Historic expense", bank.HistoricExpense.InexactFloat64()},
	}
	for i, row := range summary {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}

	headerRow := len(summary) + 2
	header := []any{"Date", "Kind", "Concept", "Amount", "Historic", "Sale", "Transfer"}
	if err := setRow(f, sheet, headerRow, header); err != nil {
		return err
	}
	for i, m := range movements {
		row := []any{
			m.CreatedAt.Format("2006-01-02 15:04"),
			m.Kind,
			m.Concept,
			m.Amount.InexactFloat64(),
			m.HistoricDelta.InexactFloat64(),
			m.SaleID,
			m.TransferID,
		}
		if err := setRow(f, sheet, headerRow+1+i, row); err != nil {
			return err
		}
	}

	if err := applyMoneyStyle(f, sheet, "B2", "B4"); err != nil {
		return err
	}
	if len(movements) > 0 {
		last := headerRow + len(movements)
		if err := applyMoneyStyle(f, sheet, fmt.Sprintf("D%d", headerRow+1), fmt.Sprintf("E%d", last)); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// SalesReport writes one row per sale with its target and collected GYA split.
func SalesReport(w io.Writer, rows []SaleRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := []any{
		"Sale", "Client", "Date", "Qty", "Total", "Paid", "Status",
		"Cost recovery", "Freight", "Profit",
		"Target cost", "Target freight", "Target profit",
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		a := r.Allocation
		row := []any{
			r.Sale.ID,
			r.Sale.ClientID,
			r.Sale.CreatedAt.Format("2006-01-02"),
			r.Sale.Quantity,
			r.Sale.TotalSaleValue.InexactFloat64(),
			r.Sale.AmountPaid.InexactFloat64(),
			r.Sale.PaymentStatus,
			a.CostRecoveryAmount.InexactFloat64(),
			a.FreightAmount.InexactFloat64(),
			a.ProfitAmount.InexactFloat64(),
			a.TargetCostRecovery.InexactFloat64(),
			a.TargetFreight.InexactFloat64(),
			a.TargetProfit.InexactFloat64(),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := applyMoneyStyle(f, sheet, "E2", fmt.Sprintf("F%d", len(rows)+1)); err != nil {
			return err
		}
		if err := applyMoneyStyle(f, sheet, "H2", fmt.Sprintf("M%d", len(rows)+1)); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func applyMoneyStyle(f *excelize.File, sheet, from, to string) error {
	format := moneyFormat
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}
