package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/chronos/gya-engine/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction. Balance updates are single-statement
// increments, which row locks keep consistent at READ COMMITTED.
func (s *PostgresStore) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) SeedBanks(ctx context.Context, banks []model.Bank) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		for _, b := range banks {
			if _, err := tx.Exec(ctx,
				`INSERT INTO banks (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
				b.ID, b.Name); err != nil {
				return fmt.Errorf("seed bank %s: %w", b.ID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ApplyLedgerUpdate(ctx context.Context, u *model.LedgerUpdate) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if u.Sale != nil {
			if err := upsertSale(ctx, tx, u.Sale); err != nil {
				return err
			}
		}
		if p := u.Payment; p != nil {
			if _, err := tx.Exec(ctx,
				`INSERT INTO sale_payments (id, sale_id, amount, amount_paid_after, status_after, method, created_at)
				 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5, $6, $7)`,
				p.ID, p.SaleID, p.Amount.String(), p.AmountPaidAfter.String(),
				p.StatusAfter, p.Method, p.CreatedAt,
			); err != nil {
				return fmt.Errorf("insert payment: %w", err)
			}
		}
		if t := u.Transfer; t != nil {
			if _, err := tx.Exec(ctx,
				`INSERT INTO transfers (id, from_bank, to_bank, amount, concept, created_at)
				 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6)`,
				t.ID, t.FromBank, t.ToBank, t.Amount.String(), t.Concept, t.CreatedAt,
			); err != nil {
				return fmt.Errorf("insert transfer: %w", err)
			}
		}
		for _, m := range u.Movements {
			if err := applyMovement(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertSale(ctx context.Context, tx pgx.Tx, sale *model.Sale) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO sales (id, client_id, lot_id, quantity, returned_quantity,
		                    unit_sale_price, unit_cost_price, unit_freight_cost,
		                    total_sale_value, amount_paid, amount_remaining,
		                    payment_status, status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC,
		         $9::NUMERIC, $10::NUMERIC, $11::NUMERIC, $12, $13, $14, $15, $16)
		 ON CONFLICT (id) DO UPDATE SET
		     client_id = EXCLUDED.client_id,
		     lot_id = EXCLUDED.lot_id,
		     quantity = EXCLUDED.quantity,
		     returned_quantity = EXCLUDED.returned_quantity,
		     unit_sale_price = EXCLUDED.unit_sale_price,
		     unit_cost_price = EXCLUDED.unit_cost_price,
		     unit_freight_cost = EXCLUDED.unit_freight_cost,
		     total_sale_value = EXCLUDED.total_sale_value,
		     amount_paid = EXCLUDED.amount_paid,
		     amount_remaining = EXCLUDED.amount_remaining,
		     payment_status = EXCLUDED.payment_status,
		     status = EXCLUDED.status,
		     notes = EXCLUDED.notes,
		     updated_at = EXCLUDED.updated_at`,
		sale.ID, sale.ClientID, sale.LotID, sale.Quantity, sale.ReturnedQuantity,
		sale.UnitSalePrice.String(), sale.UnitCostPrice.String(), sale.UnitFreightCost.String(),
		sale.TotalSaleValue.String(), sale.AmountPaid.String(), sale.AmountRemaining.String(),
		sale.PaymentStatus, sale.Status, sale.Notes, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert sale %s: %w", sale.ID, err)
	}
	return nil
}

func applyMovement(ctx context.Context, tx pgx.Tx, m model.Movement) error {
	tag, err := tx.Exec(ctx,
		`UPDATE banks
		 SET capital = capital + $2::NUMERIC,
		     historic_income = historic_income + CASE WHEN $3 = 'transfer_out' THEN 0 ELSE $4::NUMERIC END,
		     historic_expense = historic_expense + CASE WHEN $3 = 'transfer_out' THEN $4::NUMERIC ELSE 0 END,
		     updated_at = $5
		 WHERE id = $1`,
		m.BankID, m.Amount.String(), m.Kind, m.HistoricDelta.String(), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bank %s: %w", m.BankID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bank %s: %w", m.BankID, ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO movements (id, bank_id, kind, amount, historic_delta,
		                        sale_id, payment_id, transfer_id, concept, created_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6, $7, $8, $9, $10)`,
		m.ID, m.BankID, m.Kind, m.Amount.String(), m.HistoricDelta.String(),
		m.SaleID, m.PaymentID, m.TransferID, m.Concept, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

const saleColumns = `id, client_id, lot_id, quantity, returned_quantity,
	unit_sale_price::TEXT, unit_cost_price::TEXT, unit_freight_cost::TEXT,
	total_sale_value::TEXT, amount_paid::TEXT, amount_remaining::TEXT,
	payment_status, status, notes, created_at, updated_at`

func (s *PostgresStore) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sale %s: %w", id, err)
	}
	return sale, nil
}

func (s *PostgresStore) ListSales(ctx context.Context) ([]model.Sale, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

func (s *PostgresStore) ListPaymentsBySale(ctx context.Context, saleID string) ([]model.PaymentRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sale_id, amount::TEXT, amount_paid_after::TEXT, status_after, method, created_at
		 FROM sale_payments WHERE sale_id = $1 ORDER BY created_at`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.PaymentRecord
	for rows.Next() {
		var p model.PaymentRecord
		var amountS, paidS string
		if err := rows.Scan(&p.ID, &p.SaleID, &amountS, &paidS, &p.StatusAfter, &p.Method, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Amount, _ = decimal.NewFromString(amountS)
		p.AmountPaidAfter, _ = decimal.NewFromString(paidS)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *PostgresStore) GetBank(ctx context.Context, id string) (*model.Bank, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, capital::TEXT, historic_income::TEXT, historic_expense::TEXT, updated_at
		 FROM banks WHERE id = $1`, id)
	b, err := scanBank(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bank %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bank %s: %w", id, err)
	}
	return b, nil
}

func (s *PostgresStore) ListBanks(ctx context.Context) ([]model.Bank, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, capital::TEXT, historic_income::TEXT, historic_expense::TEXT, updated_at
		 FROM banks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []model.Bank
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, *b)
	}
	return banks, rows.Err()
}

func (s *PostgresStore) ListMovementsByBank(ctx context.Context, bankID string) ([]model.Movement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, bank_id, kind, amount::TEXT, historic_delta::TEXT,
		        sale_id, payment_id, transfer_id, concept, created_at
		 FROM movements WHERE bank_id = $1 ORDER BY seq`, bankID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

func (s *PostgresStore) ListMovementsBySale(ctx context.Context, saleID string) ([]model.Movement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, bank_id, kind, amount::TEXT, historic_delta::TEXT,
		        sale_id, payment_id, transfer_id, concept, created_at
		 FROM movements WHERE sale_id = $1 ORDER BY seq`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSale(row rowScanner) (*model.Sale, error) {
	var sale model.Sale
	var price, cost, freight, total, paid, remaining string
	if err := row.Scan(&sale.ID, &sale.ClientID, &sale.LotID, &sale.Quantity, &sale.ReturnedQuantity,
		&price, &cost, &freight, &total, &paid, &remaining,
		&sale.PaymentStatus, &sale.Status, &sale.Notes, &sale.CreatedAt, &sale.UpdatedAt); err != nil {
		return nil, err
	}
	sale.UnitSalePrice, _ = decimal.NewFromString(price)
	sale.UnitCostPrice, _ = decimal.NewFromString(cost)
	sale.UnitFreightCost, _ = decimal.NewFromString(freight)
	sale.TotalSaleValue, _ = decimal.NewFromString(total)
	sale.AmountPaid, _ = decimal.NewFromString(paid)
	sale.AmountRemaining, _ = decimal.NewFromString(remaining)
	return &sale, nil
}

func scanBank(row rowScanner) (*model.Bank, error) {
	var b model.Bank
	var capital, income, expense string
	if err := row.Scan(&b.ID, &b.Name, &capital, &income, &expense, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Capital, _ = decimal.NewFromString(capital)
	b.HistoricIncome, _ = decimal.NewFromString(income)
	b.HistoricExpense, _ = decimal.NewFromString(expense)
	return &b, nil
}

// pgxRows is the subset of pgx.Rows read by scanMovements.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanMovements(rows pgxRows) ([]model.Movement, error) {
	var movements []model.Movement
	for rows.Next() {
		var m model.Movement
		var amountS, historicS string
		if err := rows.Scan(&m.ID, &m.BankID, &m.Kind, &amountS, &historicS,
			&m.SaleID, &m.PaymentID, &m.TransferID, &m.Concept, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Amount, _ = decimal.NewFromString(amountS)
		m.HistoricDelta, _ = decimal.NewFromString(historicS)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
