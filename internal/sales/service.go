// Package sales provides the HTTP handlers and business logic for recording
// sales, payments and returns, and for moving capital between banks.
//
// Every write is validated, allocated with the GYA rule and committed as a
// single ledger update. All monetary values use shopspring/decimal.
package sales

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/chronos/gya-engine/internal/gya"
	"github.com/chronos/gya-engine/internal/ledger"
	"github.com/chronos/gya-engine/internal/metrics"
	"github.com/chronos/gya-engine/internal/model"
	"github.com/chronos/gya-engine/internal/store"
)

var (
	errSaleReturned    = errors.New("sales: sale has been returned")
	errPartialNoAmount = errors.New("sales: partial payment status requires amount_paid")
	errReturnTooLarge  = errors.New("sales: return quantity exceeds units on the sale")
	errInvalidBody     = errors.New("sales: invalid request body")
)

// Ledger operation labels.
const (
	opCreate   = "create_sale"
	opUpdate   = "update_sale"
	opPayment  = "record_payment"
	opReturn   = "return_sale"
	opTransfer = "transfer"
)

var (
	defaultUnitFreight = decimal.NewFromInt(500)
	zeroAllocation     gya.Result
)

// Options carries the tunable business defaults of a Service.
type Options struct {
	// DefaultUnitFreight is used when a new sale omits unit_freight_cost.
	DefaultUnitFreight decimal.Decimal
	// LowMargin is the net margin percent under which a sale gets a warning.
	LowMargin decimal.Decimal
}

// DefaultOptions returns the stock freight of 500 per unit and a 10% low
// margin threshold.
func DefaultOptions() Options {
	return Options{DefaultUnitFreight: defaultUnitFreight, LowMargin: gya.DefaultLowMargin}
}

// Service handles sale and bank operations. Writes are serialized with a
// mutex so that each ledger update is computed from the state it replaces
// (single-instance).
type Service struct {
	store    store.Store
	primary  store.Store // uncached reads for read-compute-write flows
	guard    *ledger.CapitalGuard
	opts     Options
	validate *validator.Validate
	mu       sync.Mutex
	wsHub    *WSHub // optional
}

// NewService creates a sales service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(st store.Store, guard *ledger.CapitalGuard, hub *WSHub, opts Options) *Service {
	if guard == nil {
		guard = ledger.NewCapitalGuard(decimal.Zero)
	}
	return &Service{
		store:    st,
		primary:  store.Primary(st),
		guard:    guard,
		opts:     opts,
		validate: validator.New(),
		wsHub:    hub,
	}
}

// Routes registers the service's endpoints on r. Middlewares in write are
// applied to the mutating routes only.
func (s *Service) Routes(r chi.Router, write ...func(http.Handler) http.Handler) {
	w := r.With(write...)

	r.Get("/sales", s.ListSales)
	r.Get("/sales/export.xlsx", s.ExportSales)
	r.Get("/sales/{saleID}", s.GetSale)
	r.Get("/sales/{saleID}/payments", s.ListPayments)
	r.Get("/sales/{saleID}/movements", s.ListSaleMovements)
	w.Post("/sales", s.CreateSale)
	w.Put("/sales/{saleID}", s.UpdateSale)
	w.Post("/sales/{saleID}/payments", s.RecordPayment)
	w.Post("/sales/{saleID}/returns", s.ReturnSale)

	r.Post("/allocations/preview", s.PreviewAllocation)

	r.Get("/banks", s.ListBanks)
	r.Get("/banks/{bankID}", s.GetBank)
	r.Get("/banks/{bankID}/movements", s.ListBankMovements)
	r.Get("/banks/{bankID}/export.xlsx", s.ExportBankStatement)
	w.Post("/transfers", s.CreateTransfer)
}

// --- Request/Response types ---

// SaleRequest is the JSON body for creating or editing a sale.
//
// The collected amount is taken from amount_paid when present. Otherwise
// payment_status complete means fully paid and pending means nothing paid.
type SaleRequest struct {
	ClientID        string           `json:"client_id" validate:"required,max=64"`
	LotID           string           `json:"lot_id" validate:"max=64"`
	Quantity        int64            `json:"quantity" validate:"gte=1"`
	UnitSalePrice   decimal.Decimal  `json:"unit_sale_price"`
	UnitCostPrice   decimal.Decimal  `json:"unit_cost_price"`
	UnitFreightCost *decimal.Decimal `json:"unit_freight_cost,omitempty"` // nil → default freight
	AmountPaid      *decimal.Decimal `json:"amount_paid,omitempty"`
	PaymentStatus   string           `json:"payment_status,omitempty" validate:"omitempty,oneof=pending partial complete"`
	Notes           string           `json:"notes" validate:"max=500"`
}

// PaymentRequest is the JSON body for POST /sales/{saleID}/payments.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"max=32"`
}

// ReturnRequest is the JSON body for POST /sales/{saleID}/returns.
type ReturnRequest struct {
	Quantity int64  `json:"quantity" validate:"gte=1"`
	Reason   string `json:"reason" validate:"max=200"`
}

// PreviewRequest is the JSON body for POST /allocations/preview.
type PreviewRequest struct {
	gya.Economics
	Payment gya.Payment `json:"payment"`
}

// SaleResponse is returned by every sale endpoint that yields one sale.
type SaleResponse struct {
	Sale       model.Sale       `json:"sale"`
	Allocation gya.Result       `json:"allocation"`
	Display    Display          `json:"display"`
	Margins    gya.Margins      `json:"margins"`
	Warnings   []gya.Warning    `json:"warnings,omitempty"`
	Refund     *decimal.Decimal `json:"refund,omitempty"`
}

// Display holds allocation amounts formatted with two decimals.
type Display struct {
	Total            string `json:"total"`
	Collected        string `json:"collected"`
	CollectedPercent string `json:"collected_percent"`
	CostRecovery     string `json:"cost_recovery"`
	Freight          string `json:"freight"`
	Profit           string `json:"profit"`
}

func displayOf(r gya.Result) Display {
	rounded := r.Rounded()
	return Display{
		Total:            rounded.TotalSaleValue.StringFixed(gya.MoneyScale),
		Collected:        r.Collected().StringFixed(gya.MoneyScale),
		CollectedPercent: r.CollectedFraction.Mul(decimal.NewFromInt(100)).StringFixed(1),
		CostRecovery:     rounded.CostRecoveryAmount.StringFixed(gya.MoneyScale),
		Freight:          rounded.FreightAmount.StringFixed(gya.MoneyScale),
		Profit:           rounded.ProfitAmount.StringFixed(gya.MoneyScale),
	}
}

// --- Sale handlers ---

// CreateSale handles POST /api/v1/sales
func (s *Service) CreateSale(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req SaleRequest
	if !s.decode(w, r, &req) {
		return
	}

	freight := s.opts.DefaultUnitFreight
	if req.UnitFreightCost != nil {
		freight = *req.UnitFreightCost
	}
	econ := gya.Economics{
		Quantity:        req.Quantity,
		UnitSalePrice:   req.UnitSalePrice,
		UnitCostPrice:   req.UnitCostPrice,
		UnitFreightCost: freight,
	}
	warnings, err := gya.ValidateSale(econ, s.opts.LowMargin)
	if err != nil {
		fail(w, err)
		return
	}
	total := econ.TotalSaleValue()
	paid, err := resolvePaid(req, total, decimal.Zero, gya.StatusPending)
	if err != nil {
		fail(w, err)
		return
	}
	if err := gya.ValidatePayment(paid, total); err != nil {
		fail(w, err)
		return
	}

	now := time.Now().UTC()
	sale := &model.Sale{
		ID:        newID(),
		ClientID:  req.ClientID,
		LotID:     req.LotID,
		Status:    model.SaleActive,
		Notes:     req.Notes,
		CreatedAt: now,
	}
	setEconomics(sale, econ, paid, now)

	alloc, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &model.LedgerUpdate{
		Sale: sale,
		Movements: ledger.Distribute(zeroAllocation, alloc, ledger.Ref{
			SaleID: sale.ID,
			Kind:   model.MovementDistribution,
			At:     now,
		}),
	}
	if err := s.commit(r.Context(), opCreate, u, start); err != nil {
		fail(w, err)
		return
	}
	metrics.SalesTotal.WithLabelValues(sale.PaymentStatus).Inc()

	slog.Info("sale created",
		"id", sale.ID,
		"client", sale.ClientID,
		"qty", sale.Quantity,
		"total", total.String(),
		"paid", paid.String(),
		"status", sale.PaymentStatus,
		"warnings", len(warnings),
	)
	s.broadcast(r.Context(), WSMessage{
		Type:          "sale_created",
		SaleID:        sale.ID,
		PaymentStatus: sale.PaymentStatus,
		Amount:        paid.String(),
	})

	writeJSON(w, http.StatusCreated, newSaleResponse(sale, alloc, warnings))
}

// ListSales handles GET /api/v1/sales
// Optional filters: ?client_id=, ?payment_status=, ?status=.
func (s *Service) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.store.ListSales(r.Context())
	if err != nil {
		writeError(w, "failed to list sales", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	filtered := []model.Sale{}
	for _, sale := range sales {
		if v := q.Get("client_id"); v != "" && sale.ClientID != v {
			continue
		}
		if v := q.Get("payment_status"); v != "" && sale.PaymentStatus != v {
			continue
		}
		if v := q.Get("status"); v != "" && sale.Status != v {
			continue
		}
		filtered = append(filtered, sale)
	}
	writeJSON(w, http.StatusOK, filtered)
}

// GetSale handles GET /api/v1/sales/{saleID}
// The allocation is recomputed from the stored economics on every read.
func (s *Service) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := s.store.GetSale(r.Context(), chi.URLParam(r, "saleID"))
	if err != nil {
		fail(w, err)
		return
	}
	alloc, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSaleResponse(sale, alloc, nil))
}

// UpdateSale handles PUT /api/v1/sales/{saleID}
// Only the difference between the old and new allocation is booked.
func (s *Service) UpdateSale(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req SaleRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.primary.GetSale(ctx, chi.URLParam(r, "saleID"))
	if err != nil {
		fail(w, err)
		return
	}
	if sale.Status == model.SaleReturned {
		fail(w, errSaleReturned)
		return
	}
	before, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}

	freight := sale.UnitFreightCost
	if req.UnitFreightCost != nil {
		freight = *req.UnitFreightCost
	}
	econ := gya.Economics{
		Quantity:        req.Quantity,
		UnitSalePrice:   req.UnitSalePrice,
		UnitCostPrice:   req.UnitCostPrice,
		UnitFreightCost: freight,
	}
	warnings, err := gya.ValidateSale(econ, s.opts.LowMargin)
	if err != nil {
		fail(w, err)
		return
	}
	total := econ.TotalSaleValue()
	paid, err := resolvePaid(req, total, sale.AmountPaid, sale.PaymentStatus)
	if err != nil {
		fail(w, err)
		return
	}
	if err := gya.ValidatePayment(paid, total); err != nil {
		fail(w, err)
		return
	}

	now := time.Now().UTC()
	sale.ClientID = req.ClientID
	sale.LotID = req.LotID
	sale.Notes = req.Notes
	setEconomics(sale, econ, paid, now)

	after, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}

	u := &model.LedgerUpdate{
		Sale: sale,
		Movements: ledger.Distribute(before, after, ledger.Ref{
			SaleID: sale.ID,
			Kind:   model.MovementAdjustment,
			At:     now,
		}),
	}
	if err := s.commit(ctx, opUpdate, u, start); err != nil {
		fail(w, err)
		return
	}

	slog.Info("sale updated",
		"id", sale.ID,
		"qty", sale.Quantity,
		"total", total.String(),
		"paid", paid.String(),
		"status", sale.PaymentStatus,
		"movements", len(u.Movements),
	)
	s.broadcast(ctx, WSMessage{
		Type:          "sale_updated",
		SaleID:        sale.ID,
		PaymentStatus: sale.PaymentStatus,
		Amount:        paid.String(),
	})

	writeJSON(w, http.StatusOK, newSaleResponse(sale, after, warnings))
}

// RecordPayment handles POST /api/v1/sales/{saleID}/payments
// The amount must be positive and no larger than what is still owed.
func (s *Service) RecordPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req PaymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !req.Amount.IsPositive() {
		fail(w, ledger.ErrNonPositiveAmount)
		return
	}
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.primary.GetSale(ctx, chi.URLParam(r, "saleID"))
	if err != nil {
		fail(w, err)
		return
	}
	if sale.Status == model.SaleReturned {
		fail(w, errSaleReturned)
		return
	}
	before, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}

	paid := sale.AmountPaid.Add(req.Amount)
	if err := gya.ValidatePayment(paid, sale.TotalSaleValue); err != nil {
		fail(w, err)
		return
	}

	now := time.Now().UTC()
	sale.AmountPaid = paid
	sale.AmountRemaining = sale.TotalSaleValue.Sub(paid)
	sale.PaymentStatus = gya.StatusFor(paid, sale.TotalSaleValue)
	sale.UpdatedAt = now

	after, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}

	payment := &model.PaymentRecord{
		ID:              newID(),
		SaleID:          sale.ID,
		Amount:          req.Amount,
		AmountPaidAfter: paid,
		StatusAfter:     sale.PaymentStatus,
		Method:          req.Method,
		CreatedAt:       now,
	}
	u := &model.LedgerUpdate{
		Sale:    sale,
		Payment: payment,
		Movements: ledger.Distribute(before, after, ledger.Ref{
			SaleID:    sale.ID,
			PaymentID: payment.ID,
			Kind:      model.MovementPayment,
			At:        now,
		}),
	}
	if err := s.commit(ctx, opPayment, u, start); err != nil {
		fail(w, err)
		return
	}

	slog.Info("payment recorded",
		"sale", sale.ID,
		"payment", payment.ID,
		"amount", req.Amount.String(),
		"paid", paid.String(),
		"status", sale.PaymentStatus,
	)
	s.broadcast(ctx, WSMessage{
		Type:          "payment_recorded",
		SaleID:        sale.ID,
		PaymentStatus: sale.PaymentStatus,
		Amount:        req.Amount.String(),
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"payment": payment,
		"sale":    newSaleResponse(sale, after, nil),
	})
}

// ListPayments handles GET /api/v1/sales/{saleID}/payments
func (s *Service) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saleID := chi.URLParam(r, "saleID")
	if _, err := s.store.GetSale(ctx, saleID); err != nil {
		fail(w, err)
		return
	}
	payments, err := s.store.ListPaymentsBySale(ctx, saleID)
	if err != nil {
		writeError(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []model.PaymentRecord{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// ListSaleMovements handles GET /api/v1/sales/{saleID}/movements
// Returns every pool movement booked for the sale, oldest first.
func (s *Service) ListSaleMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	saleID := chi.URLParam(r, "saleID")
	if _, err := s.store.GetSale(ctx, saleID); err != nil {
		fail(w, err)
		return
	}
	movements, err := s.store.ListMovementsBySale(ctx, saleID)
	if err != nil {
		writeError(w, "failed to list movements", http.StatusInternalServerError)
		return
	}
	if movements == nil {
		movements = []model.Movement{}
	}
	writeJSON(w, http.StatusOK, movements)
}

// ReturnSale handles POST /api/v1/sales/{saleID}/returns
//
// Returning q of n units keeps the collected fraction: the amount paid is
// scaled by (n-q)/n and the difference is refunded out of the pools. A full
// return marks the sale returned and removes its allocation.
func (s *Service) ReturnSale(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ReturnRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.primary.GetSale(ctx, chi.URLParam(r, "saleID"))
	if err != nil {
		fail(w, err)
		return
	}
	if sale.Status == model.SaleReturned {
		fail(w, errSaleReturned)
		return
	}
	if req.Quantity > sale.Quantity {
		fail(w, errReturnTooLarge)
		return
	}
	before, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}

	kept := sale.Quantity - req.Quantity
	refund := refundFor(sale.AmountPaid, req.Quantity, sale.Quantity)
	newPaid := sale.AmountPaid.Sub(refund)

	now := time.Now().UTC()
	sale.ReturnedQuantity += req.Quantity
	setEconomics(sale, gya.Economics{
		Quantity:        kept,
		UnitSalePrice:   sale.UnitSalePrice,
		UnitCostPrice:   sale.UnitCostPrice,
		UnitFreightCost: sale.UnitFreightCost,
	}, newPaid, now)
	if kept == 0 {
		sale.Status = model.SaleReturned
	}
	if req.Reason != "" {
		sale.Notes = appendNote(sale.Notes, "return: "+req.Reason)
	}

	after, err := allocationOf(sale)
	if err != nil {
		fail(w, err)
		return
	}

	u := &model.LedgerUpdate{
		Sale: sale,
		Movements: ledger.Distribute(before, after, ledger.Ref{
			SaleID: sale.ID,
			Kind:   model.MovementReturn,
			At:     now,
		}),
	}
	if err := s.commit(ctx, opReturn, u, start); err != nil {
		fail(w, err)
		return
	}

	slog.Info("sale returned",
		"id", sale.ID,
		"returned", req.Quantity,
		"kept", kept,
		"refund", refund.String(),
		"status", sale.Status,
	)
	s.broadcast(ctx, WSMessage{
		Type:          "sale_returned",
		SaleID:        sale.ID,
		PaymentStatus: sale.PaymentStatus,
		Amount:        refund.String(),
	})

	resp := newSaleResponse(sale, after, nil)
	resp.Refund = &refund
	writeJSON(w, http.StatusOK, resp)
}

// PreviewAllocation handles POST /api/v1/allocations/preview
// Pure calculation; nothing is persisted. Validation problems are reported
// as warnings so that a form can render progress bars while being edited.
func (s *Service) PreviewAllocation(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errInvalidBody.Error(), http.StatusBadRequest)
		return
	}
	alloc, err := gya.Allocate(req.Economics, req.Payment)
	if err != nil {
		fail(w, err)
		return
	}
	warnings, err := gya.ValidateSale(req.Economics, s.opts.LowMargin)
	if err != nil {
		warnings = append(warnings, gya.Warning{Code: "invalid", Message: err.Error()})
	}
	if req.Payment.Status == gya.StatusPartial {
		if err := gya.ValidatePayment(req.Payment.AmountPaid, alloc.TotalSaleValue); err != nil {
			warnings = append(warnings, gya.Warning{Code: "invalid", Message: err.Error()})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"allocation": alloc,
		"display":    displayOf(alloc),
		"margins":    gya.MarginsOf(alloc),
		"warnings":   warnings,
	})
}

// --- helpers ---

// allocationOf recomputes the GYA allocation of a stored sale. A fully
// returned sale allocates nothing.
func allocationOf(sale *model.Sale) (gya.Result, error) {
	if sale.Status == model.SaleReturned || sale.Quantity == 0 {
		return zeroAllocation, nil
	}
	return gya.Allocate(gya.Economics{
		Quantity:        sale.Quantity,
		UnitSalePrice:   sale.UnitSalePrice,
		UnitCostPrice:   sale.UnitCostPrice,
		UnitFreightCost: sale.UnitFreightCost,
	}, gya.Payment{Status: sale.PaymentStatus, AmountPaid: sale.AmountPaid})
}

func setEconomics(sale *model.Sale, e gya.Economics, paid decimal.Decimal, now time.Time) {
	total := e.TotalSaleValue()
	sale.Quantity = e.Quantity
	sale.UnitSalePrice = e.UnitSalePrice
	sale.UnitCostPrice = e.UnitCostPrice
	sale.UnitFreightCost = e.UnitFreightCost
	sale.TotalSaleValue = total
	sale.AmountPaid = paid
	sale.AmountRemaining = total.Sub(paid)
	sale.PaymentStatus = gya.StatusFor(paid, total)
	sale.UpdatedAt = now
}

// resolvePaid picks the amount paid for a create or edit request. current
// and currentStatus describe the sale being edited; a complete sale stays
// complete when the request says nothing about payment.
func resolvePaid(req SaleRequest, total, current decimal.Decimal, currentStatus string) (decimal.Decimal, error) {
	if req.AmountPaid != nil {
		return *req.AmountPaid, nil
	}
	switch req.PaymentStatus {
	case gya.StatusComplete:
		return total, nil
	case gya.StatusPending:
		return decimal.Zero, nil
	case gya.StatusPartial:
		return decimal.Zero, errPartialNoAmount
	}
	if currentStatus == gya.StatusComplete {
		return total, nil
	}
	return current, nil
}

func newSaleResponse(sale *model.Sale, alloc gya.Result, warnings []gya.Warning) SaleResponse {
	return SaleResponse{
		Sale:       *sale,
		Allocation: alloc,
		Display:    displayOf(alloc),
		Margins:    gya.MarginsOf(alloc),
		Warnings:   warnings,
	}
}

// refundFor returns the share of paid that belongs to returned of n units,
// rounded to cents. Returning every unit refunds everything paid.
func refundFor(paid decimal.Decimal, returned, n int64) decimal.Decimal {
	if returned >= n {
		return paid
	}
	return paid.Mul(decimal.NewFromInt(returned)).Div(decimal.NewFromInt(n)).Round(gya.MoneyScale)
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

// commit applies u and records ledger metrics for it.
func (s *Service) commit(ctx context.Context, op string, u *model.LedgerUpdate, start time.Time) error {
	if err := s.store.ApplyLedgerUpdate(ctx, u); err != nil {
		slog.Error("ledger update failed", "op", op, "err", err)
		return err
	}
	metrics.LedgerOperations.WithLabelValues(op).Inc()
	metrics.LedgerLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	for bank, delta := range ledger.Net(u.Movements) {
		switch {
		case delta.IsPositive():
			metrics.PoolCapitalCredits.WithLabelValues(bank).Add(delta.InexactFloat64())
		case delta.IsNegative():
			metrics.PoolCapitalDebits.WithLabelValues(bank).Add(delta.Neg().InexactFloat64())
		}
	}
	return nil
}

// decode reads and validates a JSON body, writing the error response itself
// when it fails.
func (s *Service) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, errInvalidBody.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		metrics.ValidationRejections.WithLabelValues("request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": fields,
		})
		return false
	}
	return true
}
