package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chronos/gya-engine/internal/export"
	"github.com/chronos/gya-engine/internal/gya"
	"github.com/chronos/gya-engine/internal/ledger"
	"github.com/chronos/gya-engine/internal/metrics"
	"github.com/chronos/gya-engine/internal/model"
	"github.com/chronos/gya-engine/internal/store"
)

// TransferRequest is the JSON body for POST /api/v1/transfers.
type TransferRequest struct {
	FromBank string          `json:"from_bank" validate:"required"`
	ToBank   string          `json:"to_bank" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Concept  string          `json:"concept" validate:"max=200"`
}

// ListBanks handles GET /api/v1/banks
func (s *Service) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.store.ListBanks(r.Context())
	if err != nil {
		writeError(w, "failed to list banks", http.StatusInternalServerError)
		return
	}
	if banks == nil {
		banks = []model.Bank{}
	}
	writeJSON(w, http.StatusOK, banks)
}

// GetBank handles GET /api/v1/banks/{bankID}
func (s *Service) GetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := s.store.GetBank(r.Context(), chi.URLParam(r, "bankID"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// ListBankMovements handles GET /api/v1/banks/{bankID}/movements
// Optional ?kind= filters by movement kind.
func (s *Service) ListBankMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bankID := chi.URLParam(r, "bankID")
	if _, err := s.store.GetBank(ctx, bankID); err != nil {
		fail(w, err)
		return
	}
	movements, err := s.store.ListMovementsByBank(ctx, bankID)
	if err != nil {
		writeError(w, "failed to list movements", http.StatusInternalServerError)
		return
	}

	kind := r.URL.Query().Get("kind")
	out := []model.Movement{}
	for _, m := range movements {
		if kind == "" || m.Kind == kind {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// ExportBankStatement handles GET /api/v1/banks/{bankID}/export.xlsx
func (s *Service) ExportBankStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bank, err := s.store.GetBank(ctx, chi.URLParam(r, "bankID"))
	if err != nil {
		fail(w, err)
		return
	}
	movements, err := s.store.ListMovementsByBank(ctx, bank.ID)
	if err != nil {
		writeError(w, "failed to list movements", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.BankStatement(&buf, *bank, movements); err != nil {
		slog.Error("bank statement export failed", "bank", bank.ID, "err", err)
		writeError(w, "failed to build bank statement", http.StatusInternalServerError)
		return
	}
	writeWorkbook(w, fmt.Sprintf("%s-%s.xlsx", bank.ID, time.Now().UTC().Format("20060102")), &buf)
}

// ExportSales handles GET /api/v1/sales/export.xlsx
func (s *Service) ExportSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.store.ListSales(r.Context())
	if err != nil {
		writeError(w, "failed to list sales", http.StatusInternalServerError)
		return
	}
	rows := make([]export.SaleRow, 0, len(sales))
	for i := range sales {
		alloc, err := allocationOf(&sales[i])
		if err != nil {
			slog.Warn("skipping sale in export", "sale", sales[i].ID, "err", err)
			continue
		}
		rows = append(rows, export.SaleRow{Sale: sales[i], Allocation: alloc})
	}

	var buf bytes.Buffer
	if err := export.SalesReport(&buf, rows); err != nil {
		slog.Error("sales export failed", "err", err)
		writeError(w, "failed to build sales report", http.StatusInternalServerError)
		return
	}
	writeWorkbook(w, fmt.Sprintf("sales-%s.xlsx", time.Now().UTC().Format("20060102")), &buf)
}

// writeWorkbook sends a fully built workbook as an attachment.
func writeWorkbook(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("workbook write interrupted", "file", filename, "err", err)
	}
}

// CreateTransfer handles POST /api/v1/transfers
// The source bank must keep at least its reserve after the debit.
func (s *Service) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req TransferRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	banks, err := s.primary.ListBanks(ctx)
	if err != nil {
		writeError(w, "failed to load balances", http.StatusInternalServerError)
		return
	}
	balances := make(map[string]decimal.Decimal, len(banks))
	for _, b := range banks {
		balances[b.ID] = b.Capital
	}
	for _, id := range []string{req.FromBank, req.ToBank} {
		if _, ok := balances[id]; !ok {
			writeError(w, "bank not found: "+id, http.StatusNotFound)
			return
		}
	}
	if err := s.guard.CheckTransfer(req.FromBank, req.ToBank, req.Amount, balances); err != nil {
		fail(w, err)
		return
	}

	t := &model.Transfer{
		ID:        newID(),
		FromBank:  req.FromBank,
		ToBank:    req.ToBank,
		Amount:    req.Amount,
		Concept:   req.Concept,
		CreatedAt: time.Now().UTC(),
	}
	u := &model.LedgerUpdate{Transfer: t, Movements: ledger.TransferMovements(t)}
	if err := s.commit(ctx, opTransfer, u, start); err != nil {
		fail(w, err)
		return
	}

	slog.Info("transfer completed",
		"id", t.ID,
		"from", t.FromBank,
		"to", t.ToBank,
		"amount", t.Amount.String(),
	)
	s.broadcast(ctx, WSMessage{
		Type:       "transfer_completed",
		TransferID: t.ID,
		Amount:     t.Amount.String(),
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"transfer":  t,
		"movements": u.Movements,
	})
}

// broadcast attaches a snapshot of every bank's balances to msg and sends it
// to connected WebSocket clients.
func (s *Service) broadcast(ctx context.Context, msg WSMessage) {
	if s.wsHub == nil {
		return
	}
	banks, err := s.primary.ListBanks(ctx)
	if err != nil {
		slog.Warn("ws snapshot failed", "type", msg.Type, "err", err)
	}
	for _, b := range banks {
		msg.Banks = append(msg.Banks, BankBalance{ID: b.ID, Capital: b.Capital.StringFixed(gya.MoneyScale)})
	}
	s.wsHub.Broadcast(msg)
}

func newID() string {
	return uuid.New().String()
}

// fail maps a domain error to its HTTP status and writes it.
func fail(w http.ResponseWriter, err error) {
	status, reason := classify(err)
	if reason != "" {
		metrics.ValidationRejections.WithLabelValues(reason).Inc()
	}
	writeError(w, err.Error(), status)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, gya.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, gya.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid_status"
	case errors.Is(err, gya.ErrNegativePrice), errors.Is(err, gya.ErrZeroSalePrice):
		return http.StatusBadRequest, "invalid_price"
	case errors.Is(err, gya.ErrInvalidMargin):
		return http.StatusUnprocessableEntity, "invalid_margin"
	case errors.Is(err, gya.ErrOutOfRangePayment):
		return http.StatusUnprocessableEntity, "payment_out_of_range"
	case errors.Is(err, errPartialNoAmount):
		return http.StatusBadRequest, "payment_out_of_range"
	case errors.Is(err, ledger.ErrNonPositiveAmount), errors.Is(err, ledger.ErrSameBank):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, ledger.ErrInsufficientCapital):
		return http.StatusConflict, "insufficient_capital"
	case errors.Is(err, errReturnTooLarge):
		return http.StatusUnprocessableEntity, "return_too_large"
	case errors.Is(err, errSaleReturned):
		return http.StatusConflict, "sale_returned"
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
