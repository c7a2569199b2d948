package sales_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos/gya-engine/internal/ledger"
	"github.com/chronos/gya-engine/internal/model"
	"github.com/chronos/gya-engine/internal/sales"
	"github.com/chronos/gya-engine/internal/store"
)

// newCachedTestEnv runs the service over a Redis-cached memory store.
func newCachedTestEnv(t *testing.T) (*store.MemoryStore, *miniredis.Miniredis, chi.Router) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ms := store.NewMemoryStore()
	require.NoError(t, ms.SeedBanks(context.Background(), model.DefaultBanks()))
	cached := store.NewCachedStore(ms, rdb, time.Minute)
	svc := sales.NewService(cached, ledger.NewCapitalGuard(decimal.Zero), nil, sales.DefaultOptions())

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		svc.Routes(r)
	})
	return ms, mr, r
}

func TestCachedStore_PaymentsSurviveFailedInvalidation(t *testing.T) {
	ms, mr, router := newCachedTestEnv(t)
	sale := createSale(t, router, tenUnits(nil))
	salePath := "/api/v1/sales/" + sale.Sale.ID

	// Warm the cache with the unpaid sale.
	w := do(t, router, http.MethodGet, salePath, nil)
	require.Equal(t, http.StatusOK, w.Code)

	mr.SetError("LOADING redis is loading the dataset")
	w = do(t, router, http.MethodPost, salePath+"/payments", map[string]any{"amount": "40000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mr.SetError("")

	// The cached sale is now stale; the next payment must still build on
	// the committed one.
	w = do(t, router, http.MethodPost, salePath+"/payments", map[string]any{"amount": "40000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got, err := ms.GetSale(context.Background(), sale.Sale.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountPaid.Equal(d(80000)), "amount paid: %s", got.AmountPaid)
	assertCapital(t, ms, model.BankCostRecovery, 56000)
	assertCapital(t, ms, model.BankFreight, 4000)
	assertCapital(t, ms, model.BankProfit, 20000)
}

func TestCachedStore_TransferUsesCommittedBalances(t *testing.T) {
	ms, mr, router := newCachedTestEnv(t)
	createSale(t, router, tenUnits(map[string]any{"payment_status": "complete"}))

	w := do(t, router, http.MethodGet, "/api/v1/banks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	mr.SetError("LOADING redis is loading the dataset")
	w = do(t, router, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_bank": model.BankProfit, "to_bank": model.BankAzteca, "amount": "20000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mr.SetError("")

	// A stale cached 25,000 would let this overdraw the remaining 5,000.
	w = do(t, router, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_bank": model.BankProfit, "to_bank": model.BankAzteca, "amount": "10000",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assertCapital(t, ms, model.BankProfit, 5000)
}
