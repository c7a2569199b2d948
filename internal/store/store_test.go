package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos/gya-engine/internal/gya"
	"github.com/chronos/gya-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func seededMemory(t *testing.T) *MemoryStore {
	t.Helper()
	ms := NewMemoryStore()
	require.NoError(t, ms.SeedBanks(context.Background(), model.DefaultBanks()))
	return ms
}

func sampleUpdate(saleID string) *model.LedgerUpdate {
	now := time.Now().UTC()
	return &model.LedgerUpdate{
		Sale: &model.Sale{
			ID:             saleID,
			ClientID:       "client-1",
			Quantity:       1,
			UnitSalePrice:  d(100),
			TotalSaleValue: d(100),
			PaymentStatus:  gya.StatusComplete,
			Status:         model.SaleActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		Movements: []model.Movement{
			{ID: saleID + "-m1", BankID: model.BankCostRecovery, Kind: model.MovementDistribution, Amount: d(60), HistoricDelta: d(60), SaleID: saleID, CreatedAt: now},
			{ID: saleID + "-m2", BankID: model.BankProfit, Kind: model.MovementDistribution, Amount: d(40), HistoricDelta: d(40), SaleID: saleID, CreatedAt: now},
		},
	}
}

func TestMemoryStore_ApplyLedgerUpdate(t *testing.T) {
	ctx := context.Background()
	ms := seededMemory(t)

	require.NoError(t, ms.ApplyLedgerUpdate(ctx, sampleUpdate("s1")))

	sale, err := ms.GetSale(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", sale.ClientID)

	b, err := ms.GetBank(ctx, model.BankCostRecovery)
	require.NoError(t, err)
	assert.True(t, b.Capital.Equal(d(60)))
	assert.True(t, b.HistoricIncome.Equal(d(60)))

	movs, err := ms.ListMovementsBySale(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	movs, err = ms.ListMovementsByBank(ctx, model.BankProfit)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Amount.Equal(d(40)))
}

func TestMemoryStore_UnknownBankLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	ms := seededMemory(t)

	u := sampleUpdate("s1")
	u.Movements = append(u.Movements, model.Movement{ID: "bad", BankID: "nope", Amount: d(1)})

	err := ms.ApplyLedgerUpdate(ctx, u)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ms.GetSale(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	b, _ := ms.GetBank(ctx, model.BankCostRecovery)
	assert.True(t, b.Capital.IsZero())
}

func TestMemoryStore_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ms := seededMemory(t)
	require.NoError(t, ms.ApplyLedgerUpdate(ctx, sampleUpdate("s1")))
	require.NoError(t, ms.SeedBanks(ctx, model.DefaultBanks()))

	b, _ := ms.GetBank(ctx, model.BankCostRecovery)
	assert.True(t, b.Capital.Equal(d(60)), "re-seeding must not reset balances")

	banks, _ := ms.ListBanks(ctx)
	assert.Len(t, banks, len(model.DefaultBanks()))
	assert.Equal(t, model.BankAzteca, banks[0].ID)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	ms := seededMemory(t)
	require.NoError(t, ms.ApplyLedgerUpdate(ctx, sampleUpdate("s1")))

	sale, _ := ms.GetSale(ctx, "s1")
	sale.ClientID = "mutated"
	again, _ := ms.GetSale(ctx, "s1")
	assert.Equal(t, "client-1", again.ClientID)
}

func TestMemoryStore_ListSalesNewestFirst(t *testing.T) {
	ctx := context.Background()
	ms := seededMemory(t)
	older := sampleUpdate("old")
	older.Sale.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, ms.ApplyLedgerUpdate(ctx, older))
	require.NoError(t, ms.ApplyLedgerUpdate(ctx, sampleUpdate("new")))

	sales, err := ms.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "new", sales[0].ID)
}

func TestMemoryStore_Payments(t *testing.T) {
	ctx := context.Background()
	ms := seededMemory(t)
	u := sampleUpdate("s1")
	u.Payment = &model.PaymentRecord{ID: "p1", SaleID: "s1", Amount: d(100), CreatedAt: time.Now()}
	require.NoError(t, ms.ApplyLedgerUpdate(ctx, u))

	payments, err := ms.ListPaymentsBySale(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "p1", payments[0].ID)
}

// --- Redis cache ---

func newCached(t *testing.T) (*CachedStore, *MemoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ms := seededMemory(t)
	return NewCachedStore(ms, rdb, time.Minute), ms, mr
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cs, _, mr := newCached(t)

	b, err := cs.GetBank(ctx, model.BankProfit)
	require.NoError(t, err)
	assert.True(t, b.Capital.IsZero())
	assert.True(t, mr.Exists(bankKey(model.BankProfit)), "bank should be cached after a miss")

	banks, err := cs.ListBanks(ctx)
	require.NoError(t, err)
	assert.Len(t, banks, len(model.DefaultBanks()))
	assert.True(t, mr.Exists(banksKey))
}

func TestCachedStore_InvalidatesAfterWrite(t *testing.T) {
	ctx := context.Background()
	cs, _, mr := newCached(t)

	_, err := cs.GetBank(ctx, model.BankProfit)
	require.NoError(t, err)
	_, err = cs.ListBanks(ctx)
	require.NoError(t, err)

	require.NoError(t, cs.ApplyLedgerUpdate(ctx, sampleUpdate("s1")))
	assert.False(t, mr.Exists(bankKey(model.BankProfit)))
	assert.False(t, mr.Exists(banksKey))

	b, err := cs.GetBank(ctx, model.BankProfit)
	require.NoError(t, err)
	assert.True(t, b.Capital.Equal(d(40)), "read after write must see the new balance, got %s", b.Capital)

	sale, err := cs.GetSale(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sale.TotalSaleValue.Equal(d(100)))
	assert.True(t, mr.Exists(saleKey("s1")))
}

func TestCachedStore_FailedWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	cs, _, mr := newCached(t)

	_, err := cs.GetBank(ctx, model.BankProfit)
	require.NoError(t, err)

	u := sampleUpdate("s1")
	u.Movements = append(u.Movements, model.Movement{ID: "bad", BankID: "nope", Amount: d(1)})
	err = cs.ApplyLedgerUpdate(ctx, u)
	require.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, mr.Exists(bankKey(model.BankProfit)), "cache must only be invalidated after the primary acknowledged")
}

func TestCachedStore_MissingSale(t *testing.T) {
	cs, _, _ := newCached(t)
	_, err := cs.GetSale(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_ConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	cs, ms, _ := newCached(t)
	require.NoError(t, ms.ApplyLedgerUpdate(ctx, sampleUpdate("s1")))

	var wg sync.WaitGroup
	results := make([]*model.Sale, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cs.GetSale(ctx, "s1")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "client-1", results[i].ClientID)
	}
	results[0].ClientID = "mutated"
	assert.Equal(t, "client-1", results[1].ClientID, "callers must not share a loaded record")
}
