package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/chronos/gya-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache only after
// the primary acknowledged them; reads check Redis first then fall back to
// the primary, with concurrent misses on one key sharing a single load.
type CachedStore struct {
	primary Store
	rdb     redis.UniversalClient
	ttl     time.Duration
	loads   singleflight.Group
}

// Primary returns the source-of-truth store behind st: the wrapped store of
// a CachedStore, or st itself. Read-compute-write flows load their starting
// state from it.
func Primary(st Store) Store {
	if c, ok := st.(*CachedStore); ok {
		return c.primary
	}
	return st
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb redis.UniversalClient, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) ApplyLedgerUpdate(ctx context.Context, u *model.LedgerUpdate) error {
	if err := s.primary.ApplyLedgerUpdate(ctx, u); err != nil {
		return err
	}

	keys := []string{banksKey}
	seen := map[string]bool{}
	for _, m := range u.Movements {
		if !seen[m.BankID] {
			seen[m.BankID] = true
			keys = append(keys, bankKey(m.BankID))
		}
	}
	if u.Sale != nil {
		keys = append(keys, saleKey(u.Sale.ID))
	}
	s.invalidate(ctx, keys...)
	return nil
}

func (s *CachedStore) SeedBanks(ctx context.Context, banks []model.Bank) error {
	if err := s.primary.SeedBanks(ctx, banks); err != nil {
		return err
	}
	s.invalidate(ctx, banksKey)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	sale, err := readThrough(ctx, s, saleKey(id), func(ctx context.Context) (model.Sale, error) {
		fresh, err := s.primary.GetSale(ctx, id)
		if err != nil {
			return model.Sale{}, err
		}
		return *fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *CachedStore) GetBank(ctx context.Context, id string) (*model.Bank, error) {
	b, err := readThrough(ctx, s, bankKey(id), func(ctx context.Context) (model.Bank, error) {
		fresh, err := s.primary.GetBank(ctx, id)
		if err != nil {
			return model.Bank{}, err
		}
		return *fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *CachedStore) ListBanks(ctx context.Context) ([]model.Bank, error) {
	banks, err := readThrough(ctx, s, banksKey, s.primary.ListBanks)
	if err != nil {
		return nil, err
	}
	return slices.Clone(banks), nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListSales(ctx context.Context) ([]model.Sale, error) {
	return s.primary.ListSales(ctx)
}

func (s *CachedStore) ListPaymentsBySale(ctx context.Context, saleID string) ([]model.PaymentRecord, error) {
	return s.primary.ListPaymentsBySale(ctx, saleID)
}

func (s *CachedStore) ListMovementsByBank(ctx context.Context, bankID string) ([]model.Movement, error) {
	return s.primary.ListMovementsByBank(ctx, bankID)
}

func (s *CachedStore) ListMovementsBySale(ctx context.Context, saleID string) ([]model.Movement, error) {
	return s.primary.ListMovementsBySale(ctx, saleID)
}

// --- Cache helpers ---

// invalidate deletes keys after a committed write. A failure leaves stale
// entries for reads until the TTL expires; writers never read through the
// cache (see Primary).
func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, "err", err)
	}
}

// readThrough returns the cached value under key, or loads it from the
// primary and caches it. Values are returned by value so callers never share
// one loaded record.
func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if s.get(ctx, key, &cached) {
		return cached, nil
	}
	v, err, _ := s.loads.Do(key, func() (any, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.set(ctx, key, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (s *CachedStore) get(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *CachedStore) set(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

const banksKey = "banks:all"

func saleKey(id string) string { return fmt.Sprintf("sale:%s", id) }
func bankKey(id string) string { return fmt.Sprintf("bank:%s", id) }
