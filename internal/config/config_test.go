package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "500", cfg.UnitFreight().String())
	assert.Equal(t, "10", cfg.LowMargin().String())
	assert.True(t, cfg.Reserve().IsZero())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.Reserves())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("DEFAULT_UNIT_FREIGHT", "250.5")
	t.Setenv("CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "250.5", cfg.UnitFreight().String())
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestLoad_RejectsBadDecimal(t *testing.T) {
	t.Setenv("LOW_MARGIN_PERCENT", "ten")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNegative(t *testing.T) {
	t.Setenv("CAPITAL_RESERVE", "-1")
	_, err := Load()
	assert.ErrorContains(t, err, "CAPITAL_RESERVE")
}

func TestLoad_PoolReserves(t *testing.T) {
	t.Setenv("POOL_RESERVES", "boveda_monte:1000,utilidades:250.50")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Reserves(), 2)
	assert.Equal(t, "1000", cfg.Reserves()["boveda_monte"].String())
	assert.Equal(t, "250.5", cfg.Reserves()["utilidades"].String())
}

func TestLoad_RejectsBadPoolReserve(t *testing.T) {
	t.Setenv("POOL_RESERVES", "boveda_monte:-5")
	_, err := Load()
	assert.ErrorContains(t, err, "POOL_RESERVES[boveda_monte]")
}
