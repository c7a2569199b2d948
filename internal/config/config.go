// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds runtime configuration for the server.
type Config struct {
	Addr           string        `envconfig:"APP_ADDR" default:":8080"`
	ReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"10s"`
	RequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// DatabaseURL selects PostgreSQL; empty means the in-memory store.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// RedisURL enables the read-through cache in front of PostgreSQL.
	RedisURL string        `envconfig:"REDIS_URL"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	DefaultUnitFreight string `envconfig:"DEFAULT_UNIT_FREIGHT" default:"500"`
	LowMarginPercent   string `envconfig:"LOW_MARGIN_PERCENT" default:"10"`
	CapitalReserve     string `envconfig:"CAPITAL_RESERVE" default:"0"`
	// PoolReserves overrides CapitalReserve per bank, e.g. "boveda_monte:1000".
	PoolReserves map[string]string `envconfig:"POOL_RESERVES"`

	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	AllowedOrigins     []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	Production         bool     `envconfig:"PRODUCTION" default:"false"`

	freight   decimal.Decimal
	lowMargin decimal.Decimal
	reserve   decimal.Decimal
	reserves  map[string]decimal.Decimal
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.parseDecimals(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) parseDecimals() error {
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"DEFAULT_UNIT_FREIGHT", c.DefaultUnitFreight, &c.freight},
		{"LOW_MARGIN_PERCENT", c.LowMarginPercent, &c.lowMargin},
		{"CAPITAL_RESERVE", c.CapitalReserve, &c.reserve},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", f.name, err)
		}
		if v.IsNegative() {
			return fmt.Errorf("config: %s must not be negative", f.name)
		}
		*f.dst = v
	}

	c.reserves = make(map[string]decimal.Decimal, len(c.PoolReserves))
	for bank, raw := range c.PoolReserves {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("config: POOL_RESERVES[%s]: %w", bank, err)
		}
		if v.IsNegative() {
			return fmt.Errorf("config: POOL_RESERVES[%s] must not be negative", bank)
		}
		c.reserves[bank] = v
	}
	return nil
}

// UnitFreight is the freight per unit applied when a sale omits it.
func (c *Config) UnitFreight() decimal.Decimal { return c.freight }

// LowMargin is the net margin percent under which sales get a warning.
func (c *Config) LowMargin() decimal.Decimal { return c.lowMargin }

// Reserve is the minimum capital a bank keeps after a transfer.
func (c *Config) Reserve() decimal.Decimal { return c.reserve }

// Reserves holds the per-bank reserve overrides.
func (c *Config) Reserves() map[string]decimal.Decimal { return c.reserves }
