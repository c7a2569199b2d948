package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronos/gya-engine/internal/config"
	"github.com/chronos/gya-engine/internal/ledger"
	"github.com/chronos/gya-engine/internal/sales"
	"github.com/chronos/gya-engine/internal/store"
)

func testRouter(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	cfg := &config.Config{
		AllowedOrigins:     origins,
		RateLimitPerMinute: 100,
		RequestTimeout:     5 * time.Second,
	}
	svc := sales.NewService(store.NewMemoryStore(), ledger.NewCapitalGuard(decimal.Zero), nil, sales.DefaultOptions())
	return newRouter(cfg, svc, sales.NewWSHub())
}

func preflight(router http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sales", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_PreflightAllowedOrigin(t *testing.T) {
	router := testRouter(t, "https://pos.example.com")

	w := preflight(router, "https://pos.example.com")

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "https://pos.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRouter_PreflightRejectsUnknownOrigin(t *testing.T) {
	router := testRouter(t, "https://pos.example.com")

	w := preflight(router, "https://evil.example.com")

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_WildcardOriginOnSimpleRequest(t *testing.T) {
	router := testRouter(t, "*")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
