package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/config"
	"brokerlink/internal/domain"
	"brokerlink/internal/history"
	"brokerlink/internal/provider"
	"brokerlink/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.ParquetStore) {
	t.Helper()
	bars := store.NewParquetStore(t.TempDir())
	manager := history.NewManager(provider.NewRegistry(&config.Config{}), nil)
	return NewServer(manager, bars, nil), bars
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestListPlatforms(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/platforms")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PlatformsResponse](t, rec)
	require.Len(t, resp.Platforms, 15)

	ids := make(map[string]bool, len(resp.Platforms))
	for _, p := range resp.Platforms {
		ids[p.ID] = true
		assert.NotEmpty(t, p.Features, "platform %s advertises no features", p.ID)
	}
	assert.True(t, ids["mt4"])
	assert.True(t, ids["tradelocker"])
}

func TestListProviders(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/providers")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ProvidersResponse](t, rec)
	require.Len(t, resp.Providers, 8)
	for _, p := range resp.Providers {
		assert.NotEmpty(t, p.Name, "provider %s has no display name", p.ID)
		assert.NotEmpty(t, p.Timeframes, "provider %s lists no timeframes", p.ID)
	}
}

func TestProviderInfo(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/providers/dukascopy")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[ProviderJSON](t, rec)
	assert.Equal(t, "dukascopy", info.ID)
	assert.False(t, info.RequiresAuth)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/providers/bloomberg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
}

func TestProviderConnectionCheck(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/providers/dukascopy/test")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TestResponse](t, rec)
	assert.True(t, resp.OK)
}

func TestSymbols(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/symbols")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/symbols?provider=dukascopy")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SymbolsResponse](t, rec)
	assert.Equal(t, "dukascopy", resp.Provider)
	assert.NotEmpty(t, resp.Symbols)
}

func TestHistoryQuery(t *testing.T) {
	s, bars := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet,
		"/api/v1/history?provider=dukascopy&symbol=eurusd&timeframe=d1&start=2024-06-03&end=2024-06-07")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[HistoryResponse](t, rec)
	assert.Equal(t, "dukascopy", resp.Provider)
	assert.Equal(t, "EURUSD", resp.Symbol)
	assert.Equal(t, "D1", resp.Timeframe)
	require.NotEmpty(t, resp.Bars)
	assert.Equal(t, len(resp.Bars), resp.Count)
	assert.True(t, domain.SortedUnique(resp.Bars))

	// The fetched bars were persisted through the attached store.
	stored, err := bars.ReadBars(context.Background(), "dukascopy", "EURUSD", domain.D1,
		time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 7, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, resp.Bars, stored)
}

func TestHistoryValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/history?provider=dukascopy")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet,
		"/api/v1/history?provider=dukascopy&symbol=EURUSD&timeframe=H7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet,
		"/api/v1/history?provider=dukascopy&symbol=EURUSD&timeframe=D1&start=whenever")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet,
		"/api/v1/history?provider=bloomberg&symbol=EURUSD&timeframe=D1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCache(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodDelete, "/api/v1/cache")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("2024-06-03T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC), got)

	got, err = parseTimeParam("2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), got)

	got, err = parseTimeParam("1717372800000")
	require.NoError(t, err)
	assert.Equal(t, int64(1717372800000), got.UnixMilli())

	_, err = parseTimeParam("whenever")
	assert.True(t, domain.IsValidation(err))
}
