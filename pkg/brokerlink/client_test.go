package brokerlink

import (
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/config"
	"brokerlink/internal/history"
	"brokerlink/internal/httpapi"
	"brokerlink/internal/provider"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	manager := history.NewManager(provider.NewRegistry(&config.Config{}), nil)
	srv := httptest.NewServer(httpapi.NewServer(manager, nil, nil).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestClientDiscovery(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	platforms, err := c.ListPlatforms(ctx)
	require.NoError(t, err)
	assert.Len(t, platforms, 15)

	providers, err := c.ListProviders(ctx)
	require.NoError(t, err)
	assert.Len(t, providers, 8)

	info, err := c.ProviderInfo(ctx, "dukascopy")
	require.NoError(t, err)
	assert.Equal(t, "dukascopy", info.ID)
	assert.False(t, info.RequiresAuth)
}

func TestClientHistory(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	bars, err := c.GetHistory(ctx, "dukascopy", "EURUSD", "D1", start, end)
	require.NoError(t, err)
	require.NotEmpty(t, bars)
	assert.True(t, sort.SliceIsSorted(bars, func(i, j int) bool {
		return bars[i].Timestamp < bars[j].Timestamp
	}))

	symbols, err := c.AvailableSymbols(ctx, "dukascopy")
	require.NoError(t, err)
	assert.NotEmpty(t, symbols)

	require.NoError(t, c.TestProvider(ctx, "dukascopy"))
	require.NoError(t, c.ClearCache(ctx))
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	_, err := c.ProviderInfo(ctx, "bloomberg")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bloomberg")

	_, err = c.GetHistory(ctx, "dukascopy", "EURUSD", "H7", time.Time{}, time.Time{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}
