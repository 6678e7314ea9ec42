package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/config"
	"brokerlink/internal/domain"
)

var allPlatforms = []ID{
	MT4, MT5, TradingView, DXtrade, NinjaTrader, CTrader, DXfeed,
	TradeStation, Thinkorswim, InteractiveBrokers, MatchTrader,
	Tradovate, Rithmic, SierraChart, TradeLocker,
}

func TestSupportedCoversEveryPlatform(t *testing.T) {
	ids := Supported()
	assert.Len(t, ids, 15)
	for _, want := range allPlatforms {
		assert.Contains(t, ids, want)
	}
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i], "Supported must be sorted")
	}
}

func TestNewConstructsEveryPlatform(t *testing.T) {
	for _, id := range allPlatforms {
		a, err := New(string(id))
		require.NoError(t, err, "platform %s", id)
		require.NotNil(t, a)
		assert.Equal(t, string(id), a.Name())

		sr, ok := a.(StateReporter)
		require.True(t, ok, "platform %s must report its state", id)
		assert.Equal(t, StateDisconnected, sr.ConnectionState())

		fr, ok := a.(FeatureReporter)
		require.True(t, ok, "platform %s must report features", id)
		assert.Contains(t, fr.SupportedFeatures(), FeatureAccounts)
	}
}

func TestNewReturnsFreshInstances(t *testing.T) {
	a, err := New("tradelocker")
	require.NoError(t, err)
	b, err := New("tradelocker")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestParseIsCaseInsensitive(t *testing.T) {
	for _, s := range []string{"MT5", "mt5", " Mt5 ", "TradeLocker", "TRADESTATION"} {
		id, err := Parse(s)
		require.NoError(t, err, "input %q", s)
		assert.NotEmpty(t, id)
	}
}

func TestParseUnknownPlatform(t *testing.T) {
	for _, s := range []string{"", "etrade", "mt6", "metatrader"} {
		_, err := Parse(s)
		require.Error(t, err, "input %q", s)
		assert.True(t, domain.IsUnsupported(err))

		_, err = New(s)
		require.Error(t, err)
		assert.True(t, domain.IsUnsupported(err))
	}
}

func TestFactoryDefaultsToSandbox(t *testing.T) {
	f := NewFactory(nil)
	a, err := f.New("ctrader")
	require.NoError(t, err)
	assert.Equal(t, "ctrader", a.Name())

	f = NewFactory(config.Default())
	a, err = f.New("tradovate")
	require.NoError(t, err)
	assert.Equal(t, "tradovate", a.Name())
}

func TestFactoryWiresConfiguredEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Vendors.TradeLocker.BaseURL = "https://demo.tradelocker.com/backend-api"

	f := NewFactory(cfg)
	a, err := f.New("tradelocker")
	require.NoError(t, err)

	// A live-wired adapter validates credentials just like the sandbox one;
	// the missing apiSecret fails before any request could go out.
	err = a.Connect(t.Context(), domain.Credentials{APIKey: "key"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestFactoryRejectsUnknownPlatform(t *testing.T) {
	f := NewFactory(config.Default())
	_, err := f.New("etrade")
	require.Error(t, err)
	assert.True(t, domain.IsUnsupported(err))
}
