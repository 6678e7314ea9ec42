package provider

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/config"
	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi"
)

// scriptedDoer returns one canned response per request path.
type scriptedDoer struct {
	responses map[string]string
	requests  []*http.Request
}

func (s *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	body, ok := s.responses[req.URL.Path]
	if !ok {
		return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(`{}`)), Header: make(http.Header)}, nil
	}
	return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header)}, nil
}

var (
	testStart = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 6, 7, 23, 59, 59, 0, time.UTC)
)

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestSupportedProviders(t *testing.T) {
	ids := Supported()
	assert.Len(t, ids, 8)
	for _, want := range []ID{AlphaVantage, Yahoo, Oanda, Polygon, IEX, Binance, MT5, Dukascopy} {
		assert.Contains(t, ids, want)
	}
}

func TestParseProvider(t *testing.T) {
	for _, s := range []string{"yahoo", "YAHOO", " Binance ", "mt5"} {
		_, err := Parse(s)
		require.NoError(t, err, "input %q", s)
	}
	for _, s := range []string{"", "quandl", "mt4"} {
		_, err := Parse(s)
		require.Error(t, err, "input %q", s)
		assert.True(t, domain.IsUnsupported(err))
	}
}

func TestRegistryConstructsEveryProvider(t *testing.T) {
	r := NewRegistry(nil)
	for _, id := range Supported() {
		p, err := r.New(string(id))
		require.NoError(t, err, "provider %s", id)
		assert.Equal(t, string(id), p.SourceInfo().ID)
		assert.NotEmpty(t, p.SourceInfo().Timeframes)
	}
}

func TestRegistryAppliesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.AlphaVantage.Token = "demo-key"
	r := NewRegistry(cfg)

	p, err := r.New("alphavantage")
	require.NoError(t, err)
	// A keyed provider passes validation and reaches the transport layer.
	err = p.TestConnection(cancelledContext())
	require.Error(t, err)
	assert.False(t, domain.IsValidation(err))
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// ---------------------------------------------------------------------------
// Yahoo
// ---------------------------------------------------------------------------

func TestYahooChartParsing(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{
		"/v8/finance/chart/AAPL": `{"chart":{"result":[{
			"timestamp":[1717459200,1717545600,1717632000],
			"indicators":{
				"quote":[{"open":[194.6,195.3,196.9],"high":[195.3,196.5,197.3],"low":[193.0,194.2,195.9],"close":[194.0,196.1,196.9],"volume":[50000000,47000000,41000000]}],
				"adjclose":[{"adjclose":[193.8,195.9,196.7]}]
			}}],"error":null}}`,
	}}
	p := NewYahoo("https://query1.finance.yahoo.com", vendorapi.WithDoer(doer))

	bars, err := p.GetHistoricalData(context.Background(), "AAPL", domain.D1, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.True(t, domain.SortedUnique(bars))
	assert.InDelta(t, 194.0, bars[0].Close, 1e-9)
	assert.InDelta(t, 193.8, bars[0].AdjustedClose, 1e-9)
	assert.Equal(t, int64(1717459200000), bars[0].Timestamp)
}

func TestYahooRejectsH4(t *testing.T) {
	doer := &scriptedDoer{}
	p := NewYahoo("https://query1.finance.yahoo.com", vendorapi.WithDoer(doer))

	_, err := p.GetHistoricalData(context.Background(), "AAPL", domain.H4, testStart, testEnd)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, doer.requests, "unsupported timeframe must not reach the vendor")
}

func TestYahooVendorErrorBody(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{
		"/v8/finance/chart/NOPE": `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`,
	}}
	p := NewYahoo("https://query1.finance.yahoo.com", vendorapi.WithDoer(doer))

	_, err := p.GetHistoricalData(context.Background(), "NOPE", domain.D1, testStart, testEnd)
	var verr *domain.VendorError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "yahoo", verr.Vendor)
}

// ---------------------------------------------------------------------------
// Alpha Vantage
// ---------------------------------------------------------------------------

func TestAlphaVantageDailyParsing(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{
		"/query": `{"Meta Data":{"2. Symbol":"IBM"},"Time Series (Daily)":{
			"2024-06-04":{"1. open":"166.30","2. high":"167.80","3. low":"165.90","4. close":"167.38","5. volume":"3214567"},
			"2024-06-03":{"1. open":"165.10","2. high":"166.50","3. low":"164.80","4. close":"166.25","5. volume":"2987654"}}}`,
	}}
	p := NewAlphaVantage("https://www.alphavantage.co", "demo", vendorapi.WithDoer(doer))

	bars, err := p.GetHistoricalData(context.Background(), "IBM", domain.D1, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, domain.SortedUnique(bars))
	assert.InDelta(t, 166.25, bars[0].Close, 1e-9)
	assert.InDelta(t, 3214567, bars[1].Volume, 1e-9)

	// The query must name the daily function.
	q := doer.requests[0].URL.Query()
	assert.Equal(t, "TIME_SERIES_DAILY", q.Get("function"))
	assert.Equal(t, "demo", q.Get("apikey"))
}

func TestAlphaVantageIntradayInterval(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{"/query": `{"Time Series (30min)":{}}`}}
	p := NewAlphaVantage("https://www.alphavantage.co", "demo", vendorapi.WithDoer(doer))

	bars, err := p.GetHistoricalData(context.Background(), "IBM", domain.M30, testStart, testEnd)
	require.NoError(t, err)
	assert.Empty(t, bars)

	q := doer.requests[0].URL.Query()
	assert.Equal(t, "TIME_SERIES_INTRADAY", q.Get("function"))
	assert.Equal(t, "30min", q.Get("interval"))
}

func TestAlphaVantageRequiresKey(t *testing.T) {
	doer := &scriptedDoer{}
	p := NewAlphaVantage("https://www.alphavantage.co", "", vendorapi.WithDoer(doer))

	_, err := p.GetHistoricalData(context.Background(), "IBM", domain.D1, testStart, testEnd)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, doer.requests)

	err = p.TestConnection(context.Background())
	assert.True(t, domain.IsValidation(err))
}

func TestAlphaVantageRejectsH4(t *testing.T) {
	p := NewAlphaVantage("https://www.alphavantage.co", "demo", vendorapi.WithDoer(&scriptedDoer{}))
	_, err := p.GetHistoricalData(context.Background(), "IBM", domain.H4, testStart, testEnd)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

// ---------------------------------------------------------------------------
// OANDA
// ---------------------------------------------------------------------------

func TestOandaCandlesParsing(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{
		"/v3/instruments/EUR_USD/candles": `{"instrument":"EUR_USD","granularity":"H4","candles":[
			{"complete":true,"time":"2024-06-03T00:00:00.000000000Z","volume":5120,"mid":{"o":"1.08450","h":"1.08720","l":"1.08390","c":"1.08655"}},
			{"complete":true,"time":"2024-06-03T04:00:00.000000000Z","volume":4310,"mid":{"o":"1.08655","h":"1.08810","l":"1.08600","c":"1.08770"}}]}`,
	}}
	p := NewOanda("https://api-fxpractice.oanda.com", "token-1", vendorapi.WithDoer(doer))

	bars, err := p.GetHistoricalData(context.Background(), "EUR_USD", domain.H4, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, domain.SortedUnique(bars))
	assert.InDelta(t, 1.08450, bars[0].Open, 1e-9)
	assert.InDelta(t, 5120, bars[0].Volume, 1e-9)

	// The request must translate H4 and carry the bearer token.
	req := doer.requests[0]
	assert.Equal(t, "H4", req.URL.Query().Get("granularity"))
	assert.Equal(t, "Bearer token-1", req.Header.Get("Authorization"))
}

func TestOandaRequiresToken(t *testing.T) {
	doer := &scriptedDoer{}
	p := NewOanda("https://api-fxpractice.oanda.com", "", vendorapi.WithDoer(doer))

	_, err := p.GetHistoricalData(context.Background(), "EUR_USD", domain.D1, testStart, testEnd)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, doer.requests)
}

// ---------------------------------------------------------------------------
// Binance
// ---------------------------------------------------------------------------

func TestBinanceKlinesParsing(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{
		"/api/v3/klines": `[
			[1717459200000,"68000.10","68500.00","67800.50","68420.00","1234.56",1717545599999,"0",100,"0","0","0"],
			[1717545600000,"68420.00","69100.00","68200.00","68990.10","987.65",1717631999999,"0",90,"0","0","0"]]`,
	}}
	p := NewBinance("https://api.binance.com", vendorapi.WithDoer(doer))

	bars, err := p.GetHistoricalData(context.Background(), "BTCUSDT", domain.D1, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, domain.SortedUnique(bars))
	assert.InDelta(t, 68000.10, bars[0].Open, 1e-9)
	assert.InDelta(t, 68990.10, bars[1].Close, 1e-9)
	assert.InDelta(t, 1234.56, bars[0].Volume, 1e-9)

	q := doer.requests[0].URL.Query()
	assert.Equal(t, "1d", q.Get("interval"))
	assert.Equal(t, "BTCUSDT", q.Get("symbol"))
}

func TestBinanceSymbolListing(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{
		"/api/v3/exchangeInfo": `{"symbols":[{"symbol":"BTCUSDT","status":"TRADING"},{"symbol":"DEADUSDT","status":"BREAK"}]}`,
	}}
	p := NewBinance("https://api.binance.com", vendorapi.WithDoer(doer))

	symbols, err := p.AvailableSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, symbols)
}

// ---------------------------------------------------------------------------
// IEX
// ---------------------------------------------------------------------------

func TestIEXIntradayParsing(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]string{
		"/stock/AAPL/intraday-prices": `[
			{"date":"2024-06-04","minute":"09:30","open":194.1,"high":194.4,"low":193.9,"close":194.3,"volume":120000},
			{"date":"2024-06-04","minute":"09:31","open":194.3,"high":194.6,"low":194.2,"close":194.5,"volume":95000},
			{"date":"2024-06-04","minute":"09:32","open":0,"high":0,"low":0,"close":0,"volume":0}]`,
	}}
	p := NewIEX("https://cloud.iexapis.com/stable", "tok", vendorapi.WithDoer(doer))

	bars, err := p.GetHistoricalData(context.Background(), "AAPL", domain.M1, testStart, testEnd)
	require.NoError(t, err)
	require.Len(t, bars, 2, "empty halt points are dropped")
	assert.True(t, domain.SortedUnique(bars))
}

func TestIEXUnsupportedTimeframe(t *testing.T) {
	p := NewIEX("https://cloud.iexapis.com/stable", "tok", vendorapi.WithDoer(&scriptedDoer{}))
	_, err := p.GetHistoricalData(context.Background(), "AAPL", domain.H1, testStart, testEnd)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

// ---------------------------------------------------------------------------
// Polygon
// ---------------------------------------------------------------------------

func TestPolygonSpanTableCoversAllTimeframes(t *testing.T) {
	for _, tf := range domain.Timeframes() {
		_, ok := polygonSpans[tf]
		assert.True(t, ok, "timeframe %s", tf)
	}
}

func TestPolygonRequiresKey(t *testing.T) {
	p := NewPolygon("")
	_, err := p.GetHistoricalData(context.Background(), "AAPL", domain.D1, testStart, testEnd)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.True(t, domain.IsValidation(p.TestConnection(context.Background())))
}

// ---------------------------------------------------------------------------
// MT5 + Dukascopy (offline sources)
// ---------------------------------------------------------------------------

func TestMT5ProviderServesAllTimeframes(t *testing.T) {
	r := NewRegistry(nil)
	p, err := r.New("mt5")
	require.NoError(t, err)
	require.NoError(t, p.TestConnection(context.Background()))

	for _, tf := range domain.Timeframes() {
		bars, err := p.GetHistoricalData(context.Background(), "EURUSD", tf, testStart, testEnd)
		require.NoError(t, err, "timeframe %s", tf)
		assert.True(t, domain.SortedUnique(bars), "timeframe %s", tf)
	}

	symbols, err := p.AvailableSymbols(context.Background())
	require.NoError(t, err)
	assert.Contains(t, symbols, "EURUSD")
}

func TestDukascopyDeterministic(t *testing.T) {
	p := NewDukascopy()
	require.NoError(t, p.TestConnection(context.Background()))

	a, err := p.GetHistoricalData(context.Background(), "XAUUSD", domain.D1, testStart, testEnd)
	require.NoError(t, err)
	b, err := p.GetHistoricalData(context.Background(), "XAUUSD", domain.D1, testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	require.NotEmpty(t, a)
	assert.True(t, domain.SortedUnique(a))
	for _, bar := range a {
		wd := bar.Time().Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
}
