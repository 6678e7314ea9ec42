package httpapi

import (
	"brokerlink/internal/domain"
)

// ErrorResponse is the JSON body for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PlatformJSON describes one supported trading platform.
type PlatformJSON struct {
	ID       string   `json:"id"`
	Features []string `json:"features,omitempty"`
}

// PlatformsResponse lists the supported trading platforms.
type PlatformsResponse struct {
	Platforms []PlatformJSON `json:"platforms"`
}

// ProviderJSON describes one market-data provider.
type ProviderJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Assets       []string `json:"assets"`
	Timeframes   []string `json:"timeframes"`
	RequiresAuth bool     `json:"requiresAuth"`
	Premium      bool     `json:"premium"`
	Attribution  string   `json:"attribution,omitempty"`
}

// ProvidersResponse lists the supported market-data providers.
type ProvidersResponse struct {
	Providers []ProviderJSON `json:"providers"`
}

// TestResponse reports a provider connectivity check.
type TestResponse struct {
	Provider string `json:"provider"`
	OK       bool   `json:"ok"`
}

// SymbolsResponse lists the symbols a provider can serve.
type SymbolsResponse struct {
	Provider string   `json:"provider"`
	Symbols  []string `json:"symbols"`
}

// HistoryResponse holds the bars for one historical data query.
type HistoryResponse struct {
	Provider  string       `json:"provider"`
	Symbol    string       `json:"symbol"`
	Timeframe string       `json:"timeframe"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Count     int          `json:"count"`
	Bars      []domain.Bar `json:"bars"`
}

func convertSourceInfo(info domain.DataSourceInfo) ProviderJSON {
	timeframes := make([]string, 0, len(info.Timeframes))
	for _, tf := range info.Timeframes {
		timeframes = append(timeframes, string(tf))
	}
	return ProviderJSON{
		ID:           info.ID,
		Name:         info.Name,
		Assets:       info.Assets,
		Timeframes:   timeframes,
		RequiresAuth: info.RequiresAuth,
		Premium:      info.Premium,
		Attribution:  info.Attribution,
	}
}
