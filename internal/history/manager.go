package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/provider"
)

// ProviderSource constructs providers by identifier. *provider.Registry is
// the production implementation; tests substitute instrumented doubles.
type ProviderSource interface {
	New(identifier string) (provider.Provider, error)
}

// Manager is the single orchestration point for historical data: cache
// lookup first, then a lazily constructed provider on a miss. One Manager is
// built at startup and shared; its provider pool and cache are guarded for
// concurrent use.
type Manager struct {
	source ProviderSource
	cache  *Cache
	log    *slog.Logger

	mu   sync.Mutex
	pool map[string]provider.Provider
}

// NewManager creates a Manager over the given provider source. A nil cache
// gets a fresh 24h one.
func NewManager(source ProviderSource, cache *Cache) *Manager {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	return &Manager{
		source: source,
		cache:  cache,
		log:    slog.Default().With("component", "history"),
		pool:   make(map[string]provider.Provider),
	}
}

// GetHistoricalData returns bars for the query, serving from cache when a
// fresh entry exists. Provider errors propagate unchanged and are never
// cached.
func (m *Manager) GetHistoricalData(ctx context.Context, providerID, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	key := Key(providerID, symbol, tf, start, end)
	if bars, ok := m.cache.Get(key); ok {
		m.log.Debug("cache hit", "key", key)
		return bars, nil
	}

	p, err := m.resolve(providerID)
	if err != nil {
		return nil, err
	}
	bars, err := p.GetHistoricalData(ctx, symbol, tf, start, end)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, bars)
	m.log.Debug("cache fill", "key", key, "bars", len(bars))
	return bars, nil
}

// AvailableProviders lists the supported provider identifiers.
func (m *Manager) AvailableProviders() []string {
	ids := provider.Supported()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// ProviderInfo returns the metadata for one provider.
func (m *Manager) ProviderInfo(providerID string) (domain.DataSourceInfo, error) {
	p, err := m.resolve(providerID)
	if err != nil {
		return domain.DataSourceInfo{}, err
	}
	return p.SourceInfo(), nil
}

// TestProviderConnection probes one provider's reachability.
func (m *Manager) TestProviderConnection(ctx context.Context, providerID string) error {
	p, err := m.resolve(providerID)
	if err != nil {
		return err
	}
	return p.TestConnection(ctx)
}

// AvailableSymbols lists the instruments one provider can serve.
func (m *Manager) AvailableSymbols(ctx context.Context, providerID string) ([]string, error) {
	p, err := m.resolve(providerID)
	if err != nil {
		return nil, err
	}
	return p.AvailableSymbols(ctx)
}

// ClearCache empties the historical-data cache.
func (m *Manager) ClearCache() {
	m.cache.Clear()
}

// resolve returns the pooled provider instance for the identifier,
// constructing and remembering it on first use.
func (m *Manager) resolve(providerID string) (provider.Provider, error) {
	id, err := provider.Parse(providerID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pool[string(id)]; ok {
		return p, nil
	}
	p, err := m.source.New(string(id))
	if err != nil {
		return nil, err
	}
	m.pool[string(id)] = p
	return p, nil
}
