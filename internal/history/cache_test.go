package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/domain"
)

var (
	keyStart = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	keyEnd   = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("yahoo", "AAPL", domain.D1, keyStart, keyEnd)
	b := Key("yahoo", "AAPL", domain.D1, keyStart, keyEnd)
	assert.Equal(t, a, b)

	// Canonicalization: identifier case and padding do not split the cache.
	assert.Equal(t, a, Key(" Yahoo ", "aapl", domain.D1, keyStart, keyEnd))
}

func TestKeyDistinctPerArgument(t *testing.T) {
	base := Key("yahoo", "AAPL", domain.D1, keyStart, keyEnd)
	variants := []string{
		Key("iex", "AAPL", domain.D1, keyStart, keyEnd),
		Key("yahoo", "MSFT", domain.D1, keyStart, keyEnd),
		Key("yahoo", "AAPL", domain.H1, keyStart, keyEnd),
		Key("yahoo", "AAPL", domain.D1, keyStart.Add(time.Minute), keyEnd),
		Key("yahoo", "AAPL", domain.D1, keyStart, keyEnd.Add(time.Minute)),
	}
	seen := map[string]bool{base: true}
	for _, v := range variants {
		assert.False(t, seen[v], "key collision: %s", v)
		seen[v] = true
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(time.Hour)
	bars := []domain.Bar{{Timestamp: 1, Close: 10}, {Timestamp: 2, Close: 11}}

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", bars)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, bars, got)
}

func TestCacheExpiryPurges(t *testing.T) {
	c := NewCache(time.Hour)
	clock := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("k", []domain.Bar{{Timestamp: 1}})
	_, ok := c.Get("k")
	require.True(t, ok)

	clock = clock.Add(time.Hour)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry at exactly TTL age is stale")
	assert.Zero(t, c.Len(), "stale entry must be purged, not just hidden")

	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCacheSetOverwrites(t *testing.T) {
	c := NewCache(time.Hour)
	c.Set("k", []domain.Bar{{Timestamp: 1}})
	c.Set("k", []domain.Bar{{Timestamp: 2}})

	got, ok := c.Get("k")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Timestamp)
}

func TestCacheClear(t *testing.T) {
	c := NewCache(time.Hour)
	c.Set("a", nil)
	c.Set("b", nil)
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheDefaultTTL(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, DefaultTTL, c.ttl)
}
