package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/model"
)

func testConfig(maxBytes int64) config.CacheConfig {
	return config.CacheConfig{
		MaxMemoryBytes:            maxBytes,
		CompressionThresholdBytes: 1024,
		CleanupIntervalMinutes:    10,
		Types: map[string]config.CacheTypePolicy{
			string(model.CacheTypeSearchResults): {DefaultTTL: time.Hour, Compression: false, DefaultLevel: "normal"},
			string(model.CacheTypeAIProcessing):  {DefaultTTL: time.Hour, Compression: true, DefaultLevel: "normal"},
		},
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()

	ok := m.Set(ctx, "app-1", map[string]any{"opportunity_score": 72}, model.CacheTypeSearchResults, SetOptions{})
	require.True(t, ok)

	got, ok := m.Get(ctx, "app-1", model.CacheTypeSearchResults)
	require.True(t, ok)
	assert.Equal(t, float64(72), got.(map[string]any)["opportunity_score"])
}

func TestGet_MissOnWrongType(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()
	m.Set(ctx, "app-1", "value", model.CacheTypeSearchResults, SetOptions{})

	_, ok := m.Get(ctx, "app-1", model.CacheTypeAIProcessing)
	assert.False(t, ok)
}

func TestGet_ExpiresLazily(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()
	m.Set(ctx, "app-1", "value", model.CacheTypeSearchResults, SetOptions{TTL: time.Millisecond})

	time.Sleep(5 * time.Millisecond)
	_, ok := m.Get(ctx, "app-1", model.CacheTypeSearchResults)
	assert.False(t, ok)
}

func TestSweepExpired_RemovesExpiredEntriesAndFreesBytes(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()
	m.Set(ctx, "expiring", "value", model.CacheTypeSearchResults, SetOptions{TTL: time.Millisecond})
	m.Set(ctx, "fresh", "value", model.CacheTypeSearchResults, SetOptions{TTL: time.Hour})

	time.Sleep(5 * time.Millisecond)
	m.sweepExpired()

	b := m.buckets[model.CacheTypeSearchResults]
	b.mu.RLock()
	_, stillThere := b.entries[namespacedKey(model.CacheTypeSearchResults, "expiring")]
	_, freshThere := b.entries[namespacedKey(model.CacheTypeSearchResults, "fresh")]
	b.mu.RUnlock()
	assert.False(t, stillThere)
	assert.True(t, freshThere)
}

func TestStartStop_LaunchesAndHaltsSweepWithoutPanic(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	m.Stop()
}

func TestEviction_NeverEvictsCritical(t *testing.T) {
	m := NewManager(testConfig(100)) // room for one entry, not two
	ctx := context.Background()

	ok := m.Set(ctx, "critical-key", "keep me around, this string is padded to take up some bytes", model.CacheTypeSearchResults, SetOptions{Level: model.CacheLevelCritical})
	require.True(t, ok)
	ok = m.Set(ctx, "low-key", "this also should not fit since max memory is already spoken for", model.CacheTypeSearchResults, SetOptions{Level: model.CacheLevelLow})

	assert.False(t, ok, "Set should report failure to store when nothing evictable remains")
	_, stillThere := m.Get(ctx, "critical-key", model.CacheTypeSearchResults)
	assert.True(t, stillThere, "critical entries must never be evicted")
}

func TestEviction_OrdersByLevelThenAccessThenRecency(t *testing.T) {
	m := NewManager(testConfig(0))
	candidates := []evictionCandidate{
		{key: "high", ord: model.CacheLevelHigh.Ordinal(), acc: 0, last: time.Now()},
		{key: "low-old", ord: model.CacheLevelLow.Ordinal(), acc: 5, last: time.Now().Add(-time.Hour)},
		{key: "low-new", ord: model.CacheLevelLow.Ordinal(), acc: 5, last: time.Now()},
		{key: "normal", ord: model.CacheLevelNormal.Ordinal(), acc: 0, last: time.Now()},
	}
	sortCandidates(candidates)

	order := make([]string, len(candidates))
	for i, c := range candidates {
		order[i] = c.key
	}
	assert.Equal(t, []string{"low-old", "low-new", "normal", "high"}, order)
}

func TestInvalidateByType(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()
	m.Set(ctx, "a", "1", model.CacheTypeSearchResults, SetOptions{})
	m.Set(ctx, "b", "2", model.CacheTypeSearchResults, SetOptions{})
	m.Set(ctx, "c", "3", model.CacheTypeAIProcessing, SetOptions{})

	removed := m.InvalidateByType(model.CacheTypeSearchResults)
	assert.Equal(t, 2, removed)

	_, ok := m.Get(ctx, "a", model.CacheTypeSearchResults)
	assert.False(t, ok)
	_, ok = m.Get(ctx, "c", model.CacheTypeAIProcessing)
	assert.True(t, ok)
}

func TestInvalidateByPattern(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()
	m.Set(ctx, "application:123:opportunity", "a", model.CacheTypeSearchResults, SetOptions{})
	m.Set(ctx, "application:123:summary", "b", model.CacheTypeSearchResults, SetOptions{})
	m.Set(ctx, "application:999:summary", "c", model.CacheTypeSearchResults, SetOptions{})

	removed := m.InvalidateByPattern("123", "")
	assert.Equal(t, 2, removed)
	_, ok := m.Get(ctx, "application:999:summary", model.CacheTypeSearchResults)
	assert.True(t, ok)
}

func TestCompression_RoundTripsAboveThreshold(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()

	big := make([]byte, 4096)
	for i := range big {
		big[i] = 'a'
	}
	ok := m.Set(ctx, "big", string(big), model.CacheTypeAIProcessing, SetOptions{})
	require.True(t, ok)

	got, ok := m.Get(ctx, "big", model.CacheTypeAIProcessing)
	require.True(t, ok)
	assert.Equal(t, string(big), got)
}

func TestStats_TracksHitsAndMisses(t *testing.T) {
	m := NewManager(testConfig(1 << 20))
	ctx := context.Background()
	m.Set(ctx, "a", "v", model.CacheTypeSearchResults, SetOptions{})

	m.Get(ctx, "a", model.CacheTypeSearchResults)
	m.Get(ctx, "missing", model.CacheTypeSearchResults)

	stats := m.Stats()
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}
