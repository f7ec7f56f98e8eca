// Package cache implements the tiered, type-aware in-process cache
// described in §4.2: per-type TTL/compression/level policy, bounded
// total memory with priority eviction, and a background expiry
// sweeper.
//
// Grounded on the teacher's pkg/runbook/cache.go (RWMutex bucket, lazy
// expiry re-checked under write lock); the background expiry sweep
// runs on pkg/cleanup.Scheduler.
package cache

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/planning-explorer/core/pkg/cleanup"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/model"
)

// bucket holds every entry for one cache type behind its own lock, so
// eviction or invalidation of one type never contends with another
// (§4.2 "all mutation serialized per-bucket lock").
type bucket struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Manager is the Cache Manager (C2).
type Manager struct {
	cfg        config.CacheConfig
	buckets    map[model.CacheType]*bucket
	compressor *compressor
	stats      statCounters
	typeStats  map[model.CacheType]*statCounters

	usedBytes     int64
	typeUsedBytes map[model.CacheType]int64
	usedMu        sync.Mutex

	sched *cleanup.Scheduler
}

// NewManager builds a Manager from configuration. Call Start to launch
// the background expiry sweeper.
func NewManager(cfg config.CacheConfig) *Manager {
	m := &Manager{
		cfg:           cfg,
		buckets:       make(map[model.CacheType]*bucket),
		compressor:    newCompressor(),
		typeStats:     make(map[model.CacheType]*statCounters),
		typeUsedBytes: make(map[model.CacheType]int64),
	}
	for _, t := range []model.CacheType{
		model.CacheTypeAIProcessing, model.CacheTypeSearchResults, model.CacheTypeApplication,
		model.CacheTypeEmbeddings, model.CacheTypeMarketInsights, model.CacheTypeUserSessions,
	} {
		m.buckets[t] = &bucket{entries: make(map[string]*entry)}
		m.typeStats[t] = &statCounters{}
	}
	return m
}

// Start launches the background sweeper that removes expired entries
// every cleanup_interval_minutes.
func (m *Manager) Start(ctx context.Context) {
	interval := time.Duration(m.cfg.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	m.sched = cleanup.NewScheduler(cleanup.Job{
		Name:     "cache-expiry-sweep",
		Interval: interval,
		Run:      func(ctx context.Context) { m.sweepExpired() },
	})
	m.sched.Start(ctx)
	slog.Info("Cache manager started", "cleanup_interval_minutes", m.cfg.CleanupIntervalMinutes)
}

// Stop halts the sweeper and waits for it to exit.
func (m *Manager) Stop() {
	if m.sched == nil {
		return
	}
	m.sched.Stop()
	slog.Info("Cache manager stopped")
}

func (m *Manager) sweepExpired() {
	now := time.Now()
	var removed int
	for t, b := range m.buckets {
		b.mu.Lock()
		for k, e := range b.entries {
			if e.expired(now) {
				delete(b.entries, k)
				m.releaseBytes(t, e.sizeBytes)
				removed++
			}
		}
		b.mu.Unlock()
	}
	if removed > 0 {
		slog.Info("Cache sweep removed expired entries", "count", removed)
	}
}

// Get looks up key under typ. On hit, access_count and last_accessed are
// updated without taking the bucket's write lock (§4.2). Expired entries
// are deleted lazily, matching the teacher's runbook cache.
func (m *Manager) Get(ctx context.Context, key string, typ model.CacheType) (any, bool) {
	start := time.Now()
	m.stats.requests.Add(1)
	ts := m.typeStats[typ]
	if ts != nil {
		ts.requests.Add(1)
	}

	b := m.buckets[typ]
	if b == nil {
		m.recordMiss(ts, start)
		return nil, false
	}

	nk := namespacedKey(typ, key)
	b.mu.RLock()
	e, ok := b.entries[nk]
	b.mu.RUnlock()

	if !ok {
		m.recordMiss(ts, start)
		return nil, false
	}

	now := time.Now()
	if e.expired(now) {
		b.mu.Lock()
		if current, stillThere := b.entries[nk]; stillThere && current.expired(now) {
			delete(b.entries, nk)
			m.releaseBytes(typ, current.sizeBytes)
		}
		b.mu.Unlock()
		m.recordMiss(ts, start)
		return nil, false
	}

	e.touch(now)
	raw := e.data
	if e.compressed {
		decompressed, err := m.compressor.decompress(ctx, raw)
		if err != nil {
			slog.Error("Cache decompression failed", "key", nk, "error", err)
			m.recordMiss(ts, start)
			return nil, false
		}
		raw = decompressed
	}

	value, err := decodeValue(raw)
	if err != nil {
		slog.Error("Cache value decode failed", "key", nk, "error", err)
		m.recordMiss(ts, start)
		return nil, false
	}

	m.stats.hits.Add(1)
	if ts != nil {
		ts.hits.Add(1)
	}
	m.stats.recordLatency(time.Since(start))
	return value, true
}

func (m *Manager) recordMiss(ts *statCounters, start time.Time) {
	m.stats.misses.Add(1)
	if ts != nil {
		ts.misses.Add(1)
	}
	m.stats.recordLatency(time.Since(start))
}

// SetOptions customizes a Set call beyond the type's default policy.
type SetOptions struct {
	TTL      time.Duration
	Level    model.CacheLevel
	Metadata map[string]any
}

// Set stores value under key/typ. Returns false when the value could not
// be stored because insufficient non-critical memory could be freed —
// callers must tolerate the resulting cache miss (§4.2).
func (m *Manager) Set(ctx context.Context, key string, value any, typ model.CacheType, opts SetOptions) bool {
	policy := m.cfg.Types[string(typ)]

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = policy.DefaultTTL
	}
	level := opts.Level
	if level == "" {
		level = model.CacheLevel(policy.DefaultLevel)
	}
	if level == "" {
		level = model.CacheLevelNormal
	}

	raw, err := encodeValue(value)
	if err != nil {
		slog.Error("Cache value encode failed", "key", key, "error", err)
		return false
	}

	compressed := false
	if policy.Compression && len(raw) > m.compressionThreshold() {
		gz, cErr := m.compressor.compress(ctx, raw)
		if cErr == nil {
			raw = gz
			compressed = true
		}
	}

	size := len(raw)
	if !m.ensureCapacity(typ, int64(size)) {
		return false
	}

	e := newEntry(typ, level, raw, compressed, ttl, opts.Metadata)
	nk := namespacedKey(typ, key)

	b := m.buckets[typ]
	if b == nil {
		m.releaseBytes(typ, size)
		return false
	}
	b.mu.Lock()
	if old, existed := b.entries[nk]; existed {
		m.releaseBytes(typ, old.sizeBytes)
	}
	b.entries[nk] = e
	b.mu.Unlock()

	m.stats.bytes.Store(m.usedBytesSnapshot())
	return true
}

func (m *Manager) compressionThreshold() int {
	if m.cfg.CompressionThresholdBytes > 0 {
		return m.cfg.CompressionThresholdBytes
	}
	return 100 * 1024
}

// Delete removes key under typ, if present.
func (m *Manager) Delete(key string, typ model.CacheType) {
	b := m.buckets[typ]
	if b == nil {
		return
	}
	nk := namespacedKey(typ, key)
	b.mu.Lock()
	if e, ok := b.entries[nk]; ok {
		delete(b.entries, nk)
		m.releaseBytes(typ, e.sizeBytes)
	}
	b.mu.Unlock()
}

// InvalidateByType clears every entry of typ.
func (m *Manager) InvalidateByType(typ model.CacheType) int {
	b := m.buckets[typ]
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.entries)
	for _, e := range b.entries {
		m.releaseBytes(typ, e.sizeBytes)
	}
	b.entries = make(map[string]*entry)
	return n
}

// InvalidateByPattern removes every key containing substr, optionally
// scoped to a single type. typ == "" scans every bucket.
func (m *Manager) InvalidateByPattern(substr string, typ model.CacheType) int {
	var removed int
	for t, b := range m.buckets {
		if typ != "" && t != typ {
			continue
		}
		b.mu.Lock()
		for k, e := range b.entries {
			if strings.Contains(k, substr) {
				delete(b.entries, k)
				m.releaseBytes(t, e.sizeBytes)
				removed++
			}
		}
		b.mu.Unlock()
	}
	return removed
}

// Stats returns a snapshot of cache usage counters.
func (m *Manager) Stats() Stats {
	snap := m.stats.snapshot()
	snap.PerType = make(map[model.CacheType]TypeStats, len(m.typeStats))
	for t, ts := range m.typeStats {
		s := ts.snapshot()
		snap.PerType[t] = TypeStats{Requests: s.TotalRequests, Hits: s.Hits, Misses: s.Misses}
	}
	return snap
}

func (m *Manager) usedBytesSnapshot() int64 {
	m.usedMu.Lock()
	defer m.usedMu.Unlock()
	return m.usedBytes
}

func (m *Manager) releaseBytes(typ model.CacheType, n int) {
	m.usedMu.Lock()
	m.usedBytes -= int64(n)
	if m.usedBytes < 0 {
		m.usedBytes = 0
	}
	m.typeUsedBytes[typ] -= int64(n)
	if m.typeUsedBytes[typ] < 0 {
		m.typeUsedBytes[typ] = 0
	}
	m.usedMu.Unlock()
	m.stats.bytes.Store(m.usedBytesSnapshot())
}

func (m *Manager) typeUsedBytesSnapshot(typ model.CacheType) int64 {
	m.usedMu.Lock()
	defer m.usedMu.Unlock()
	return m.typeUsedBytes[typ]
}

// typeShareLimit returns typ's byte budget under its configured
// max_size_share (§4.2), or 0 if the type has no share configured —
// meaning it is bounded only by the global max_memory_bytes.
func (m *Manager) typeShareLimit(typ model.CacheType) int64 {
	policy, ok := m.cfg.Types[string(typ)]
	if !ok || policy.MaxSizeShare <= 0 {
		return 0
	}
	return int64(policy.MaxSizeShare * float64(m.cfg.MaxMemoryBytes))
}

// ensureCapacity reserves n bytes for typ, first evicting typ's own
// non-critical entries if typ is about to exceed its max_size_share
// (§4.2 — keeps one hot type from starving every other type's budget),
// then evicting globally (ascending by level_ordinal, access_count,
// last_accessed) if the reservation would still exceed the total
// budget. Returns false if n still cannot fit after evicting everything
// evictable.
func (m *Manager) ensureCapacity(typ model.CacheType, n int64) bool {
	shareLimit := m.typeShareLimit(typ)

	m.usedMu.Lock()
	fitsShare := shareLimit <= 0 || m.typeUsedBytes[typ]+n <= shareLimit
	fitsTotal := m.usedBytes+n <= m.cfg.MaxMemoryBytes
	if fitsShare && fitsTotal {
		m.usedBytes += n
		m.typeUsedBytes[typ] += n
		m.usedMu.Unlock()
		return true
	}
	m.usedMu.Unlock()

	if shareLimit > 0 {
		if shareNeeded := m.typeUsedBytesSnapshot(typ) + n - shareLimit; shareNeeded > 0 {
			m.evictType(typ, shareNeeded)
		}
	}

	var freed int64
	totalNeeded := m.usedBytesSnapshot() + n - m.cfg.MaxMemoryBytes
	if totalNeeded > 0 {
		freed = m.evict(totalNeeded)
	}

	m.usedMu.Lock()
	defer m.usedMu.Unlock()
	if shareLimit > 0 && m.typeUsedBytes[typ]+n > shareLimit {
		return false
	}
	if m.usedBytes+n > m.cfg.MaxMemoryBytes && freed < totalNeeded {
		return false
	}
	m.usedBytes += n
	m.typeUsedBytes[typ] += n
	return true
}

type evictionCandidate struct {
	typ  model.CacheType
	key  string
	size int
	ord  int
	acc  int64
	last time.Time
}

// evict frees at least `needed` bytes from non-critical entries across
// all buckets, evicting the lowest level/least-recently-used entries
// first. Critical-level entries are never evicted (§4.2 invariant).
func (m *Manager) evict(needed int64) int64 {
	var candidates []evictionCandidate
	for t, b := range m.buckets {
		candidates = append(candidates, bucketCandidates(t, b)...)
	}
	sortCandidates(candidates)
	return m.evictCandidates(candidates, needed)
}

// evictType frees at least `needed` bytes from typ's own non-critical
// entries only, used to bring a type back under its max_size_share
// without touching any other type's entries.
func (m *Manager) evictType(typ model.CacheType, needed int64) int64 {
	b := m.buckets[typ]
	if b == nil {
		return 0
	}
	candidates := bucketCandidates(typ, b)
	sortCandidates(candidates)
	return m.evictCandidates(candidates, needed)
}

func bucketCandidates(typ model.CacheType, b *bucket) []evictionCandidate {
	var candidates []evictionCandidate
	b.mu.RLock()
	for k, e := range b.entries {
		if e.level == model.CacheLevelCritical {
			continue
		}
		candidates = append(candidates, evictionCandidate{
			typ: typ, key: k, size: e.sizeBytes,
			ord: e.level.Ordinal(), acc: e.accessCount.Load(), last: e.lastAccessed(),
		})
	}
	b.mu.RUnlock()
	return candidates
}

func (m *Manager) evictCandidates(candidates []evictionCandidate, needed int64) int64 {
	var freed int64
	for _, c := range candidates {
		if freed >= needed {
			break
		}
		b := m.buckets[c.typ]
		b.mu.Lock()
		if e, ok := b.entries[c.key]; ok {
			delete(b.entries, c.key)
			freed += int64(e.sizeBytes)
			m.releaseBytes(c.typ, e.sizeBytes)
			m.stats.evictions.Add(1)
		}
		b.mu.Unlock()
	}
	return freed
}

// sortCandidates orders ascending by (level_ordinal, access_count,
// last_accessed) — the weakest, coldest entries evict first (§4.2).
func sortCandidates(c []evictionCandidate) {
	sort.Slice(c, func(i, j int) bool {
		a, b := c[i], c[j]
		if a.ord != b.ord {
			return a.ord < b.ord
		}
		if a.acc != b.acc {
			return a.acc < b.acc
		}
		return a.last.Before(b.last)
	})
}
