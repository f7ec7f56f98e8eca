package cache

import (
	"sync/atomic"
	"time"

	"github.com/planning-explorer/core/pkg/model"
)

// entry is one cached value. accessCount and lastAccessedUnixNano are
// updated atomically so a cache hit never has to take a write lock —
// the bucket's RWMutex only guards the map itself (insert/delete),
// mirroring the "Get must be non-blocking in the common path" contract.
type entry struct {
	typ        model.CacheType
	level      model.CacheLevel
	data       []byte
	compressed bool
	sizeBytes  int
	metadata   map[string]any

	createdAt time.Time
	expiresAt time.Time

	accessCount          atomic.Int64
	lastAccessedUnixNano atomic.Int64
}

func newEntry(typ model.CacheType, level model.CacheLevel, data []byte, compressed bool, ttl time.Duration, metadata map[string]any) *entry {
	now := time.Now()
	e := &entry{
		typ:        typ,
		level:      level,
		data:       data,
		compressed: compressed,
		sizeBytes:  len(data),
		metadata:   metadata,
		createdAt:  now,
		expiresAt:  now.Add(ttl),
	}
	e.accessCount.Store(0)
	e.lastAccessedUnixNano.Store(now.UnixNano())
	return e
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

func (e *entry) touch(now time.Time) {
	e.accessCount.Add(1)
	e.lastAccessedUnixNano.Store(now.UnixNano())
}

func (e *entry) lastAccessed() time.Time {
	return time.Unix(0, e.lastAccessedUnixNano.Load())
}

// namespacedKey prefixes a caller key with its type, so the same key
// string used under two different cache types never collides (§4.2:
// "key is namespaced by type").
func namespacedKey(typ model.CacheType, key string) string {
	return string(typ) + ":" + key
}
