package cache

import (
	"sync/atomic"
	"time"

	"github.com/planning-explorer/core/pkg/model"
)

// Stats is a point-in-time snapshot of cache usage (§4.2 "Statistics
// exposed").
type Stats struct {
	TotalRequests int64
	Hits          int64
	Misses        int64
	Evictions     int64
	Bytes         int64
	HitRate       float64
	AvgAccessLatency time.Duration
	PerType       map[model.CacheType]TypeStats
}

// TypeStats breaks the same counters down per cache type.
type TypeStats struct {
	Requests int64
	Hits     int64
	Misses   int64
	Bytes    int64
}

type statCounters struct {
	requests  atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	bytes     atomic.Int64
	latencyNs atomic.Int64
	latencyN  atomic.Int64
}

func (c *statCounters) recordLatency(d time.Duration) {
	c.latencyNs.Add(d.Nanoseconds())
	c.latencyN.Add(1)
}

func (c *statCounters) snapshot() Stats {
	n := c.latencyN.Load()
	var avg time.Duration
	if n > 0 {
		avg = time.Duration(c.latencyNs.Load() / n)
	}
	total := c.requests.Load()
	hits := c.hits.Load()
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		TotalRequests:    total,
		Hits:             hits,
		Misses:           c.misses.Load(),
		Evictions:        c.evictions.Load(),
		Bytes:            c.bytes.Load(),
		HitRate:          hitRate,
		AvgAccessLatency: avg,
	}
}
