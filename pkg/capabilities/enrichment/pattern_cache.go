package enrichment

import (
	"net/url"
	"sync"
	"time"
)

// patternCacheTTL is how long a learned host pattern remains valid
// before the unknown-portal strategy falls back to headless rendering
// again (§4.5.5).
const patternCacheTTL = 24 * time.Hour

// PatternCache remembers, per host, that a prior unknown-portal
// extraction produced at least one valid field — so
// subsequent requests to the same host skip the headless browser and
// go straight to a static fetch plus LLM extraction.
//
// Generalizes the teacher's pkg/runbook/cache.go RWMutex lazy-expiry
// cache from single-key GitHub-fetch results to a host-keyed learned
// extraction strategy.
type PatternCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time // host -> expiry
}

// NewPatternCache builds an empty PatternCache.
func NewPatternCache() *PatternCache {
	return &PatternCache{entries: map[string]time.Time{}}
}

// Learned reports whether host has a non-expired learned pattern.
func (c *PatternCache) Learned(host string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry, ok := c.entries[host]
	if !ok {
		return false
	}
	return time.Now().Before(expiry)
}

// Learn records that host's unknown-portal extraction produced at
// least one valid field.
func (c *PatternCache) Learn(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[host] = time.Now().Add(patternCacheTTL)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
