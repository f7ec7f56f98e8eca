package embedpipeline

import (
	"sync"
	"time"
)

// dailyCostTracker accumulates spend in-process and resets when the
// calendar day rolls over (§4.8 step 1).
type dailyCostTracker struct {
	mu    sync.Mutex
	day   string
	total float64
}

func newDailyCostTracker() *dailyCostTracker {
	return &dailyCostTracker{day: currentDay()}
}

func (c *dailyCostTracker) Add(usd float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += usd
}

func (c *dailyCostTracker) Today() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *dailyCostTracker) ResetIfNewDay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	day := currentDay()
	if day != c.day {
		c.day = day
		c.total = 0
	}
}

func currentDay() string {
	return time.Now().UTC().Format("2006-01-02")
}
