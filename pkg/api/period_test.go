package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePeriod_Named(t *testing.T) {
	c := newTestContext(http.MethodGet, "/stats/trends/authorities?period=last_year")
	p := parsePeriod(c)

	assert.WithinDuration(t, time.Now(), p.To, time.Second)
	assert.WithinDuration(t, time.Now().Add(-365*24*time.Hour), p.From, time.Second)
}

func TestParsePeriod_DefaultsToLastMonth(t *testing.T) {
	c := newTestContext(http.MethodGet, "/stats/trends/authorities?period=not_a_period")
	p := parsePeriod(c)

	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), p.From, time.Second)
}

func TestParsePeriod_Missing(t *testing.T) {
	c := newTestContext(http.MethodGet, "/stats/trends/authorities")
	p := parsePeriod(c)

	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), p.From, time.Second)
}
