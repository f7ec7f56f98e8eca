package api

import (
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/search"
)

// namedPeriods maps the market-analysis period vocabulary of §4.6
// ("last_month", "last_quarter", "last_year", "last_2_years") to a
// duration, reused here for the trends/location-stats period= query
// parameter so both surfaces share one vocabulary.
var namedPeriods = map[string]time.Duration{
	"last_month":    30 * 24 * time.Hour,
	"last_quarter":  90 * 24 * time.Hour,
	"last_year":     365 * 24 * time.Hour,
	"last_2_years":  2 * 365 * 24 * time.Hour,
}

// parsePeriod resolves the period= query parameter into a search.Period
// ending now. Unrecognized or empty values default to last_month.
func parsePeriod(c *echo.Context) search.Period {
	now := time.Now()
	duration, ok := namedPeriods[c.QueryParam("period")]
	if !ok {
		duration = namedPeriods["last_month"]
	}
	return search.Period{From: now.Add(-duration), To: now}
}
