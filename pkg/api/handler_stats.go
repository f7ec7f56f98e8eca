package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/search"
)

// locationStatsHandler handles GET /stats/locations/{slug}?radius_km=.
func (s *Server) locationStatsHandler(c *echo.Context) error {
	slug := c.Param("slug")
	radiusKM := parseFloatParam(c, "radius_km")
	r := 5.0
	if radiusKM != nil {
		r = *radiusKM
	}

	result, err := s.search.LocationStats(c.Request().Context(), slug, r, parsePeriod(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: result})
}

// trendsHandler handles GET /stats/trends/{type}?period= for type in
// authorities, regions, sectors, agents (§4.10, §6.2).
func (s *Server) trendsHandler(c *echo.Context) error {
	typ := search.TrendsType(c.Param("type"))
	scope := c.QueryParam("scope")

	result, err := s.search.TrendsDashboard(c.Request().Context(), typ, parsePeriod(c), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: result})
}
