package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/model"
	"github.com/planning-explorer/core/pkg/search"
)

// reportResponse is the composite GET /report/{application_id} body:
// the application record, its full AI processing result, and a handful
// of comparable applications for context.
type reportResponse struct {
	Application *model.PlanningApplication `json:"application"`
	Insights    *model.ProcessingResult    `json:"insights"`
	Comparables []search.Hit               `json:"comparables"`
}

const reportComparableCount = 5

// reportHandler handles GET /report/{application_id}, combining the
// application's detail, a standard-mode AI processing pass, and
// comparable applications drawn from the Search Service — mirroring the
// AI Orchestrator's single-application pipeline plus a Search Service
// lookup rather than inventing a new aggregation path.
func (s *Server) reportHandler(c *echo.Context) error {
	id := c.Param("application_id")
	if id == "" {
		return badRequest(c, "MISSING_APPLICATION_ID", "application_id is required")
	}

	app, err := s.loadApplication(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	insights, err := s.orchestrator.ProcessApplication(c.Request().Context(), app, model.ModeStandard, nil)
	if err != nil {
		return writeError(c, err)
	}

	filters := search.Filters{}
	if app.Authority != "" {
		filters.Authorities = []string{app.Authority}
	}
	if app.DevelopmentType != "" {
		filters.DevelopmentTypes = []string{app.DevelopmentType}
	}
	comparables, err := s.search.Search(c.Request().Context(), search.Request{Filters: filters, PageSize: reportComparableCount})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Data: reportResponse{
		Application: app,
		Insights:    insights,
		Comparables: excludeSelf(comparables.Hits, id),
	}})
}
