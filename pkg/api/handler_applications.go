package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/search"
)

// listApplicationsHandler handles GET /applications?... — a filtered
// listing with no free-text query, reusing the Search Service's compiled
// query path (§4.10, §6.2).
func (s *Server) listApplicationsHandler(c *echo.Context) error {
	req := search.Request{
		Filters:         parseFilters(c),
		SortBy:          search.SortField(c.QueryParam("sort_by")),
		SortOrder:       search.SortOrder(c.QueryParam("sort_order")),
		Page:            parseIntParam(c, "page", 1),
		PageSize:        parseIntParam(c, "page_size", 0),
		IncludeAIFields: parseBoolParam(c, "include_ai_fields", false),
	}

	result, err := s.search.Search(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return writeSearchResult(c, result)
}

// getApplicationHandler handles GET /application?id=&include_ai_insights=.
func (s *Server) getApplicationHandler(c *echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return badRequest(c, "MISSING_ID", "id is required")
	}
	includeAI := parseBoolParam(c, "include_ai_insights", true)

	app, err := s.loadApplication(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	search.StripFields(app, includeAI)
	return c.JSON(http.StatusOK, envelope{Success: true, Data: app})
}

// similarApplicationsHandler handles
// GET /applications/{id}/similar?limit=&use_ai_similarity=bool.
//
// When use_ai_similarity is true it re-embeds the source application's
// description and runs a kNN search, matching the semantic-search path
// (§4.10). Otherwise it falls back to a filtered text search scoped to
// the same authority and development type.
func (s *Server) similarApplicationsHandler(c *echo.Context) error {
	id := c.Param("id")
	limit := parseIntParam(c, "limit", 10)
	useAI := parseBoolParam(c, "use_ai_similarity", true)

	app, err := s.loadApplication(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	if useAI {
		result, err := s.search.SemanticSearch(c.Request().Context(), app.Description, limit, nil)
		if err != nil {
			return writeError(c, err)
		}
		result.Hits = excludeSelf(result.Hits, id)
		return writeSearchResult(c, result)
	}

	filters := search.Filters{}
	if app.Authority != "" {
		filters.Authorities = []string{app.Authority}
	}
	if app.DevelopmentType != "" {
		filters.DevelopmentTypes = []string{app.DevelopmentType}
	}
	result, err := s.search.Search(c.Request().Context(), search.Request{Filters: filters, PageSize: limit})
	if err != nil {
		return writeError(c, err)
	}
	result.Hits = excludeSelf(result.Hits, id)
	return writeSearchResult(c, result)
}

func excludeSelf(hits []search.Hit, id string) []search.Hit {
	out := hits[:0]
	for _, h := range hits {
		if h.Application.ApplicationID != id {
			out = append(out, h)
		}
	}
	return out
}

// historyEvent is one entry in the GET /applications/{id}/history
// timeline, derived from the application's lifecycle date fields.
type historyEvent struct {
	Event string `json:"event"`
	Date  string `json:"date"`
}

// applicationHistoryHandler handles GET /applications/{id}/history.
func (s *Server) applicationHistoryHandler(c *echo.Context) error {
	app, err := s.loadApplication(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	var events []historyEvent
	add := func(name string, t *time.Time) {
		if t != nil {
			events = append(events, historyEvent{Event: name, Date: t.Format(time.RFC3339)})
		}
	}
	add("submitted", app.SubmissionDate)
	add("validated", app.ValidationDate)
	add("consultation_started", app.ConsultationStartDate)
	add("consultation_ended", app.ConsultationEndDate)
	add("target_decision", app.TargetDecisionDate)
	add("decided", app.DecisionDate)
	add("appealed", app.AppealDate)

	return c.JSON(http.StatusOK, envelope{Success: true, Data: events})
}

// applicationDocumentsHandler handles GET /applications/{id}/documents.
func (s *Server) applicationDocumentsHandler(c *echo.Context) error {
	app, err := s.loadApplication(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: app.Documents})
}

// applicationConsultationsHandler handles
// GET /applications/{id}/consultations.
func (s *Server) applicationConsultationsHandler(c *echo.Context) error {
	app, err := s.loadApplication(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: app.Consultations})
}
