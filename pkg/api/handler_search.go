package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/search"
)

// searchRequest is the POST /search body, matching search.Request's
// public shape (§4.10, §6.2).
type searchRequest struct {
	Query           string          `json:"query"`
	Filters         search.Filters  `json:"filters"`
	SortBy          search.SortField `json:"sort_by"`
	SortOrder       search.SortOrder `json:"sort_order"`
	Page            int             `json:"page"`
	PageSize        int             `json:"page_size"`
	IncludeAIFields bool            `json:"include_ai_fields"`
}

// searchHandler handles POST /search.
func (s *Server) searchHandler(c *echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "INVALID_SEARCH_REQUEST", "request body is not valid JSON")
	}

	result, err := s.search.Search(c.Request().Context(), search.Request{
		Query:           req.Query,
		Filters:         req.Filters,
		SortBy:          req.SortBy,
		SortOrder:       req.SortOrder,
		Page:            req.Page,
		PageSize:        req.PageSize,
		IncludeAIFields: req.IncludeAIFields,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeSearchResult(c, result)
}

// semanticSearchRequest is the POST /search/semantic body (§6.2).
type semanticSearchRequest struct {
	Query   string          `json:"query"`
	K       int             `json:"k"`
	Filters *search.Filters `json:"filters,omitempty"`
}

// semanticSearchHandler handles POST /search/semantic.
func (s *Server) semanticSearchHandler(c *echo.Context) error {
	var req semanticSearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "INVALID_SEARCH_REQUEST", "request body is not valid JSON")
	}
	if req.Query == "" {
		return badRequest(c, "MISSING_QUERY", "query is required")
	}

	result, err := s.search.SemanticSearch(c.Request().Context(), req.Query, req.K, req.Filters)
	if err != nil {
		return writeError(c, err)
	}
	return writeSearchResult(c, result)
}

// naturalLanguageSearchRequest is the POST /search/natural-language body
// (§6.2).
type naturalLanguageSearchRequest struct {
	Query   string          `json:"query"`
	K       int             `json:"k"`
	Filters *search.Filters `json:"filters,omitempty"`
}

// naturalLanguageSearchHandler handles POST /search/natural-language.
func (s *Server) naturalLanguageSearchHandler(c *echo.Context) error {
	var req naturalLanguageSearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "INVALID_SEARCH_REQUEST", "request body is not valid JSON")
	}
	if req.Query == "" {
		return badRequest(c, "MISSING_QUERY", "query is required")
	}

	result, err := s.search.NaturalLanguageSearch(c.Request().Context(), req.Query, req.K, req.Filters)
	if err != nil {
		return writeError(c, err)
	}
	return writeSearchResult(c, result)
}

func writeSearchResult(c *echo.Context, result *search.Result) error {
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    result.Hits,
		Meta:    pageMeta{Page: result.Page, PageSize: result.PageSize, TotalHits: result.TotalHits},
	})
}

// suggestionsHandler handles GET /search/suggestions?q=&limit=.
func (s *Server) suggestionsHandler(c *echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return badRequest(c, "MISSING_QUERY", "q is required")
	}
	limit := parseIntParam(c, "limit", 10)

	result, err := s.search.Suggestions(c.Request().Context(), q, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: result})
}

// aggregationsHandler handles GET
// /aggregations?authorities=&statuses=&development_types=.
func (s *Server) aggregationsHandler(c *echo.Context) error {
	filters := parseFilters(c)
	aggs, err := s.search.Aggregations(c.Request().Context(), &filters)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: aggs})
}
