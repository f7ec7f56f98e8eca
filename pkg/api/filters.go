package api

import (
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/search"
)

// parseFilters reads the recognized filter vocabulary (§4.10) from query
// parameters, shared by the GET-based search, aggregation, and listing
// endpoints.
func parseFilters(c *echo.Context) search.Filters {
	f := search.Filters{
		Authorities:      splitCSV(c.QueryParam("authorities")),
		Statuses:         splitCSV(c.QueryParam("statuses")),
		DevelopmentTypes: splitCSV(c.QueryParam("development_types")),
		ApplicationTypes: splitCSV(c.QueryParam("application_types")),
		Decisions:        splitCSV(c.QueryParam("decisions")),
		Postcode:         c.QueryParam("postcode"),
	}
	f.SubmissionDateFrom = c.QueryParam("submission_date_from")
	f.SubmissionDateTo = c.QueryParam("submission_date_to")
	f.DecisionDateFrom = c.QueryParam("decision_date_from")
	f.DecisionDateTo = c.QueryParam("decision_date_to")
	f.OpportunityScoreMin = parseFloatParam(c, "opportunity_score_min")
	f.OpportunityScoreMax = parseFloatParam(c, "opportunity_score_max")
	f.ApprovalProbabilityMin = parseFloatParam(c, "approval_probability_min")
	f.ApprovalProbabilityMax = parseFloatParam(c, "approval_probability_max")
	f.ProjectValueMin = parseFloatParam(c, "project_value_min")
	f.ProjectValueMax = parseFloatParam(c, "project_value_max")
	f.Lat = parseFloatParam(c, "lat")
	f.Lon = parseFloatParam(c, "lon")
	f.RadiusKM = parseFloatParam(c, "radius_km")
	return f
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloatParam(c *echo.Context, name string) *float64 {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntParam(c *echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseBoolParam(c *echo.Context, name string, def bool) bool {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
