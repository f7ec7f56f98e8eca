// Package search implements the Search Service (C10): it compiles
// search requests into Elasticsearch query bodies per the fixed
// mapping table of §4.10, and layers semantic search, natural-language
// search, aggregations, a trends dashboard, and named-location stats on
// top of the same ES Gateway.
//
// Grounded on elastic-elastic-package's esapi query-body construction
// idioms (a pure function building a map[string]any body per request
// shape, kept separate from the transport call) and pkg/cache for
// LocationStats' 1h TTL result cache.
package search

import (
	"time"

	"github.com/planning-explorer/core/pkg/model"
)

// Filters is the recognized filter vocabulary shared by Search,
// Aggregations, and the listing endpoint (§4.10).
type Filters struct {
	Authorities          []string `json:"authorities,omitempty"`
	Statuses              []string `json:"statuses,omitempty"`
	DevelopmentTypes      []string `json:"development_types,omitempty"`
	ApplicationTypes      []string `json:"application_types,omitempty"`
	Decisions             []string `json:"decisions,omitempty"`
	Postcode              string   `json:"postcode,omitempty"`
	SubmissionDateFrom    string   `json:"submission_date_from,omitempty"`
	SubmissionDateTo      string   `json:"submission_date_to,omitempty"`
	DecisionDateFrom      string   `json:"decision_date_from,omitempty"`
	DecisionDateTo        string   `json:"decision_date_to,omitempty"`
	OpportunityScoreMin   *float64 `json:"opportunity_score_min,omitempty"`
	OpportunityScoreMax   *float64 `json:"opportunity_score_max,omitempty"`
	ApprovalProbabilityMin *float64 `json:"approval_probability_min,omitempty"`
	ApprovalProbabilityMax *float64 `json:"approval_probability_max,omitempty"`
	ProjectValueMin       *float64 `json:"project_value_min,omitempty"`
	ProjectValueMax       *float64 `json:"project_value_max,omitempty"`
	Lat                   *float64 `json:"lat,omitempty"`
	Lon                   *float64 `json:"lon,omitempty"`
	RadiusKM              *float64 `json:"radius_km,omitempty"`
}

// SortField is a recognized sort_by value (§4.10).
type SortField string

// Recognized sort fields.
const (
	SortRelevance           SortField = "relevance"
	SortSubmissionDate      SortField = "submission_date"
	SortDecisionDate        SortField = "decision_date"
	SortOpportunityScore    SortField = "opportunity_score"
	SortApprovalProbability SortField = "approval_probability"
	SortProjectValue        SortField = "project_value"
)

// SortOrder is asc or desc.
type SortOrder string

// Recognized sort orders.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Request is a compiled-search request per §4.10's mapping table.
type Request struct {
	Query            string    `json:"query,omitempty"`
	Filters          Filters   `json:"filters"`
	SortBy           SortField `json:"sort_by,omitempty"`
	SortOrder        SortOrder `json:"sort_order,omitempty"`
	Page             int       `json:"page,omitempty"`
	PageSize         int       `json:"page_size,omitempty"`
	IncludeAIFields  bool      `json:"include_ai_fields"`
}

// Result is one page of search results, shaped identically whether
// produced by text search, semantic search, or natural-language search.
type Result struct {
	Hits       []Hit `json:"hits"`
	TotalHits  int64 `json:"total_hits"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

// Hit is one matched application, optionally carrying a semantic
// similarity score.
type Hit struct {
	Application     model.PlanningApplication `json:"application"`
	SimilarityScore *float64                  `json:"similarity_score,omitempty"`
}

// LocationCenter is a named geographic center resolvable by slug for
// LocationStats (§4.10).
type LocationCenter struct {
	Slug string
	Name string
	Lat  float64
	Lon  float64
}

// TrendsType is a recognized TrendsDashboard grouping dimension.
type TrendsType string

// Recognized trends dashboard types.
const (
	TrendsAuthorities TrendsType = "authorities"
	TrendsRegions     TrendsType = "regions"
	TrendsSectors     TrendsType = "sectors"
	TrendsAgents      TrendsType = "agents"
)

// trendsTypeField maps a TrendsType to the keyword field it groups by.
var trendsTypeField = map[TrendsType]string{
	TrendsAuthorities: "authority",
	TrendsRegions:     "ward",
	TrendsSectors:     "development_type",
	TrendsAgents:      "agent.name",
}

// TrendsOverview summarizes the full scope before breaking it down
// (§4.10).
type TrendsOverview struct {
	Total          int64   `json:"total"`
	ApprovalRate   float64 `json:"approval_rate"`
	AvgDecisionDays float64 `json:"avg_decision_days"`
	ActiveCount    int64   `json:"active_count"`
}

// MonthlyTrendPoint is one month in TrendsDashboard's monthly_trend
// series.
type MonthlyTrendPoint struct {
	Month    string `json:"month"`
	Total    int64  `json:"total"`
	Approved int64  `json:"approved"`
	Rejected int64  `json:"rejected"`
	Pending  int64  `json:"pending"`
}

// LeagueTableEntry is one ranked row in TrendsDashboard's league_table
// (§4.10).
type LeagueTableEntry struct {
	Key             string  `json:"key"`
	Total           int64   `json:"total"`
	ApprovalRate    float64 `json:"approval_rate"`
	AvgDecisionDays float64 `json:"avg_decision_days"`
	Rank            int     `json:"rank"`
	Trend           string  `json:"trend"`
}

// TrendsDashboardResult is the full TrendsDashboard response (§4.10).
type TrendsDashboardResult struct {
	Overview     TrendsOverview      `json:"overview"`
	MonthlyTrend []MonthlyTrendPoint `json:"monthly_trend"`
	LeagueTable  []LeagueTableEntry  `json:"league_table"`
}

// Period bounds a trends/location-stats query to a date range.
type Period struct {
	From time.Time
	To   time.Time
}
