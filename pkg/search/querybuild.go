package search

import (
	"fmt"
)

// Compile builds an ES query + sort from a Request, following §4.10's
// mapping table exactly: only the listed options are recognized, and an
// empty query text becomes match_all. Field exclusion (vector fields
// always, AI fields when !IncludeAIFields) is applied to decoded hits by
// StripFields rather than via ES _source filtering, since the Gateway's
// Search only exposes an inclusion list.
func Compile(req Request) (query map[string]any, sort []map[string]string) {
	query = compileQuery(req.Query, req.Filters)
	sort = compileSort(req.SortBy, req.SortOrder)
	return query, sort
}

func compileQuery(text string, f Filters) map[string]any {
	must := []map[string]any{}
	if text == "" {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	} else {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query": text,
				"fields": []string{
					"description^2", "proposal^1.5", "address", "ai_summary",
				},
			},
		})
	}

	filter := compileFilters(f)

	boolQuery := map[string]any{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]any{"bool": boolQuery}
}

// compileFilters builds the `filter` clause list from a Filters value.
// SemanticSearch also uses it for its kNN pre-filter.
func compileFilters(f Filters) []map[string]any {
	var filter []map[string]any

	addTerms := func(field string, values []string) {
		if len(values) > 0 {
			filter = append(filter, map[string]any{"terms": map[string]any{field: values}})
		}
	}
	addTerms("authority", f.Authorities)
	addTerms("status", f.Statuses)
	addTerms("development_type", f.DevelopmentTypes)
	addTerms("application_type", f.ApplicationTypes)
	addTerms("decision", f.Decisions)

	if f.Postcode != "" {
		filter = append(filter, map[string]any{"prefix": map[string]any{"postcode": f.Postcode}})
	}

	addDateRange := func(field, from, to string) {
		rng := map[string]any{}
		if from != "" {
			rng["gte"] = from
		}
		if to != "" {
			rng["lte"] = to
		}
		if len(rng) > 0 {
			filter = append(filter, map[string]any{"range": map[string]any{field: rng}})
		}
	}
	addDateRange("submission_date", f.SubmissionDateFrom, f.SubmissionDateTo)
	addDateRange("decision_date", f.DecisionDateFrom, f.DecisionDateTo)

	addNumRange := func(field string, min, max *float64) {
		rng := map[string]any{}
		if min != nil {
			rng["gte"] = *min
		}
		if max != nil {
			rng["lte"] = *max
		}
		if len(rng) > 0 {
			filter = append(filter, map[string]any{"range": map[string]any{field: rng}})
		}
	}
	addNumRange("opportunity_score", f.OpportunityScoreMin, f.OpportunityScoreMax)
	addNumRange("approval_probability", f.ApprovalProbabilityMin, f.ApprovalProbabilityMax)
	addNumRange("project_value", f.ProjectValueMin, f.ProjectValueMax)

	if f.Lat != nil && f.Lon != nil && f.RadiusKM != nil {
		filter = append(filter, map[string]any{
			"geo_distance": map[string]any{
				"distance": fmt.Sprintf("%gkm", *f.RadiusKM),
				"location": map[string]any{"lat": *f.Lat, "lon": *f.Lon},
			},
		})
	}

	return filter
}

func compileSort(by SortField, order SortOrder) []map[string]string {
	if by == "" {
		return nil
	}
	dir := string(OrderDesc)
	if order == OrderAsc {
		dir = string(OrderAsc)
	}

	field := string(by)
	if by == SortRelevance {
		field = "_score"
	}
	return []map[string]string{{field: dir}}
}

func paginationFromSize(page, pageSize, maxPageSize int) (from, size int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return (page - 1) * pageSize, pageSize
}
