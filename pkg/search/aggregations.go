package search

// standardAggregations is the pre-declared aggregation tree returned
// as-is by Aggregations (§4.10): top authorities, status breakdown,
// monthly submission histogram, decision-time percentiles, and
// geographic counts by ward.
func standardAggregations() map[string]any {
	return map[string]any{
		"top_authorities": map[string]any{
			"terms": map[string]any{"field": "authority", "size": 20},
		},
		"status_breakdown": map[string]any{
			"terms": map[string]any{"field": "status", "size": 10},
		},
		"monthly_submissions": map[string]any{
			"date_histogram": map[string]any{
				"field":    "submission_date",
				"calendar_interval": "month",
			},
		},
		"decision_time_percentiles": map[string]any{
			"percentiles": map[string]any{
				"field":    "decision_days",
				"percents": []float64{25, 50, 75, 90, 99},
			},
		},
		"geographic_counts": map[string]any{
			"terms": map[string]any{"field": "ward", "size": 50},
		},
	}
}
