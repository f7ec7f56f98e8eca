package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planning-explorer/core/pkg/apperrors"
)

var approvedLikeDecisions = []string{"approved"}
var decidedDecisions = []string{"approved", "refused", "withdrawn", "split_decision"}
var activeStatuses = []string{"submitted", "validated", "under_consideration"}

const leagueTableSize = 20

// TrendsDashboard produces {overview, monthly_trend, league_table} for
// one of the recognized grouping dimensions, scoped to period and
// optionally narrowed to a single key within that dimension (§4.10).
func (s *Service) TrendsDashboard(ctx context.Context, typ TrendsType, period Period, scope string) (*TrendsDashboardResult, error) {
	field, ok := trendsTypeField[typ]
	if !ok {
		return nil, apperrors.New(apperrors.KindValidation, "UNKNOWN_TRENDS_TYPE", fmt.Sprintf("unrecognized trends type %q", typ))
	}

	query := scopedQuery(period, field, scope)
	raw, err := s.gateway.Aggregations(ctx, overviewAndSeriesAggs(field), query)
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "TRENDS_DECODE_FAILED", "decoding trends aggregations", err)
	}

	overview := extractOverview(decoded)
	monthly := extractMonthlyTrend(decoded)
	league, err := s.extractLeagueTableWithTrend(ctx, decoded, period, field, scope)
	if err != nil {
		return nil, err
	}

	return &TrendsDashboardResult{Overview: overview, MonthlyTrend: monthly, LeagueTable: league}, nil
}

func scopedQuery(period Period, field, scope string) map[string]any {
	filter := []map[string]any{
		{"range": map[string]any{"submission_date": map[string]any{
			"gte": period.From.UTC().Format(time.RFC3339),
			"lte": period.To.UTC().Format(time.RFC3339),
		}}},
	}
	if scope != "" {
		filter = append(filter, map[string]any{"term": map[string]any{field: scope}})
	}
	return map[string]any{"bool": map[string]any{"filter": filter}}
}

func overviewAndSeriesAggs(leagueField string) map[string]any {
	return map[string]any{
		"scope_total":   map[string]any{"filter": map[string]any{"match_all": map[string]any{}}},
		"approved_count": map[string]any{"filter": map[string]any{"terms": map[string]any{"decision": approvedLikeDecisions}}},
		"decided_count": map[string]any{"filter": map[string]any{"terms": map[string]any{"decision": decidedDecisions}}},
		"avg_decision_days": map[string]any{"avg": map[string]any{"field": "decision_days"}},
		"active_count": map[string]any{"filter": map[string]any{"terms": map[string]any{"status": activeStatuses}}},
		"monthly": map[string]any{
			"date_histogram": map[string]any{"field": "submission_date", "calendar_interval": "month"},
			"aggs": map[string]any{
				"approved": map[string]any{"filter": map[string]any{"term": map[string]any{"decision": "approved"}}},
				"rejected": map[string]any{"filter": map[string]any{"term": map[string]any{"decision": "refused"}}},
				"pending":  map[string]any{"filter": map[string]any{"bool": map[string]any{"must_not": map[string]any{"exists": map[string]any{"field": "decision"}}}}},
			},
		},
		"league": map[string]any{
			"terms": map[string]any{"field": leagueField, "size": leagueTableSize},
			"aggs": map[string]any{
				"approved":          map[string]any{"filter": map[string]any{"term": map[string]any{"decision": "approved"}}},
				"avg_decision_days": map[string]any{"avg": map[string]any{"field": "decision_days"}},
			},
		},
	}
}

func extractOverview(aggs map[string]any) TrendsOverview {
	total := aggDocCount(aggs, "scope_total")
	approved := aggDocCount(aggs, "approved_count")
	decided := aggDocCount(aggs, "decided_count")

	var approvalRate float64
	if decided > 0 {
		approvalRate = float64(approved) / float64(decided)
	}

	return TrendsOverview{
		Total:           total,
		ApprovalRate:    approvalRate,
		AvgDecisionDays: aggValue(aggs, "avg_decision_days"),
		ActiveCount:     aggDocCount(aggs, "active_count"),
	}
}

func extractMonthlyTrend(aggs map[string]any) []MonthlyTrendPoint {
	buckets := aggBuckets(aggs, "monthly")
	points := make([]MonthlyTrendPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, MonthlyTrendPoint{
			Month:    bucketKeyAsString(b),
			Total:    bucketDocCount(b),
			Approved: bucketSubDocCount(b, "approved"),
			Rejected: bucketSubDocCount(b, "rejected"),
			Pending:  bucketSubDocCount(b, "pending"),
		})
	}
	return points
}

// extractLeagueTableWithTrend builds the league table from the current
// period's aggregation and annotates each row with a rank (by total
// descending) and a trend computed against the equivalent-length
// preceding period's volume for the same key.
func (s *Service) extractLeagueTableWithTrend(ctx context.Context, currentAggs map[string]any, period Period, field, scope string) ([]LeagueTableEntry, error) {
	buckets := aggBuckets(currentAggs, "league")

	prevPeriod := precedingPeriod(period)
	prevQuery := scopedQuery(prevPeriod, field, scope)
	prevRaw, err := s.gateway.Aggregations(ctx, map[string]any{
		"league": map[string]any{"terms": map[string]any{"field": field, "size": leagueTableSize}},
	}, prevQuery)
	if err != nil {
		return nil, err
	}
	var prevDecoded map[string]any
	if err := json.Unmarshal(prevRaw, &prevDecoded); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "TRENDS_DECODE_FAILED", "decoding prior-period league table", err)
	}
	prevCounts := map[string]int64{}
	for _, b := range aggBuckets(prevDecoded, "league") {
		prevCounts[bucketKeyAsString(b)] = bucketDocCount(b)
	}

	entries := make([]LeagueTableEntry, 0, len(buckets))
	for _, b := range buckets {
		key := bucketKeyAsString(b)
		total := bucketDocCount(b)
		approved := bucketSubDocCount(b, "approved")

		var approvalRate float64
		if total > 0 {
			approvalRate = float64(approved) / float64(total)
		}

		entries = append(entries, LeagueTableEntry{
			Key:             key,
			Total:           total,
			ApprovalRate:    approvalRate,
			AvgDecisionDays: bucketSubValue(b, "avg_decision_days"),
			Trend:           trendLabel(total, prevCounts[key]),
		})
	}

	sortLeagueTableByTotal(entries)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func trendLabel(current, previous int64) string {
	switch {
	case previous == 0 && current == 0:
		return "flat"
	case previous == 0:
		return "up"
	case current > previous:
		return "up"
	case current < previous:
		return "down"
	default:
		return "flat"
	}
}

func precedingPeriod(period Period) Period {
	duration := period.To.Sub(period.From)
	return Period{From: period.From.Add(-duration), To: period.From}
}

func sortLeagueTableByTotal(entries []LeagueTableEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Total > entries[j-1].Total; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
