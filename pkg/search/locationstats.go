package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/cache"
	"github.com/planning-explorer/core/pkg/model"
)

const locationStatsTTL = time.Hour

// LocationStats resolves slug against the named-center registry, runs
// the trends-like aggregation set within radiusKM of that center, and
// caches the result by (slug, radius_km, date_from, date_to) for 1h
// (§4.10).
func (s *Service) LocationStats(ctx context.Context, slug string, radiusKM float64, period Period) (*TrendsDashboardResult, error) {
	center, ok := s.centers[slug]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "UNKNOWN_LOCATION", fmt.Sprintf("no registered location for slug %q", slug))
	}

	cacheKey := locationStatsCacheKey(slug, radiusKM, period)
	if s.cache != nil {
		if cached, ok := cache.GetTyped[TrendsDashboardResult](ctx, s.cache, cacheKey, model.CacheTypeSearchResults); ok {
			return &cached, nil
		}
	}

	query := geoDistanceQuery(center, radiusKM, period)
	raw, err := s.gateway.Aggregations(ctx, overviewAndSeriesAggs(trendsTypeField[TrendsAuthorities]), query)
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "LOCATION_STATS_DECODE_FAILED", "decoding location stats aggregations", err)
	}

	result := &TrendsDashboardResult{
		Overview:     extractOverview(decoded),
		MonthlyTrend: extractMonthlyTrend(decoded),
		LeagueTable:  leagueFromCurrentOnly(decoded),
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, *result, model.CacheTypeSearchResults, cache.SetOptions{TTL: locationStatsTTL})
	}
	return result, nil
}

// leagueFromCurrentOnly builds league rows without the trend
// annotation's prior-period comparison query, since LocationStats'
// aggregation tree groups by authority within a radius rather than by
// the dashboard's own scoping dimension and a prior-period geo query
// would double the per-request ES round trips for a field most callers
// don't read from a location page.
func leagueFromCurrentOnly(aggs map[string]any) []LeagueTableEntry {
	buckets := aggBuckets(aggs, "league")
	entries := make([]LeagueTableEntry, 0, len(buckets))
	for _, b := range buckets {
		total := bucketDocCount(b)
		approved := bucketSubDocCount(b, "approved")
		var approvalRate float64
		if total > 0 {
			approvalRate = float64(approved) / float64(total)
		}
		entries = append(entries, LeagueTableEntry{
			Key:             bucketKeyAsString(b),
			Total:           total,
			ApprovalRate:    approvalRate,
			AvgDecisionDays: bucketSubValue(b, "avg_decision_days"),
			Trend:           "flat",
		})
	}
	sortLeagueTableByTotal(entries)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func geoDistanceQuery(center LocationCenter, radiusKM float64, period Period) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"filter": []map[string]any{
				{"geo_distance": map[string]any{
					"distance": fmt.Sprintf("%gkm", radiusKM),
					"location": map[string]any{"lat": center.Lat, "lon": center.Lon},
				}},
				{"range": map[string]any{"submission_date": map[string]any{
					"gte": period.From.UTC().Format(time.RFC3339),
					"lte": period.To.UTC().Format(time.RFC3339),
				}}},
			},
		},
	}
}

func locationStatsCacheKey(slug string, radiusKM float64, period Period) string {
	return fmt.Sprintf("location_stats:%s:%g:%s:%s", slug, radiusKM,
		period.From.UTC().Format(time.RFC3339), period.To.UTC().Format(time.RFC3339))
}
