package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planning-explorer/core/pkg/apperrors"
)

// Suggestions is the response shape for /search/suggestions: basic
// query-extension suggestions, NLP-derived smart suggestions, and
// authority/development-type completions pulled from Elasticsearch term
// aggregations matching the partial query.
type Suggestions struct {
	Queries          []string `json:"queries"`
	Authorities      []string `json:"authorities"`
	DevelopmentTypes []string `json:"development_types"`
	SmartSuggestions []string `json:"smart_suggestions"`
}

// basicQuerySuffixes are appended to the raw query text to produce
// always-available suggestions, independent of any NLP/ES round trip.
var basicQuerySuffixes = []string{
	"extension", "new build", "residential", "commercial", "approved", "planning permission",
}

// Suggestions returns AI-enhanced and ES-backed search suggestions for a
// partial query (§6.2 GET /search/suggestions).
func (s *Service) Suggestions(ctx context.Context, q string, limit int) (*Suggestions, error) {
	if limit <= 0 {
		limit = 10
	}

	result := &Suggestions{
		Queries:          []string{},
		Authorities:      []string{},
		DevelopmentTypes: []string{},
		SmartSuggestions: []string{},
	}

	if s.parser != nil {
		if parsed, err := s.parser.Parse(ctx, q); err == nil {
			smartLimit := limit / 2
			result.SmartSuggestions = truncate(parsed.Suggestions, smartLimit)
		}
	}

	remaining := limit - len(result.SmartSuggestions)
	result.Queries = truncate(basicQueries(q), remaining)

	authorities, err := s.suggestTerms(ctx, "authority", q, 5)
	if err != nil {
		return nil, err
	}
	result.Authorities = authorities

	devTypes, err := s.suggestTerms(ctx, "development_type", q, 5)
	if err != nil {
		return nil, err
	}
	result.DevelopmentTypes = devTypes

	return result, nil
}

func basicQueries(q string) []string {
	queries := make([]string, len(basicQuerySuffixes))
	for i, suffix := range basicQuerySuffixes {
		queries[i] = fmt.Sprintf("%s %s", q, suffix)
	}
	return queries
}

func (s *Service) suggestTerms(ctx context.Context, field, q string, size int) ([]string, error) {
	aggName := field + "_suggestions"
	aggs := map[string]any{
		aggName: map[string]any{
			"terms": map[string]any{
				"field":   field,
				"include": fmt.Sprintf(".*%s.*", strings.ToLower(q)),
				"size":    size,
			},
		},
	}

	raw, err := s.gateway.Aggregations(ctx, aggs, nil)
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "SUGGESTIONS_DECODE_FAILED", "decoding suggestion aggregations", err)
	}

	buckets := aggBuckets(decoded, aggName)
	terms := make([]string, 0, len(buckets))
	for _, b := range buckets {
		terms = append(terms, bucketKeyAsString(b))
	}
	return terms, nil
}

func truncate(items []string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	if n >= len(items) {
		return items
	}
	return items[:n]
}
