package esgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/planning-explorer/core/pkg/apperrors"
)

// SearchResult is the shape every query operation here returns: raw hits
// plus whatever aggregations the query requested.
type SearchResult struct {
	TotalHits    int64             `json:"total_hits"`
	Hits         []json.RawMessage `json:"hits"`
	Scores       []float64         `json:"scores,omitempty"`
	Aggregations json.RawMessage   `json:"aggregations,omitempty"`
}

type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
			Sort   []any           `json:"sort,omitempty"`
			Score  *float64        `json:"_score,omitempty"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
}

// Search runs a compiled ES query and returns hits plus any requested
// aggregations. sourceFields, when non-empty, restricts _source to those
// fields (used to strip AI/vector fields from responses).
func (g *Gateway) Search(ctx context.Context, query map[string]any, sort []map[string]string, from, size int, sourceFields []string) (*SearchResult, error) {
	body := map[string]any{
		"query": query,
		"from":  from,
		"size":  size,
	}
	if len(sort) > 0 {
		body["sort"] = sort
	}
	if len(sourceFields) > 0 {
		body["_source"] = sourceFields
	}
	return g.rawSearch(ctx, body)
}

// KnnSearch runs a kNN query against a dense_vector field, scored by
// cosine similarity (the field's similarity function is set at mapping
// time — see the index contract).
func (g *Gateway) KnnSearch(ctx context.Context, field string, vector []float32, k, numCandidates int, filter map[string]any) (*SearchResult, error) {
	knn := map[string]any{
		"field":          field,
		"query_vector":   vector,
		"k":              k,
		"num_candidates": numCandidates,
	}
	if filter != nil {
		knn["filter"] = filter
	}
	body := map[string]any{
		"knn":  knn,
		"size": k,
	}
	return g.rawSearch(ctx, body)
}

// Aggregations runs a query for its aggregation tree only; hits are
// requested with size 0 since only the agg tree is needed.
func (g *Gateway) Aggregations(ctx context.Context, aggs map[string]any, query map[string]any) (json.RawMessage, error) {
	if query == nil {
		query = map[string]any{"match_all": map[string]any{}}
	}
	body := map[string]any{
		"query": query,
		"aggs":  aggs,
		"size":  0,
	}
	result, err := g.rawSearch(ctx, body)
	if err != nil {
		return nil, err
	}
	return result.Aggregations, nil
}

// Count returns the number of documents matching query (match_all when
// query is nil).
func (g *Gateway) Count(ctx context.Context, query map[string]any) (int64, error) {
	if query == nil {
		query = map[string]any{"match_all": map[string]any{}}
	}
	body, err := json.Marshal(map[string]any{"query": query})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindInternal, "ES_MARSHAL_FAILED", "marshaling count query", err)
	}

	resp, err := g.Client.Count(
		g.Client.Count.WithContext(ctx),
		g.Client.Count.WithIndex(g.index),
		g.Client.Count.WithBody(bytes.NewReader(body)),
	)
	var raw struct {
		Count int64 `json:"count"`
	}
	if decErr := decodeResponse(resp, err, &raw); decErr != nil {
		return 0, decErr
	}
	return raw.Count, nil
}

// Scroll opens a scroll context and returns the first page plus a
// scroll_id for ScrollNext. keepAlive is how long ES should keep the
// scroll context alive between pages (e.g. time.Minute).
func (g *Gateway) Scroll(ctx context.Context, query map[string]any, keepAlive time.Duration, size int) (*SearchResult, string, error) {
	body, err := json.Marshal(map[string]any{"query": query, "size": size})
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.KindInternal, "ES_MARSHAL_FAILED", "marshaling scroll query", err)
	}

	resp, err := g.Client.Search(
		g.Client.Search.WithContext(ctx),
		g.Client.Search.WithIndex(g.index),
		g.Client.Search.WithBody(bytes.NewReader(body)),
		g.Client.Search.WithScroll(keepAlive),
	)

	var raw struct {
		ScrollID string `json:"_scroll_id"`
		esSearchResponse
	}
	if decErr := decodeResponse(resp, err, &raw); decErr != nil {
		return nil, "", decErr
	}
	return toSearchResult(raw.esSearchResponse), raw.ScrollID, nil
}

// ScrollNext advances an open scroll context and returns the next page.
// An empty Hits slice signals the scroll is exhausted; callers should
// then call ClearScroll.
func (g *Gateway) ScrollNext(ctx context.Context, scrollID string, keepAlive time.Duration) (*SearchResult, string, error) {
	resp, err := g.Client.Scroll(
		g.Client.Scroll.WithContext(ctx),
		g.Client.Scroll.WithScrollID(scrollID),
		g.Client.Scroll.WithScroll(keepAlive),
	)

	var raw struct {
		ScrollID string `json:"_scroll_id"`
		esSearchResponse
	}
	if decErr := decodeResponse(resp, err, &raw); decErr != nil {
		return nil, "", decErr
	}
	return toSearchResult(raw.esSearchResponse), raw.ScrollID, nil
}

// ClearScroll releases a scroll context early, freeing cluster resources
// before its keep-alive would otherwise expire it.
func (g *Gateway) ClearScroll(ctx context.Context, scrollID string) error {
	resp, err := g.Client.ClearScroll(
		g.Client.ClearScroll.WithContext(ctx),
		g.Client.ClearScroll.WithScrollID(scrollID),
	)
	return decodeResponse(resp, err, nil)
}

// SearchAfter pages through a large result set using search_after rather
// than from/size, avoiding the ES deep-pagination penalty. cursor is the
// sort-value tuple from the last hit of the previous page, or nil for
// the first page.
func (g *Gateway) SearchAfter(ctx context.Context, query map[string]any, sort []map[string]string, size int, cursor []any) (*SearchResult, error) {
	body := map[string]any{
		"query": query,
		"sort":  sort,
		"size":  size,
	}
	if len(cursor) > 0 {
		body["search_after"] = cursor
	}
	return g.rawSearch(ctx, body)
}

func (g *Gateway) rawSearch(ctx context.Context, body map[string]any) (*SearchResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "ES_MARSHAL_FAILED", "marshaling search body", err)
	}

	resp, err := g.Client.Search(
		g.Client.Search.WithContext(ctx),
		g.Client.Search.WithIndex(g.index),
		g.Client.Search.WithBody(bytes.NewReader(payload)),
	)

	var raw esSearchResponse
	if decErr := decodeResponse(resp, err, &raw); decErr != nil {
		return nil, decErr
	}
	return toSearchResult(raw), nil
}

func toSearchResult(raw esSearchResponse) *SearchResult {
	hits := make([]json.RawMessage, 0, len(raw.Hits.Hits))
	scores := make([]float64, 0, len(raw.Hits.Hits))
	haveScores := false
	for _, h := range raw.Hits.Hits {
		hits = append(hits, h.Source)
		if h.Score != nil {
			haveScores = true
			scores = append(scores, *h.Score)
		} else {
			scores = append(scores, 0)
		}
	}
	result := &SearchResult{
		TotalHits:    raw.Hits.Total.Value,
		Hits:         hits,
		Aggregations: raw.Aggregations,
	}
	if haveScores {
		result.Scores = scores
	}
	return result
}
