package search

import (
	"context"
	"encoding/json"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/cache"
	"github.com/planning-explorer/core/pkg/capabilities/nlpquery"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/model"
)

// esSearcher is the subset of *esgateway.Gateway the Search Service
// depends on.
type esSearcher interface {
	Search(ctx context.Context, query map[string]any, sort []map[string]string, from, size int, sourceFields []string) (*esgateway.SearchResult, error)
	KnnSearch(ctx context.Context, field string, vector []float32, k, numCandidates int, filter map[string]any) (*esgateway.SearchResult, error)
	Aggregations(ctx context.Context, aggs map[string]any, query map[string]any) (json.RawMessage, error)
}

// embedder is the subset of *embedding.Service used for SemanticSearch's
// query-text embedding.
type embedder interface {
	GenerateTextEmbedding(ctx context.Context, text string) (*embedding.Result, error)
}

// parser is the subset of *nlpquery.Parser used for NaturalLanguageSearch.
type parser interface {
	Parse(ctx context.Context, query string) (*nlpquery.ParsedQuery, error)
}

// Service is the Search Service (C10).
type Service struct {
	gateway esSearcher
	embed   embedder
	parser  parser
	cache   *cache.Manager
	cfg     config.SearchConfig
	centers map[string]LocationCenter
}

// New builds a Service. centers seeds the named-location registry used
// by LocationStats.
func New(gateway esSearcher, embed embedder, parser parser, cacheMgr *cache.Manager, cfg config.SearchConfig, centers []LocationCenter) *Service {
	byCenter := make(map[string]LocationCenter, len(centers))
	for _, c := range centers {
		byCenter[c.Slug] = c
	}
	return &Service{gateway: gateway, embed: embed, parser: parser, cache: cacheMgr, cfg: cfg, centers: byCenter}
}

func (s *Service) maxPageSize() int {
	if s.cfg.MaxPageSize > 0 {
		return s.cfg.MaxPageSize
	}
	return 100
}

func (s *Service) maxKNN() int {
	if s.cfg.MaxKNN > 0 {
		return s.cfg.MaxKNN
	}
	return 100
}

// Search compiles req per §4.10's mapping table and runs it (text
// search, or match_all when req.Query is empty).
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	query, sort := Compile(req)
	from, size := paginationFromSize(req.Page, req.PageSize, s.maxPageSize())

	esResult, err := s.gateway.Search(ctx, query, sort, from, size, nil)
	if err != nil {
		return nil, err
	}

	hits, err := decodeHits(esResult.Hits, req.IncludeAIFields)
	if err != nil {
		return nil, err
	}

	return &Result{
		Hits:      hits,
		TotalHits: esResult.TotalHits,
		Page:      pageOrDefault(req.Page),
		PageSize:  size,
	}, nil
}

// SemanticSearch embeds query and runs a kNN search against
// description_embedding, attaching a similarity_score per hit (§4.10).
func (s *Service) SemanticSearch(ctx context.Context, query string, k int, filters *Filters) (*Result, error) {
	if k <= 0 || k > s.maxKNN() {
		k = s.maxKNN()
	}

	embedResult, err := s.embed.GenerateTextEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	var filter map[string]any
	if filters != nil {
		if clauses := compileFilters(*filters); len(clauses) > 0 {
			filter = map[string]any{"bool": map[string]any{"filter": clauses}}
		}
	}

	numCandidates := max(100, 10*k)
	esResult, err := s.gateway.KnnSearch(ctx, "description_embedding", embedResult.Embedding, k, numCandidates, filter)
	if err != nil {
		return nil, err
	}

	hits, err := decodeHits(esResult.Hits, false)
	if err != nil {
		return nil, err
	}
	attachSimilarityScores(hits, esResult.Scores)
	return &Result{Hits: hits, TotalHits: esResult.TotalHits, Page: 1, PageSize: k}, nil
}

// attachSimilarityScores copies the Gateway's per-hit _score values
// (positionally aligned with hits, as ES returns them) into each Hit's
// SimilarityScore (§4.10: "return results shaped identically to text
// search, with similarity_score attached per hit").
func attachSimilarityScores(hits []Hit, scores []float64) {
	for i := range hits {
		if i >= len(scores) {
			break
		}
		score := scores[i]
		hits[i].SimilarityScore = &score
	}
}

// NaturalLanguageSearch parses query via the NLP Query Parser; when the
// parsed intent is semantic (analyze/explore) and embeddings are
// available, it runs SemanticSearch, otherwise it runs the compiled ES
// query the parser produced (§4.10).
func (s *Service) NaturalLanguageSearch(ctx context.Context, query string, k int, filters *Filters) (*Result, error) {
	parsed, err := s.parser.Parse(ctx, query)
	if err != nil {
		return nil, err
	}

	if isSemanticIntent(parsed.Intent) && s.embed != nil {
		return s.SemanticSearch(ctx, query, k, filters)
	}

	size := k
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	esResult, err := s.gateway.Search(ctx, parsed.ElasticsearchQuery, nil, 0, size, nil)
	if err != nil {
		return nil, err
	}

	hits, err := decodeHits(esResult.Hits, false)
	if err != nil {
		return nil, err
	}
	return &Result{Hits: hits, TotalHits: esResult.TotalHits, Page: 1, PageSize: size}, nil
}

func isSemanticIntent(intent nlpquery.Intent) bool {
	return intent == nlpquery.IntentAnalyze || intent == nlpquery.IntentExplore
}

// Aggregations runs the pre-declared aggregation tree (top authorities,
// status breakdown, monthly histogram, decision-time percentiles,
// geographic counts) and returns it as-is (§4.10).
func (s *Service) Aggregations(ctx context.Context, filters *Filters) (json.RawMessage, error) {
	query := matchAllOrFiltered(filters)
	return s.gateway.Aggregations(ctx, standardAggregations(), query)
}

func matchAllOrFiltered(filters *Filters) map[string]any {
	if filters == nil {
		return map[string]any{"match_all": map[string]any{}}
	}
	clauses := compileFilters(*filters)
	if len(clauses) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": map[string]any{"filter": clauses}}
}

func decodeHits(raw []json.RawMessage, includeAI bool) ([]Hit, error) {
	hits := make([]Hit, 0, len(raw))
	for _, r := range raw {
		var app model.PlanningApplication
		if err := json.Unmarshal(r, &app); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "SEARCH_DECODE_FAILED", "decoding search hit", err)
		}
		StripFields(&app, includeAI)
		hits = append(hits, Hit{Application: app})
	}
	return hits, nil
}

func pageOrDefault(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
