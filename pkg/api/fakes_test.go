package api

import (
	"context"
	"encoding/json"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/capabilities/market"
	"github.com/planning-explorer/core/pkg/capabilities/nlpquery"
	"github.com/planning-explorer/core/pkg/capabilities/scoring"
	"github.com/planning-explorer/core/pkg/capabilities/summarize"
	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/model"
)

// fakeGateway structurally satisfies search's unexported esSearcher
// interface: Go checks method sets, not declared names, so a type in
// this package can stand in for it without importing anything private.
type fakeGateway struct {
	searchResult *esgateway.SearchResult
	knnResult    *esgateway.SearchResult
	aggsResult   json.RawMessage
	err          error
}

func (f *fakeGateway) Search(ctx context.Context, query map[string]any, sort []map[string]string, from, size int, sourceFields []string) (*esgateway.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchResult, nil
}

func (f *fakeGateway) KnnSearch(ctx context.Context, field string, vector []float32, k, numCandidates int, filter map[string]any) (*esgateway.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.knnResult, nil
}

func (f *fakeGateway) Aggregations(ctx context.Context, aggs map[string]any, query map[string]any) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.aggsResult, nil
}

// fakeEmbedder structurally satisfies both search's embedder and
// orchestrator's Embedder interfaces.
type fakeEmbedder struct {
	result *embedding.Result
	err    error
}

func (f *fakeEmbedder) GenerateTextEmbedding(ctx context.Context, text string) (*embedding.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEmbedder) GenerateApplicationEmbedding(ctx context.Context, app *model.PlanningApplication, t embedding.TextType) (*embedding.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeParser structurally satisfies search's unexported parser
// interface.
type fakeParser struct {
	result *nlpquery.ParsedQuery
	err    error
}

func (f *fakeParser) Parse(ctx context.Context, query string) (*nlpquery.ParsedQuery, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeScorer structurally satisfies orchestrator's Scorer interface.
type fakeScorer struct {
	result *scoring.Result
	err    error
}

func (f *fakeScorer) Score(ctx context.Context, app *model.PlanningApplication) (*scoring.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeSummarizer structurally satisfies orchestrator's Summarizer
// interface.
type fakeSummarizer struct {
	result *summarize.Result
	err    error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, app *model.PlanningApplication, summaryType summarize.SummaryType, length summarize.SummaryLength) (*summarize.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeMarketAnalyzer structurally satisfies orchestrator's
// MarketAnalyzer interface.
type fakeMarketAnalyzer struct {
	result *market.Report
	err    error
}

func (f *fakeMarketAnalyzer) Analyze(ctx context.Context, apps []*model.PlanningApplication, period market.AnalysisPeriod, geoScope string) (*market.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeApplicationLoader structurally satisfies queue's
// ApplicationLoader interface.
type fakeApplicationLoader struct {
	apps map[string]*model.PlanningApplication
}

func (f *fakeApplicationLoader) LoadApplications(ctx context.Context, ids []string) ([]*model.PlanningApplication, error) {
	out := make([]*model.PlanningApplication, 0, len(ids))
	for _, id := range ids {
		app, ok := f.apps[id]
		if !ok {
			return nil, apperrors.ErrNotFound
		}
		out = append(out, app)
	}
	return out, nil
}

// fakeBatchProcessor structurally satisfies queue's BatchProcessor
// interface. It is never invoked by the handler tests here (they only
// exercise enqueue/status endpoints, not a running worker pool), but it
// is required to build a *queue.Pool.
type fakeBatchProcessor struct{}

func (f *fakeBatchProcessor) ProcessBatch(ctx context.Context, apps []*model.PlanningApplication, mode model.ProcessingMode, features []model.Feature, maxConcurrent int) (*model.BatchProcessingResult, error) {
	return &model.BatchProcessingResult{}, nil
}
