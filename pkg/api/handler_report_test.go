package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/cache"
	"github.com/planning-explorer/core/pkg/capabilities/market"
	"github.com/planning-explorer/core/pkg/capabilities/scoring"
	"github.com/planning-explorer/core/pkg/capabilities/summarize"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/orchestrator"
)

func newTestOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	scorer := &fakeScorer{result: &scoring.Result{OpportunityScore: 70, ApprovalProbability: 0.8}}
	summarizer := &fakeSummarizer{result: &summarize.Result{Summary: "a new residential scheme"}}
	embedder := &fakeEmbedder{result: &embedding.Result{Embedding: []float32{0.1, 0.2}}}
	marketAnalyzer := &fakeMarketAnalyzer{result: &market.Report{MarketOverview: "steady demand"}}
	cacheMgr := cache.NewManager(config.CacheConfig{})
	return orchestrator.New(scorer, summarizer, embedder, marketAnalyzer, cacheMgr)
}

func TestReportHandler(t *testing.T) {
	gw := newTestGateway(t, map[string]map[string]any{
		"app-1": rawApp("app-1", nil),
	})
	searchSvc := newTestSearchService(&fakeGateway{searchResult: &esgateway.SearchResult{
		Hits: []json.RawMessage{hitJSON(t, "app-2")},
	}}, nil, nil)

	s := &Server{gateway: gw, search: searchSvc, orchestrator: newTestOrchestrator(t)}

	c, rec := newRecordedContext(http.MethodGet, "/report/app-1", nil)
	c.SetParamNames("application_id")
	c.SetParamValues("app-1")
	require.NoError(t, s.reportHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
}

func TestReportHandler_NotFound(t *testing.T) {
	gw := newTestGateway(t, map[string]map[string]any{})
	s := &Server{gateway: gw}

	c, rec := newRecordedContext(http.MethodGet, "/report/missing", nil)
	c.SetParamNames("application_id")
	c.SetParamValues("missing")
	require.NoError(t, s.reportHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetApplicationHandler(t *testing.T) {
	gw := newTestGateway(t, map[string]map[string]any{
		"app-1": rawApp("app-1", nil),
	})
	s := &Server{gateway: gw}

	c, rec := newRecordedContext(http.MethodGet, "/application?id=app-1", nil)
	require.NoError(t, s.getApplicationHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetApplicationHandler_MissingID(t *testing.T) {
	s := &Server{}
	c, rec := newRecordedContext(http.MethodGet, "/application", nil)
	require.NoError(t, s.getApplicationHandler(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestApplicationHistoryHandler(t *testing.T) {
	gw := newTestGateway(t, map[string]map[string]any{
		"app-1": rawApp("app-1", map[string]any{"submission_date": "2026-01-15T00:00:00Z"}),
	})
	s := &Server{gateway: gw}

	c, rec := newRecordedContext(http.MethodGet, "/applications/app-1/history", nil)
	c.SetParamNames("id")
	c.SetParamValues("app-1")
	require.NoError(t, s.applicationHistoryHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
}
