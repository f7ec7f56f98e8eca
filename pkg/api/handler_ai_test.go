package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/model"
	"github.com/planning-explorer/core/pkg/queue"
)

func newTestPool() *queue.Pool {
	return queue.NewPool(config.QueueConfig{MaxWorkers: 2}, &fakeApplicationLoader{}, &fakeBatchProcessor{}, nil)
}

func TestBatchScoreHandler(t *testing.T) {
	s := &Server{pool: newTestPool()}

	c, rec := newRecordedContext(http.MethodPost, "/ai/batch-score", strings.NewReader(`{"application_ids":["app-1","app-2"]}`))
	require.NoError(t, s.batchScoreHandler(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
}

func TestBatchScoreHandler_MissingIDs(t *testing.T) {
	s := &Server{pool: newTestPool()}
	c, rec := newRecordedContext(http.MethodPost, "/ai/batch-score", strings.NewReader(`{"application_ids":[]}`))
	require.NoError(t, s.batchScoreHandler(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetTaskHandler(t *testing.T) {
	s := &Server{pool: newTestPool()}
	task := &model.BackgroundTask{TaskID: "task-1", TaskType: "batch_score"}
	s.pool.Enqueue(task)

	c, rec := newRecordedContext(http.MethodGet, "/ai/tasks/task-1", nil)
	c.SetParamNames("id")
	c.SetParamValues("task-1")
	require.NoError(t, s.getTaskHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetTaskHandler_NotFound(t *testing.T) {
	s := &Server{pool: newTestPool()}
	c, rec := newRecordedContext(http.MethodGet, "/ai/tasks/missing", nil)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	require.NoError(t, s.getTaskHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskResultHandler_NotComplete(t *testing.T) {
	s := &Server{pool: newTestPool()}
	s.pool.Enqueue(&model.BackgroundTask{TaskID: "task-2"})

	c, rec := newRecordedContext(http.MethodGet, "/ai/tasks/task-2/result", nil)
	c.SetParamNames("id")
	c.SetParamValues("task-2")
	require.NoError(t, s.getTaskResultHandler(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCancelTaskHandler(t *testing.T) {
	s := &Server{pool: newTestPool()}
	s.pool.Enqueue(&model.BackgroundTask{TaskID: "task-3"})

	c, rec := newRecordedContext(http.MethodDelete, "/ai/tasks/task-3", nil)
	c.SetParamNames("id")
	c.SetParamValues("task-3")
	require.NoError(t, s.cancelTaskHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelTaskHandler_NotCancellable(t *testing.T) {
	s := &Server{pool: newTestPool()}

	c, rec := newRecordedContext(http.MethodDelete, "/ai/tasks/nonexistent", nil)
	c.SetParamNames("id")
	c.SetParamValues("nonexistent")
	require.NoError(t, s.cancelTaskHandler(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAIServiceStatusHandler(t *testing.T) {
	s := &Server{pool: newTestPool()}
	c, rec := newRecordedContext(http.MethodGet, "/ai/service-status", nil)
	require.NoError(t, s.aiServiceStatusHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpportunityScoreHandler(t *testing.T) {
	gw := newTestGateway(t, map[string]map[string]any{"app-1": rawApp("app-1", nil)})
	s := &Server{gateway: gw, orchestrator: newTestOrchestrator(t)}

	c, rec := newRecordedContext(http.MethodPost, "/ai/opportunity-score", strings.NewReader(`{"application_id":"app-1"}`))
	require.NoError(t, s.opportunityScoreHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpportunityScoreHandler_MissingApplicationID(t *testing.T) {
	s := &Server{}
	c, rec := newRecordedContext(http.MethodPost, "/ai/opportunity-score", strings.NewReader(`{}`))
	require.NoError(t, s.opportunityScoreHandler(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAIInsightsHandler(t *testing.T) {
	gw := newTestGateway(t, map[string]map[string]any{"app-1": rawApp("app-1", nil)})
	s := &Server{gateway: gw, orchestrator: newTestOrchestrator(t)}

	c, rec := newRecordedContext(http.MethodGet, "/ai/insights?application_id=app-1", nil)
	require.NoError(t, s.aiInsightsHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
