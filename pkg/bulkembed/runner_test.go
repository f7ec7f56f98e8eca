package bulkembed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/model"
)

type fakePager struct {
	mu     sync.Mutex
	pages  [][]*model.PlanningApplication
	calls  int
}

func (f *fakePager) SearchAfter(ctx context.Context, query map[string]any, sort []map[string]string, size int, cursor []any) (*esgateway.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.pages) {
		return &esgateway.SearchResult{Hits: nil}, nil
	}
	page := f.pages[f.calls]
	f.calls++
	hits := make([]json.RawMessage, len(page))
	for i, app := range page {
		raw, _ := json.Marshal(app)
		hits[i] = raw
	}
	return &esgateway.SearchResult{TotalHits: int64(len(page)), Hits: hits}, nil
}

type fakeBulkUpdater struct {
	mu       sync.Mutex
	failIDs  map[string]bool
	allOps   []esgateway.BulkOp
}

func (f *fakeBulkUpdater) BulkUpdate(ctx context.Context, ops []esgateway.BulkOp, chunkSize int) (*esgateway.BulkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allOps = append(f.allOps, ops...)
	result := &esgateway.BulkResult{}
	for _, op := range ops {
		if f.failIDs[op.ID] {
			result.Failed++
			result.FailedItems = append(result.FailedItems, esgateway.BulkFailure{ID: op.ID, Reason: "simulated failure"})
			continue
		}
		result.Success++
	}
	return result, nil
}

type fakeRefresher struct {
	called bool
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.called = true
	return nil
}

type fakeBatchEmbedder struct{}

func (f *fakeBatchEmbedder) BatchGenerate(ctx context.Context, texts []string) ([]EmbedResult, error) {
	out := make([]EmbedResult, len(texts))
	for i, t := range texts {
		out[i] = EmbedResult{
			Embedding:  []float32{0.1, 0.2},
			ModelUsed:  "test-model",
			TokenCount: len(t),
			TextHash:   "hash",
		}
	}
	return out, nil
}

func appFixture(id string) *model.PlanningApplication {
	now := time.Now()
	return &model.PlanningApplication{
		ApplicationID:  id,
		Description:    "a planning application description",
		SubmissionDate: &now,
		UpdatedAt:      now,
	}
}

func newTestRunner(t *testing.T, pager Pager, bulk BulkUpdater, refresher Refresher, embedder BatchEmbedder) *Runner {
	t.Helper()
	cfg := config.BulkConfig{
		ESBatchSize:       10,
		APIBatchSize:      2,
		ConcurrentBatches: 2,
		CheckpointEvery:   1,
		CheckpointDir:     t.TempDir(),
	}
	return NewRunner(pager, bulk, refresher, embedder, cfg)
}

func TestRun_FullDiscoveryToWriteFlow(t *testing.T) {
	apps := []*model.PlanningApplication{appFixture("a1"), appFixture("a2"), appFixture("a3")}
	pager := &fakePager{pages: [][]*model.PlanningApplication{apps}}
	bulk := &fakeBulkUpdater{failIDs: map[string]bool{}}
	refresher := &fakeRefresher{}
	runner := newTestRunner(t, pager, bulk, refresher, &fakeBatchEmbedder{})

	report, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, refresher.called)
}

func TestRun_PartialBulkFailureLeavesIDsUnprocessed(t *testing.T) {
	apps := []*model.PlanningApplication{appFixture("a1"), appFixture("a2")}
	pager := &fakePager{pages: [][]*model.PlanningApplication{apps}}
	bulk := &fakeBulkUpdater{failIDs: map[string]bool{"a2": true}}
	runner := newTestRunner(t, pager, bulk, &fakeRefresher{}, &fakeBatchEmbedder{})

	report, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
}

func TestRun_ResumeFromCheckpointSeedsCounters(t *testing.T) {
	apps := []*model.PlanningApplication{appFixture("a3")}
	pager := &fakePager{pages: [][]*model.PlanningApplication{apps}}
	bulk := &fakeBulkUpdater{failIDs: map[string]bool{}}
	runner := newTestRunner(t, pager, bulk, &fakeRefresher{}, &fakeBatchEmbedder{})

	resume := &Checkpoint{
		SuccessCount: 5,
		FailedCount:  1,
		TotalTokens:  100,
		TotalCostUSD: 0.01,
		ProcessedIDs: map[string]bool{"a1": true, "a2": true},
		Cursor:       []any{"2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", "a2"},
	}

	report, err := runner.Run(context.Background(), resume)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
}

func TestRun_CheckpointEveryNTriggersSave(t *testing.T) {
	pageA := []*model.PlanningApplication{appFixture("a1")}
	pageB := []*model.PlanningApplication{appFixture("a2")}
	pager := &fakePager{pages: [][]*model.PlanningApplication{pageA, pageB}}
	bulk := &fakeBulkUpdater{failIDs: map[string]bool{}}

	dir := t.TempDir()
	cfg := config.BulkConfig{
		ESBatchSize:       1,
		APIBatchSize:      2,
		ConcurrentBatches: 2,
		CheckpointEvery:   1,
		CheckpointDir:     dir,
	}
	runner := NewRunner(pager, bulk, &fakeRefresher{}, &fakeBatchEmbedder{}, cfg)

	_, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, checkpointFileName))
	assert.NoError(t, statErr)
}

func TestProcessESBatch_RespectsConcurrentBatchesBound(t *testing.T) {
	apps := make([]*model.PlanningApplication, 10)
	for i := range apps {
		apps[i] = appFixture(string(rune('a' + i)))
	}
	bulk := &fakeBulkUpdater{failIDs: map[string]bool{}}
	cfg := config.BulkConfig{APIBatchSize: 1, ConcurrentBatches: 3}
	runner := NewRunner(&fakePager{}, bulk, &fakeRefresher{}, &fakeBatchEmbedder{}, cfg)

	success, failed, _, _ := runner.processESBatch(context.Background(), apps, map[string]bool{})
	assert.Equal(t, 10, success)
	assert.Equal(t, 0, failed)
}

func TestNextCursor_DerivedFromAppFields(t *testing.T) {
	app := appFixture("final")
	cursor := nextCursor(app)
	require.Len(t, cursor, 3)
	assert.Equal(t, "final", cursor[2])
}

func TestNextCursor_FallsBackWhenSubmissionDateNil(t *testing.T) {
	app := appFixture("no-date")
	app.SubmissionDate = nil
	cursor := nextCursor(app)
	assert.Equal(t, epochFallback, cursor[0])
}
