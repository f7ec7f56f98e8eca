package bulkembed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/model"
)

// Runner drives one bulk embedding backfill run (§4.9).
type Runner struct {
	pager       Pager
	bulkUpdater BulkUpdater
	refresher   Refresher
	embedder    BatchEmbedder
	cfg         config.BulkConfig
	checkpoints *checkpointStore
}

// NewRunner builds a Runner.
func NewRunner(pager Pager, bulkUpdater BulkUpdater, refresher Refresher, embedder BatchEmbedder, cfg config.BulkConfig) *Runner {
	return &Runner{
		pager:       pager,
		bulkUpdater: bulkUpdater,
		refresher:   refresher,
		embedder:    embedder,
		cfg:         cfg,
		checkpoints: newCheckpointStore(cfg.CheckpointDir),
	}
}

func (r *Runner) esBatchSize() int {
	if r.cfg.ESBatchSize > 0 {
		return r.cfg.ESBatchSize
	}
	return 1000
}

func (r *Runner) apiBatchSize() int {
	if r.cfg.APIBatchSize > 0 {
		return min(r.cfg.APIBatchSize, 2048)
	}
	return 500
}

func (r *Runner) concurrentBatches() int {
	if r.cfg.ConcurrentBatches > 0 {
		return r.cfg.ConcurrentBatches
	}
	return 5
}

func (r *Runner) checkpointEvery() int {
	if r.cfg.CheckpointEvery > 0 {
		return r.cfg.CheckpointEvery
	}
	return 10
}

// LoadCheckpoint reads a previously saved checkpoint from this runner's
// configured checkpoint directory, returning nil if none exists.
func (r *Runner) LoadCheckpoint() (*Checkpoint, error) {
	return r.checkpoints.Load()
}

// Run executes the full backfill, starting from resume (nil for a
// fresh run). It returns a RunReport summarizing the outcome.
func (r *Runner) Run(ctx context.Context, resume *Checkpoint) (*RunReport, error) {
	startedAt := time.Now()
	var cursor []any
	processedIDs := map[string]bool{}
	var totalSuccess, totalFailed, totalTokens, totalDiscovered int
	var totalCost float64

	if resume != nil {
		cursor = resume.Cursor
		for id := range resume.ProcessedIDs {
			processedIDs[id] = true
		}
		totalSuccess = resume.SuccessCount
		totalFailed = resume.FailedCount
		totalTokens = resume.TotalTokens
		totalCost = resume.TotalCostUSD
	}

	esBatchCount := 0
	for {
		query := discoveryQuery(sortedKeys(processedIDs))
		result, err := r.pager.SearchAfter(ctx, query, sortSpec(), r.esBatchSize(), cursor)
		if err != nil {
			return nil, err
		}
		if len(result.Hits) == 0 {
			break
		}

		apps := make([]*model.PlanningApplication, 0, len(result.Hits))
		for _, raw := range result.Hits {
			var app model.PlanningApplication
			if err := json.Unmarshal(raw, &app); err != nil {
				continue
			}
			apps = append(apps, &app)
		}
		totalDiscovered += len(apps)
		if len(apps) > 0 {
			cursor = nextCursor(apps[len(apps)-1])
		}

		success, failed, tokens, cost := r.processESBatch(ctx, apps, processedIDs)
		totalSuccess += success
		totalFailed += failed
		totalTokens += tokens
		totalCost += cost

		esBatchCount++
		if esBatchCount%r.checkpointEvery() == 0 {
			r.checkpoints.Save(Checkpoint{
				Timestamp:         time.Now(),
				ProcessedCount:    totalSuccess + totalFailed,
				SuccessCount:      totalSuccess,
				FailedCount:       totalFailed,
				TotalTokens:       totalTokens,
				TotalCostUSD:      totalCost,
				ProcessedIDsCount: len(processedIDs),
				Cursor:            cursor,
				ProcessedIDs:      processedIDs,
			})
		}

		if len(result.Hits) < r.esBatchSize() {
			break
		}
	}

	if err := r.refresher.Refresh(ctx); err != nil {
		slog.Warn("final index refresh failed", "error", err)
	}

	report := &RunReport{
		StartedAt:    startedAt,
		FinishedAt:   time.Now(),
		Discovered:   totalDiscovered,
		Succeeded:    totalSuccess,
		Failed:       totalFailed,
		TotalTokens:  totalTokens,
		TotalCostUSD: totalCost,
	}
	report.DurationMS = report.FinishedAt.Sub(report.StartedAt).Milliseconds()
	return report, nil
}

// subBatchOutcome is one sub-batch's result: which application IDs were
// confirmed written (and are therefore "processed", per §4.9's
// invariant), plus aggregate counters.
type subBatchOutcome struct {
	succeededIDs []string
	failed       int
	tokens       int
	costUSD      float64
}

// processESBatch splits one ES page into API sub-batches, embeds them
// concurrently (bounded by concurrent_batches), and writes each
// sub-batch back with one order-preserving bulk update. A document is
// only marked processed once its bulk update item reports success.
func (r *Runner) processESBatch(ctx context.Context, apps []*model.PlanningApplication, processedIDs map[string]bool) (success, failed, tokens int, costUSD float64) {
	subBatches := chunkApps(apps, r.apiBatchSize())

	sem := semaphore.NewWeighted(int64(r.concurrentBatches()))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, batch := range subBatches {
		batch := batch
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			outcome := r.processSubBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			success += len(outcome.succeededIDs)
			failed += outcome.failed
			tokens += outcome.tokens
			costUSD += outcome.costUSD
			for _, id := range outcome.succeededIDs {
				processedIDs[id] = true
			}
		}()
	}
	wg.Wait()
	return success, failed, tokens, costUSD
}

func (r *Runner) processSubBatch(ctx context.Context, batch []*model.PlanningApplication) subBatchOutcome {
	texts := make([]string, len(batch))
	for i, app := range batch {
		texts[i] = app.Description
	}

	results, err := r.embedder.BatchGenerate(ctx, texts)
	if err != nil {
		slog.Warn("sub-batch embedding failed", "size", len(batch), "error", err)
		return subBatchOutcome{failed: len(batch)}
	}

	ops := make([]esgateway.BulkOp, len(batch))
	tokens := 0
	for i, app := range batch {
		ops[i] = esgateway.BulkOp{
			ID: app.ApplicationID,
			Doc: map[string]any{
				"description_embedding":  results[i].Embedding,
				"embedding_dimensions":   len(results[i].Embedding),
				"embedding_model":        results[i].ModelUsed,
				"embedding_generated_at": time.Now().UTC().Format(time.RFC3339),
				"embedding_text_hash":    results[i].TextHash,
				"embedding_confidence":   results[i].ConfidenceScore,
			},
		}
		tokens += results[i].TokenCount
	}

	bulkResult, err := r.bulkUpdater.BulkUpdate(ctx, ops, len(ops))
	if err != nil {
		return subBatchOutcome{failed: len(batch), tokens: tokens}
	}

	failedSet := map[string]bool{}
	for _, f := range bulkResult.FailedItems {
		failedSet[f.ID] = true
	}

	outcome := subBatchOutcome{tokens: tokens}
	for _, app := range batch {
		if failedSet[app.ApplicationID] {
			outcome.failed++
			continue
		}
		outcome.succeededIDs = append(outcome.succeededIDs, app.ApplicationID)
	}
	return outcome
}

func chunkApps(apps []*model.PlanningApplication, size int) [][]*model.PlanningApplication {
	var chunks [][]*model.PlanningApplication
	for start := 0; start < len(apps); start += size {
		end := min(start+size, len(apps))
		chunks = append(chunks, apps[start:end])
	}
	return chunks
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

const epochFallback = "1970-01-01T00:00:00Z"

func nextCursor(last *model.PlanningApplication) []any {
	submission := epochFallback
	if last.SubmissionDate != nil {
		submission = last.SubmissionDate.UTC().Format(time.RFC3339)
	}
	lastChanged := last.UpdatedAt.UTC().Format(time.RFC3339)
	return []any{submission, lastChanged, last.ApplicationID}
}
