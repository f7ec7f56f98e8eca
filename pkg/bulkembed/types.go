// Package bulkembed implements the Bulk Embedding Generator (C9): a
// one-shot backfill over the full index that discovers every document
// missing a description embedding, embeds them in concurrent
// sub-batches, writes them back in positional order, and checkpoints
// progress to disk so a run can resume after a crash.
//
// Grounded on the teacher's pkg/queue/pool.go worker-count-bounded
// dispatch (generalized here via golang.org/x/sync/semaphore instead of
// errgroup.SetLimit, since sub-batches must report partial progress
// individually rather than fail the whole run on one error) and
// pkg/esgateway/bulk.go's order-preserving BulkOp slice contract, which
// this package depends on directly to satisfy "vector ↔ document
// assignment cannot drift."
package bulkembed

import (
	"context"
	"time"

	"github.com/planning-explorer/core/pkg/esgateway"
)

// Pager is the subset of *esgateway.Gateway used for search_after
// pagination over the full index.
type Pager interface {
	SearchAfter(ctx context.Context, query map[string]any, sort []map[string]string, size int, cursor []any) (*esgateway.SearchResult, error)
}

// BulkUpdater is the subset of *esgateway.Gateway used to write embedding
// results back in order.
type BulkUpdater interface {
	BulkUpdate(ctx context.Context, ops []esgateway.BulkOp, chunkSize int) (*esgateway.BulkResult, error)
}

// Refresher forces the index to make the backfill's writes searchable.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// BatchEmbedder embeds a batch of texts, preserving input order.
type BatchEmbedder interface {
	BatchGenerate(ctx context.Context, texts []string) ([]EmbedResult, error)
}

// EmbedResult mirrors embedding.Result's fields this package needs,
// narrowed to avoid a hard dependency on the embedding package's full
// Result type shape in this package's public interface.
type EmbedResult struct {
	Embedding       []float32
	ModelUsed       string
	TokenCount      int
	ConfidenceScore float64
	TextHash        string
}

// Checkpoint is the on-disk resume state written every CheckpointEvery
// ES batches (§4.9).
type Checkpoint struct {
	Timestamp         time.Time      `json:"timestamp"`
	ProcessedCount    int            `json:"processed_count"`
	SuccessCount      int            `json:"success_count"`
	FailedCount       int            `json:"failed_count"`
	TotalTokens       int            `json:"total_tokens"`
	TotalCostUSD      float64        `json:"total_cost_usd"`
	ProcessedIDsCount int            `json:"processed_ids_count"`
	Cursor            []any          `json:"cursor,omitempty"`
	ProcessedIDs      map[string]bool `json:"-"`
}

// RunReport is the final JSON summary emitted at the end of a backfill.
type RunReport struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Discovered   int       `json:"discovered"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	TotalTokens  int       `json:"total_tokens"`
	TotalCostUSD float64   `json:"total_cost_usd"`
	DurationMS   int64     `json:"duration_ms"`
}
