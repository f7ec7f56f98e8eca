package esgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/planning-explorer/core/pkg/apperrors"
)

// BulkOp is a single document update destined for the _bulk endpoint.
// The order of a BulkOp slice passed to BulkUpdate is preserved end to
// end — callers (notably the bulk embedding generator) rely on
// operations lining up positionally with the vectors they produced.
type BulkOp struct {
	ID  string
	Doc map[string]any
}

// BulkResult summarizes one BulkUpdate call.
type BulkResult struct {
	Success     int
	Failed      int
	FailedItems []BulkFailure
}

// BulkFailure records why one item in a bulk request failed. Per-item
// failures are surfaced to the caller, never retried — only whole-batch
// transient cluster errors are retried (see BulkUpdate's backoff loop).
type BulkFailure struct {
	ID     string
	Reason string
}

// BulkUpdate applies ops in chunks of chunkSize, stamping updated_at on
// every doc and always using doc_as_upsert=false. Transient failures of
// the whole bulk request (cluster overload, transport errors) are
// retried with exponential backoff — initial 2s, max 600s, 3 attempts —
// per the gateway's bulk retry contract. A response that comes back but
// reports per-item errors is not retried; those items are surfaced in
// FailedItems.
func (g *Gateway) BulkUpdate(ctx context.Context, ops []BulkOp, chunkSize int) (*BulkResult, error) {
	if chunkSize <= 0 {
		chunkSize = 500
	}

	total := &BulkResult{}
	for start := 0; start < len(ops); start += chunkSize {
		end := min(start+chunkSize, len(ops))
		chunk := ops[start:end]

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 2 * time.Second
		bo.MaxInterval = 600 * time.Second

		result, err := backoff.Retry(ctx, func() (*BulkResult, error) {
			return g.bulkChunk(ctx, chunk)
		},
			backoff.WithBackOff(bo),
			backoff.WithMaxTries(3),
		)
		if err != nil {
			return total, apperrors.Wrap(apperrors.KindDatabaseUnavailable, "ES_BULK_FAILED", "bulk update chunk exhausted retries", err)
		}

		total.Success += result.Success
		total.Failed += result.Failed
		total.FailedItems = append(total.FailedItems, result.FailedItems...)
	}
	return total, nil
}

func (g *Gateway) bulkChunk(ctx context.Context, chunk []BulkOp) (*BulkResult, error) {
	var buf bytes.Buffer
	now := time.Now().UTC().Format(time.RFC3339)
	for _, op := range chunk {
		action := map[string]any{
			"update": map[string]any{
				"_index": g.index,
				"_id":    op.ID,
			},
		}
		merged := make(map[string]any, len(op.Doc)+1)
		for k, v := range op.Doc {
			merged[k] = v
		}
		merged["updated_at"] = now
		source := map[string]any{
			"doc":           merged,
			"doc_as_upsert": false,
		}

		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "ES_BULK_ENCODE_FAILED", "encoding bulk action line", err)
		}
		if err := json.NewEncoder(&buf).Encode(source); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "ES_BULK_ENCODE_FAILED", "encoding bulk source line", err)
		}
	}

	resp, err := g.Client.Bulk(&buf,
		g.Client.Bulk.WithContext(ctx),
		g.Client.Bulk.WithIndex(g.index),
	)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Update struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  *struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error,omitempty"`
			} `json:"update"`
		} `json:"items"`
	}
	if decErr := decodeResponse(resp, nil, &raw); decErr != nil {
		return nil, decErr
	}

	result := &BulkResult{}
	for _, item := range raw.Items {
		if item.Update.Error != nil {
			result.Failed++
			result.FailedItems = append(result.FailedItems, BulkFailure{
				ID:     item.Update.ID,
				Reason: strings.TrimSpace(item.Update.Error.Type + ": " + item.Update.Error.Reason),
			})
			continue
		}
		result.Success++
	}

	if raw.Errors {
		slog.Warn("Bulk update chunk completed with per-item errors", "failed", result.Failed, "success", result.Success)
	}
	return result, nil
}
