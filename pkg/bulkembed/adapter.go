package bulkembed

import (
	"context"

	"github.com/planning-explorer/core/pkg/embedding"
)

// batchGenerator is the subset of *embedding.Service this package's
// adapter wraps.
type batchGenerator interface {
	BatchGenerate(ctx context.Context, texts []string) ([]embedding.Result, error)
}

// EmbeddingServiceAdapter implements BatchEmbedder over the real
// Embedding Service, translating its Result type into this package's
// narrower EmbedResult.
type EmbeddingServiceAdapter struct {
	service batchGenerator
}

// NewEmbeddingServiceAdapter wraps an Embedding Service for use as a
// BatchEmbedder.
func NewEmbeddingServiceAdapter(service batchGenerator) *EmbeddingServiceAdapter {
	return &EmbeddingServiceAdapter{service: service}
}

// BatchGenerate delegates to the wrapped service and maps results.
func (a *EmbeddingServiceAdapter) BatchGenerate(ctx context.Context, texts []string) ([]EmbedResult, error) {
	results, err := a.service.BatchGenerate(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]EmbedResult, len(results))
	for i, r := range results {
		out[i] = EmbedResult{
			Embedding:       r.Embedding,
			ModelUsed:       r.ModelUsed,
			TokenCount:      r.TokenCount,
			ConfidenceScore: r.ConfidenceScore,
			TextHash:        r.TextHash,
		}
	}
	return out, nil
}
