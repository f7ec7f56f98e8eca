package bulkembed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/embedding"
)

type fakeBatchGenerator struct {
	results []embedding.Result
}

func (f *fakeBatchGenerator) BatchGenerate(ctx context.Context, texts []string) ([]embedding.Result, error) {
	return f.results, nil
}

func TestEmbeddingServiceAdapter_BatchGenerateMapsFields(t *testing.T) {
	svc := &fakeBatchGenerator{results: []embedding.Result{
		{Embedding: []float32{1, 2, 3}, ModelUsed: "m1", TokenCount: 10, ConfidenceScore: 0.9, TextHash: "h1"},
		{Embedding: []float32{4, 5, 6}, ModelUsed: "m1", TokenCount: 20, ConfidenceScore: 0.8, TextHash: "h2"},
	}}
	adapter := NewEmbeddingServiceAdapter(svc)

	out, err := adapter.BatchGenerate(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{1, 2, 3}, out[0].Embedding)
	assert.Equal(t, "m1", out[0].ModelUsed)
	assert.Equal(t, 10, out[0].TokenCount)
	assert.Equal(t, 0.9, out[0].ConfidenceScore)
	assert.Equal(t, "h1", out[0].TextHash)
	assert.Equal(t, "h2", out[1].TextHash)
}
