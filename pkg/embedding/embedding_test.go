package embedding

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/model"
)

type fakeEmbedder struct {
	vectors [][]float32
	tokens  int
	err     error
	calls   [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, _ string) ([][]float32, int, float64, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, 0, 0, f.err
	}
	return f.vectors, f.tokens, 0, nil
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestComposeText_Combined(t *testing.T) {
	app := &model.PlanningApplication{
		Description:     "demolish and rebuild",
		Proposal:        "two storey extension",
		AISummary:       "a modest residential extension",
		Address:         "1 High Street",
		DevelopmentType: "residential",
		UseClass:        "C3",
	}
	text := composeText(app, TextTypeCombined)
	for _, want := range []string{"demolish and rebuild", "two storey extension", "1 High Street", "residential", "C3"} {
		assert.Contains(t, text, want)
	}
}

func TestComposeText_CombinedSkipsEmptyFields(t *testing.T) {
	app := &model.PlanningApplication{Description: "demolish and rebuild"}
	text := composeText(app, TextTypeCombined)
	assert.Equal(t, "demolish and rebuild", text)
}

func TestComposeText_DescriptionTruncatesAt8k(t *testing.T) {
	app := &model.PlanningApplication{Description: strings.Repeat("a", 9000)}
	text := composeText(app, TextTypeDescription)
	assert.Len(t, text, descriptionCap)
}

func TestComposeText_SummaryPrefersAISummary(t *testing.T) {
	app := &model.PlanningApplication{AISummary: "short summary", Description: strings.Repeat("x", 1000)}
	assert.Equal(t, "short summary", composeText(app, TextTypeSummary))
}

func TestComposeText_SummaryFallsBackToDescriptionFirst500(t *testing.T) {
	app := &model.PlanningApplication{Description: strings.Repeat("x", 1000)}
	text := composeText(app, TextTypeSummary)
	assert.Len(t, text, summaryCap)
}

func TestComposeText_Location(t *testing.T) {
	app := &model.PlanningApplication{Postcode: "SW1A 1AA", Ward: "Westminster", Authority: "City of Westminster", Address: "10 Downing Street"}
	text := composeText(app, TextTypeLocation)
	assert.Equal(t, "SW1A 1AA Westminster City of Westminster 10 Downing Street", text)
}

func TestGenerateTextEmbedding_EmptyInputYieldsZeroConfidence(t *testing.T) {
	svc := NewService(&fakeEmbedder{}, config.EmbeddingConfig{Dimensions: 4, MinChars: 10})
	result, err := svc.GenerateTextEmbedding(context.Background(), "short")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Equal(t, []float32{0, 0, 0, 0}, result.Embedding)
}

func TestGenerateTextEmbedding_SuccessfulCall(t *testing.T) {
	fe := &fakeEmbedder{vectors: [][]float32{{0.1, 0.2, 0.3}}, tokens: 12}
	svc := NewService(fe, config.EmbeddingConfig{Dimensions: 3, MinChars: 10, Model: "text-embedding-3-small"})
	result, err := svc.GenerateTextEmbedding(context.Background(), "a sufficiently long planning description")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, result.Embedding)
	assert.Equal(t, 12, result.TokenCount)
}

func TestBatchGenerate_PreservesOrderAndSkipsLowConfidence(t *testing.T) {
	fe := &fakeEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}, tokens: 20}
	svc := NewService(fe, config.EmbeddingConfig{Dimensions: 2, MinChars: 10})

	texts := []string{"short", "a sufficiently long description one", "a sufficiently long description two"}
	results, err := svc.BatchGenerate(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0.0, results[0].ConfidenceScore)
	assert.Equal(t, []float32{1, 0}, results[1].Embedding)
	assert.Equal(t, []float32{0, 1}, results[2].Embedding)

	require.Len(t, fe.calls, 1)
	assert.Equal(t, []string{texts[1], texts[2]}, fe.calls[0])
}

func TestSemanticSearch_RanksByCosineDescending(t *testing.T) {
	fe := &fakeEmbedder{vectors: [][]float32{{1, 0}}, tokens: 5}
	svc := NewService(fe, config.EmbeddingConfig{Dimensions: 2, MinChars: 1})

	candidates := [][]float32{{0, 1}, {1, 0}, {0.7, 0.7}}
	matches, err := svc.SemanticSearch(context.Background(), "query text", candidates, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].Index)
	assert.Equal(t, 2, matches[1].Index)
}
