package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
	"github.com/planning-explorer/core/pkg/model"
)

type fakeCompleter struct {
	content string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, _ []llm.Message, _, _ string, _ int, _ float64, _ bool) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func TestScore_WeightedMeanFromValidReply(t *testing.T) {
	reply := `{"breakdown":{"approval_probability":1.0,"market_potential":1.0,"project_viability":1.0,` +
		`"strategic_fit":1.0,"timeline_score":1.0,"risk_score":0.0},"rationale":"strong case",` +
		`"risk_factors":["none"],"recommendations":["proceed"]}`
	scorer := NewScorer(&fakeCompleter{content: reply}, config.LLMConfig{}, 0)

	result, err := scorer.Score(context.Background(), &model.PlanningApplication{ApplicationID: "A1"})
	require.NoError(t, err)
	assert.Equal(t, 100, result.OpportunityScore)
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, "strong case", result.Rationale)
}

func TestScore_ClipsOutOfRangeSubScores(t *testing.T) {
	reply := `{"breakdown":{"approval_probability":1.5,"market_potential":-0.5,"project_viability":0.5,` +
		`"strategic_fit":0.5,"timeline_score":0.5,"risk_score":0.5}}`
	scorer := NewScorer(&fakeCompleter{content: reply}, config.LLMConfig{}, 0)

	result, err := scorer.Score(context.Background(), &model.PlanningApplication{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Breakdown.ApprovalProbability)
	assert.Equal(t, 0.0, result.Breakdown.MarketPotential)
}

func TestScore_TextWrappedJSONIsExtracted(t *testing.T) {
	reply := "Here is my assessment:\n```json\n" +
		`{"breakdown":{"approval_probability":0.6,"market_potential":0.6,"project_viability":0.6,` +
		`"strategic_fit":0.6,"timeline_score":0.6,"risk_score":0.4}}` +
		"\n```"
	scorer := NewScorer(&fakeCompleter{content: reply}, config.LLMConfig{}, 0)

	result, err := scorer.Score(context.Background(), &model.PlanningApplication{})
	require.NoError(t, err)
	assert.False(t, result.UsedFallback)
}

func TestScore_FallsBackToHeuristicOnUnparsableReply(t *testing.T) {
	scorer := NewScorer(&fakeCompleter{content: "not json at all"}, config.LLMConfig{}, 0)

	result, err := scorer.Score(context.Background(), &model.PlanningApplication{
		Status:          model.StatusApproved,
		DevelopmentType: "residential",
	})
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.LessOrEqual(t, result.ConfidenceScore, 0.4)
	assert.Equal(t, 0.9, result.Breakdown.ApprovalProbability)
}

func TestScore_FallsBackToHeuristicOnLLMError(t *testing.T) {
	scorer := NewScorer(&fakeCompleter{err: assert.AnError}, config.LLMConfig{}, 0)

	result, err := scorer.Score(context.Background(), &model.PlanningApplication{Status: model.StatusRejected})
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.Equal(t, 0.2, result.Breakdown.ApprovalProbability)
}
