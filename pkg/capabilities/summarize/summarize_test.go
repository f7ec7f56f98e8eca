package summarize

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

func TestSummarize_ParsesValidReply(t *testing.T) {
	reply := `{"summary":"A two storey extension","key_points":["rear extension"],"sentiment":"positive",` +
		`"complexity_score":0.3,"recommendations":["approve"]}`
	s := NewSummarizer(&fakeCompleter{content: reply}, config.LLMConfig{})

	result, err := s.Summarize(context.Background(), &model.PlanningApplication{}, SummaryGeneral, LengthMedium)
	require.NoError(t, err)
	assert.Equal(t, "A two storey extension", result.Summary)
	assert.Equal(t, SentimentPositive, result.Sentiment)
	assert.Equal(t, 1.0, result.ConfidenceScore)
}

func TestSummarize_UnrecognizedSentimentNormalizesToNeutral(t *testing.T) {
	reply := `{"summary":"x","sentiment":"excited","complexity_score":0.1}`
	s := NewSummarizer(&fakeCompleter{content: reply}, config.LLMConfig{})

	result, err := s.Summarize(context.Background(), &model.PlanningApplication{}, SummaryGeneral, LengthShort)
	require.NoError(t, err)
	assert.Equal(t, SentimentNeutral, result.Sentiment)
}

func TestSummarize_FallsBackToDescriptionOnLLMError(t *testing.T) {
	s := NewSummarizer(&fakeCompleter{err: assert.AnError}, config.LLMConfig{})

	result, err := s.Summarize(context.Background(), &model.PlanningApplication{Description: "demolish and rebuild"}, SummaryRisks, LengthLong)
	require.NoError(t, err)
	assert.Equal(t, "demolish and rebuild", result.Summary)
	assert.LessOrEqual(t, result.ConfidenceScore, 0.4)
}

func TestSummarize_FallsBackOnUnparsableReply(t *testing.T) {
	s := NewSummarizer(&fakeCompleter{content: "not json"}, config.LLMConfig{})

	result, err := s.Summarize(context.Background(), &model.PlanningApplication{Description: "x"}, SummaryGeneral, LengthMedium)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.ConfidenceScore, 0.4)
}
