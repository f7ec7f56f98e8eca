package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/config"
)

func TestComplete_CacheHitSkipsProviderAndZeroesCost(t *testing.T) {
	c := &Client{
		cfg:   config.LLMConfig{DefaultModel: "gemini-2.0-flash"},
		usage: make(map[string]ModelUsage),
	}

	messages := []Message{{Role: RoleUser, Content: "summarize this application"}}
	key := contentHash("you are a planning assistant", messages)
	c.promptCache.Store(key, Response{
		Content:      "previously generated summary",
		Model:        "gemini-2.0-flash",
		Provider:     "genai",
		TokensUsed:   512,
		CostUSD:      0.02,
		FinishReason: "stop",
	})

	resp, err := c.Complete(context.Background(), messages, "", "you are a planning assistant", 256, 0.2, true)
	require.NoError(t, err)
	assert.Equal(t, "previously generated summary", resp.Content)
	assert.Equal(t, "cached", resp.FinishReason)
	assert.Equal(t, 0, resp.TokensUsed)
	assert.Equal(t, 0.0, resp.CostUSD)
}

func TestGetUsageStats_AccumulatesAcrossModels(t *testing.T) {
	c := &Client{
		cfg: config.LLMConfig{
			CostTable: map[string]config.LLMProviderCost{
				"model-a": {InputPerMillion: 1, OutputPerMillion: 2},
				"model-b": {InputPerMillion: 5, OutputPerMillion: 10},
			},
		},
		usage: make(map[string]ModelUsage),
	}

	c.recordUsage("model-a", 1_000_000, 500_000)
	c.recordUsage("model-b", 100_000, 100_000)

	stats := c.GetUsageStats()
	assert.Equal(t, 1, stats.PerModel["model-a"].Requests)
	assert.InDelta(t, 2.0, stats.PerModel["model-a"].CostUSD, 1e-9)
	assert.InDelta(t, 1.5, stats.PerModel["model-b"].CostUSD, 1e-9)
	assert.Equal(t, 2, stats.Total.Requests)
	assert.InDelta(t, 3.5, stats.Total.CostUSD, 1e-9)
}
