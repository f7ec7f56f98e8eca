package llm

import "github.com/planning-explorer/core/pkg/config"

// computeCost applies the per-model ($/1M input, $/1M output) cost table
// entry to a completed call's token counts (§4.3). An unconfigured model
// costs nothing rather than panicking — callers still get usable
// responses, and GetUsageStats simply reports $0 for that model.
func computeCost(rate config.LLMProviderCost, inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000*rate.InputPerMillion +
		float64(outputTokens)/1_000_000*rate.OutputPerMillion
}
