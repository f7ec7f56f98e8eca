package llm

import (
	"context"

	"google.golang.org/genai"
)

// StreamComplete returns a lazy, finite sequence of chunks. The channel
// is closed when the stream ends (successfully or in error); a final
// UsageChunk precedes closure on success. Cancelling ctx stops
// generation at the next suspension point (§4.3 "Streaming suspension
// points: after each chunk yield"), generalizing the teacher's
// GenerateStream channel-based API from a single gRPC thinking-chunk
// union to genai's own streaming iterator.
func (c *Client) StreamComplete(ctx context.Context, messages []Message, model, systemPrompt string, maxTokens int, temperature float64) (<-chan Chunk, error) {
	if model == "" {
		model = c.cfg.DefaultModel
	}

	contents := toGenaiContents(messages)
	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     genai.Ptr(float32(temperature)),
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	out := make(chan Chunk, 16)

	go func() {
		defer close(out)

		var inputTokens, outputTokens int
		for resp, err := range c.genaiClient.Models.GenerateContentStream(ctx, model, contents, genCfg) {
			if err != nil {
				select {
				case out <- ErrorChunk{Message: err.Error()}:
				case <-ctx.Done():
				}
				return
			}

			if text := extractText(resp); text != "" {
				select {
				case out <- TextChunk{Content: text}:
				case <-ctx.Done():
					select {
					case out <- ErrorChunk{Message: ctx.Err().Error()}:
					default:
					}
					return
				}
			}

			if resp.UsageMetadata != nil {
				inputTokens = int(resp.UsageMetadata.PromptTokenCount)
				outputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			}
		}

		cost := c.recordUsage(model, inputTokens, outputTokens)
		select {
		case out <- UsageChunk{TokensUsed: inputTokens + outputTokens, CostUSD: cost}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}
