package llm

import (
	"context"

	"google.golang.org/genai"

	"github.com/planning-explorer/core/pkg/apperrors"
)

// genAIMaxBatchSize mirrors the GenAI API's per-request item cap;
// Embed splits longer inputs into chunks of this size.
const genAIMaxBatchSize = 100

// Embed returns one vector per text, in the same order, along with
// aggregate token/cost accounting (§4.3). Texts beyond the provider's
// batch limit are chunked and issued as sequential requests.
func (c *Client) Embed(ctx context.Context, texts []string, model string) ([][]float32, int, float64, error) {
	if len(texts) == 0 {
		return nil, 0, 0, nil
	}
	if model == "" {
		model = c.cfg.DefaultModel
	}

	var (
		vectors     = make([][]float32, 0, len(texts))
		totalTokens int
	)

	for start := 0; start < len(texts); start += genAIMaxBatchSize {
		end := min(start+genAIMaxBatchSize, len(texts))
		chunk := texts[start:end]

		contents := make([]*genai.Content, len(chunk))
		for i, t := range chunk {
			contents[i] = genai.NewContentFromText(t, genai.RoleUser)
		}

		result, err := c.genaiClient.Models.EmbedContent(ctx, model, contents, &genai.EmbedContentConfig{})
		if err != nil {
			return nil, 0, 0, apperrors.Wrap(apperrors.KindAIServiceUnavailable, "LLM_EMBED_FAILED", "embedding content", err)
		}
		if len(result.Embeddings) != len(chunk) {
			return nil, 0, 0, apperrors.New(apperrors.KindAIServiceUnavailable, "LLM_EMBED_COUNT_MISMATCH", "provider returned a different number of embeddings than texts submitted")
		}

		for _, e := range result.Embeddings {
			vectors = append(vectors, e.Values)
		}

		// Usage metadata from the embeddings response is not read; the
		// token count for cost accounting is always approximated from
		// input length.
		totalTokens += approximateTokens(chunk)
	}

	cost := c.recordUsage(model, totalTokens, 0)
	return vectors, totalTokens, cost, nil
}

// approximateTokens is a rough 4-chars-per-token estimate, used for
// every Embed call's token count.
func approximateTokens(texts []string) int {
	chars := 0
	for _, t := range texts {
		chars += len(t)
	}
	return chars / 4
}
