package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/config"
)

// Client is the LLM Client (C3): a single chokepoint over the genai
// provider, with cost accounting, prompt caching, and a token budget.
type Client struct {
	genaiClient *genai.Client
	cfg         config.LLMConfig

	mu    sync.Mutex
	usage map[string]ModelUsage
	total ModelUsage

	promptCache sync.Map // contentHash(string) -> Response
}

// NewClient builds a Client from configuration. The API key is read from
// cfg.GenAIAPIKey (populated from the GENAI_API_KEY environment variable
// by config.Initialize, never from YAML).
func NewClient(ctx context.Context, cfg config.LLMConfig) (*Client, error) {
	if cfg.GenAIAPIKey == "" {
		return nil, apperrors.New(apperrors.KindValidation, "LLM_API_KEY_REQUIRED", "GENAI_API_KEY must be set")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GenAIAPIKey})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindAIServiceUnavailable, "LLM_CLIENT_INIT_FAILED", "creating genai client", err)
	}

	return &Client{
		genaiClient: gc,
		cfg:         cfg,
		usage:       make(map[string]ModelUsage),
	}, nil
}

// Complete sends a conversation and returns a single, non-streamed
// response (§4.3).
func (c *Client) Complete(ctx context.Context, messages []Message, model, systemPrompt string, maxTokens int, temperature float64, useCache bool) (*Response, error) {
	if model == "" {
		model = c.cfg.DefaultModel
	}

	cacheKey := contentHash(systemPrompt, messages)
	if useCache {
		if cached, ok := c.promptCache.Load(cacheKey); ok {
			resp := cached.(Response)
			resp.FinishReason = "cached"
			resp.TokensUsed = 0
			resp.CostUSD = 0
			return &resp, nil
		}
	}

	contents := toGenaiContents(messages)
	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     genai.Ptr(float32(temperature)),
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := c.genaiClient.Models.GenerateContent(ctx, model, contents, genCfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindAIServiceUnavailable, "LLM_COMPLETE_FAILED", "generating content", err)
	}

	inputTokens, outputTokens := tokenCounts(result)
	totalTokens := inputTokens + outputTokens
	if c.cfg.TokenBudget > 0 && totalTokens >= c.cfg.TokenBudget {
		return nil, apperrors.ErrBudgetExceeded
	}

	cost := c.recordUsage(model, inputTokens, outputTokens)

	resp := Response{
		Content:      extractText(result),
		Model:        model,
		Provider:     "genai",
		TokensUsed:   totalTokens,
		CostUSD:      cost,
		FinishReason: extractFinishReason(result),
	}
	if useCache {
		c.promptCache.Store(cacheKey, resp)
	}
	return &resp, nil
}

// GetUsageStats returns the running per-model and total cost/token
// accounting (§4.3).
func (c *Client) GetUsageStats() UsageStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	perModel := make(map[string]ModelUsage, len(c.usage))
	for k, v := range c.usage {
		perModel[k] = v
	}
	return UsageStats{PerModel: perModel, Total: c.total}
}

func (c *Client) recordUsage(model string, inputTokens, outputTokens int) float64 {
	cost := computeCost(c.cfg.CostTable[model], inputTokens, outputTokens)

	c.mu.Lock()
	defer c.mu.Unlock()

	mu := c.usage[model]
	mu.Requests++
	mu.InputTokens += inputTokens
	mu.OutputTokens += outputTokens
	mu.CostUSD += cost
	c.usage[model] = mu

	c.total.Requests++
	c.total.InputTokens += inputTokens
	c.total.OutputTokens += outputTokens
	c.total.CostUSD += cost

	return cost
}

func toGenaiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

// contentHash deterministically hashes (systemPrompt || concatenated
// messages) to key the prompt cache (§4.3).
func contentHash(systemPrompt string, messages []Message) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(":")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func extractText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func extractFinishReason(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	return string(result.Candidates[0].FinishReason)
}

func tokenCounts(result *genai.GenerateContentResponse) (input, output int) {
	if result == nil || result.UsageMetadata == nil {
		return 0, 0
	}
	return int(result.UsageMetadata.PromptTokenCount), int(result.UsageMetadata.CandidatesTokenCount)
}
