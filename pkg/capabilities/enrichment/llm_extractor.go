package enrichment

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
)

// Completer is the subset of *llm.Client the unknown-portal extraction
// strategy depends on, narrowed for testability.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, model, systemPrompt string, maxTokens int, temperature float64, useCache bool) (*llm.Response, error)
}

// LLMExtractor is the production Extractor: a single LLM call per page,
// parsed leniently with gjson rather than encoding/json, since rendered
// HTML feeds noisier raw text into the prompt than the other
// capabilities' structured application data and LLM replies
// occasionally include trailing commentary outside the JSON object.
type LLMExtractor struct {
	llmClient Completer
	cfg       config.LLMConfig
}

// NewLLMExtractor builds an LLMExtractor.
func NewLLMExtractor(llmClient Completer, llmCfg config.LLMConfig) *LLMExtractor {
	return &LLMExtractor{llmClient: llmClient, cfg: llmCfg}
}

const maxExtractionInputChars = 20000

var extractionKeys = []string{"applicant_name", "agent_name", "ward", "decided_date", "n_documents", "n_statutory_days"}

// Extract asks the LLM to pull the known field set out of rendered HTML
// (§4.5.5).
func (x *LLMExtractor) Extract(ctx context.Context, renderedHTML string) (map[string]string, error) {
	systemPrompt := "Extract UK planning-application fields from the rendered page text below. Reply with a " +
		`single JSON object with string values (or null if absent): {"applicant_name":null,"agent_name":null,` +
		`"ward":null,"decided_date":null,"n_documents":null,"n_statutory_days":null}. No prose outside the JSON object.`

	input := renderedHTML
	if len(input) > maxExtractionInputChars {
		input = input[:maxExtractionInputChars]
	}

	resp, err := x.llmClient.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: input}}, x.cfg.DefaultModel, systemPrompt, 512, 0.0, false)
	if err != nil {
		return nil, fmt.Errorf("unknown-portal extraction call: %w", err)
	}

	parsed := gjson.Parse(extractJSONObject(resp.Content))
	if !parsed.IsObject() {
		return nil, fmt.Errorf("unknown-portal extraction reply was not a JSON object")
	}

	fields := make(map[string]string, len(extractionKeys))
	for _, key := range extractionKeys {
		if v := parsed.Get(key); v.Exists() && v.Type == gjson.String {
			fields[key] = v.String()
		}
	}
	return fields, nil
}

func extractJSONObject(s string) string {
	start, end := -1, -1
	for i, r := range s {
		if r == '{' && start == -1 {
			start = i
		}
		if r == '}' {
			end = i
		}
	}
	if start == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
