// Package nlpquery implements the NLP Query Parser (§4.5.3): it
// classifies a free-text query's intent and deterministically compiles
// it into an Elasticsearch query body, so the same parsed intent always
// produces the same query regardless of which LLM (if any) classified
// it.
//
// Grounded on pkg/agent/controller/single_call.go's single
// tool-less LLM call shape, adapted from a conversational analysis call
// to a short classification call whose output drives deterministic,
// hand-written query-compilation code rather than further LLM
// generation — the ES query itself is never LLM-authored (§4.5.3: "ES
// query emission is deterministic given the parsed intent").
package nlpquery

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
)

// Intent is the classified purpose of a query (§4.5.3).
type Intent string

// Recognized intents.
const (
	IntentSearch  Intent = "search"
	IntentFilter  Intent = "filter"
	IntentCompare Intent = "compare"
	IntentAnalyze Intent = "analyze"
	IntentExplore Intent = "explore"
)

// ParsedQuery is the NLP Query Parser's output (§4.5.3).
type ParsedQuery struct {
	Intent             Intent         `json:"intent"`
	QueryType          string         `json:"query_type"`
	ConfidenceScore    float64        `json:"confidence_score"`
	Suggestions        []string       `json:"suggestions"`
	ElasticsearchQuery map[string]any `json:"elasticsearch_query"`
}

// Completer is the subset of *llm.Client the NLP Query Parser depends
// on, narrowed for testability.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, model, systemPrompt string, maxTokens int, temperature float64, useCache bool) (*llm.Response, error)
}

// Parser is the NLP Query Parser (C5.3).
type Parser struct {
	llmClient Completer
	cfg       config.LLMConfig
}

// NewParser builds a Parser.
func NewParser(llmClient Completer, llmCfg config.LLMConfig) *Parser {
	return &Parser{llmClient: llmClient, cfg: llmCfg}
}

type classification struct {
	Intent      Intent   `json:"intent"`
	QueryType   string   `json:"query_type"`
	Terms       string   `json:"terms"`
	Suggestions []string `json:"suggestions"`

	fallback bool
}

var statusTokens = map[string]string{
	"submitted":           "submitted",
	"validated":           "validated",
	"under consideration": "under_consideration",
	"pending":             "under_consideration",
	"approved":            "approved",
	"granted":             "approved",
	"rejected":            "rejected",
	"refused":             "rejected",
	"withdrawn":           "withdrawn",
	"appealed":            "appealed",
}

var postcodeRegex = regexp.MustCompile(`(?i)\b([A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2})\b`)
var numberRegex = regexp.MustCompile(`\b(over|above|under|below|at least|at most)\s+£?([\d,]+)\b`)

// Parse classifies query and deterministically compiles its
// Elasticsearch query (§4.5.3). On LLM failure the intent falls back to
// IntentSearch with a low confidence, but the compiled query — built
// directly from the raw query text — is still returned.
func (p *Parser) Parse(ctx context.Context, query string) (*ParsedQuery, error) {
	class := p.classify(ctx, query)

	return &ParsedQuery{
		Intent:             class.Intent,
		QueryType:          class.QueryType,
		ConfidenceScore:    class.confidence(),
		Suggestions:        class.Suggestions,
		ElasticsearchQuery: compileQuery(query),
	}, nil
}

func (c classification) confidence() float64 {
	if c.fallback || c.Intent == "" {
		return 0.3
	}
	return 0.9
}

func (p *Parser) classify(ctx context.Context, query string) classification {
	systemPrompt := "Classify the planning-application search query's intent. Reply with a single JSON object: " +
		`{"intent":"search|filter|compare|analyze|explore","query_type":"...","suggestions":["..."]}. ` +
		"No prose outside the JSON object."

	resp, err := p.llmClient.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: query}}, p.cfg.DefaultModel, systemPrompt, 256, 0.1, true)
	if err != nil {
		return classification{Intent: IntentSearch, QueryType: "text", fallback: true}
	}

	var class classification
	if jsonErr := json.Unmarshal([]byte(extractJSON(resp.Content)), &class); jsonErr != nil {
		return classification{Intent: IntentSearch, QueryType: "text", fallback: true}
	}
	if !validIntent(class.Intent) {
		class.Intent = IntentSearch
	}
	return class
}

func validIntent(i Intent) bool {
	switch i {
	case IntentSearch, IntentFilter, IntentCompare, IntentAnalyze, IntentExplore:
		return true
	default:
		return false
	}
}

func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// compileQuery deterministically builds a bool query from free text
// (§4.5.3): a multi_match clause over the free-text remainder, plus
// recognized filter/range clauses extracted from the text.
func compileQuery(query string) map[string]any {
	filters := []map[string]any{}
	remainder := query
	lower := strings.ToLower(query)

	for token, status := range statusTokens {
		if strings.Contains(lower, token) {
			filters = append(filters, map[string]any{"term": map[string]any{"status": status}})
			remainder = stripCI(remainder, token)
			lower = strings.ToLower(remainder)
		}
	}

	if m := postcodeRegex.FindStringSubmatch(remainder); m != nil {
		filters = append(filters, map[string]any{"prefix": map[string]any{"postcode": strings.ToUpper(strings.ReplaceAll(m[1], " ", ""))}})
		remainder = strings.Replace(remainder, m[1], "", 1)
	}

	for _, m := range numberRegex.FindAllStringSubmatch(query, -1) {
		qualifier, raw := strings.ToLower(m[1]), strings.ReplaceAll(m[2], ",", "")
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		rng := map[string]any{}
		switch qualifier {
		case "over", "above", "at least":
			rng["gte"] = n
		case "under", "below", "at most":
			rng["lte"] = n
		}
		if len(rng) > 0 {
			filters = append(filters, map[string]any{"range": map[string]any{"project_value": rng}})
		}
		remainder = strings.Replace(remainder, m[0], "", 1)
	}

	remainder = strings.TrimSpace(remainder)

	boolQuery := map[string]any{}
	if remainder != "" {
		boolQuery["must"] = []map[string]any{
			{
				"multi_match": map[string]any{
					"query":  remainder,
					"fields": []string{"description", "address", "development_type"},
				},
			},
		}
	} else {
		boolQuery["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]any{"bool": boolQuery}
}

func stripCI(s, substr string) string {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(substr))
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(substr):]
}
