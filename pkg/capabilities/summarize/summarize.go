// Package summarize implements the Document Summarizer (§4.5.2): an
// LLM call over an application's fields tuned by summary type and
// length, with a fail-open fallback to a trimmed description when the
// reply cannot be parsed.
//
// Grounded on pkg/agent/controller/summarize.go's threshold-gated,
// fail-open summarization call (on LLM failure, fall back to the raw
// content rather than erroring the caller), adapted from MCP
// tool-result summarization to planning-application summarization with
// a typed, strict-JSON reply instead of free text.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
	"github.com/planning-explorer/core/pkg/model"
)

// SummaryType selects which angle of the application to summarize
// (§4.5.2).
type SummaryType string

// Recognized summary types.
const (
	SummaryGeneral       SummaryType = "general"
	SummaryRisks         SummaryType = "risks"
	SummaryOpportunities SummaryType = "opportunities"
	SummaryTechnical     SummaryType = "technical"
	SummaryCompliance    SummaryType = "compliance"
)

// SummaryLength selects the target length of the summary (§4.5.2).
type SummaryLength string

// Recognized summary lengths.
const (
	LengthShort  SummaryLength = "short"
	LengthMedium SummaryLength = "medium"
	LengthLong   SummaryLength = "long"
)

// Sentiment is the tone detected in the summarized material.
type Sentiment string

// Recognized sentiments.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Completer is the subset of *llm.Client the Document Summarizer depends
// on, narrowed for testability.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, model, systemPrompt string, maxTokens int, temperature float64, useCache bool) (*llm.Response, error)
}

// Result is the Document Summarizer's output (§4.5.2).
type Result struct {
	Summary         string    `json:"summary"`
	KeyPoints       []string  `json:"key_points"`
	Sentiment       Sentiment `json:"sentiment"`
	ComplexityScore float64   `json:"complexity_score"`
	Recommendations []string  `json:"recommendations"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// Summarizer is the Document Summarizer (C5.2).
type Summarizer struct {
	llmClient Completer
	cfg       config.LLMConfig
}

// NewSummarizer builds a Summarizer.
func NewSummarizer(llmClient Completer, llmCfg config.LLMConfig) *Summarizer {
	return &Summarizer{llmClient: llmClient, cfg: llmCfg}
}

type llmReply struct {
	Summary         string    `json:"summary"`
	KeyPoints       []string  `json:"key_points"`
	Sentiment       Sentiment `json:"sentiment"`
	ComplexityScore float64   `json:"complexity_score"`
	Recommendations []string  `json:"recommendations"`
}

var maxTokensByLength = map[SummaryLength]int{
	LengthShort:  128,
	LengthMedium: 384,
	LengthLong:   1024,
}

// Summarize produces a typed summary of app for the given type and
// length (§4.5.2).
func (s *Summarizer) Summarize(ctx context.Context, app *model.PlanningApplication, summaryType SummaryType, length SummaryLength) (*Result, error) {
	systemPrompt := systemPromptFor(summaryType, length)
	userPrompt := applicationPrompt(app)

	maxTokens := maxTokensByLength[length]
	if maxTokens == 0 {
		maxTokens = maxTokensByLength[LengthMedium]
	}

	resp, err := s.llmClient.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: userPrompt}}, s.cfg.DefaultModel, systemPrompt, maxTokens, 0.3, true)
	if err != nil {
		return fallback(app), nil
	}

	var reply llmReply
	if jsonErr := json.Unmarshal([]byte(extractJSON(resp.Content)), &reply); jsonErr != nil {
		return fallback(app), nil
	}

	return &Result{
		Summary:         reply.Summary,
		KeyPoints:       reply.KeyPoints,
		Sentiment:       normalizeSentiment(reply.Sentiment),
		ComplexityScore: clip01(reply.ComplexityScore),
		Recommendations: reply.Recommendations,
		ConfidenceScore: 1.0,
	}, nil
}

func fallback(app *model.PlanningApplication) *Result {
	desc := app.Description
	if len(desc) > 280 {
		desc = desc[:280]
	}
	return &Result{
		Summary:         desc,
		Sentiment:       SentimentNeutral,
		ComplexityScore: 0.5,
		ConfidenceScore: fallbackConfidence,
	}
}

const fallbackConfidence = 0.4

func normalizeSentiment(s Sentiment) Sentiment {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return s
	default:
		return SentimentNeutral
	}
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func systemPromptFor(summaryType SummaryType, length SummaryLength) string {
	focus := map[SummaryType]string{
		SummaryGeneral:       "a general overview",
		SummaryRisks:         "risks and objections",
		SummaryOpportunities: "opportunities and strategic upside",
		SummaryTechnical:     "technical and construction detail",
		SummaryCompliance:    "planning-policy compliance",
	}[summaryType]
	if focus == "" {
		focus = "a general overview"
	}

	verbosity := map[SummaryLength]string{
		LengthShort:  "1-2 sentences",
		LengthMedium: "a single paragraph",
		LengthLong:   "multiple paragraphs",
	}[length]
	if verbosity == "" {
		verbosity = "a single paragraph"
	}

	return fmt.Sprintf("You are a UK planning-application analyst. Summarize the application with a focus on %s, "+
		"in %s. Reply with a single JSON object: "+
		`{"summary":"...","key_points":["..."],"sentiment":"positive|neutral|negative",`+
		`"complexity_score":0..1,"recommendations":["..."]}. No prose outside the JSON object.`, focus, verbosity)
}

func applicationPrompt(app *model.PlanningApplication) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application %s (%s)\n", app.ApplicationID, app.Reference)
	fmt.Fprintf(&b, "Status: %s\n", app.Status)
	fmt.Fprintf(&b, "Development type: %s\n", app.DevelopmentType)
	fmt.Fprintf(&b, "Description: %s\n", app.Description)
	fmt.Fprintf(&b, "Proposal: %s\n", app.Proposal)
	if len(app.Consultations) > 0 {
		fmt.Fprintf(&b, "Consultation responses: %d\n", len(app.Consultations))
	}
	return b.String()
}
