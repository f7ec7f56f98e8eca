// Package scoring implements the Opportunity Scorer (§4.5.1): an
// LLM-judged, weighted-mean score over six sub-dimensions of a planning
// application, with a deterministic heuristic fallback when the LLM
// reply cannot be parsed.
//
// Grounded on pkg/agent/controller/scoring.go's two-turn pattern of
// prompting an LLM for a structured verdict and retrying/falling back
// when the reply doesn't parse, adapted here from a free-text
// last-line-number extraction to strict-JSON parsing with a single
// heuristic fallback rather than a retry loop (§4.5.1 specifies a
// fallback, not a retry budget).
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
	"github.com/planning-explorer/core/pkg/model"
)

// Default weights for the six-dimensional breakdown (§4.5.1).
const (
	weightApproval   = 0.25
	weightMarket     = 0.20
	weightViability  = 0.15
	weightStrategic  = 0.15
	weightTimeline   = 0.15
	weightRisk       = 0.10
	fallbackConfidence = 0.4
)

// Completer is the subset of *llm.Client the Opportunity Scorer depends
// on, narrowed for testability.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, model, systemPrompt string, maxTokens int, temperature float64, useCache bool) (*llm.Response, error)
}

// Result is the Opportunity Scorer's output (§4.5.1).
type Result struct {
	OpportunityScore    int                        `json:"opportunity_score"`
	ApprovalProbability float64                    `json:"approval_probability"`
	ConfidenceScore     float64                    `json:"confidence_score"`
	Breakdown           model.OpportunityBreakdown `json:"breakdown"`
	Rationale           string                     `json:"rationale"`
	RiskFactors         []string                   `json:"risk_factors"`
	Recommendations     []string                   `json:"recommendations"`
	UsedFallback        bool                        `json:"-"`
}

// Scorer is the Opportunity Scorer (C5.1).
type Scorer struct {
	llmClient Completer
	cfg       config.LLMConfig
	timeout   time.Duration
}

// NewScorer builds a Scorer. timeoutMS is read from
// config.TimeoutConfig.OpportunityScoringMS; 0 disables the deadline.
func NewScorer(llmClient Completer, llmCfg config.LLMConfig, timeoutMS int) *Scorer {
	return &Scorer{llmClient: llmClient, cfg: llmCfg, timeout: time.Duration(timeoutMS) * time.Millisecond}
}

// llmReply is the strict-JSON shape requested of the LLM.
type llmReply struct {
	Breakdown       model.OpportunityBreakdown `json:"breakdown"`
	Rationale       string                     `json:"rationale"`
	RiskFactors     []string                   `json:"risk_factors"`
	Recommendations []string                   `json:"recommendations"`
}

// Score computes an opportunity score for app (§4.5.1).
func (s *Scorer) Score(ctx context.Context, app *model.PlanningApplication) (*Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.callLLM(ctx, app)
	if err != nil {
		return s.heuristic(app), nil
	}

	breakdown := clipBreakdown(reply.Breakdown)
	weighted := weightedMean(breakdown)

	return &Result{
		OpportunityScore:    int(math.Round(weighted * 100)),
		ApprovalProbability: breakdown.ApprovalProbability,
		ConfidenceScore:     1.0,
		Breakdown:           breakdown,
		Rationale:           reply.Rationale,
		RiskFactors:         reply.RiskFactors,
		Recommendations:     reply.Recommendations,
	}, nil
}

func (s *Scorer) callLLM(ctx context.Context, app *model.PlanningApplication) (*llmReply, error) {
	systemPrompt := "You are a UK planning-application underwriting analyst. " +
		"Score the application on six dimensions in [0,1] and reply with a single JSON object: " +
		`{"breakdown":{"approval_probability":0..1,"market_potential":0..1,"project_viability":0..1,` +
		`"strategic_fit":0..1,"timeline_score":0..1,"risk_score":0..1},"rationale":"...",` +
		`"risk_factors":["..."],"recommendations":["..."]}. No prose outside the JSON object.`

	userPrompt := applicationPrompt(app)

	resp, err := s.llmClient.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: userPrompt}}, s.cfg.DefaultModel, systemPrompt, 1024, 0.1, true)
	if err != nil {
		return nil, err
	}

	var reply llmReply
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &reply); err != nil {
		return nil, fmt.Errorf("parsing opportunity-scoring reply: %w", err)
	}
	return &reply, nil
}

// extractJSON trims any text surrounding the first top-level JSON object,
// since LLMs occasionally wrap strict-JSON replies in prose or fencing
// despite instructions.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func clipBreakdown(b model.OpportunityBreakdown) model.OpportunityBreakdown {
	return model.OpportunityBreakdown{
		ApprovalProbability: clip01(b.ApprovalProbability),
		MarketPotential:     clip01(b.MarketPotential),
		ProjectViability:    clip01(b.ProjectViability),
		StrategicFit:        clip01(b.StrategicFit),
		TimelineScore:       clip01(b.TimelineScore),
		RiskScore:           clip01(b.RiskScore),
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

// weightedMean computes the §4.5.1 weighted mean, inverting risk_score
// before averaging (a higher risk_score lowers the composite score).
func weightedMean(b model.OpportunityBreakdown) float64 {
	return b.ApprovalProbability*weightApproval +
		b.MarketPotential*weightMarket +
		b.ProjectViability*weightViability +
		b.StrategicFit*weightStrategic +
		b.TimelineScore*weightTimeline +
		(1-b.RiskScore)*weightRisk
}

// heuristic computes a deterministic type/status-based fallback score
// when the LLM call fails or its reply fails to parse (§4.5.1).
func (s *Scorer) heuristic(app *model.PlanningApplication) *Result {
	breakdown := model.OpportunityBreakdown{
		ApprovalProbability: statusApprovalPrior(app.Status),
		MarketPotential:     0.5,
		ProjectViability:    typeViabilityPrior(app.DevelopmentType),
		StrategicFit:        0.5,
		TimelineScore:       0.5,
		RiskScore:           0.5,
	}
	weighted := weightedMean(breakdown)

	return &Result{
		OpportunityScore:    int(math.Round(weighted * 100)),
		ApprovalProbability: breakdown.ApprovalProbability,
		ConfidenceScore:     fallbackConfidence,
		Breakdown:           breakdown,
		Rationale:           "heuristic fallback: LLM scoring call failed or its reply could not be parsed",
		UsedFallback:        true,
	}
}

func statusApprovalPrior(status model.Status) float64 {
	switch status {
	case model.StatusApproved:
		return 0.9
	case model.StatusRejected, model.StatusWithdrawn:
		return 0.2
	case model.StatusUnderConsideration, model.StatusValidated, model.StatusSubmitted:
		return 0.55
	case model.StatusAppealed:
		return 0.4
	default:
		return 0.5
	}
}

func typeViabilityPrior(developmentType string) float64 {
	switch strings.ToLower(developmentType) {
	case "residential", "householder":
		return 0.6
	case "commercial", "mixed_use":
		return 0.55
	case "industrial":
		return 0.5
	default:
		return 0.45
	}
}

func applicationPrompt(app *model.PlanningApplication) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application %s (%s)\n", app.ApplicationID, app.Reference)
	fmt.Fprintf(&b, "Authority: %s\n", app.Authority)
	fmt.Fprintf(&b, "Status: %s\n", app.Status)
	fmt.Fprintf(&b, "Development type: %s\n", app.DevelopmentType)
	fmt.Fprintf(&b, "Description: %s\n", app.Description)
	if app.ProjectValue != nil {
		fmt.Fprintf(&b, "Project value: %.0f\n", *app.ProjectValue)
	}
	if app.NumUnits != nil {
		fmt.Fprintf(&b, "Units: %d\n", *app.NumUnits)
	}
	fmt.Fprintf(&b, "Public comments: %d support / %d objection / %d neutral\n",
		app.PublicComments.SupportCount, app.PublicComments.ObjectionCount, app.PublicComments.NeutralCount)
	return b.String()
}
