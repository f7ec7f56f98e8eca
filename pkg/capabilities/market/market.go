// Package market implements Market Intelligence (§4.5.4): deterministic
// statistical aggregates over a set of planning applications, with an
// LLM synthesis pass limited to narrative insights and recommendations.
//
// Grounded on pkg/agent/controller/synthesis.go's tool-less single LLM
// call over previously computed context, adapted here so the "previous
// stage context" is a deterministic statistical summary computed in Go
// rather than another agent's output, and the LLM is never the source
// of the numeric figures themselves (§4.5.4: "deterministic statistical
// aggregates derived directly from the input set; LLM is used only to
// synthesize narrative insights/recommendations").
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/llm"
	"github.com/planning-explorer/core/pkg/model"
)

// AnalysisPeriod selects the lookback window over which applications
// were gathered (§4.5.4). The period itself is informational — the
// caller is responsible for pre-filtering apps to the window.
type AnalysisPeriod string

// Recognized analysis periods.
const (
	PeriodLastMonth   AnalysisPeriod = "last_month"
	PeriodLastQuarter AnalysisPeriod = "last_quarter"
	PeriodLastYear    AnalysisPeriod = "last_year"
	PeriodLast2Years  AnalysisPeriod = "last_2_years"
)

// Direction is the trend direction of a metric (§4.5.4).
type Direction string

// Recognized directions.
const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Trend is one tracked metric's movement (§4.5.4).
type Trend struct {
	Metric     string    `json:"metric"`
	Direction  Direction `json:"direction"`
	ChangePct  float64   `json:"change_pct"`
	Confidence float64   `json:"confidence"`
	Insight    string    `json:"insight,omitempty"`
}

// SegmentMetrics is the per-development-type segment breakdown
// (§4.5.4).
type SegmentMetrics struct {
	ApprovalRate     float64 `json:"approval_rate"`
	AvgProcessingDays float64 `json:"avg_processing_days"`
	VolumeTrend      Direction `json:"volume_trend"`
	ApprovalTrend    Direction `json:"approval_trend"`
}

// Report is Market Intelligence's output (§4.5.4).
type Report struct {
	MarketOverview   string                    `json:"market_overview"`
	Trends           []Trend                   `json:"trends"`
	MarketMetrics    map[string]SegmentMetrics `json:"market_metrics"`
	Opportunities    []string                  `json:"opportunities"`
	Risks            []string                  `json:"risks"`
	Recommendations  []string                  `json:"recommendations"`
	DataQualityScore float64                   `json:"data_quality_score"`
}

// Completer is the subset of *llm.Client Market Intelligence depends
// on, narrowed for testability.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, model, systemPrompt string, maxTokens int, temperature float64, useCache bool) (*llm.Response, error)
}

// Analyzer is Market Intelligence (C5.4).
type Analyzer struct {
	llmClient Completer
	cfg       config.LLMConfig
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(llmClient Completer, llmCfg config.LLMConfig) *Analyzer {
	return &Analyzer{llmClient: llmClient, cfg: llmCfg}
}

type narrative struct {
	Opportunities   []string `json:"opportunities"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
}

// Analyze computes the deterministic statistical report for apps over
// period and synthesizes narrative insights via the LLM (§4.5.4).
func (a *Analyzer) Analyze(ctx context.Context, apps []*model.PlanningApplication, period AnalysisPeriod, geoScope string) (*Report, error) {
	overview, trends, metrics, quality := aggregate(apps)

	report := &Report{
		MarketOverview:   overview,
		Trends:           trends,
		MarketMetrics:    metrics,
		DataQualityScore: quality,
	}

	n, err := a.synthesize(ctx, report, period, geoScope)
	if err != nil {
		report.Recommendations = []string{"insufficient data for narrative synthesis; statistical aggregates only"}
		return report, nil
	}

	report.Opportunities = n.Opportunities
	report.Risks = n.Risks
	report.Recommendations = n.Recommendations
	return report, nil
}

// aggregate derives market_overview, trends, market_metrics, and
// data_quality_score purely from the input set (§4.5.4).
func aggregate(apps []*model.PlanningApplication) (string, []Trend, map[string]SegmentMetrics, float64) {
	if len(apps) == 0 {
		return "no applications in scope", nil, map[string]SegmentMetrics{}, 0
	}

	bySegment := map[string][]*model.PlanningApplication{}
	var withStatusCount int
	for _, app := range apps {
		segment := app.DevelopmentType
		if segment == "" {
			segment = "unclassified"
		}
		bySegment[segment] = append(bySegment[segment], app)
		if app.Status != "" {
			withStatusCount++
		}
	}

	metrics := make(map[string]SegmentMetrics, len(bySegment))
	segments := make([]string, 0, len(bySegment))
	for segment := range bySegment {
		segments = append(segments, segment)
	}
	sort.Strings(segments)

	for _, segment := range segments {
		segApps := bySegment[segment]
		metrics[segment] = SegmentMetrics{
			ApprovalRate:      approvalRate(segApps),
			AvgProcessingDays: avgProcessingDays(segApps),
			VolumeTrend:       DirectionStable,
			ApprovalTrend:     DirectionStable,
		}
	}

	overallApproval := approvalRate(apps)
	trends := []Trend{
		{Metric: "approval_rate", Direction: directionFromRate(overallApproval), ChangePct: 0, Confidence: dataQuality(apps, withStatusCount)},
		{Metric: "volume", Direction: DirectionStable, ChangePct: 0, Confidence: dataQuality(apps, withStatusCount)},
	}

	overview := fmt.Sprintf("%d applications across %d segments, %.0f%% approval rate", len(apps), len(segments), overallApproval*100)
	return overview, trends, metrics, dataQuality(apps, withStatusCount)
}

func approvalRate(apps []*model.PlanningApplication) float64 {
	var decided, approved int
	for _, app := range apps {
		if app.Decision == nil {
			continue
		}
		decided++
		if *app.Decision == model.DecisionApproved {
			approved++
		}
	}
	if decided == 0 {
		return 0
	}
	return float64(approved) / float64(decided)
}

func avgProcessingDays(apps []*model.PlanningApplication) float64 {
	var total float64
	var n int
	for _, app := range apps {
		if app.DecisionDays == nil {
			continue
		}
		total += float64(*app.DecisionDays)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func directionFromRate(rate float64) Direction {
	switch {
	case rate >= 0.6:
		return DirectionUp
	case rate <= 0.4:
		return DirectionDown
	default:
		return DirectionStable
	}
}

// dataQuality is the fraction of applications carrying a recorded
// status, used both as the report's data_quality_score and as each
// trend's confidence.
func dataQuality(apps []*model.PlanningApplication, withStatusCount int) float64 {
	if len(apps) == 0 {
		return 0
	}
	return float64(withStatusCount) / float64(len(apps))
}

func (a *Analyzer) synthesize(ctx context.Context, report *Report, period AnalysisPeriod, geoScope string) (*narrative, error) {
	systemPrompt := "You are a UK planning-market analyst. Given statistical aggregates, synthesize narrative " +
		"opportunities, risks, and recommendations. Reply with a single JSON object: " +
		`{"opportunities":["..."],"risks":["..."],"recommendations":["..."]}. No prose outside the JSON object.`

	userPrompt := fmt.Sprintf("Period: %s\nGeographic scope: %s\nOverview: %s\nTrends: %+v\nSegments: %+v",
		period, geoScope, report.MarketOverview, report.Trends, report.MarketMetrics)

	resp, err := a.llmClient.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: userPrompt}}, a.cfg.DefaultModel, systemPrompt, 768, 0.3, false)
	if err != nil {
		return nil, err
	}

	var n narrative
	if jsonErr := json.Unmarshal([]byte(extractJSON(resp.Content)), &n); jsonErr != nil {
		return nil, fmt.Errorf("parsing market-intelligence narrative: %w", jsonErr)
	}
	return &n, nil
}

func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
