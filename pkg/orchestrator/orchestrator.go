// Package orchestrator implements the AI Orchestrator (C6): feature
// resolution by processing mode, a cache-checked single-application
// pipeline with per-feature failure isolation, and a bounded-concurrency
// batch runner.
//
// Grounded on pkg/agent/orchestrator/types.go's SubAgentDeps/guardrail
// shape (bundled dependencies, a concurrency guardrail, per-execution
// result isolation) adapted from goroutine-per-sub-agent dispatch with a
// results channel to a fixed four-feature fan-out per application, since
// §4.6's feature set is static rather than a dynamically composed agent
// chain.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/planning-explorer/core/pkg/cache"
	"github.com/planning-explorer/core/pkg/capabilities/market"
	"github.com/planning-explorer/core/pkg/capabilities/scoring"
	"github.com/planning-explorer/core/pkg/capabilities/summarize"
	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/model"
)

// Scorer is the subset of scoring.Scorer the Orchestrator depends on.
type Scorer interface {
	Score(ctx context.Context, app *model.PlanningApplication) (*scoring.Result, error)
}

// Summarizer is the subset of summarize.Summarizer the Orchestrator
// depends on.
type Summarizer interface {
	Summarize(ctx context.Context, app *model.PlanningApplication, summaryType summarize.SummaryType, length summarize.SummaryLength) (*summarize.Result, error)
}

// Embedder is the subset of embedding.Service the Orchestrator depends
// on.
type Embedder interface {
	GenerateApplicationEmbedding(ctx context.Context, app *model.PlanningApplication, t embedding.TextType) (*embedding.Result, error)
}

// MarketAnalyzer is the subset of market.Analyzer the Orchestrator
// depends on.
type MarketAnalyzer interface {
	Analyze(ctx context.Context, apps []*model.PlanningApplication, period market.AnalysisPeriod, geoScope string) (*market.Report, error)
}

// Cache is the subset of *cache.Manager the Orchestrator depends on.
type Cache interface {
	Get(ctx context.Context, key string, typ model.CacheType) (any, bool)
	Set(ctx context.Context, key string, value any, typ model.CacheType, opts cache.SetOptions) bool
}

// defaultFeaturesByMode implements §4.6 step 1's per-mode default
// feature sets.
var defaultFeaturesByMode = map[model.ProcessingMode][]model.Feature{
	model.ModeFast:          {model.FeatureOpportunityScoring},
	model.ModeStandard:      {model.FeatureOpportunityScoring, model.FeatureSummarization, model.FeatureMarketContext},
	model.ModeComprehensive: {model.FeatureOpportunityScoring, model.FeatureSummarization, model.FeatureEmbeddings, model.FeatureMarketContext},
	model.ModeBatch:         {model.FeatureOpportunityScoring, model.FeatureEmbeddings},
}

// Orchestrator is the AI Orchestrator (C6).
type Orchestrator struct {
	scorer     Scorer
	summarizer Summarizer
	embedder   Embedder
	market     MarketAnalyzer
	cache      Cache
}

// New builds an Orchestrator over its four capabilities and the shared
// Cache Manager.
func New(scorer Scorer, summarizer Summarizer, embedder Embedder, marketAnalyzer MarketAnalyzer, c Cache) *Orchestrator {
	return &Orchestrator{scorer: scorer, summarizer: summarizer, embedder: embedder, market: marketAnalyzer, cache: c}
}

// ProcessApplication runs app through its resolved feature set (§4.6).
func (o *Orchestrator) ProcessApplication(ctx context.Context, app *model.PlanningApplication, mode model.ProcessingMode, features []model.Feature) (*model.ProcessingResult, error) {
	start := time.Now()

	resolved := features
	if len(resolved) == 0 {
		resolved = defaultFeaturesByMode[mode]
	}
	resolved = o.availableFeatures(resolved)

	cacheKey := cacheKeyFor(app.ApplicationID, resolved)
	if cached, ok := o.cache.Get(ctx, cacheKey, model.CacheTypeAIProcessing); ok {
		result, ok := cached.(model.ProcessingResult)
		if !ok {
			// *cache.Manager returns the JSON-decoded form; round-trip it.
			if buf, err := json.Marshal(cached); err == nil {
				ok = json.Unmarshal(buf, &result) == nil
			}
		}
		if ok {
			result.Cached = true
			return &result, nil
		}
	}

	results := make(map[model.Feature]any, len(resolved))
	confidences := make(map[model.Feature]float64, len(resolved))
	var errs, warnings []string

	for _, feature := range resolved {
		value, confidence, err := o.runFeature(ctx, app, feature)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", feature, err))
			warnings = append(warnings, fmt.Sprintf("feature %q failed and was skipped", feature))
			continue
		}
		results[feature] = value
		confidences[feature] = confidence
	}

	processed := make([]model.Feature, 0, len(results))
	for feature := range results {
		processed = append(processed, feature)
	}
	sort.Slice(processed, func(i, j int) bool { return processed[i] < processed[j] })

	result := model.ProcessingResult{
		ApplicationID:     app.ApplicationID,
		FeaturesProcessed: processed,
		Results:           results,
		ProcessingTimeMS:  time.Since(start).Milliseconds(),
		Success:           len(errs) == 0,
		Errors:            errs,
		Warnings:          warnings,
		ConfidenceScores:  confidences,
		ConfidenceScore:   meanConfidence(confidences),
		GeneratedAt:       time.Now(),
	}

	if result.Success {
		o.cache.Set(ctx, cacheKey, result, model.CacheTypeAIProcessing, cacheOptionsFor(mode, resolved))
	}
	return &result, nil
}

func meanConfidence(confidences map[model.Feature]float64) float64 {
	if len(confidences) == 0 {
		return 0.5
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}

// cacheOptionsFor implements §4.6 step 5's TTL/level rule.
func cacheOptionsFor(mode model.ProcessingMode, features []model.Feature) cache.SetOptions {
	ttl := 24 * time.Hour
	level := model.CacheLevelNormal

	if mode == model.ModeComprehensive {
		ttl = 48 * time.Hour
		level = model.CacheLevelHigh
	}
	for _, f := range features {
		if f == model.FeatureEmbeddings {
			ttl = 72 * time.Hour
			break
		}
	}

	return cache.SetOptions{TTL: ttl, Level: level}
}

func cacheKeyFor(applicationID string, features []model.Feature) string {
	sorted := make([]string, len(features))
	for i, f := range features {
		sorted[i] = string(f)
	}
	sort.Strings(sorted)
	return applicationID + "\x1f" + strings.Join(sorted, ",")
}

func (o *Orchestrator) availableFeatures(features []model.Feature) []model.Feature {
	available := make([]model.Feature, 0, len(features))
	for _, f := range features {
		switch f {
		case model.FeatureOpportunityScoring:
			if o.scorer != nil {
				available = append(available, f)
			}
		case model.FeatureSummarization:
			if o.summarizer != nil {
				available = append(available, f)
			}
		case model.FeatureEmbeddings:
			if o.embedder != nil {
				available = append(available, f)
			}
		case model.FeatureMarketContext:
			if o.market != nil {
				available = append(available, f)
			}
		}
	}
	return available
}

func (o *Orchestrator) runFeature(ctx context.Context, app *model.PlanningApplication, feature model.Feature) (any, float64, error) {
	switch feature {
	case model.FeatureOpportunityScoring:
		result, err := o.scorer.Score(ctx, app)
		if err != nil {
			return nil, 0, err
		}
		return result, result.ConfidenceScore, nil

	case model.FeatureSummarization:
		result, err := o.summarizer.Summarize(ctx, app, summarize.SummaryGeneral, summarize.LengthMedium)
		if err != nil {
			return nil, 0, err
		}
		return result, result.ConfidenceScore, nil

	case model.FeatureEmbeddings:
		result, err := o.embedder.GenerateApplicationEmbedding(ctx, app, embedding.TextTypeCombined)
		if err != nil {
			return nil, 0, err
		}
		return result, result.ConfidenceScore, nil

	case model.FeatureMarketContext:
		report, err := o.market.Analyze(ctx, []*model.PlanningApplication{app}, market.PeriodLastQuarter, app.Authority)
		if err != nil {
			return nil, 0, err
		}
		return report, report.DataQualityScore, nil

	default:
		return nil, 0, fmt.Errorf("unrecognized feature %q", feature)
	}
}

// defaultMaxConcurrent is ProcessBatch's default fan-out width (§4.6).
const defaultMaxConcurrent = 10

// ProcessBatch fans ProcessApplication out across apps with a bounded
// concurrency semaphore of size maxConcurrent (§4.6).
func (o *Orchestrator) ProcessBatch(ctx context.Context, apps []*model.PlanningApplication, mode model.ProcessingMode, features []model.Feature, maxConcurrent int) (*model.BatchProcessingResult, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	results := make([]model.ProcessingResult, len(apps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, app := range apps {
		i, app := i, app
		g.Go(func() error {
			result, err := o.ProcessApplication(gctx, app, mode, features)
			if err != nil {
				results[i] = model.ProcessingResult{
					ApplicationID: app.ApplicationID,
					Success:       false,
					Errors:        []string{err.Error()},
					GeneratedAt:   time.Now(),
				}
				return nil
			}
			results[i] = *result
			return nil
		})
	}
	_ = g.Wait() // per-application failures are captured in results, never abort the batch

	return aggregateBatch(results), nil
}

func aggregateBatch(results []model.ProcessingResult) *model.BatchProcessingResult {
	agg := &model.BatchProcessingResult{
		Results:      results,
		FeatureUsage: map[model.Feature]int{},
		TotalCount:   len(results),
	}

	var confidenceSum float64
	durations := make([]int64, 0, len(results))

	for _, r := range results {
		if r.Success {
			agg.SuccessCount++
		} else {
			agg.FailureCount++
		}
		confidenceSum += r.ConfidenceScore
		durations = append(durations, r.ProcessingTimeMS)
		for _, f := range r.FeaturesProcessed {
			agg.FeatureUsage[f]++
		}
	}

	if agg.TotalCount > 0 {
		agg.SuccessRate = float64(agg.SuccessCount) / float64(agg.TotalCount)
		agg.AverageConfidence = confidenceSum / float64(agg.TotalCount)
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	agg.P50ProcessingMS = percentile(durations, 0.50)
	agg.P95ProcessingMS = percentile(durations, 0.95)

	return agg
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
