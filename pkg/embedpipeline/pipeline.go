package embedpipeline

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/events"
	"github.com/planning-explorer/core/pkg/model"
)

// costPerToken is a placeholder per-token cost used to translate a
// batch's token usage into a dollar figure for the daily cap. It is one
// flat rate for every model; the per-model cost table pkg/llm.Client
// uses for its own cost accounting is not consulted here.
const costPerToken = 0.0000001

// Pipeline is the Continuous Embedding Pipeline (C8).
type Pipeline struct {
	discover  Discoverer
	embed     Embedder
	update    Updater
	cost      CostTracker
	cfg       config.ContinuousConfig
	publisher Publisher

	consecutiveFailures int
	failMu              sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Pipeline. cost may be nil, in which case an in-process
// daily tracker is created.
func New(discover Discoverer, embed Embedder, update Updater, cost CostTracker, cfg config.ContinuousConfig) *Pipeline {
	if cost == nil {
		cost = newDailyCostTracker()
	}
	return &Pipeline{
		discover: discover,
		embed:    embed,
		update:   update,
		cost:     cost,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
	}
}

// SetPublisher attaches an event publisher used to broadcast cycle
// start/completion status on events.PipelineChannel.
func (p *Pipeline) SetPublisher(publisher Publisher) {
	p.publisher = publisher
}

func (p *Pipeline) interval() time.Duration {
	if p.cfg.ScheduleIntervalMinutes > 0 {
		return time.Duration(p.cfg.ScheduleIntervalMinutes) * time.Minute
	}
	return 60 * time.Minute
}

func (p *Pipeline) rateLimitDelay() time.Duration {
	if p.cfg.RateLimitDelaySeconds > 0 {
		return time.Duration(p.cfg.RateLimitDelaySeconds * float64(time.Second))
	}
	return 500 * time.Millisecond
}

func (p *Pipeline) batchSize() int {
	if p.cfg.BatchSize > 0 {
		return p.cfg.BatchSize
	}
	return 50
}

func (p *Pipeline) dailyCostLimit() float64 {
	if p.cfg.DailyCostLimitUSD > 0 {
		return p.cfg.DailyCostLimitUSD
	}
	return math.MaxFloat64
}

func (p *Pipeline) failureThreshold() int {
	if p.cfg.FailureThreshold > 0 {
		return p.cfg.FailureThreshold
	}
	return 5
}

func (p *Pipeline) lowPriorityCap() int {
	if p.cfg.LowPriorityCapPerCycle > 0 {
		return p.cfg.LowPriorityCapPerCycle
	}
	return 100
}

// Start launches the scheduled sweep loop (§4.8).
func (p *Pipeline) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (p *Pipeline) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Pipeline) run(ctx context.Context) {
	defer p.wg.Done()

	p.runCycleWithBackoff(ctx)

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if p.runCycleWithBackoff(ctx) {
				return
			}
		}
	}
}

// runCycleWithBackoff runs one cycle and, on failure, sleeps per the
// exponential backoff schedule (30*2^(k-1) seconds after the k-th
// consecutive failure, capped at 300s) before
// returning. It returns true when consecutive failures have reached
// the configured threshold and the loop should abort (§4.8 step 5).
func (p *Pipeline) runCycleWithBackoff(ctx context.Context) bool {
	stats, err := p.RunCycle(ctx)
	if err == nil && (stats == nil || stats.Failed == 0) {
		p.resetFailures()
		return false
	}

	k := p.recordFailure()
	if k >= p.failureThreshold() {
		slog.Error("embedding pipeline aborting after consecutive failures", "consecutive_failures", k)
		return true
	}

	delay := backoffDelay(k)
	slog.Warn("embedding pipeline cycle failed, backing off", "consecutive_failures", k, "delay", delay)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	case <-p.stopCh:
	}
	return false
}

func backoffDelay(k int) time.Duration {
	seconds := 30 * math.Pow(2, float64(k-1))
	if seconds > 300 {
		seconds = 300
	}
	return time.Duration(seconds * float64(time.Second))
}

func (p *Pipeline) recordFailure() int {
	p.failMu.Lock()
	defer p.failMu.Unlock()
	p.consecutiveFailures++
	return p.consecutiveFailures
}

func (p *Pipeline) publishCycleCompleted(stats *CycleStats) {
	if p.publisher == nil {
		return
	}
	_ = p.publisher.Publish(events.PipelineChannel, events.EventTypePipelineCycleCompleted, events.PipelineCyclePayload{
		Discovered: stats.Discovered,
		Embedded:   stats.Embedded,
		Failed:     stats.Failed,
		CostUSD:    stats.CostUSD,
		Aborted:    stats.Aborted,
		AbortedWhy: stats.AbortedWhy,
	})
}

func (p *Pipeline) resetFailures() {
	p.failMu.Lock()
	defer p.failMu.Unlock()
	p.consecutiveFailures = 0
}

// RunCycle executes one discovery-and-embed sweep across all four
// priority buckets (§4.8 steps 1-4).
func (p *Pipeline) RunCycle(ctx context.Context) (*CycleStats, error) {
	p.cost.ResetIfNewDay()
	stats := &CycleStats{}

	if p.publisher != nil {
		_ = p.publisher.Publish(events.PipelineChannel, events.EventTypePipelineCycleStarted, nil)
	}
	defer p.publishCycleCompleted(stats)

	priorities := []struct {
		level Priority
		cap   int
	}{
		{PriorityCritical, 0},
		{PriorityHigh, 0},
		{PriorityNormal, 0},
		{PriorityLow, p.lowPriorityCap()},
	}

	for _, bucket := range priorities {
		limit := bucket.cap
		apps, err := p.discover.DiscoverMissingEmbeddings(ctx, bucket.level, limit)
		if err != nil {
			return stats, err
		}
		stats.Discovered += len(apps)

		for start := 0; start < len(apps); start += p.batchSize() {
			end := min(start+p.batchSize(), len(apps))
			batch := apps[start:end]

			for _, app := range batch {
				if p.cost.Today() >= p.dailyCostLimit() {
					stats.Aborted = true
					stats.AbortedWhy = "daily_cost_limit_reached"
					stats.CostUSD = p.cost.Today()
					return stats, nil
				}

				if err := p.embedOne(ctx, app, bucket.level); err != nil {
					stats.Failed++
					slog.Warn("embedding failed for application", "application_id", app.ApplicationID, "error", err)
				} else {
					stats.Embedded++
				}

				select {
				case <-time.After(p.rateLimitDelay()):
				case <-ctx.Done():
					stats.CostUSD = p.cost.Today()
					return stats, ctx.Err()
				}
			}

			if p.cost.Today() >= p.dailyCostLimit() {
				stats.Aborted = true
				stats.AbortedWhy = "daily_cost_limit_reached"
				break
			}
		}
	}

	stats.CostUSD = p.cost.Today()
	return stats, nil
}

// ProcessDocumentEvent embeds a single document outside the scheduled
// sweep, for event-driven mode (§4.8's ProcessDocumentEvent).
func (p *Pipeline) ProcessDocumentEvent(ctx context.Context, app *model.PlanningApplication, eventType string) error {
	return p.embedOne(ctx, app, PriorityHigh)
}

func (p *Pipeline) embedOne(ctx context.Context, app *model.PlanningApplication, priority Priority) error {
	result, err := p.embed.GenerateApplicationEmbedding(ctx, app, embedding.TextTypeDescription)
	if err != nil {
		return err
	}

	p.cost.Add(float64(result.TokenCount) * costPerToken)

	fields := map[string]any{
		"description_embedding":  result.Embedding,
		"embedding_dimensions":   len(result.Embedding),
		"embedding_model":        result.ModelUsed,
		"embedding_generated_at": time.Now().UTC().Format(time.RFC3339),
		"embedding_text_hash":    result.TextHash,
		"embedding_confidence":   result.ConfidenceScore,
		"embedding_priority":     string(priority),
	}
	return p.update.UpdateEmbedding(ctx, app.ApplicationID, fields)
}
