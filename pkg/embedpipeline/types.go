// Package embedpipeline implements the Continuous Embedding Pipeline
// (C8): a scheduled sweeper that discovers documents missing a
// description embedding, processes them in priority order within a
// daily cost cap, and backs off on sustained failure.
//
// Grounded on the teacher's pkg/cleanup/service.go ticker-loop shape
// (Start/Stop/run with a select on ctx.Done/ticker.C) adapted from a
// fixed-interval retention sweep to a priority-bucketed discovery-and-
// embed cycle, and on pkg/queue/worker.go's poll loop for the
// event-driven ProcessDocumentEvent path.
package embedpipeline

import (
	"context"

	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/model"
)

// Priority buckets discovered documents by staleness (§4.8).
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Embedder is the subset of *embedding.Service the pipeline depends on.
type Embedder interface {
	GenerateApplicationEmbedding(ctx context.Context, app *model.PlanningApplication, t embedding.TextType) (*embedding.Result, error)
}

// Discoverer finds documents missing an embedding, bucketed by
// priority. Backed by esgateway in production.
type Discoverer interface {
	DiscoverMissingEmbeddings(ctx context.Context, priority Priority, limit int) ([]*model.PlanningApplication, error)
}

// Updater writes the embedding result back to the document store.
type Updater interface {
	UpdateEmbedding(ctx context.Context, applicationID string, fields map[string]any) error
}

// CostTracker accumulates the day's spend and answers whether the cap
// has been hit. ResetIfNewDay implements §4.8 step 1 ("reset daily cost
// counter when date rolls over").
type CostTracker interface {
	Add(usd float64)
	Today() float64
	ResetIfNewDay()
}

// Publisher is the subset of *events.Broadcaster the pipeline depends
// on, satisfied by (*events.Broadcaster).Publish.
type Publisher interface {
	Publish(channel string, eventType string, payload any) error
}

// CycleStats summarizes one sweep for logging/metrics.
type CycleStats struct {
	Discovered int
	Embedded   int
	Failed     int
	CostUSD    float64
	Aborted    bool
	AbortedWhy string
}
