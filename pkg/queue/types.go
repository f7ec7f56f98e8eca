// Package queue implements the Background Processor (C7): a priority
// task queue backed by container/heap, N long-lived workers that
// invoke the AI Orchestrator, a full pending/in_progress/terminal state
// machine with retry-via-priority-degradation, cooperative
// cancellation, and a periodic cleanup sweep.
//
// Grounded on pkg/queue/pool.go and pkg/queue/worker.go's worker-pool
// shape (a session-registry of cancel functions, a poll loop per
// worker, graceful Stop draining in-flight work) adapted from a
// database-backed session queue to the in-memory priority queue
// required by §4.7 (no persistence layer is specified for background
// tasks).
package queue

import (
	"context"

	"github.com/planning-explorer/core/pkg/model"
)

// ApplicationLoader resolves a task's application_ids into full
// records for the AI Orchestrator.
type ApplicationLoader interface {
	LoadApplications(ctx context.Context, ids []string) ([]*model.PlanningApplication, error)
}

// BatchProcessor is the subset of *orchestrator.Orchestrator the
// Background Processor depends on.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, apps []*model.PlanningApplication, mode model.ProcessingMode, features []model.Feature, maxConcurrent int) (*model.BatchProcessingResult, error)
}

// Publisher is the subset of *events.Broadcaster the Background
// Processor depends on, satisfied by (*events.Broadcaster).Publish.
type Publisher interface {
	Publish(channel string, eventType string, payload any) error
}

// PoolHealth is a snapshot of the worker pool's state (§4.7).
type PoolHealth struct {
	TotalWorkers   int            `json:"total_workers"`
	ActiveWorkers  int            `json:"active_workers"`
	QueueDepth     int            `json:"queue_depth"`
	WorkerStats    []WorkerHealth `json:"worker_stats"`
}

// WorkerHealth is a snapshot of a single worker (§4.7).
type WorkerHealth struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CurrentTaskID    string `json:"current_task_id,omitempty"`
	TasksProcessed   int    `json:"tasks_processed"`
}
