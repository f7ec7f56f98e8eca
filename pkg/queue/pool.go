package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/planning-explorer/core/pkg/cleanup"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/events"
	"github.com/planning-explorer/core/pkg/model"
)

// Pool is the Background Processor (C7): a TaskQueue feeding a fixed
// set of workers, backed by a TaskStore that remains the source of
// truth for every task regardless of queue membership.
//
// Grounded on the teacher's pkg/queue/pool.go WorkerPool (fixed worker
// count, graceful Start/Stop, a per-session cancel registry) adapted
// from a database session pool to an in-memory priority task pool.
type Pool struct {
	cfg       config.QueueConfig
	queue     *TaskQueue
	store     *TaskStore
	loader    ApplicationLoader
	processor BatchProcessor
	callback  callbackPoster
	publisher Publisher

	workers []*worker

	cancelMu      sync.Mutex
	activeCancels map[string]context.CancelFunc

	sched *cleanup.Scheduler

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPool builds a Pool. callback may be nil to disable callback posting.
func NewPool(cfg config.QueueConfig, loader ApplicationLoader, processor BatchProcessor, callback callbackPoster) *Pool {
	return &Pool{
		cfg:           cfg,
		queue:         NewTaskQueue(),
		store:         NewTaskStore(),
		loader:        loader,
		processor:     processor,
		callback:      callback,
		activeCancels: map[string]context.CancelFunc{},
	}
}

// SetPublisher attaches an event publisher used to broadcast task
// progress and terminal-state transitions. Called once during startup,
// mirroring the teacher's ConnectionManager.SetListener.
func (p *Pool) SetPublisher(publisher Publisher) {
	p.publisher = publisher
}

func (p *Pool) notify(taskID string, eventType string, payload any) {
	if p.publisher == nil {
		return
	}
	_ = p.publisher.Publish(events.TaskChannel(taskID), eventType, payload)
	_ = p.publisher.Publish(events.GlobalTasksChannel, eventType, payload)
}

func (p *Pool) workerCount() int {
	if p.cfg.MaxWorkers > 0 {
		return p.cfg.MaxWorkers
	}
	return 5
}

func (p *Pool) pollInterval() time.Duration {
	if p.cfg.PollInterval > 0 {
		return p.cfg.PollInterval
	}
	return time.Second
}

// Start spawns the worker pool and the cleanup-sweep goroutine.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		n := p.workerCount()
		p.workers = make([]*worker, 0, n)
		for i := 0; i < n; i++ {
			w := newWorker(workerID(i), p, p.pollInterval())
			p.workers = append(p.workers, w)
			w.start(ctx)
		}
		interval := p.cfg.CleanupInterval
		if interval <= 0 {
			interval = time.Hour
		}
		maxAge := time.Duration(p.cfg.MaxAgeHours) * time.Hour
		if maxAge <= 0 {
			maxAge = 24 * time.Hour
		}
		p.sched = cleanup.NewScheduler(cleanup.Job{
			Name:     "task-registry-prune",
			Interval: interval,
			Run:      func(ctx context.Context) { p.store.PruneTerminalOlderThan(maxAge) },
		})
		p.sched.Start(ctx)
	})
}

// Stop signals every worker and the cleanup sweep to drain and exit.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		for _, w := range p.workers {
			w.stop()
		}
		if p.sched != nil {
			p.sched.Stop()
		}
	})
}

// Enqueue registers a new task and places it on the pending queue.
func (p *Pool) Enqueue(task *model.BackgroundTask) {
	task.Status = model.TaskStatusPending
	task.Progress = 0
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	p.store.Put(task)
	p.queue.Enqueue(task.TaskID, task.Priority, task.RetryCount)
}

// Get returns a task's current snapshot.
func (p *Pool) Get(taskID string) (model.BackgroundTask, bool) {
	return p.store.Get(taskID)
}

// List returns every known task.
func (p *Pool) List() []model.BackgroundTask {
	return p.store.List()
}

// Cancel cancels a pending or in-progress task. Pending tasks are
// removed from the queue immediately; in-progress tasks are signalled
// via their registered context.CancelFunc and the worker marks them
// cancelled once it observes ctx.Err().
func (p *Pool) Cancel(taskID string) bool {
	if p.queue.RemovePending(taskID) {
		now := time.Now()
		p.store.Mutate(taskID, func(t *model.BackgroundTask) {
			t.Status = model.TaskStatusCancelled
			t.CompletedAt = &now
		})
		return true
	}

	p.cancelMu.Lock()
	cancel, ok := p.activeCancels[taskID]
	p.cancelMu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Health reports the pool's current worker and queue state.
func (p *Pool) Health() PoolHealth {
	stats := make([]WorkerHealth, 0, len(p.workers))
	active := 0
	for _, w := range p.workers {
		h := w.health()
		stats = append(stats, h)
		if h.Status == string(workerWorking) {
			active++
		}
	}
	return PoolHealth{
		TotalWorkers:  len(p.workers),
		ActiveWorkers: active,
		QueueDepth:    p.queue.Len(),
		WorkerStats:   stats,
	}
}

func (p *Pool) registerCancel(taskID string, cancel context.CancelFunc) {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()
	p.activeCancels[taskID] = cancel
}

func (p *Pool) unregisterCancel(taskID string) {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()
	delete(p.activeCancels, taskID)
}

func (p *Pool) postCallback(ctx context.Context, taskID string) {
	if p.callback == nil {
		return
	}
	task, ok := p.store.Get(taskID)
	if !ok {
		return
	}
	p.callback.Post(ctx, task)
}

func workerID(i int) string {
	return "worker-" + strconv.Itoa(i)
}
