package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/planning-explorer/core/pkg/events"
	"github.com/planning-explorer/core/pkg/model"
)

// workerStatus mirrors the teacher's idle/working worker health states
// (pkg/queue/worker.go's WorkerStatus).
type workerStatus string

const (
	workerIdle    workerStatus = "idle"
	workerWorking workerStatus = "working"
)

// worker is a single long-lived goroutine that polls the shared
// TaskQueue and processes one task at a time (§4.7: "N long-lived
// workers... one in-flight task per worker").
type worker struct {
	id       string
	pool     *Pool
	pollInterval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu                sync.RWMutex
	status            workerStatus
	currentTaskID     string
	tasksProcessed    int
	lastActivity      time.Time
}

func newWorker(id string, pool *Pool, pollInterval time.Duration) *worker {
	return &worker{
		id:           id,
		pool:         pool,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
		status:       workerIdle,
		lastActivity: time.Now(),
	}
}

func (w *worker) start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

func (w *worker) stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *worker) health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Status:         string(w.status),
		CurrentTaskID:  w.currentTaskID,
		TasksProcessed: w.tasksProcessed,
	}
}

func (w *worker) run(ctx context.Context) {
	defer w.wg.Done()
	log := slog.With("worker_id", w.id)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		taskID, ok := w.pool.queue.TryPop()
		if !ok {
			select {
			case <-time.After(w.pollInterval):
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		if err := w.process(ctx, taskID); err != nil {
			log.Error("background task processing failed", "task_id", taskID, "error", err)
		}
	}
}

// process runs one task through §4.7's progress curve and terminal
// transitions.
func (w *worker) process(ctx context.Context, taskID string) error {
	task, ok := w.pool.store.Get(taskID)
	if !ok {
		return nil
	}
	if task.Status == model.TaskStatusCancelled {
		return nil
	}

	taskCtx, cancel := context.WithCancel(ctx)
	w.pool.registerCancel(taskID, cancel)
	defer w.pool.unregisterCancel(taskID)

	w.setWorking(taskID)
	defer w.setIdle()

	now := time.Now()
	w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) {
		t.Status = model.TaskStatusInProgress
		t.StartedAt = &now
		t.Progress = 0.1
	})
	w.pool.notify(taskID, events.EventTypeTaskProgress, events.TaskProgressPayload{TaskID: taskID, Status: string(model.TaskStatusInProgress), Progress: 0.1})

	apps, err := w.pool.loader.LoadApplications(taskCtx, task.ApplicationIDs)
	if err != nil {
		return w.handleFailure(taskID, err)
	}
	w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) { t.Progress = 0.2 })
	w.pool.notify(taskID, events.EventTypeTaskProgress, events.TaskProgressPayload{TaskID: taskID, Status: string(model.TaskStatusInProgress), Progress: 0.2})

	result, err := w.pool.processor.ProcessBatch(taskCtx, apps, task.ProcessingMode, task.Features, 0)
	if err != nil {
		if taskCtx.Err() == context.Canceled {
			return w.handleCancellation(taskID)
		}
		return w.handleFailure(taskID, err)
	}
	w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) { t.Progress = 0.9 })
	w.pool.notify(taskID, events.EventTypeTaskProgress, events.TaskProgressPayload{TaskID: taskID, Status: string(model.TaskStatusInProgress), Progress: 0.9})

	completedAt := time.Now()
	w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) {
		t.Status = model.TaskStatusCompleted
		t.Progress = 1.0
		t.Result = result
		t.CompletedAt = &completedAt
	})
	w.tasksProcessed++
	w.pool.notify(taskID, events.EventTypeTaskCompleted, events.TaskTerminalPayload{TaskID: taskID, Status: string(model.TaskStatusCompleted)})
	w.pool.postCallback(ctx, taskID)
	return nil
}

func (w *worker) handleFailure(taskID string, taskErr error) error {
	var retryCount int
	var priority model.TaskPriority
	var maxRetries int
	w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) {
		t.RetryCount++
		retryCount = t.RetryCount
		priority = t.Priority
	})
	maxRetries = w.pool.cfg.MaxRetries

	if retryCount < maxRetries {
		w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) {
			t.Status = model.TaskStatusPending
			t.Progress = 0
		})
		w.pool.queue.Enqueue(taskID, priority, retryCount)
		return nil
	}

	completedAt := time.Now()
	w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) {
		t.Status = model.TaskStatusFailed
		t.ErrorMessage = taskErr.Error()
		t.CompletedAt = &completedAt
	})
	w.pool.notify(taskID, events.EventTypeTaskFailed, events.TaskTerminalPayload{TaskID: taskID, Status: string(model.TaskStatusFailed), ErrorMessage: taskErr.Error()})
	w.pool.postCallback(context.Background(), taskID)
	return taskErr
}

func (w *worker) handleCancellation(taskID string) error {
	completedAt := time.Now()
	w.pool.store.Mutate(taskID, func(t *model.BackgroundTask) {
		t.Status = model.TaskStatusCancelled
		t.CompletedAt = &completedAt
	})
	w.pool.notify(taskID, events.EventTypeTaskCancelled, events.TaskTerminalPayload{TaskID: taskID, Status: string(model.TaskStatusCancelled)})
	w.pool.postCallback(context.Background(), taskID)
	return nil
}

func (w *worker) setWorking(taskID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = workerWorking
	w.currentTaskID = taskID
	w.lastActivity = time.Now()
}

func (w *worker) setIdle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = workerIdle
	w.currentTaskID = ""
	w.lastActivity = time.Now()
}
