package queue

import (
	"sync"
	"time"

	"github.com/planning-explorer/core/pkg/model"
)

// TaskStore holds every task (pending, in-progress, and terminal) by
// ID. The priority heap only ever holds pending task IDs; TaskStore is
// the single source of truth for a task's current state.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*model.BackgroundTask
}

// NewTaskStore builds an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[string]*model.BackgroundTask{}}
}

// Put inserts or replaces a task.
func (s *TaskStore) Put(task *model.BackgroundTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.TaskID] = task
}

// Get returns a copy of the stored task, if present.
func (s *TaskStore) Get(taskID string) (model.BackgroundTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return model.BackgroundTask{}, false
	}
	return *task, true
}

// Mutate applies fn to the stored task under the store's write lock,
// so status/progress transitions are atomic with respect to
// concurrent Get/List calls.
func (s *TaskStore) Mutate(taskID string, fn func(*model.BackgroundTask)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return false
	}
	fn(task)
	return true
}

// List returns a snapshot of every stored task.
func (s *TaskStore) List() []model.BackgroundTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.BackgroundTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}

// Delete removes a task.
func (s *TaskStore) Delete(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
}

// PruneTerminalOlderThan deletes every terminal task (completed,
// failed, cancelled) whose CompletedAt is older than maxAge, returning
// the count removed (§4.7's cleanup sweeper).
func (s *TaskStore) PruneTerminalOlderThan(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, t := range s.tasks {
		if !isTerminal(t.Status) || t.CompletedAt == nil {
			continue
		}
		if t.CompletedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

func isTerminal(status model.TaskStatus) bool {
	switch status {
	case model.TaskStatusCompleted, model.TaskStatusFailed, model.TaskStatusCancelled:
		return true
	default:
		return false
	}
}
