package queue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/planning-explorer/core/pkg/model"
)

// TaskQueue is the in-memory priority queue of pending task IDs
// (§4.7). Task content lives in a TaskStore; the queue only orders IDs.
type TaskQueue struct {
	mu      sync.Mutex
	pq      priorityQueue
	indexOf map[string]*pqItem
}

// NewTaskQueue builds an empty TaskQueue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{indexOf: map[string]*pqItem{}}
}

// Enqueue adds taskID at the given base priority, degraded by
// retryCount (§4.7).
func (q *TaskQueue) Enqueue(taskID string, priority model.TaskPriority, retryCount int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item := &pqItem{
		taskID:     taskID,
		ordinal:    priority.Ordinal() + retryCount,
		enqueuedAt: time.Now(),
	}
	q.indexOf[taskID] = item
	heap.Push(&q.pq, item)
}

// TryPop removes and returns the highest-priority pending task ID, or
// false if the queue is empty.
func (q *TaskQueue) TryPop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pq.Len() == 0 {
		return "", false
	}
	item := heap.Pop(&q.pq).(*pqItem)
	delete(q.indexOf, item.taskID)
	return item.taskID, true
}

// RemovePending removes taskID from the queue if it is still pending,
// reporting whether it was found (used by Cancel for tasks that
// haven't been picked up by a worker yet).
func (q *TaskQueue) RemovePending(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.indexOf[taskID]
	if !ok {
		return false
	}
	heap.Remove(&q.pq, item.index)
	delete(q.indexOf, taskID)
	return true
}

// Len reports the number of pending tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pq.Len()
}
