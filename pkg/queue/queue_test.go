package queue

import (
	"testing"

	"github.com/planning-explorer/core/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_PopsHighestPriorityFirst(t *testing.T) {
	q := NewTaskQueue()
	q.Enqueue("low-task", model.TaskPriorityLow, 0)
	q.Enqueue("urgent-task", model.TaskPriorityUrgent, 0)
	q.Enqueue("normal-task", model.TaskPriorityNormal, 0)

	id, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "urgent-task", id)

	id, ok = q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "normal-task", id)

	id, ok = q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "low-task", id)

	_, ok = q.TryPop()
	assert.False(t, ok)
}

func TestTaskQueue_FIFOWithinSamePriority(t *testing.T) {
	q := NewTaskQueue()
	q.Enqueue("first", model.TaskPriorityNormal, 0)
	q.Enqueue("second", model.TaskPriorityNormal, 0)

	id, _ := q.TryPop()
	assert.Equal(t, "first", id)
	id, _ = q.TryPop()
	assert.Equal(t, "second", id)
}

func TestTaskQueue_RetryCountDegradesOrdinal(t *testing.T) {
	q := NewTaskQueue()
	q.Enqueue("fresh-low", model.TaskPriorityLow, 0)
	q.Enqueue("retried-urgent", model.TaskPriorityUrgent, 10)

	id, _ := q.TryPop()
	assert.Equal(t, "fresh-low", id, "a degraded retry should fall behind fresh low-priority work")
}

func TestTaskQueue_RemovePending(t *testing.T) {
	q := NewTaskQueue()
	q.Enqueue("a", model.TaskPriorityNormal, 0)
	q.Enqueue("b", model.TaskPriorityNormal, 0)

	assert.True(t, q.RemovePending("a"))
	assert.False(t, q.RemovePending("a"))

	id, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestTaskQueue_Len(t *testing.T) {
	q := NewTaskQueue()
	assert.Equal(t, 0, q.Len())
	q.Enqueue("a", model.TaskPriorityNormal, 0)
	q.Enqueue("b", model.TaskPriorityNormal, 0)
	assert.Equal(t, 2, q.Len())
	q.TryPop()
	assert.Equal(t, 1, q.Len())
}
