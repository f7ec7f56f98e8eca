package queue

import "time"

// pqItem is one pending task's position in the priority heap. ordinal
// is priority.Ordinal() degraded by retry_count (§4.7: "degraded
// retries add retry_count to the ordinal so repeat failures fall
// behind fresh work").
type pqItem struct {
	taskID     string
	ordinal    int
	enqueuedAt time.Time
	index      int
}

// priorityQueue orders pqItems ascending by (ordinal, enqueued_at), so
// heap.Pop always returns the highest-priority, oldest pending task
// (§4.7: "priority queue keyed by (priority_ordinal, enqueue_time)").
type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].ordinal != pq[j].ordinal {
		return pq[i].ordinal < pq[j].ordinal
	}
	return pq[i].enqueuedAt.Before(pq[j].enqueuedAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
