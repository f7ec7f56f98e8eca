// Package events provides in-process publish/subscribe event delivery
// for background-task progress and continuous-pipeline cycle status.
//
// Grounded on the teacher's pkg/events/manager.go ConnectionManager
// (a connections map plus a channel→subscriber-set map, broadcasting
// under a narrow lock window). This system has no cross-pod fan-out
// requirement — there is one long-lived `serve` process per deployment
// and no Postgres NOTIFY/LISTEN transport in its stack — so the
// WebSocket connection and LISTEN/UNLISTEN machinery those events map
// onto doesn't carry over; what's kept is the subscriber-registry and
// broadcast shape, retargeted to plain buffered Go channels any
// in-process consumer (an SSE handler, a test, a log sink) can read
// from.
package events

import "time"

// Event types published on a BackgroundProcessor task channel.
const (
	EventTypeTaskProgress  = "task.progress"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskFailed    = "task.failed"
	EventTypeTaskCancelled = "task.cancelled"
)

// Event types published on the continuous pipeline channel.
const (
	EventTypePipelineCycleStarted   = "pipeline.cycle_started"
	EventTypePipelineCycleCompleted = "pipeline.cycle_completed"
)

// GlobalTasksChannel carries every task's lifecycle events, for a
// dashboard that watches all background work at once.
const GlobalTasksChannel = "tasks"

// PipelineChannel carries continuous-embedding-pipeline cycle events.
const PipelineChannel = "pipeline"

// TaskChannel returns the channel name for one task's own events.
func TaskChannel(taskID string) string {
	return "task:" + taskID
}

// Event is the envelope published to a channel's subscribers.
type Event struct {
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TaskProgressPayload is the Payload shape for EventTypeTaskProgress.
type TaskProgressPayload struct {
	TaskID   string  `json:"task_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

// TaskTerminalPayload is the Payload shape for EventTypeTaskCompleted/
// EventTypeTaskFailed/EventTypeTaskCancelled.
type TaskTerminalPayload struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// PipelineCyclePayload is the Payload shape for both pipeline cycle
// event types.
type PipelineCyclePayload struct {
	Discovered int     `json:"discovered"`
	Embedded   int      `json:"embedded"`
	Failed     int      `json:"failed"`
	CostUSD    float64  `json:"cost_usd"`
	Aborted    bool     `json:"aborted"`
	AbortedWhy string   `json:"aborted_why,omitempty"`
}
