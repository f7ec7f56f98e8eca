package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/planning-explorer/core/pkg/model"
)

// callbackPoster notifies an external URL once a task reaches a
// terminal state. Best-effort: failures are logged, never propagated.
type callbackPoster interface {
	Post(ctx context.Context, task model.BackgroundTask)
}

// httpCallbackPoster POSTs a JSON task summary to task.CallbackURL.
type httpCallbackPoster struct {
	client *http.Client
}

// NewHTTPCallbackPoster builds a callbackPoster using a bounded-timeout
// http.Client, matching the teacher's convention of never letting an
// outbound notification block worker progress indefinitely.
func NewHTTPCallbackPoster() callbackPoster {
	return &httpCallbackPoster{client: &http.Client{Timeout: 10 * time.Second}}
}

type callbackPayload struct {
	TaskID       string     `json:"task_id"`
	Status       string     `json:"status"`
	Progress     float64    `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (p *httpCallbackPoster) Post(ctx context.Context, task model.BackgroundTask) {
	if task.CallbackURL == "" {
		return
	}
	body, err := json.Marshal(callbackPayload{
		TaskID:       task.TaskID,
		Status:       string(task.Status),
		Progress:     task.Progress,
		ErrorMessage: task.ErrorMessage,
		CompletedAt:  task.CompletedAt,
	})
	if err != nil {
		slog.Error("callback payload marshal failed", "task_id", task.TaskID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, task.CallbackURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("callback request build failed", "task_id", task.TaskID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Warn("callback post failed", "task_id", task.TaskID, "callback_url", task.CallbackURL, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		slog.Warn("callback post rejected", "task_id", task.TaskID, "status", resp.StatusCode)
	}
}
