package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/planning-explorer/core/pkg/apperrors"
	"github.com/planning-explorer/core/pkg/model"
)

// singleFeatureRequest is the shared body of the single-capability AI
// endpoints: the target application plus an optional processing mode
// override (§4.6).
type singleFeatureRequest struct {
	ApplicationID string              `json:"application_id"`
	Mode          model.ProcessingMode `json:"mode"`
}

func (s *Server) runSingleFeature(c *echo.Context, feature model.Feature) error {
	var req singleFeatureRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "INVALID_REQUEST", "request body is not valid JSON")
	}
	if req.ApplicationID == "" {
		return badRequest(c, "MISSING_APPLICATION_ID", "application_id is required")
	}
	mode := req.Mode
	if mode == "" {
		mode = model.ModeFast
	}

	app, err := s.loadApplication(c.Request().Context(), req.ApplicationID)
	if err != nil {
		return writeError(c, err)
	}

	result, err := s.orchestrator.ProcessApplication(c.Request().Context(), app, mode, []model.Feature{feature})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: result})
}

// opportunityScoreHandler handles POST /ai/opportunity-score.
func (s *Server) opportunityScoreHandler(c *echo.Context) error {
	return s.runSingleFeature(c, model.FeatureOpportunityScoring)
}

// summarizeHandler handles POST /ai/summarize.
func (s *Server) summarizeHandler(c *echo.Context) error {
	return s.runSingleFeature(c, model.FeatureSummarization)
}

// aiInsightsHandler handles GET /ai/insights?application_id=&mode=. It
// runs the full default feature set for mode (standard unless
// overridden) and returns the combined ProcessingResult.
func (s *Server) aiInsightsHandler(c *echo.Context) error {
	id := c.QueryParam("application_id")
	if id == "" {
		return badRequest(c, "MISSING_APPLICATION_ID", "application_id is required")
	}
	mode := model.ProcessingMode(c.QueryParam("mode"))
	if mode == "" {
		mode = model.ModeStandard
	}

	app, err := s.loadApplication(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	result, err := s.orchestrator.ProcessApplication(c.Request().Context(), app, mode, nil)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: result})
}

// batchRequest is the shared body of /ai/batch-score and
// /ai/batch-process: a set of application ids processed asynchronously
// by the Background Processor (§4.7).
type batchRequest struct {
	ApplicationIDs []string            `json:"application_ids"`
	Mode           model.ProcessingMode `json:"mode"`
	Priority       model.TaskPriority  `json:"priority"`
	CallbackURL    string              `json:"callback_url"`
}

func (s *Server) enqueueBatch(c *echo.Context, taskType string, features []model.Feature) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "INVALID_REQUEST", "request body is not valid JSON")
	}
	if len(req.ApplicationIDs) == 0 {
		return badRequest(c, "MISSING_APPLICATION_IDS", "application_ids must not be empty")
	}
	mode := req.Mode
	if mode == "" {
		mode = model.ModeBatch
	}
	priority := req.Priority
	if priority == "" {
		priority = model.TaskPriorityNormal
	}

	task := &model.BackgroundTask{
		TaskID:         uuid.NewString(),
		TaskType:       taskType,
		Priority:       priority,
		ApplicationIDs: req.ApplicationIDs,
		ProcessingMode: mode,
		Features:       features,
		CallbackURL:    req.CallbackURL,
	}
	s.pool.Enqueue(task)

	snapshot, _ := s.pool.Get(task.TaskID)
	return c.JSON(http.StatusAccepted, envelope{Success: true, Data: snapshot})
}

// batchScoreHandler handles POST /ai/batch-score.
func (s *Server) batchScoreHandler(c *echo.Context) error {
	return s.enqueueBatch(c, "batch_score", []model.Feature{model.FeatureOpportunityScoring})
}

// batchProcessHandler handles POST /ai/batch-process.
func (s *Server) batchProcessHandler(c *echo.Context) error {
	return s.enqueueBatch(c, "batch_process", nil)
}

// getTaskHandler handles GET /ai/tasks/{id}.
func (s *Server) getTaskHandler(c *echo.Context) error {
	task, ok := s.pool.Get(c.Param("id"))
	if !ok {
		return writeError(c, apperrors.ErrNotFound)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: task})
}

// getTaskResultHandler handles GET /ai/tasks/{id}/result.
func (s *Server) getTaskResultHandler(c *echo.Context) error {
	task, ok := s.pool.Get(c.Param("id"))
	if !ok {
		return writeError(c, apperrors.ErrNotFound)
	}
	if task.Status != model.TaskStatusCompleted {
		return writeError(c, apperrors.New(apperrors.KindValidation, "TASK_NOT_COMPLETE", "task has not completed"))
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: task.Result})
}

// cancelTaskHandler handles DELETE /ai/tasks/{id}.
func (s *Server) cancelTaskHandler(c *echo.Context) error {
	id := c.Param("id")
	if !s.pool.Cancel(id) {
		return writeError(c, apperrors.New(apperrors.KindValidation, "TASK_NOT_CANCELLABLE", "task is not pending or in progress"))
	}
	task, _ := s.pool.Get(id)
	return c.JSON(http.StatusOK, envelope{Success: true, Data: task})
}

// aiServiceStatusHandler handles GET /ai/service-status.
func (s *Server) aiServiceStatusHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: s.pool.Health()})
}
