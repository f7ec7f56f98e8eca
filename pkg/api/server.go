// Package api exposes Planning Explorer's HTTP surface (§6): search,
// application detail, AI capabilities, background task management,
// composite reports, and monitoring, all behind a single Echo v5
// router.
//
// Grounded on the teacher's pkg/api/server.go (constructor-injected
// core dependencies, a setupRoutes route-group layout, Start/
// StartWithListener/Shutdown lifecycle, a composite health handler).
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planning-explorer/core/pkg/cache"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/orchestrator"
	"github.com/planning-explorer/core/pkg/queue"
	"github.com/planning-explorer/core/pkg/search"
)

// Server is Planning Explorer's HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	cfg        config.APIConfig

	gateway      *esgateway.Gateway
	search       *search.Service
	orchestrator *orchestrator.Orchestrator
	pool         *queue.Pool
	cacheMgr     *cache.Manager
}

// NewServer builds a Server over every component it fronts. Every
// dependency here is required — unlike the teacher's dashboard/MCP
// optional Set* wiring, this system has no optional capability: a
// caller building a Server has already assembled the full component
// graph (spec §9, constructor injection throughout).
func NewServer(cfg config.APIConfig, gw *esgateway.Gateway, searchSvc *search.Service, orch *orchestrator.Orchestrator, pool *queue.Pool, cacheMgr *cache.Manager) *Server {
	e := echo.New()
	s := &Server{
		echo:         e,
		cfg:          cfg,
		gateway:      gw,
		search:       searchSvc,
		orchestrator: orch,
		pool:         pool,
		cacheMgr:     cacheMgr,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(recoverPanics())
	s.echo.Use(requestLogger())
	s.echo.Use(metricsMiddleware())
	s.echo.Use(securityHeaders())

	limit := s.cfg.BodyLimitBytes
	if limit <= 0 {
		limit = 2 * 1024 * 1024
	}
	s.echo.Use(middleware.BodyLimit(limit))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
	}))
}

// setupRoutes registers every endpoint of spec §6.2.
func (s *Server) setupRoutes() {
	s.echo.GET("/monitoring/health", s.healthHandler)
	s.echo.GET("/monitoring/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/search", s.searchHandler)
	s.echo.POST("/search/semantic", s.semanticSearchHandler)
	s.echo.POST("/search/natural-language", s.naturalLanguageSearchHandler)
	s.echo.GET("/search/suggestions", s.suggestionsHandler)
	s.echo.GET("/aggregations", s.aggregationsHandler)

	s.echo.GET("/applications", s.listApplicationsHandler)
	s.echo.GET("/application", s.getApplicationHandler)
	s.echo.GET("/applications/:id/similar", s.similarApplicationsHandler)
	s.echo.GET("/applications/:id/history", s.applicationHistoryHandler)
	s.echo.GET("/applications/:id/documents", s.applicationDocumentsHandler)
	s.echo.GET("/applications/:id/consultations", s.applicationConsultationsHandler)

	s.echo.POST("/ai/opportunity-score", s.opportunityScoreHandler)
	s.echo.POST("/ai/summarize", s.summarizeHandler)
	s.echo.GET("/ai/insights", s.aiInsightsHandler)
	s.echo.POST("/ai/batch-score", s.batchScoreHandler)
	s.echo.POST("/ai/batch-process", s.batchProcessHandler)
	s.echo.GET("/ai/tasks/:id", s.getTaskHandler)
	s.echo.GET("/ai/tasks/:id/result", s.getTaskResultHandler)
	s.echo.DELETE("/ai/tasks/:id", s.cancelTaskHandler)
	s.echo.GET("/ai/service-status", s.aiServiceStatusHandler)

	s.echo.GET("/report/:application_id", s.reportHandler)

	s.echo.GET("/stats/locations/:slug", s.locationStatsHandler)
	s.echo.GET("/stats/trends/:type", s.trendsHandler)
}

// Start starts the HTTP server on cfg.Addr (blocking).
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.echo,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, for
// tests that need an OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// componentHealth is one row of the composite health response.
type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse is the composite GET /monitoring/health body.
type healthResponse struct {
	Status     string                      `json:"status"`
	Components map[string]componentHealth  `json:"components"`
	Queue      *queue.PoolHealth           `json:"queue,omitempty"`
	Cache      *cache.Stats                `json:"cache,omitempty"`
}

// healthHandler handles GET /monitoring/health, composing Elasticsearch
// reachability, queue worker health, and cache stats into one response —
// grounded on the teacher's healthHandler composite-dependency pattern.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := &healthResponse{
		Status:     "healthy",
		Components: map[string]componentHealth{},
	}

	if err := s.gateway.HealthCheck(reqCtx); err != nil {
		resp.Status = "degraded"
		resp.Components["elasticsearch"] = componentHealth{Status: "unhealthy", Message: err.Error()}
	} else {
		resp.Components["elasticsearch"] = componentHealth{Status: "healthy"}
	}

	if s.pool != nil {
		h := s.pool.Health()
		resp.Queue = &h
		resp.Components["queue"] = componentHealth{Status: "healthy"}
	}

	if s.cacheMgr != nil {
		stats := s.cacheMgr.Stats()
		resp.Cache = &stats
		resp.Components["cache"] = componentHealth{Status: "healthy"}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
