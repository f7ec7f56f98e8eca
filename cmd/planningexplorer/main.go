// Command planningexplorer runs the Planning Explorer API service: the
// Search Service, AI Orchestrator and its capabilities, Background
// Processor and Continuous Embedding Pipeline, fronted by the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/planning-explorer/core/pkg/api"
	"github.com/planning-explorer/core/pkg/cache"
	"github.com/planning-explorer/core/pkg/capabilities/market"
	"github.com/planning-explorer/core/pkg/capabilities/nlpquery"
	"github.com/planning-explorer/core/pkg/capabilities/scoring"
	"github.com/planning-explorer/core/pkg/capabilities/summarize"
	"github.com/planning-explorer/core/pkg/cleanup"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/embedpipeline"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/events"
	"github.com/planning-explorer/core/pkg/llm"
	"github.com/planning-explorer/core/pkg/orchestrator"
	"github.com/planning-explorer/core/pkg/queue"
	"github.com/planning-explorer/core/pkg/search"
	"github.com/planning-explorer/core/pkg/version"
)

// eventBufferSize bounds the per-subscriber buffer the task/cycle event
// broadcaster keeps for slow subscribers.
const eventBufferSize = 64

func main() {
	var configDir string

	root := &cobra.Command{
		Use:   "planningexplorer",
		Short: "Planning Explorer API service",
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "./config", "path to configuration directory")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API service, Background Processor and Continuous Embedding Pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configDir)
		},
	}
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// app holds every long-running component runServe starts; shutdown
// stops them in the reverse of their start order.
type app struct {
	pool      *queue.Pool
	pipeline  *embedpipeline.Pipeline
	cacheMgr  *cache.Manager
	reconnect *cleanup.Scheduler
	server    *api.Server
	apiCfg    config.APIConfig
}

func runServe(ctx context.Context, configDir string) error {
	slog.Info("starting planning explorer", "version", version.Full(), "config_dir", configDir)

	a, err := build(ctx, configDir)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	a.cacheMgr.Start(ctx)
	a.pool.Start(ctx)
	a.pipeline.Start(ctx)
	a.reconnect.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", a.apiCfg.Addr)
		if err := a.server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	return shutdown(a)
}

// build wires every component in dependency order: config, ES Gateway,
// LLM client, Embedding Service, four AI capabilities (scoring,
// summarize, market, nlpquery), Cache Manager, AI Orchestrator, Search
// Service, Background Processor and Continuous Embedding Pipeline, an
// event Broadcaster shared by the latter two as their publisher, and
// finally the API server itself.
func build(ctx context.Context, configDir string) (*app, error) {
	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	gateway, err := esgateway.NewGateway(cfg.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	if err := gateway.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}

	reconnectInterval := cfg.Elasticsearch.ReconnectInterval
	if reconnectInterval <= 0 {
		reconnectInterval = 30 * time.Second
	}
	reconnect := cleanup.NewScheduler(cleanup.Job{
		Name:     "elasticsearch-reconnect",
		Interval: reconnectInterval,
		Run: func(ctx context.Context) {
			if err := gateway.Connect(ctx); err != nil {
				slog.Warn("elasticsearch reconnect attempt failed", "error", err)
			}
		},
	})

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	embedSvc := embedding.NewService(llmClient, cfg.Embedding)

	scorer := scoring.NewScorer(llmClient, cfg.LLM, cfg.Timeouts.OpportunityScoringMS)
	summarizer := summarize.NewSummarizer(llmClient, cfg.LLM)
	marketAnalyzer := market.NewAnalyzer(llmClient, cfg.LLM)
	nlpParser := nlpquery.NewParser(llmClient, cfg.LLM)

	cacheMgr := cache.NewManager(cfg.Cache)

	orch := orchestrator.New(scorer, summarizer, embedSvc, marketAnalyzer, cacheMgr)

	searchSvc := search.New(gateway, embedSvc, nlpParser, cacheMgr, cfg.Search, search.DefaultLocationCenters())

	broadcaster := events.NewBroadcaster(eventBufferSize)

	loader := queue.NewGatewayLoader(gateway)
	pool := queue.NewPool(cfg.Queue, loader, orch, nil)
	pool.SetPublisher(broadcaster)

	discoverer := embedpipeline.NewESDiscoverer(gateway,
		cfg.Continuous.CriticalAgeHours,
		cfg.Continuous.HighPriorityAgeDays,
		cfg.Continuous.NormalPriorityAgeDays,
	)
	updater := embedpipeline.NewESUpdater(gateway)
	pipeline := embedpipeline.New(discoverer, embedSvc, updater, nil, cfg.Continuous)
	pipeline.SetPublisher(broadcaster)

	server := api.NewServer(cfg.API, gateway, searchSvc, orch, pool, cacheMgr)

	return &app{pool: pool, pipeline: pipeline, cacheMgr: cacheMgr, reconnect: reconnect, server: server, apiCfg: cfg.API}, nil
}

// shutdown tears components down in the reverse of their start order,
// logging but not failing on individual component errors so every
// component gets a chance to stop.
func shutdown(a *app) error {
	timeout := a.apiCfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	a.reconnect.Stop()
	a.pipeline.Stop()
	a.pool.Stop()
	a.cacheMgr.Stop()

	slog.Info("planning explorer stopped")
	return nil
}
