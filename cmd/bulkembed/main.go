// Command bulkembed runs the Bulk Embedding Generator (C9) as a
// standalone operational tool: a one-shot backfill over the full index
// (bulk-embed), or a single continuous-pipeline sweep (embed-sweep) for
// use from a cron job instead of the long-running service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/planning-explorer/core/pkg/bulkembed"
	"github.com/planning-explorer/core/pkg/config"
	"github.com/planning-explorer/core/pkg/embedding"
	"github.com/planning-explorer/core/pkg/embedpipeline"
	"github.com/planning-explorer/core/pkg/esgateway"
	"github.com/planning-explorer/core/pkg/llm"
)

func main() {
	var configDir string
	var resume bool
	var reportPath string

	root := &cobra.Command{
		Use:   "bulkembed",
		Short: "Bulk embedding backfill and sweep tooling",
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "./config", "path to configuration directory")

	bulkEmbedCmd := &cobra.Command{
		Use:   "bulk-embed",
		Short: "Backfill description embeddings for every document missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulkEmbed(cmd.Context(), configDir, resume, reportPath)
		},
	}
	bulkEmbedCmd.Flags().BoolVar(&resume, "resume", false, "resume from an existing checkpoint if present")
	bulkEmbedCmd.Flags().StringVar(&reportPath, "report", "bulkembed_report.json", "path to write the JSON run report")

	embedSweepCmd := &cobra.Command{
		Use:   "embed-sweep",
		Short: "Run a single Continuous Embedding Pipeline cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbedSweep(cmd.Context(), configDir)
		},
	}

	root.AddCommand(bulkEmbedCmd, embedSweepCmd)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadDependencies(ctx context.Context, configDir string) (*config.Config, *esgateway.Gateway, *embedding.Service, error) {
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	gateway, err := esgateway.NewGateway(cfg.Elasticsearch)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create llm client: %w", err)
	}

	embedSvc := embedding.NewService(llmClient, cfg.Embedding)
	return cfg, gateway, embedSvc, nil
}

func runBulkEmbed(ctx context.Context, configDir string, resume bool, reportPath string) error {
	cfg, gateway, embedSvc, err := loadDependencies(ctx, configDir)
	if err != nil {
		return err
	}

	adapter := bulkembed.NewEmbeddingServiceAdapter(embedSvc)
	runner := bulkembed.NewRunner(gateway, gateway, gateway, adapter, cfg.Bulk)

	var checkpoint *bulkembed.Checkpoint
	if resume {
		checkpoint, err = runner.LoadCheckpoint()
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if checkpoint != nil {
			slog.Info("resuming bulk embed run", "already_processed", checkpoint.ProcessedIDsCount)
		}
	}

	report, err := runner.Run(ctx, checkpoint)
	if err != nil {
		return fmt.Errorf("run backfill: %w", err)
	}

	if err := report.WriteJSON(reportPath); err != nil {
		slog.Warn("failed to write run report", "path", reportPath, "error", err)
	}
	fmt.Println(report.TerminalSummary())
	return nil
}

func runEmbedSweep(ctx context.Context, configDir string) error {
	cfg, gateway, embedSvc, err := loadDependencies(ctx, configDir)
	if err != nil {
		return err
	}

	discoverer := embedpipeline.NewESDiscoverer(gateway,
		cfg.Continuous.CriticalAgeHours,
		cfg.Continuous.HighPriorityAgeDays,
		cfg.Continuous.NormalPriorityAgeDays,
	)
	updater := embedpipeline.NewESUpdater(gateway)

	pipeline := embedpipeline.New(discoverer, embedSvc, updater, nil, cfg.Continuous)
	stats, err := pipeline.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	slog.Info("embed sweep complete",
		"discovered", stats.Discovered,
		"embedded", stats.Embedded,
		"failed", stats.Failed,
		"cost_usd", stats.CostUSD,
	)
	return nil
}
