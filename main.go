package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/researchaccelerator-hub/comment-insights/analysis"
	"github.com/researchaccelerator-hub/comment-insights/audience"
	"github.com/researchaccelerator-hub/comment-insights/cache"
	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/orchestrator"
	"github.com/researchaccelerator-hub/comment-insights/report"
	"github.com/researchaccelerator-hub/comment-insights/scheduler"
	"github.com/researchaccelerator-hub/comment-insights/source"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "comment-insights",
		Short:         "Analyze YouTube comment feedback for a set of videos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML configuration file")

	rootCmd.AddCommand(newDownloadCmd(&configPath))
	rootCmd.AddCommand(newAnalyzeCmd(&configPath))
	return rootCmd
}

func newDownloadCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download comments for the configured videos and build the video index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return runDownload(cmd.Context(), cfg, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-download comments even when files already exist")
	return cmd
}

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze downloaded comments and generate the run reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if indexPath == "" {
				indexPath = filepath.Join(cfg.StorageRoot, "videos_index.json")
			}
			return runAnalysis(cmd.Context(), cfg, indexPath)
		},
	}
	cmd.Flags().StringVar(&indexPath, "index", "", "Path to the video index file (defaults to <storage_root>/videos_index.json)")
	return cmd
}

func runDownload(ctx context.Context, cfg common.Config, force bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := source.NewYouTubeSource(cfg.YouTubeAPIKey)
	if err != nil {
		return err
	}
	if err := src.Connect(ctx); err != nil {
		return err
	}
	defer src.Disconnect(ctx)

	indexPath, err := source.DownloadAll(ctx, src, cfg.VideoURLs, cfg.StorageRoot, cfg.MaxComments, force)
	if err != nil {
		return err
	}

	fmt.Println("Video index written to", indexPath)
	return nil
}

func runAnalysis(ctx context.Context, cfg common.Config, indexPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := common.GenerateRunID()

	tasks, err := source.LoadVideoIndex(indexPath)
	if err != nil {
		return err
	}

	client, err := analysis.NewGeminiClient(ctx, cfg)
	if err != nil {
		return err
	}

	resultCache, err := cache.New(cfg)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	deps := orchestrator.Deps{
		Source:    source.NewFileSource(),
		Cache:     resultCache,
		Scheduler: scheduler.New(analysis.NewBatchAnalyzer(client, cfg), cfg),
	}
	if cfg.FilterLanguage != "" || cfg.AnalyzeAudience || cfg.LanguageAnalysis {
		deps.Detector = audience.NewDetector()
	}
	if cfg.AnalyzeAudience || cfg.LanguageAnalysis {
		// Only the full audience analysis generates the AI profile; the
		// language-analysis flag alone keeps it statistical.
		var profileClient analysis.ChatClient
		if cfg.AnalyzeAudience {
			profileClient = client
		}
		deps.Audience = audience.NewAnalyzer(deps.Detector, profileClient)
	}

	results, err := orchestrator.New(runID, cfg, deps).Run(ctx, tasks)
	if err != nil {
		return err
	}

	builder := report.NewBuilder(client, cfg.OutputLanguage)
	run := builder.Build(runID, results)

	aggregatedPath := filepath.Join(cfg.StorageRoot, "aggregated_analysis.json")
	if err := report.SaveJSON(aggregatedPath, run); err != nil {
		return err
	}

	// The prose report is best-effort; the aggregated JSON is already on
	// disk by the time this call can fail.
	insights, err := builder.KeyInsights(ctx, run)
	if err != nil {
		log.Warn().Err(err).Msg("Skipping key insights report")
	} else {
		reportPath := filepath.Join(cfg.StorageRoot, "reports", report.TimestampedFilename("key_insights", "md"))
		if err := report.SaveText(reportPath, insights); err != nil {
			log.Warn().Err(err).Msg("Failed to save key insights report")
		} else {
			fmt.Println("Key insights report written to", reportPath)
		}
	}

	fmt.Println("Aggregated analysis written to", aggregatedPath)
	return nil
}

// init keeps local runs readable; production consumers parse the JSON
// stream directly.
func init() {
	if os.Getenv("LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
