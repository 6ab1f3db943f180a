// Package report turns a run's per-video results into the final
// deliverables: the aggregated JSON hand-off file and the prose
// key-insights report. It holds no analysis logic of its own.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/aggregate"
	"github.com/researchaccelerator-hub/comment-insights/analysis"
	"github.com/researchaccelerator-hub/comment-insights/audience"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// VideoRecord is the per-video hand-off record embedded in the aggregated
// output.
type VideoRecord struct {
	VideoID    string                  `json:"video_id"`
	VideoURL   string                  `json:"video_url"`
	Summary    model.AggregatedSummary `json:"analysis_summary"`
	Audience   *model.AudienceAnalysis `json:"audience_analysis,omitempty"`
	AnalyzedAt time.Time               `json:"analysis_timestamp"`
}

// RunReport is the aggregated output for one complete run.
type RunReport struct {
	RunID       string                     `json:"run_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Videos      []VideoRecord              `json:"video_analyses"`
	Channel     model.ChannelSummary       `json:"channel_summary"`
	Languages   model.LanguageDistribution `json:"channel_languages"`
}

// Builder assembles run reports. client may be nil, in which case no
// prose report is generated.
type Builder struct {
	client         analysis.ChatClient
	outputLanguage string
}

// NewBuilder creates a report builder.
func NewBuilder(client analysis.ChatClient, outputLanguage string) *Builder {
	return &Builder{client: client, outputLanguage: outputLanguage}
}

// Build assembles the aggregated run report from the successful video
// results.
func (b *Builder) Build(runID string, results []*model.VideoAnalysisResult) RunReport {
	records := make([]VideoRecord, len(results))
	summaries := make([]model.AggregatedSummary, len(results))
	audiences := make([]*model.AudienceAnalysis, len(results))

	for i, r := range results {
		records[i] = VideoRecord{
			VideoID:    r.VideoID,
			VideoURL:   r.VideoURL,
			Summary:    r.Summary,
			Audience:   r.Audience,
			AnalyzedAt: r.AnalyzedAt,
		}
		summaries[i] = r.Summary
		audiences[i] = r.Audience
	}

	return RunReport{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Videos:      records,
		Channel:     aggregate.AggregateChannel(summaries),
		Languages:   audience.AggregateAudience(audiences),
	}
}

// KeyInsights makes the single prose-generation call over the assembled
// report.
func (b *Builder) KeyInsights(ctx context.Context, run RunReport) (string, error) {
	if b.client == nil {
		return "", fmt.Errorf("no chat client configured for report generation")
	}

	videoSummaries, err := json.MarshalIndent(run.Videos, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize video summaries: %w", err)
	}
	channelStats, err := json.MarshalIndent(run.Channel, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize channel statistics: %w", err)
	}

	prompt := analysis.BuildKeyInsightsPrompt(string(videoSummaries), string(channelStats), b.outputLanguage)
	insights, err := b.client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("key insights generation failed: %w", err)
	}
	return insights, nil
}

// SaveJSON writes the aggregated report. The write is atomic.
func SaveJSON(path string, run RunReport) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize run report: %w", err)
	}

	log.Info().Str("path", path).Int("videos", len(run.Videos)).Msg("Saved aggregated report")
	return nil
}

// SaveText writes a prose report.
func SaveText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().Str("path", path).Msg("Saved report")
	return nil
}

// TimestampedFilename builds the conventional report filename.
func TimestampedFilename(base, extension string) string {
	return fmt.Sprintf("%s_%s.%s", base, time.Now().Format("2006-01-02_15-04"), extension)
}
