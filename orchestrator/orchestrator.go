// Package orchestrator coordinates the analysis of a set of videos: it
// fans videos out over the outer worker pool, consults the result cache,
// and isolates per-video failures so one broken video never takes down
// the run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/aggregate"
	"github.com/researchaccelerator-hub/comment-insights/audience"
	"github.com/researchaccelerator-hub/comment-insights/cache"
	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/model"
	"github.com/researchaccelerator-hub/comment-insights/pool"
	"github.com/researchaccelerator-hub/comment-insights/source"
)

// ErrNoVideos is returned when the run has no videos to analyze.
var ErrNoVideos = errors.New("no videos to analyze")

// ErrNoSuccessfulVideos is returned when every video in the run failed.
var ErrNoSuccessfulVideos = errors.New("no videos analyzed successfully")

// Work states for the per-video status map.
const (
	StatePending   = "pending"
	StateComputing = "computing"
	StateCacheHit  = "cache_hit"
	StateSuccess   = "success"
	StateFailed    = "failed"
)

// Scheduler dispatches one video's comment texts and returns exactly one
// analysis per text, in order.
type Scheduler interface {
	Process(ctx context.Context, texts []string) []model.CommentAnalysis
}

// AudienceAnalyzer produces the optional per-video audience analysis.
// comments is the full loaded list; analyzed is the filtered subset,
// index-aligned with analyses.
type AudienceAnalyzer interface {
	Analyze(ctx context.Context, videoID string, comments, analyzed []model.RawComment, analyses []model.CommentAnalysis) *model.AudienceAnalysis
}

// WorkStatus tracks one video's progress through the run.
type WorkStatus struct {
	WorkID    string    `json:"work_id"`
	VideoID   string    `json:"video_id"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deps are the collaborators the orchestrator drives. Audience and
// Detector may be nil when audience analysis and language filtering are
// disabled.
type Deps struct {
	Source    source.CommentSource
	Cache     cache.ResultCache
	Scheduler Scheduler
	Audience  AudienceAnalyzer
	Detector  audience.LanguageDetector
}

// Orchestrator runs the outer per-video level of the two-level pipeline.
type Orchestrator struct {
	runID string
	cfg   common.Config
	deps  Deps

	mu        sync.RWMutex
	work      map[string]*WorkStatus
	cacheHits int
	computed  int
	failed    int
	startTime time.Time
}

// New creates an orchestrator for one run.
func New(runID string, cfg common.Config, deps Deps) *Orchestrator {
	log.Info().Str("run_id", runID).Msg("Creating orchestrator")
	return &Orchestrator{
		runID:     runID,
		cfg:       cfg,
		deps:      deps,
		work:      make(map[string]*WorkStatus),
		startTime: time.Now(),
	}
}

// Run analyzes all videos and returns the successful results in task
// order. Failed videos are logged and skipped; the run fails only when
// there is nothing to do or nothing succeeded.
func (o *Orchestrator) Run(ctx context.Context, tasks []model.VideoTask) ([]*model.VideoAnalysisResult, error) {
	if len(tasks) == 0 {
		return nil, ErrNoVideos
	}

	workers := o.cfg.MaxVideoWorkers
	if workers > len(tasks) {
		workers = len(tasks)
	}
	log.Info().
		Str("run_id", o.runID).
		Int("videos", len(tasks)).
		Int("workers", workers).
		Msg("Starting analysis run")

	results := make([]*model.VideoAnalysisResult, len(tasks))
	poolTasks := make([]pool.Task, len(tasks))
	for i, task := range tasks {
		i, task := i, task
		poolTasks[i] = func(ctx context.Context) error {
			results[i] = o.runVideo(ctx, task)
			return nil
		}
	}

	if err := pool.Run(ctx, workers, poolTasks); err != nil {
		// Tasks contain their own failures, so anything surfacing here is
		// a pool-level problem worth logging.
		log.Error().Err(err).Str("run_id", o.runID).Msg("Video pool reported an error")
	}

	successes := make([]*model.VideoAnalysisResult, 0, len(tasks))
	for _, r := range results {
		if r != nil {
			successes = append(successes, r)
		}
	}

	o.logRunProgress()
	if len(successes) == 0 {
		return nil, ErrNoSuccessfulVideos
	}
	return successes, nil
}

// runVideo wraps one video's analysis with status tracking and the
// failure boundary. It returns nil on failure; errors and panics stop
// here.
func (o *Orchestrator) runVideo(ctx context.Context, task model.VideoTask) (result *model.VideoAnalysisResult) {
	workID := uuid.New().String()
	o.setState(workID, task.VideoID, StatePending, "")

	defer func() {
		if r := recover(); r != nil {
			o.setState(workID, task.VideoID, StateFailed, fmt.Sprintf("panic: %v", r))
			o.countFailure()
			log.Error().
				Str("work_id", workID).
				Str("video_id", task.VideoID).
				Interface("panic", r).
				Msg("Video analysis panicked")
			result = nil
		}
	}()

	result, fromCache, err := o.analyzeVideo(ctx, workID, task)
	if err != nil {
		o.setState(workID, task.VideoID, StateFailed, err.Error())
		o.countFailure()
		log.Error().
			Err(err).
			Str("work_id", workID).
			Str("video_id", task.VideoID).
			Msg("Video analysis failed")
		return nil
	}

	if fromCache {
		o.setState(workID, task.VideoID, StateCacheHit, "")
		o.mu.Lock()
		o.cacheHits++
		o.mu.Unlock()
	} else {
		o.setState(workID, task.VideoID, StateSuccess, "")
		o.mu.Lock()
		o.computed++
		o.mu.Unlock()
	}

	log.Info().
		Str("work_id", workID).
		Str("video_id", task.VideoID).
		Bool("from_cache", fromCache).
		Int("comments", len(result.Comments)).
		Msg("Video analysis complete")
	return result
}

// analyzeVideo performs the per-video pipeline: cache get, then on a miss
// load, filter, cap, schedule, aggregate, audience, and a best-effort
// cache put.
func (o *Orchestrator) analyzeVideo(ctx context.Context, workID string, task model.VideoTask) (*model.VideoAnalysisResult, bool, error) {
	fingerprint := cache.Fingerprint(task.VideoID, o.cfg)

	cached, err := o.deps.Cache.Get(ctx, task.VideoID, fingerprint)
	if err == nil {
		return cached, true, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().
			Err(err).
			Str("video_id", task.VideoID).
			Str("fingerprint", fingerprint).
			Msg("Cache read failed, recomputing")
	}

	o.setState(workID, task.VideoID, StateComputing, "")

	comments, err := o.deps.Source.FetchComments(ctx, task, 0)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load comments: %w", err)
	}

	filtered := source.FilterComments(comments, o.cfg.MinLength, o.cfg.FilterLanguage, o.deps.Detector)
	if len(filtered) == 0 {
		return nil, false, fmt.Errorf("no comments remaining after filtering for video %s", task.VideoID)
	}
	if o.cfg.MaxComments > 0 && len(filtered) > o.cfg.MaxComments {
		filtered = filtered[:o.cfg.MaxComments]
	}

	texts := make([]string, len(filtered))
	for i, c := range filtered {
		texts[i] = c.Text
	}

	analyses := o.deps.Scheduler.Process(ctx, texts)

	summaryID := task.VideoURL
	if summaryID == "" {
		summaryID = task.VideoID
	}

	result := &model.VideoAnalysisResult{
		VideoID:  task.VideoID,
		VideoURL: task.VideoURL,
		Summary:  aggregate.Summarize(summaryID, analyses, o.cfg.TopN),
		Comments: analyses,
		ConfigUsed: model.ConfigSnapshot{
			AnalysisModel:  o.cfg.AnalysisModel,
			FilterLanguage: o.cfg.FilterLanguage,
			MinLength:      o.cfg.MinLength,
			MaxComments:    o.cfg.MaxComments,
			BatchSize:      o.cfg.BatchSize,
		},
		AnalyzedAt: time.Now().UTC(),
	}

	// Statistical audience analysis runs under either flag; the AI profile
	// inside it is gated on AnalyzeAudience by the analyzer's wiring.
	if (o.cfg.AnalyzeAudience || o.cfg.LanguageAnalysis) && o.deps.Audience != nil {
		result.Audience = o.deps.Audience.Analyze(ctx, task.VideoID, comments, filtered, analyses)
	}

	if err := o.deps.Cache.Put(ctx, task.VideoID, fingerprint, result); err != nil {
		log.Warn().
			Err(err).
			Str("video_id", task.VideoID).
			Str("fingerprint", fingerprint).
			Msg("Failed to cache analysis result")
	}

	return result, false, nil
}

// setState records a work item's state transition under the status lock.
func (o *Orchestrator) setState(workID, videoID, state, errMsg string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	if status, ok := o.work[workID]; ok {
		status.State = state
		status.Error = errMsg
		status.UpdatedAt = now
		return
	}
	o.work[workID] = &WorkStatus{
		WorkID:    workID,
		VideoID:   videoID,
		State:     state,
		Error:     errMsg,
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (o *Orchestrator) countFailure() {
	o.mu.Lock()
	o.failed++
	o.mu.Unlock()
}

// Status returns a snapshot of every work item's current state.
func (o *Orchestrator) Status() []WorkStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	statuses := make([]WorkStatus, 0, len(o.work))
	for _, s := range o.work {
		statuses = append(statuses, *s)
	}
	return statuses
}

// logRunProgress logs the run totals.
func (o *Orchestrator) logRunProgress() {
	o.mu.RLock()
	defer o.mu.RUnlock()

	log.Info().
		Str("run_id", o.runID).
		Int("total_videos", len(o.work)).
		Int("cache_hits", o.cacheHits).
		Int("computed", o.computed).
		Int("failed", o.failed).
		Dur("uptime", time.Since(o.startTime)).
		Msg("Analysis run progress")
}
