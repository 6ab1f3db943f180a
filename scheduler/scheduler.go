// Package scheduler partitions a video's comment sequence into batches
// and runs them under the inner bounded worker pool.
package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/model"
	"github.com/researchaccelerator-hub/comment-insights/pool"
)

// BatchAnalyzer is the per-batch analysis contract the scheduler
// dispatches to. Implementations must return exactly one analysis per
// input text, in input order.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, texts []string) []model.CommentAnalysis
}

// Scheduler fans one video's comments out over bounded batch workers and
// reassembles the results in original order.
type Scheduler struct {
	analyzer  BatchAnalyzer
	batchSize int
	workers   int
}

// New creates a scheduler for the given configuration.
func New(analyzer BatchAnalyzer, cfg common.Config) *Scheduler {
	return &Scheduler{
		analyzer:  analyzer,
		batchSize: cfg.BatchSize,
		workers:   cfg.MaxBatchWorkers,
	}
}

// batch is one contiguous slice of the input with its precomputed offset
// into the shared result buffer.
type batch struct {
	start int
	texts []string
}

// Process analyzes all comment texts and returns exactly one
// CommentAnalysis per input, in input order. Batch completion order is
// unconstrained; the result buffer is indexed by precomputed offsets so
// workers never contend. A batch that fails even after the analyzer's own
// fallback degrades to error markers for its comments only.
func (s *Scheduler) Process(ctx context.Context, texts []string) []model.CommentAnalysis {
	if len(texts) == 0 {
		return []model.CommentAnalysis{}
	}

	batches := s.partition(texts)
	results := make([]model.CommentAnalysis, len(texts))

	log.Info().
		Int("comment_count", len(texts)).
		Int("batch_count", len(batches)).
		Int("max_workers", s.workers).
		Msg("Scheduling comment batches")

	tasks := make([]pool.Task, len(batches))
	for i, b := range batches {
		b := b
		tasks[i] = func(ctx context.Context) error {
			analyses := s.analyzer.AnalyzeBatch(ctx, b.texts)
			if len(analyses) != len(b.texts) {
				return fmt.Errorf("analyzer returned %d analyses for %d comments", len(analyses), len(b.texts))
			}
			copy(results[b.start:], analyses)
			return nil
		}
	}

	if err := pool.Run(ctx, s.workers, tasks); err != nil {
		log.Error().Err(err).Msg("One or more comment batches failed")
	}

	// Any slot a failed batch left untouched becomes an explicit error
	// marker; the 1:1 cardinality invariant holds regardless of failures.
	for i := range results {
		if results[i].Sentiment == "" && !results[i].IsError() {
			results[i] = model.ErrorAnalysis("batch processing failed")
		}
	}

	return results
}

// partition splits texts into contiguous batches of the configured size;
// the last batch may be shorter.
func (s *Scheduler) partition(texts []string) []batch {
	var batches []batch
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start: start, texts: texts[start:end]})
	}
	return batches
}
