// Package source implements the comment-supply boundary: loading comments
// from local JSONL files, fetching them from the YouTube Data API, and the
// pre-analysis filtering pass. Everything above this package consumes
// []model.RawComment and never cares where the comments came from.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// CommentSource supplies the raw comments for one video. limit caps how
// many comments are returned; limit <= 0 means no cap.
type CommentSource interface {
	FetchComments(ctx context.Context, task model.VideoTask, limit int) ([]model.RawComment, error)
}

// videoIndex is the on-disk index mapping video URLs to comment files.
type videoIndex struct {
	CreatedAt string           `json:"created_at"`
	Videos    []videoIndexItem `json:"videos"`
}

type videoIndexItem struct {
	VideoURL    string `json:"video_url"`
	CommentFile string `json:"comment_file"`
	VideoID     string `json:"video_id"`
}

// LoadVideoIndex reads an index file and returns one task per usable
// entry. Entries without a comment file are skipped with a warning, not
// treated as fatal; a failed download should not block the rest of the
// run.
func LoadVideoIndex(path string) ([]model.VideoTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read video index %s: %w", path, err)
	}

	var index videoIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse video index %s: %w", path, err)
	}

	tasks := make([]model.VideoTask, 0, len(index.Videos))
	for _, item := range index.Videos {
		if item.CommentFile == "" {
			log.Warn().Str("videoURL", item.VideoURL).Msg("Index entry has no comment file, skipping")
			continue
		}
		videoID := item.VideoID
		if videoID == "" {
			videoID = common.VideoIDFromURL(item.VideoURL)
		}
		tasks = append(tasks, model.VideoTask{
			VideoID:     videoID,
			VideoURL:    item.VideoURL,
			CommentFile: item.CommentFile,
		})
	}

	log.Info().Int("videos", len(tasks)).Str("path", path).Msg("Loaded video index")
	return tasks, nil
}

// WriteVideoIndex writes the index file for a set of tasks. The write is
// atomic so a crashed run never leaves a truncated index behind.
func WriteVideoIndex(path string, tasks []model.VideoTask) error {
	index := videoIndex{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Videos:    make([]videoIndexItem, len(tasks)),
	}
	for i, task := range tasks {
		index.Videos[i] = videoIndexItem{
			VideoURL:    task.VideoURL,
			CommentFile: task.CommentFile,
			VideoID:     task.VideoID,
		}
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize video index: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write video index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize video index: %w", err)
	}
	return nil
}
