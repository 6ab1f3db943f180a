package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// DownloadAll fetches comments for every video URL, writes one JSONL file
// per video under the storage root, and writes the video index the
// analysis side consumes. Videos that fail to download are indexed
// without a comment file so LoadVideoIndex skips them; one broken video
// never aborts the rest.
func DownloadAll(ctx context.Context, src CommentSource, videoURLs []string, storageRoot string, limit int, force bool) (string, error) {
	if len(videoURLs) == 0 {
		return "", fmt.Errorf("no video URLs to download")
	}

	tasks := make([]model.VideoTask, 0, len(videoURLs))
	downloaded := 0

	for _, videoURL := range videoURLs {
		videoID := common.VideoIDFromURL(videoURL)
		task := model.VideoTask{VideoID: videoID, VideoURL: videoURL}
		path := CommentFilePath(storageRoot, videoID)

		if !force {
			if _, err := os.Stat(path); err == nil {
				log.Info().Str("videoID", videoID).Str("path", path).Msg("Comment file already exists, skipping download")
				task.CommentFile = path
				tasks = append(tasks, task)
				continue
			}
		}

		comments, err := src.FetchComments(ctx, task, limit)
		if err != nil {
			log.Error().Err(err).Str("videoID", videoID).Msg("Failed to download comments")
			tasks = append(tasks, task)
			continue
		}
		if len(comments) == 0 {
			log.Warn().Str("videoID", videoID).Msg("No comments downloaded")
			tasks = append(tasks, task)
			continue
		}

		if err := SaveComments(path, comments); err != nil {
			log.Error().Err(err).Str("videoID", videoID).Msg("Failed to save comments")
			tasks = append(tasks, task)
			continue
		}

		task.CommentFile = path
		tasks = append(tasks, task)
		downloaded++
		log.Info().Int("comments", len(comments)).Str("videoID", videoID).Msg("Saved comments")
	}

	indexPath := filepath.Join(storageRoot, "videos_index.json")
	if err := WriteVideoIndex(indexPath, tasks); err != nil {
		return "", err
	}

	log.Info().Int("downloaded", downloaded).Int("total", len(videoURLs)).Str("index", indexPath).Msg("Download step complete")
	return indexPath, nil
}
