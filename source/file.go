package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

// maxCommentLineBytes bounds a single JSONL line. Comments are short; a
// line past this size is malformed input, not data.
const maxCommentLineBytes = 1 << 20

// FileSource reads comments from the JSONL files a previous download
// step produced, one JSON object per line.
type FileSource struct{}

// NewFileSource returns a comment source backed by local JSONL files.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// FetchComments reads the task's comment file. Malformed lines are
// skipped with a warning so one corrupt comment cannot sink a video.
func (s *FileSource) FetchComments(ctx context.Context, task model.VideoTask, limit int) ([]model.RawComment, error) {
	if task.CommentFile == "" {
		return nil, fmt.Errorf("video %s has no comment file", task.VideoID)
	}

	f, err := os.Open(task.CommentFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open comment file for video %s: %w", task.VideoID, err)
	}
	defer f.Close()

	var comments []model.RawComment
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxCommentLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var comment model.RawComment
		if err := json.Unmarshal(line, &comment); err != nil {
			skipped++
			continue
		}
		comments = append(comments, comment)

		if limit > 0 && len(comments) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read comment file for video %s: %w", task.VideoID, err)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("videoID", task.VideoID).Msg("Skipped malformed comment lines")
	}
	log.Debug().Int("comments", len(comments)).Str("videoID", task.VideoID).Msg("Loaded comments from file")
	return comments, nil
}

// SaveComments writes comments as JSONL, atomically. Used by the download
// step; the analysis side only reads.
func SaveComments(path string, comments []model.RawComment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create comment directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create comment file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, comment := range comments {
		data, err := json.Marshal(comment)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to serialize comment: %w", err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write comment file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close comment file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize comment file: %w", err)
	}
	return nil
}

// CommentFilePath returns the conventional comment file location for a
// video under the storage root.
func CommentFilePath(storageRoot, videoID string) string {
	return filepath.Join(storageRoot, "comments", videoID+"_comments.json")
}
