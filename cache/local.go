package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

// localCache stores one JSON file per (video ID, fingerprint) pair under
// storageRoot/analysis/.
type localCache struct {
	dir string
}

func newLocalCache(storageRoot string) (*localCache, error) {
	dir := filepath.Join(storageRoot, "analysis")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &localCache{dir: dir}, nil
}

func (c *localCache) entryPath(videoID, fingerprint string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", videoID, fingerprint))
}

func (c *localCache) Get(ctx context.Context, videoID, fingerprint string) (*model.VideoAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cache read canceled: %w", err)
	}
	path := c.entryPath(videoID, fingerprint)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache entry %s: %w", path, err)
	}

	var result model.VideoAnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Not a miss: the immutable Put must not clobber the corrupt file.
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", path, err)
	}

	return &result, nil
}

func (c *localCache) Put(ctx context.Context, videoID, fingerprint string, result *model.VideoAnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cache write canceled: %w", err)
	}
	path := c.entryPath(videoID, fingerprint)

	// Entries are immutable once written. A changed config produces a new
	// fingerprint, never an overwrite.
	if _, err := os.Stat(path); err == nil {
		log.Debug().Str("video_id", videoID).Str("fingerprint", fingerprint).Msg("Cache entry already exists, skipping write")
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	// Write atomically so a concurrent reader never sees a partial entry.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to finalize cache entry %s: %w", path, err)
	}

	return nil
}

func (c *localCache) Close() error { return nil }

// CleanStaleEntries removes local cache files older than maxAge. It is
// best-effort maintenance; failures are logged and skipped.
func (c *localCache) CleanStaleEntries(maxAge time.Duration) int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", c.dir).Msg("Failed to scan cache directory for cleanup")
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove stale cache entry")
			continue
		}
		cleaned++
	}

	if cleaned > 0 {
		log.Info().Int("count", cleaned).Msg("Cleaned stale cache entries")
	}
	return cleaned
}
