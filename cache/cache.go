// Package cache provides the content-addressable result cache for video
// analyses. Entries are keyed by fingerprint, written once, and never
// mutated; caching is an optimization, so every backend degrades I/O
// failures to cache misses or skipped writes rather than aborting the
// surrounding computation.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// ErrCacheMiss is returned by Get when no entry exists for a fingerprint.
var ErrCacheMiss = errors.New("cache miss")

// ResultCache stores one immutable VideoAnalysisResult per
// (video ID, fingerprint) pair.
type ResultCache interface {
	// Get returns the cached result for the fingerprint, or ErrCacheMiss.
	// Any other error is a read failure the caller should treat as a miss.
	Get(ctx context.Context, videoID, fingerprint string) (*model.VideoAnalysisResult, error)

	// Put stores the result under the fingerprint. Entries are immutable:
	// putting over an existing fingerprint is a no-op. Failures are
	// best-effort and reported to the caller for logging only.
	Put(ctx context.Context, videoID, fingerprint string, result *model.VideoAnalysisResult) error

	// Close releases backend resources.
	Close() error
}

// New creates the cache backend selected by the configuration. When
// caching is disabled every operation becomes a no-op; Put is not an
// error in that configuration.
func New(cfg common.Config) (ResultCache, error) {
	if !cfg.UseCache {
		return noopCache{}, nil
	}

	switch cfg.CacheBackend {
	case "local":
		return newLocalCache(cfg.StorageRoot)
	case "sqlite":
		return newSQLiteCache(cfg.StorageRoot)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.CacheBackend)
	}
}

// noopCache is used when caching is disabled.
type noopCache struct{}

func (noopCache) Get(ctx context.Context, videoID, fingerprint string) (*model.VideoAnalysisResult, error) {
	return nil, ErrCacheMiss
}

func (noopCache) Put(ctx context.Context, videoID, fingerprint string, result *model.VideoAnalysisResult) error {
	return nil
}

func (noopCache) Close() error { return nil }
