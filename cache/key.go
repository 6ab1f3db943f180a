package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/researchaccelerator-hub/comment-insights/common"
)

// fingerprintLength is the number of hex characters kept from the hash.
const fingerprintLength = 16

// Fingerprint derives the cache key for a video under the given
// configuration. It hashes the video ID together with the enumerated
// subset of config fields that affect analysis output; fields outside the
// subset never change the fingerprint. The subset is serialized with
// sorted keys so the result is platform- and order-independent.
//
// Any new config field that should invalidate cached results must be added
// here and the cache schema version bumped.
func Fingerprint(videoID string, cfg common.Config) string {
	params := map[string]interface{}{
		"video_id":          videoID,
		"analysis_model":    cfg.AnalysisModel,
		"min_length":        cfg.MinLength,
		"filter_language":   cfg.FilterLanguage,
		"batch_size":        cfg.BatchSize,
		"max_comments":      cfg.MaxComments,
		"cache_version":     cfg.CacheVersion,
		"analyze_audience":  cfg.AnalyzeAudience,
		"language_analysis": cfg.LanguageAnalysis,
	}

	// json.Marshal sorts map keys, giving a canonical serialization.
	data, _ := json.Marshal(params)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
