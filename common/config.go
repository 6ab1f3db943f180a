package common

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the effective configuration for one analysis run. It is
// constructed once at process start, validated, and passed by value into
// every component. There is no global configuration state.
type Config struct {
	// Analysis settings. The fingerprinted subset lives here; changing any
	// of these produces a different cache fingerprint.
	AnalysisModel    string `mapstructure:"analysis_model"`
	MinLength        int    `mapstructure:"min_length"`
	FilterLanguage   string `mapstructure:"filter_language"`
	BatchSize        int    `mapstructure:"batch_size"`
	MaxComments      int    `mapstructure:"max_comments"`
	CacheVersion     string `mapstructure:"cache_version"`
	AnalyzeAudience  bool   `mapstructure:"analyze_audience"`
	LanguageAnalysis bool   `mapstructure:"language_analysis"`

	// Concurrency limits for the two nested worker pools.
	MaxVideoWorkers int `mapstructure:"max_video_workers"`
	MaxBatchWorkers int `mapstructure:"max_batch_workers"`

	// Behavior outside the fingerprinted subset. These never invalidate a
	// cache entry.
	EnableFallback bool          `mapstructure:"enable_fallback"`
	UseCache       bool          `mapstructure:"use_cache"`
	CacheBackend   string        `mapstructure:"cache_backend"` // "local" or "sqlite"
	OutputLanguage string        `mapstructure:"output_language"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	StorageRoot    string        `mapstructure:"storage_root"`
	TopN           int           `mapstructure:"top_n"`

	// Credentials, sourced from the environment rather than the file.
	GeminiAPIKey  string `mapstructure:"-"`
	YouTubeAPIKey string `mapstructure:"-"`

	// Video list for the run.
	VideoURLs []string `mapstructure:"video_urls"`
}

// knownKeys enumerates every key the config file may carry. Anything else
// is a construction-time error, not a silent default lookup.
var knownKeys = map[string]bool{
	"analysis_model":    true,
	"min_length":        true,
	"filter_language":   true,
	"batch_size":        true,
	"max_comments":      true,
	"cache_version":     true,
	"analyze_audience":  true,
	"language_analysis": true,
	"max_video_workers": true,
	"max_batch_workers": true,
	"enable_fallback":   true,
	"use_cache":         true,
	"cache_backend":     true,
	"output_language":   true,
	"request_timeout":   true,
	"storage_root":      true,
	"top_n":             true,
	"video_urls":        true,
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AnalysisModel:   "gemini-2.0-flash",
		MinLength:       10,
		BatchSize:       20,
		MaxComments:     1000,
		CacheVersion:    "1.0",
		MaxVideoWorkers: 3,
		MaxBatchWorkers: 2,
		EnableFallback:  true,
		UseCache:        true,
		CacheBackend:    "local",
		OutputLanguage:  "English",
		RequestTimeout:  120 * time.Second,
		StorageRoot:     "data",
		TopN:            5,
	}
}

// LoadConfig reads the YAML configuration file at path into a validated
// Config. Unknown keys in the file are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if unknown := unknownConfigKeys(v.AllKeys()); len(unknown) > 0 {
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(unknown, ", "))
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func unknownConfigKeys(keys []string) []string {
	var unknown []string
	for _, key := range keys {
		// Nested keys resolve to their top-level section.
		top := key
		if idx := strings.Index(key, "."); idx >= 0 {
			top = key[:idx]
		}
		if !knownKeys[top] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Validate checks structural invariants of the configuration.
func (c Config) Validate() error {
	if c.AnalysisModel == "" {
		return fmt.Errorf("analysis_model is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.MinLength < 0 {
		return fmt.Errorf("min_length cannot be negative, got %d", c.MinLength)
	}
	if c.MaxComments < 1 {
		return fmt.Errorf("max_comments must be at least 1, got %d", c.MaxComments)
	}
	if c.MaxVideoWorkers < 1 {
		return fmt.Errorf("max_video_workers must be at least 1, got %d", c.MaxVideoWorkers)
	}
	if c.MaxBatchWorkers < 1 {
		return fmt.Errorf("max_batch_workers must be at least 1, got %d", c.MaxBatchWorkers)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	switch c.CacheBackend {
	case "local", "sqlite":
	default:
		return fmt.Errorf("cache_backend must be \"local\" or \"sqlite\", got %q", c.CacheBackend)
	}
	if c.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1, got %d", c.TopN)
	}
	return nil
}
