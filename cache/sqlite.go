package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

// sqliteCache stores entries in a single SQLite database. Concurrent
// writers for the same fingerprint resolve via INSERT OR IGNORE since
// entries are logically immutable.
type sqliteCache struct {
	db *sql.DB
}

func newSQLiteCache(storageRoot string) (*sqliteCache, error) {
	if err := os.MkdirAll(storageRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", storageRoot, err)
	}

	dbPath := filepath.Join(storageRoot, "analysis_cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database %s: %w", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, execErr)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS analysis_cache (
        fingerprint TEXT PRIMARY KEY,
        video_id    TEXT NOT NULL,
        payload     TEXT NOT NULL,
        created_at  TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &sqliteCache{db: db}, nil
}

func (c *sqliteCache) Get(ctx context.Context, videoID, fingerprint string) (*model.VideoAnalysisResult, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM analysis_cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", fingerprint, err)
	}

	var result model.VideoAnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", fingerprint, err)
	}

	return &result, nil
}

func (c *sqliteCache) Put(ctx context.Context, videoID, fingerprint string, result *model.VideoAnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	// OR IGNORE keeps existing entries intact; last-writer-wins never
	// applies because the first write is the only write.
	_, err = c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO analysis_cache (fingerprint, video_id, payload, created_at)
         VALUES (?, ?, ?, ?)`,
		fingerprint, videoID, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", fingerprint, err)
	}

	return nil
}

func (c *sqliteCache) Close() error {
	return c.db.Close()
}
