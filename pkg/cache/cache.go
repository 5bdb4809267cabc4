// Package cache persists computed embeddings keyed by (content hash, model)
// so re-indexing unchanged content never hits the embedding backend.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cached embedding.
type Entry struct {
	ContentHash string
	Model       string
	Embedding   []float32
}

// Cache is a SQLite-backed embedding cache. Entries are immutable once
// written except wholesale replacement via Put or removal via Clear; a model
// upgrade uses a new model key rather than invalidation.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// WAL keeps reads cheap while a batch write is in flight.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS embeddings (
			content_hash TEXT NOT NULL,
			model        TEXT NOT NULL,
			embedding    TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			PRIMARY KEY (content_hash, model)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached embedding for (contentHash, model), or nil if absent.
func (c *Cache) Get(ctx context.Context, contentHash, model string) ([]float32, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		"SELECT embedding FROM embeddings WHERE content_hash = ? AND model = ?",
		contentHash, model,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return decodeVector(raw)
}

// GetBatch looks up many hashes for one model. The returned map holds an
// entry for every requested hash; absent entries are nil.
func (c *Cache) GetBatch(ctx context.Context, hashes []string, model string) (map[string][]float32, error) {
	result := make(map[string][]float32, len(hashes))
	for _, h := range hashes {
		result[h] = nil
	}
	if len(hashes) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(hashes))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(hashes)+1)
	args = append(args, model)
	for _, h := range hashes {
		args = append(args, h)
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT content_hash, embedding FROM embeddings WHERE model = ? AND content_hash IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash, raw string
		if err := rows.Scan(&hash, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}
		vec, err := decodeVector(raw)
		if err != nil {
			return nil, err
		}
		result[hash] = vec
	}
	return result, rows.Err()
}

// Put stores one embedding, replacing any existing entry for the key.
func (c *Cache) Put(ctx context.Context, contentHash, model string, embedding []float32) error {
	return c.PutBatch(ctx, []Entry{{ContentHash: contentHash, Model: model, Embedding: embedding}})
}

// PutBatch stores entries in a single transaction: either the whole batch
// becomes visible or none of it does.
func (c *Cache) PutBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO embeddings (content_hash, model, embedding, created_at) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, e := range entries {
		raw, err := json.Marshal(e.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, e.ContentHash, e.Model, string(raw), now); err != nil {
			return fmt.Errorf("failed to write cache entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache batch: %w", err)
	}
	return nil
}

// Clear deletes cached entries, optionally scoped to one model. Returns the
// number of entries removed.
func (c *Cache) Clear(ctx context.Context, model string) (int, error) {
	var res sql.Result
	var err error
	if model != "" {
		res, err = c.db.ExecContext(ctx, "DELETE FROM embeddings WHERE model = ?", model)
	} else {
		res, err = c.db.ExecContext(ctx, "DELETE FROM embeddings")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

func decodeVector(raw string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, fmt.Errorf("failed to decode cached embedding: %w", err)
	}
	return vec, nil
}
