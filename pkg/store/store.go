// Package store persists chunks and their embeddings in SQLite with the
// sqlite-vec extension, keyed by content hash.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pjgates/memsearch/pkg/chunker"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// Record is a chunk plus its embedding, as written to the store.
type Record struct {
	Chunk     chunker.Chunk
	Embedding []float32
}

// Result is a stored chunk returned from a search or scan, with the store's
// similarity score (higher is more relevant; zero for plain scans).
type Result struct {
	Chunk chunker.Chunk `json:"chunk"`
	Score float64       `json:"score"`
}

// Store is the vector collection. Upsert is identity-keyed by chunk hash:
// re-upserting a hash replaces rather than duplicates.
type Store struct {
	db        *sql.DB
	dimension int
}

// Open opens the store database at path, creating the schema for vectors of
// the given dimension.
func Open(path string, dimension int) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, dimension: dimension}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS chunks (
			chunk_hash    TEXT PRIMARY KEY,
			content       TEXT NOT NULL,
			source        TEXT NOT NULL,
			heading       TEXT NOT NULL DEFAULT '',
			heading_level INTEGER NOT NULL DEFAULT 0,
			start_line    INTEGER NOT NULL DEFAULT 0,
			end_line      INTEGER NOT NULL DEFAULT 0,
			doc_type      TEXT NOT NULL DEFAULT 'markdown',
			created_at    INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
		CREATE INDEX IF NOT EXISTS idx_chunks_doc_type ON chunks(doc_type);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}

	vectorSchema := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunk_vectors USING vec0(
			chunk_hash TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, s.dimension)
	if _, err := s.db.Exec(vectorSchema); err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}
	return nil
}

// Upsert writes records in one transaction, deleting any existing rows with
// the same hashes first. Returns the number of records written.
func (s *Store) Upsert(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin store transaction: %w", err)
	}
	defer tx.Rollback()

	hashes := make([]string, len(records))
	for i, r := range records {
		hashes[i] = r.Chunk.Hash
	}
	if err := deleteHashesTx(ctx, tx, hashes); err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return 0, fmt.Errorf("embedding dimension %d does not match store dimension %d", len(r.Embedding), s.dimension)
		}
		c := r.Chunk
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (chunk_hash, content, source, heading, heading_level, start_line, end_line, doc_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Hash, c.Content, c.Source, c.Heading, c.HeadingLevel, c.StartLine, c.EndLine, string(c.DocType), now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert chunk %s: %w", c.Hash, err)
		}

		raw, err := json.Marshal(r.Embedding)
		if err != nil {
			return 0, fmt.Errorf("failed to encode embedding: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO chunk_vectors (chunk_hash, embedding) VALUES (?, ?)",
			c.Hash, string(raw),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert vector for %s: %w", c.Hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return len(records), nil
}

// Search returns at most topK results ordered best match first, optionally
// filtered by doc_type. Score is cosine similarity mapped from the vector
// distance (1 - distance).
func (s *Store) Search(ctx context.Context, embedding []float32, topK int, docType chunker.DocType) ([]Result, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("query dimension %d does not match store dimension %d", len(embedding), s.dimension)
	}
	if topK <= 0 {
		topK = 10
	}

	raw, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query embedding: %w", err)
	}

	query := `
		SELECT c.chunk_hash, c.content, c.source, c.heading, c.heading_level,
		       c.start_line, c.end_line, c.doc_type,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM chunk_vectors v
		JOIN chunks c ON c.chunk_hash = v.chunk_hash
	`
	args := []any{string(raw)}
	if docType != "" {
		query += " WHERE c.doc_type = ?"
		args = append(args, string(docType))
	}
	query += " ORDER BY distance ASC LIMIT ?"
	args = append(args, topK)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var docTypeStr string
		var distance float64
		err := rows.Scan(&r.Chunk.Hash, &r.Chunk.Content, &r.Chunk.Source, &r.Chunk.Heading,
			&r.Chunk.HeadingLevel, &r.Chunk.StartLine, &r.Chunk.EndLine, &docTypeStr, &distance)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		r.Chunk.DocType = chunker.DocType(docTypeStr)
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// All scans every stored chunk, optionally filtered by source. This is the
// retrieval path for flush; SQLite gives a genuine scan so no zero-vector
// search workaround is needed.
func (s *Store) All(ctx context.Context, source string) ([]Result, error) {
	query := `
		SELECT chunk_hash, content, source, heading, heading_level, start_line, end_line, doc_type
		FROM chunks
	`
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY source, start_line"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan query failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var docTypeStr string
		err := rows.Scan(&r.Chunk.Hash, &r.Chunk.Content, &r.Chunk.Source, &r.Chunk.Heading,
			&r.Chunk.HeadingLevel, &r.Chunk.StartLine, &r.Chunk.EndLine, &docTypeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Chunk.DocType = chunker.DocType(docTypeStr)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ExistingHashes returns the subset of hashes already present in the store.
func (s *Store) ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(hashes) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(hashes))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_hash FROM chunks WHERE chunk_hash IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		existing[h] = true
	}
	return existing, rows.Err()
}

// DeleteBySource removes all chunks whose source equals source.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT chunk_hash FROM chunks WHERE source = ?", source)
	if err != nil {
		return fmt.Errorf("failed to list chunks for source: %w", err)
	}
	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return err
		}
		hashes = append(hashes, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if err := deleteHashesTx(ctx, tx, hashes); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteByHashes removes the given chunk identities.
func (s *Store) DeleteByHashes(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteHashesTx(ctx, tx, hashes); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteHashesTx(ctx context.Context, tx *sql.Tx, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(hashes))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE chunk_hash IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunk_vectors WHERE chunk_hash IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

// Count returns the total number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// CountBySource returns the number of stored chunks for one source.
func (s *Store) CountBySource(ctx context.Context, source string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE source = ?", source).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// Drop irreversibly removes the collection.
func (s *Store) Drop(ctx context.Context) error {
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS chunk_vectors",
		"DROP TABLE IF EXISTS chunks",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	return nil
}

// Dimension returns the configured vector dimension.
func (s *Store) Dimension() int {
	return s.dimension
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
