package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pjgates/memsearch/internal/observability"
	"github.com/pjgates/memsearch/internal/tracing"
	"github.com/pjgates/memsearch/pkg/cache"
	"github.com/pjgates/memsearch/pkg/chunker"
	"github.com/pjgates/memsearch/pkg/embedding"
	"github.com/pjgates/memsearch/pkg/scanner"
	"github.com/pjgates/memsearch/pkg/session"
	"github.com/pjgates/memsearch/pkg/store"
	"github.com/pjgates/memsearch/pkg/summarizer"
)

// Config holds manager configuration.
type Config struct {
	Paths      []string
	Extensions []string
	Exclude    []string

	CachePath string
	StorePath string

	Embedder   embedding.Provider    // required
	Summarizer summarizer.Summarizer // optional, required for Flush

	// PruneOnFlush deletes the summarized source chunks after a successful
	// flush. Off by default: the summary is additive.
	PruneOnFlush bool

	Logger zerolog.Logger
}

// Manager owns the cache and store handles and coordinates the pipeline.
// Close releases both on every path.
type Manager struct {
	cfg      Config
	logger   zerolog.Logger
	cache    *cache.Cache
	store    *store.Store
	embedder embedding.Provider

	mu           sync.Mutex
	lastSyncTime *time.Time
	cacheHits    int
	cacheMisses  int
}

// Status is a snapshot of the index state.
type Status struct {
	TotalChunks  int        `json:"total_chunks"`
	CacheHitRate *float64   `json:"cache_hit_rate,omitempty"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
}

// IndexOptions configures an indexing pass.
type IndexOptions struct {
	// Force re-embeds and re-upserts chunks even when their identity is
	// already present in the store.
	Force bool
	// Progress, when set, is called once per scanned document.
	Progress func(path string)
}

// NewManager opens the cache and store and returns a ready manager.
func NewManager(cfg Config) (*Manager, error) {
	observability.EnsureRegistered()

	if cfg.Embedder == nil {
		return nil, errors.New("embedding provider is required")
	}
	if cfg.CachePath == "" {
		return nil, errors.New("cache path is required")
	}
	if cfg.StorePath == "" {
		return nil, errors.New("store path is required")
	}

	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	s, err := store.Open(cfg.StorePath, cfg.Embedder.Dimension())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	m := &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		cache:    c,
		store:    s,
		embedder: cfg.Embedder,
	}

	m.logger.Info().
		Str("model", cfg.Embedder.ModelName()).
		Int("dimension", cfg.Embedder.Dimension()).
		Msg("Memory manager initialized")
	return m, nil
}

// Index scans the configured paths and indexes every discovered document.
// A failing document aborts only itself; the returned error, if any, reports
// how many documents succeeded before it.
func (m *Manager) Index(ctx context.Context, opts IndexOptions) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "memsearch.memory", "memory.index",
		attribute.Bool("force", opts.Force))
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, m.logger)
	start := time.Now()

	files := scanner.Scan(m.cfg.Paths, scanner.Options{
		Extensions: m.cfg.Extensions,
		Exclude:    m.cfg.Exclude,
	})

	total := 0
	succeeded := 0
	var errs []error
	for _, f := range files {
		if opts.Progress != nil {
			opts.Progress(f.Path)
		}
		n, err := m.IndexFile(ctx, f.Path, opts.Force)
		if err != nil {
			logger := tracing.LoggerFromContext(tracing.WithSource(ctx, f.Path), m.logger)
			logger.Warn().Err(err).Msg("Failed to index file")
			observability.RecordDocument(false)
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, err))
			continue
		}
		observability.RecordDocument(true)
		succeeded++
		total += n
	}

	m.markSynced()
	m.updateStoredGauge(ctx)

	logger.Info().
		Int("files", len(files)).
		Int("succeeded", succeeded).
		Int("chunks", total).
		Dur("duration", time.Since(start)).
		Msg("Index completed")

	if len(errs) > 0 {
		span.SetStatus(codes.Error, "some documents failed")
		return total, fmt.Errorf("indexed %d of %d documents: %w", succeeded, len(files), errors.Join(errs...))
	}
	return total, nil
}

// IndexFile indexes a single markdown document. Returns the number of chunks
// newly written.
func (m *Manager) IndexFile(ctx context.Context, path string, force bool) (int, error) {
	start := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	chunks := chunker.ChunkMarkdown(string(content), path)
	n, err := m.embedAndStore(ctx, chunks, chunker.DocTypeMarkdown, force)
	if err != nil {
		return 0, err
	}

	observability.RecordIndex(string(chunker.DocTypeMarkdown), time.Since(start), n)
	return n, nil
}

// IndexSession parses a JSONL conversation log, renders each session to
// markdown, and indexes the result under doc type "session".
func (m *Manager) IndexSession(ctx context.Context, path string) (int, error) {
	start := time.Now()

	sessions, err := session.ParseFile(path)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, sess := range sessions {
		chunks := chunker.ChunkMarkdown(sess.Markdown(), path)
		n, err := m.embedAndStore(ctx, chunks, chunker.DocTypeSession, false)
		if err != nil {
			return total, err
		}
		total += n
	}

	observability.RecordIndex(string(chunker.DocTypeSession), time.Since(start), total)
	m.logger.Info().Int("chunks", total).Str("source", path).Msg("Indexed session log")
	return total, nil
}

// embedAndStore resolves embeddings cache-first and upserts the chunks. The
// embedding backend is invoked at most once, with the full batch of cache
// misses. Any unresolved embedding aborts the whole batch.
func (m *Manager) embedAndStore(ctx context.Context, chunks []chunker.Chunk, docType chunker.DocType, force bool) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	for i := range chunks {
		chunks[i].DocType = docType
	}

	// Deduplicate by identity within the batch; identical content is one
	// logical unit.
	unique := make([]chunker.Chunk, 0, len(chunks))
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if seen[c.Hash] {
			continue
		}
		seen[c.Hash] = true
		unique = append(unique, c)
	}

	if !force {
		hashes := make([]string, len(unique))
		for i, c := range unique {
			hashes[i] = c.Hash
		}
		existing, err := m.store.ExistingHashes(ctx, hashes)
		if err != nil {
			return 0, fmt.Errorf("failed to check existing chunks: %w", err)
		}
		filtered := unique[:0]
		for _, c := range unique {
			if !existing[c.Hash] {
				filtered = append(filtered, c)
			}
		}
		unique = filtered
	}
	if len(unique) == 0 {
		return 0, nil
	}

	vectors, err := m.resolveEmbeddings(ctx, unique)
	if err != nil {
		return 0, err
	}

	records := make([]store.Record, len(unique))
	for i, c := range unique {
		records[i] = store.Record{Chunk: c, Embedding: vectors[c.Hash]}
	}

	n, err := m.store.Upsert(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return n, nil
}

// resolveEmbeddings returns a vector per chunk hash, consulting the cache
// first and calling the backend once for all misses.
func (m *Manager) resolveEmbeddings(ctx context.Context, chunks []chunker.Chunk) (map[string][]float32, error) {
	model := m.embedder.ModelName()

	hashes := make([]string, len(chunks))
	for i, c := range chunks {
		hashes[i] = c.Hash
	}

	cached, err := m.cache.GetBatch(ctx, hashes, model)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	var missing []chunker.Chunk
	for _, c := range chunks {
		if cached[c.Hash] == nil {
			missing = append(missing, c)
		}
	}

	hits := len(chunks) - len(missing)
	m.recordCacheStats(hits, len(missing))
	observability.RecordCacheLookups(hits, len(missing))

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, c := range missing {
			texts[i] = c.Content
		}

		observability.RecordEmbedCall(len(texts))
		vectors, err := m.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding backend failed: %w", err)
		}
		if len(vectors) != len(missing) {
			return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), len(missing))
		}

		entries := make([]cache.Entry, len(missing))
		for i, c := range missing {
			entries[i] = cache.Entry{ContentHash: c.Hash, Model: model, Embedding: vectors[i]}
			cached[c.Hash] = vectors[i]
		}
		if err := m.cache.PutBatch(ctx, entries); err != nil {
			return nil, fmt.Errorf("failed to populate embedding cache: %w", err)
		}
	}

	return cached, nil
}

// Search embeds the query and delegates ranking entirely to the store.
func (m *Manager) Search(ctx context.Context, query string, topK int, docType chunker.DocType) ([]store.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "memsearch.memory", "memory.search",
		attribute.String("query", query),
		attribute.Int("top_k", topK))
	defer span.End()

	start := time.Now()
	defer func() { observability.RecordSearch(time.Since(start)) }()

	if query == "" {
		return nil, nil
	}

	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		span.SetStatus(codes.Error, "query embedding failed")
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding backend returned %d vectors for one query", len(vectors))
	}

	return m.store.Search(ctx, vectors[0], topK, docType)
}

// Flush retrieves stored chunks (optionally restricted to one source),
// summarizes them, and re-indexes the summary under doc type "flush".
// Returns the summary markdown; empty when nothing matched.
func (m *Manager) Flush(ctx context.Context, source string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "memsearch.memory", "memory.flush",
		attribute.String("source", source))
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, m.logger)
	start := time.Now()
	defer func() { observability.RecordFlush(time.Since(start)) }()

	if m.cfg.Summarizer == nil {
		return "", errors.New("summarizer is not configured")
	}

	all, err := m.store.All(ctx, source)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	if len(all) == 0 {
		return "", nil
	}

	summary, err := m.cfg.Summarizer.Summarize(ctx, all)
	if err != nil {
		span.SetStatus(codes.Error, "summarization failed")
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	flushSource := "flush://" + uuid.NewString()
	chunks := chunker.ChunkMarkdown(summary, flushSource)
	n, err := m.embedAndStore(ctx, chunks, chunker.DocTypeFlush, false)
	if err != nil {
		return "", err
	}

	if m.cfg.PruneOnFlush {
		hashes := make([]string, len(all))
		for i, r := range all {
			hashes[i] = r.Chunk.Hash
		}
		if err := m.store.DeleteByHashes(ctx, hashes); err != nil {
			return "", fmt.Errorf("failed to prune summarized chunks: %w", err)
		}
	}

	m.updateStoredGauge(ctx)
	logger.Info().
		Int("summarized", len(all)).
		Int("chunks", n).
		Str("source", flushSource).
		Bool("pruned", m.cfg.PruneOnFlush).
		Msg("Flush completed")
	return summary, nil
}

// Status returns a snapshot of index counters.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	total, err := m.store.Count(ctx)
	if err != nil {
		return Status{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{TotalChunks: total, LastSyncTime: m.lastSyncTime}
	if lookups := m.cacheHits + m.cacheMisses; lookups > 0 {
		rate := float64(m.cacheHits) / float64(lookups)
		status.CacheHitRate = &rate
	}
	return status, nil
}

// Store exposes the underlying vector store for administrative commands.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Cache exposes the underlying embedding cache for administrative commands.
func (m *Manager) Cache() *cache.Cache {
	return m.cache
}

// Close releases the cache and store handles.
func (m *Manager) Close() error {
	m.logger.Info().Msg("Closing memory manager")
	return errors.Join(m.cache.Close(), m.store.Close())
}

func (m *Manager) markSynced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.lastSyncTime = &now
}

func (m *Manager) recordCacheStats(hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits += hits
	m.cacheMisses += misses
}

func (m *Manager) updateStoredGauge(ctx context.Context) {
	if total, err := m.store.Count(ctx); err == nil {
		observability.SetChunksStored(total)
	}
}
