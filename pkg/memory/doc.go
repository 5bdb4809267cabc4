// Package memory orchestrates the indexing pipeline: scanning, chunking,
// cache-first embedding, and vector storage, plus search, flush compaction,
// and live filesystem watching.
//
// Invariants:
//   - Chunk identity is a pure function of content; identical text is embedded
//     and stored once regardless of source.
//   - Re-indexing unchanged content never calls the embedding backend while
//     the cache holds the (content, model) key.
//   - Upserts are identity-keyed, so repeated indexing is idempotent.
//
// Usage:
//
//	mgr, _ := memory.NewManager(memory.Config{Paths: []string{"/notes"}, ...})
//	defer mgr.Close()
//	_, _ = mgr.Index(ctx, memory.IndexOptions{})
//	results, _ := mgr.Search(ctx, "query", 10, "")
//	_ = results
package memory
