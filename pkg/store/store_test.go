package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjgates/memsearch/pkg/chunker"
)

const testDim = 4

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"), testDim)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(content, source string, docType chunker.DocType, vec []float32) Record {
	return Record{
		Chunk: chunker.Chunk{
			Content: content,
			Source:  source,
			Hash:    chunker.HashContent(content),
			DocType: docType,
		},
		Embedding: vec,
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("some content", "a.md", chunker.DocTypeMarkdown, []float32{1, 0, 0, 0})

	n, err := s.Upsert(ctx, []Record{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Re-upserting the same identity replaces, never duplicates.
	n, err = s.Upsert(ctx, []Record{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	s := openTestStore(t)

	rec := testRecord("content", "a.md", chunker.DocTypeMarkdown, []float32{1, 0})
	_, err := s.Upsert(context.Background(), []Record{rec})
	assert.Error(t, err)
}

func TestSearch_OrderedAndFiltered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []Record{
		testRecord("close match", "a.md", chunker.DocTypeMarkdown, []float32{1, 0, 0, 0}),
		testRecord("far match", "b.md", chunker.DocTypeMarkdown, []float32{0, 1, 0, 0}),
		testRecord("session chunk", "log.jsonl", chunker.DocTypeSession, []float32{1, 0.1, 0, 0}),
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0, 0, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "close match", results[0].Chunk.Content)
	assert.Greater(t, results[0].Score, results[1].Score)

	filtered, err := s.Search(ctx, []float32{1, 0, 0, 0}, 10, chunker.DocTypeSession)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, chunker.DocTypeSession, filtered[0].Chunk.DocType)

	limited, err := s.Search(ctx, []float32{1, 0, 0, 0}, 2, "")
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAll_SourceFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []Record{
		testRecord("one", "a.md", chunker.DocTypeMarkdown, []float32{1, 0, 0, 0}),
		testRecord("two", "a.md", chunker.DocTypeMarkdown, []float32{0, 1, 0, 0}),
		testRecord("three", "b.md", chunker.DocTypeMarkdown, []float32{0, 0, 1, 0}),
	})
	require.NoError(t, err)

	all, err := s.All(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := s.All(ctx, "a.md")
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	none, err := s.All(ctx, "missing.md")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExistingHashes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("known", "a.md", chunker.DocTypeMarkdown, []float32{1, 0, 0, 0})
	_, err := s.Upsert(ctx, []Record{rec})
	require.NoError(t, err)

	existing, err := s.ExistingHashes(ctx, []string{rec.Chunk.Hash, "absent-hash"})
	require.NoError(t, err)
	assert.True(t, existing[rec.Chunk.Hash])
	assert.False(t, existing["absent-hash"])

	empty, err := s.ExistingHashes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteBySource(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []Record{
		testRecord("one", "gone.md", chunker.DocTypeMarkdown, []float32{1, 0, 0, 0}),
		testRecord("two", "gone.md", chunker.DocTypeMarkdown, []float32{0, 1, 0, 0}),
		testRecord("keep", "stay.md", chunker.DocTypeMarkdown, []float32{0, 0, 1, 0}),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBySource(ctx, "gone.md"))

	n, err := s.CountBySource(ctx, "gone.md")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleting an absent source is a no-op.
	require.NoError(t, s.DeleteBySource(ctx, "gone.md"))
}

func TestDeleteByHashes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("doomed", "a.md", chunker.DocTypeMarkdown, []float32{1, 0, 0, 0})
	_, err := s.Upsert(ctx, []Record{rec})
	require.NoError(t, err)

	require.NoError(t, s.DeleteByHashes(ctx, []string{rec.Chunk.Hash}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDrop(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []Record{
		testRecord("content", "a.md", chunker.DocTypeMarkdown, []float32{1, 0, 0, 0}),
	})
	require.NoError(t, err)

	require.NoError(t, s.Drop(ctx))

	_, err = s.Count(ctx)
	assert.Error(t, err)
}
