package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMarkdown_EmptyInput(t *testing.T) {
	assert.Nil(t, ChunkMarkdown("", "a.md"))
	assert.Nil(t, ChunkMarkdown("   \n\n  ", "a.md"))
}

func TestChunkMarkdown_NoHeadings(t *testing.T) {
	chunks := ChunkMarkdown("just some text\nsecond line", "notes.md")
	require.Len(t, chunks, 1)

	assert.Equal(t, "just some text\nsecond line", chunks[0].Content)
	assert.Equal(t, "notes.md", chunks[0].Source)
	assert.Equal(t, "", chunks[0].Heading)
	assert.Equal(t, 0, chunks[0].HeadingLevel)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)
	assert.Equal(t, DocTypeMarkdown, chunks[0].DocType)
}

func TestChunkMarkdown_HeadingBoundaries(t *testing.T) {
	text := "intro line\n\n# First\nbody one\n\n## Second\nbody two\n"
	chunks := ChunkMarkdown(text, "doc.md")
	require.Len(t, chunks, 3)

	assert.Equal(t, "", chunks[0].Heading)
	assert.Equal(t, "intro line", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].StartLine)

	assert.Equal(t, "First", chunks[1].Heading)
	assert.Equal(t, 1, chunks[1].HeadingLevel)
	assert.Equal(t, "# First\nbody one", chunks[1].Content)
	assert.Equal(t, 3, chunks[1].StartLine)
	assert.Equal(t, 5, chunks[1].EndLine)

	assert.Equal(t, "Second", chunks[2].Heading)
	assert.Equal(t, 2, chunks[2].HeadingLevel)
	assert.Equal(t, 6, chunks[2].StartLine)
}

func TestChunkMarkdown_NoPreambleChunkWhenBlank(t *testing.T) {
	chunks := ChunkMarkdown("\n\n# Only\ncontent", "doc.md")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Only", chunks[0].Heading)
}

func TestHashContent_Deterministic(t *testing.T) {
	h1 := HashContent("same text")
	h2 := HashContent("same text")
	h3 := HashContent("other text")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestHashContent_WhitespaceStable(t *testing.T) {
	assert.Equal(t, HashContent("text\n"), HashContent("text"))
	assert.Equal(t, HashContent("  text  "), HashContent("text"))
}

func TestChunkMarkdown_IdenticalContentSameHashAcrossSources(t *testing.T) {
	a := ChunkMarkdown("# Shared\nsame body", "a.md")
	b := ChunkMarkdown("# Shared\nsame body", "b.md")
	require.Len(t, a, 1)
	require.Len(t, b, 1)

	assert.Equal(t, a[0].Hash, b[0].Hash)
	assert.NotEqual(t, a[0].Source, b[0].Source)
}

func TestParseHeading(t *testing.T) {
	tests := []struct {
		line  string
		level int
		title string
		ok    bool
	}{
		{"# Title", 1, "Title", true},
		{"### Deep", 3, "Deep", true},
		{"####### too deep", 0, "", false},
		{"#no-space", 0, "", false},
		{"plain text", 0, "", false},
		{"##", 2, "", true},
	}

	for _, tt := range tests {
		level, title, ok := parseHeading(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.level, level, tt.line)
		assert.Equal(t, tt.title, title, tt.line)
	}
}
