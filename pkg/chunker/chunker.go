// Package chunker splits markdown documents into heading-bounded chunks
// with content-derived identity hashes.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DocType classifies the origin of a chunk.
type DocType string

const (
	DocTypeMarkdown DocType = "markdown"
	DocTypeSession  DocType = "session"
	DocTypeFlush    DocType = "flush"
)

// Chunk is a contiguous span of a markdown document. Two chunks with
// identical content share the same Hash regardless of source.
type Chunk struct {
	Content      string  `json:"content"`
	Source       string  `json:"source"`
	Heading      string  `json:"heading"`
	HeadingLevel int     `json:"heading_level"`
	StartLine    int     `json:"start_line"`
	EndLine      int     `json:"end_line"`
	Hash         string  `json:"chunk_hash"`
	DocType      DocType `json:"doc_type"`
}

// HashContent returns the identity hash for chunk content. The hash is a
// pure function of the normalized text, so byte-identical spans collide.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:])
}

// ChunkMarkdown splits text into chunks delimited at heading lines. A new
// chunk begins at each heading, inheriting the heading text and level;
// content before the first heading becomes a chunk with no heading. Empty
// input yields no chunks; input without headings yields exactly one.
// Malformed markdown degrades to plain body text and never fails.
func ChunkMarkdown(text, source string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	var chunks []Chunk
	var buf []string
	heading := ""
	headingLevel := 0
	startLine := 1

	flush := func(endLine int) {
		content := strings.TrimRight(strings.Join(buf, "\n"), "\n")
		if strings.TrimSpace(content) == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Content:      content,
			Source:       source,
			Heading:      heading,
			HeadingLevel: headingLevel,
			StartLine:    startLine,
			EndLine:      endLine,
			Hash:         HashContent(content),
			DocType:      DocTypeMarkdown,
		})
	}

	for i, line := range lines {
		lineNo := i + 1
		if level, title, ok := parseHeading(line); ok {
			flush(lineNo - 1)
			buf = buf[:0]
			heading = title
			headingLevel = level
			startLine = lineNo
		}
		buf = append(buf, line)
	}
	flush(len(lines))

	return chunks
}

// parseHeading recognizes ATX headings: 1-6 '#' characters followed by a
// space. Anything else is body text.
func parseHeading(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimLeft(line, "#")
	level = len(line) - len(trimmed)
	if level < 1 || level > 6 {
		return 0, "", false
	}
	if trimmed == "" {
		return level, "", true
	}
	if !strings.HasPrefix(trimmed, " ") {
		return 0, "", false
	}
	return level, strings.TrimSpace(trimmed), true
}
