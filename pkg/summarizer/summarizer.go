// Package summarizer condenses retrieved chunks into a single markdown
// summary via an LLM backend.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/pjgates/memsearch/pkg/store"
)

// Summarizer turns a set of retrieved chunks into one markdown document.
type Summarizer interface {
	Summarize(ctx context.Context, chunks []store.Result) (string, error)
}

// Config selects and configures a summarization backend.
type Config struct {
	Provider string // "openai", "anthropic"
	Model    string // empty selects the provider default
	APIKey   string
}

// New creates a summarizer by provider name.
func New(cfg Config) (Summarizer, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAISummarizer(cfg), nil
	case "anthropic":
		return NewAnthropicSummarizer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider: %q", cfg.Provider)
	}
}

const systemPrompt = `You are a memory compaction assistant. You receive chunks of notes and conversation transcripts. Produce a single condensed markdown document that preserves the important facts, decisions, and open threads. Use headings to organize topics. Be concise; drop pleasantries and duplicated information.`

// buildPrompt renders the chunk set as the user message.
func buildPrompt(chunks []store.Result) string {
	var b strings.Builder
	b.WriteString("Summarize the following memory chunks into one condensed markdown document:\n")
	for i, r := range chunks {
		fmt.Fprintf(&b, "\n--- Chunk %d (source: %s", i+1, r.Chunk.Source)
		if r.Chunk.Heading != "" {
			fmt.Fprintf(&b, ", heading: %s", r.Chunk.Heading)
		}
		b.WriteString(") ---\n")
		b.WriteString(r.Chunk.Content)
		b.WriteString("\n")
	}
	return b.String()
}
