package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pjgates/memsearch/pkg/store"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicSummarizer implements Summarizer on the Anthropic messages API.
type AnthropicSummarizer struct {
	client anthropic.Client
	model  string
}

// NewAnthropicSummarizer creates an Anthropic summarizer. An empty API key
// falls back to the SDK's environment lookup.
func NewAnthropicSummarizer(cfg Config) *AnthropicSummarizer {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &AnthropicSummarizer{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, chunks []store.Result) (string, error) {
	if len(chunks) == 0 {
		return "", nil
	}

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(chunks))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic summarization call failed: %w", err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
