package summarizer

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pjgates/memsearch/pkg/store"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAISummarizer implements Summarizer on the OpenAI chat completions API.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAISummarizer creates an OpenAI summarizer. An empty API key falls
// back to the SDK's environment lookup.
func NewOpenAISummarizer(cfg Config) *OpenAISummarizer {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &OpenAISummarizer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, chunks []store.Result) (string, error) {
	if len(chunks) == 0 {
		return "", nil
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(chunks)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai summarization call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no completion choices")
	}
	return resp.Choices[0].Message.Content, nil
}
