// Package embedding defines the embedding backend contract and its
// implementations.
package embedding

import (
	"context"
	"fmt"
)

// Provider generates vector embeddings from text. Embed returns one vector
// per input text, in input order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
	Dimension() int
}

// Config selects and configures a provider.
type Config struct {
	Provider  string // "openai", "ollama", "mock"
	Model     string // empty selects the provider default
	APIKey    string
	BaseURL   string
	Dimension int // override, needed for models the provider does not know
}

// New creates a provider by name.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	case "mock":
		dim := cfg.Dimension
		if dim == 0 {
			dim = 384
		}
		return NewMockProvider(dim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
