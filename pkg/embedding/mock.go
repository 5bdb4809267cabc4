package embedding

import (
	"context"
	"sync/atomic"
)

// MockProvider generates deterministic embeddings without network access.
// It counts calls so tests can assert the cache prevented backend trips.
type MockProvider struct {
	dimension int
	calls     atomic.Int64
	texts     atomic.Int64
}

func NewMockProvider(dimension int) *MockProvider {
	return &MockProvider{dimension: dimension}
}

func (p *MockProvider) ModelName() string {
	return "mock"
}

func (p *MockProvider) Dimension() int {
	return p.dimension
}

// Calls returns how many times Embed was invoked.
func (p *MockProvider) Calls() int {
	return int(p.calls.Load())
}

// Texts returns the total number of texts embedded across all calls.
func (p *MockProvider) Texts() int {
	return int(p.texts.Load())
}

func (p *MockProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.calls.Add(1)
	p.texts.Add(int64(len(texts)))

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		hash := 0
		for _, c := range text {
			hash = hash*31 + int(c)
		}
		vec := make([]float32, p.dimension)
		for j := 0; j < p.dimension; j++ {
			vec[j] = float32((hash+j)%100) / 100.0
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}
