package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSON(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:  "empty object",
			input: `{}`,
		},
		{
			name: "full valid config",
			input: `{
				"paths": ["/notes"],
				"extensions": [".md"],
				"embedding": {"provider": "openai", "dimension": 1536},
				"summarizer": {"provider": "anthropic"},
				"logging": {"level": "debug"}
			}`,
		},
		{
			name:    "provider outside enum",
			input:   `{"embedding": {"provider": "cohere"}}`,
			wantErr: "embedding.provider",
		},
		{
			name:    "extension missing dot",
			input:   `{"extensions": ["md"]}`,
			wantErr: "extensions",
		},
		{
			name:    "dimension below minimum",
			input:   `{"embedding": {"dimension": -1}}`,
			wantErr: "dimension",
		},
		{
			name:    "prune_sources wrong type",
			input:   `{"flush": {"prune_sources": "yes"}}`,
			wantErr: "prune_sources",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateJSON([]byte(tt.input))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateFile_Missing(t *testing.T) {
	err := NewValidator().ValidateFile("/nonexistent/memsearch.json")
	assert.Error(t, err)
}
