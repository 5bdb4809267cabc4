package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema is the JSON schema the config file must satisfy before it
// is unmarshaled. It catches shape errors (wrong types, unknown providers)
// with field-level messages instead of a mapstructure decode failure.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "paths": {"type": "array", "items": {"type": "string"}},
    "extensions": {"type": "array", "items": {"type": "string", "pattern": "^\\."}},
    "exclude": {"type": "array", "items": {"type": "string"}},
    "data_dir": {"type": "string"},
    "embedding": {
      "type": "object",
      "properties": {
        "provider": {"type": "string", "enum": ["openai", "ollama", "mock"]},
        "model": {"type": "string"},
        "api_key": {"type": "string"},
        "base_url": {"type": "string"},
        "dimension": {"type": "integer", "minimum": 0}
      }
    },
    "summarizer": {
      "type": "object",
      "properties": {
        "provider": {"type": "string", "enum": ["openai", "anthropic"]},
        "model": {"type": "string"},
        "api_key": {"type": "string"}
      }
    },
    "flush": {
      "type": "object",
      "properties": {
        "prune_sources": {"type": "boolean"}
      }
    },
    "watch": {
      "type": "object",
      "properties": {
        "resync_cron": {"type": "string"}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "addr": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "max_size": {"type": "integer", "minimum": 0},
        "max_age": {"type": "integer", "minimum": 0},
        "compress": {"type": "boolean"},
        "redaction": {"type": "boolean"}
      }
    }
  }
}`

// Validator validates configuration files against the schema
type Validator struct {
	schema gojsonschema.JSONLoader
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		schema: gojsonschema.NewStringLoader(configSchema),
	}
}

// ValidateFile validates a config file on disk
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ValidateJSON(data)
}

// ValidateJSON validates raw config JSON
func (v *Validator) ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(v.schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}
