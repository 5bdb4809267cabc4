package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = WithTraceID(ctx, "trace-123")
	assert.Equal(t, "trace-123", GetTraceID(ctx))
}

func TestSourceRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetSource(ctx))

	ctx = WithSource(ctx, "/notes/a.md")
	assert.Equal(t, "/notes/a.md", GetSource(ctx))
}

func TestFromContext(t *testing.T) {
	ctx := WithSource(WithTraceID(context.Background(), "trace-1"), "/notes/a.md")

	tc := FromContext(ctx)
	assert.Equal(t, "trace-1", tc.TraceID)
	assert.Equal(t, "/notes/a.md", tc.Source)
}

func TestNewTraceID_Unique(t *testing.T) {
	assert.NotEqual(t, NewTraceID(), NewTraceID())
}

func TestNewRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background())
	assert.NotEmpty(t, GetTraceID(ctx))
}
