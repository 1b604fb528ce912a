package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := Init("qaagent-test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTraceIDFromContext_NoActiveSpanIsEmpty(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
