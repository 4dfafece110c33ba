package tracer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracing(t *testing.T) {
	ctx := context.Background()
	ctx, span := Open(ctx, Named("TestTracing"))
	a1(ctx)
	span.Close()

	trace, err := span.PrintTrace()
	require.NoError(t, err)

	var decoded chromeTrace
	require.NoError(t, json.Unmarshal(trace, &decoded))
	require.Len(t, decoded.TraceEvents, 3)
	assert.Equal(t, "TestTracing", decoded.TraceEvents[0].Name)
	assert.Equal(t, "A1", decoded.TraceEvents[1].Name)
	assert.Equal(t, "A2", decoded.TraceEvents[2].Name)
	for _, event := range decoded.TraceEvents {
		assert.Equal(t, decoded.TraceEvents[0].TID, event.TID, "children share the root thread id")
	}
	assert.GreaterOrEqual(t, span.Duration(), 10*time.Millisecond)
}

func TestOpenWithoutParentStartsNewThread(t *testing.T) {
	_, first := Open(context.Background())
	_, second := Open(context.Background())
	assert.NotEqual(t, first.tid, second.tid)
	assert.NotEmpty(t, first.Name(), "unnamed spans are named after the caller")
}

func TestBackgroundKeepsSpan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx, span := Open(ctx, Named("request"))
	cancel()

	detached := Background(ctx)
	assert.NoError(t, detached.Err())
	assert.Same(t, span, FromContext(detached))
}

func a1(ctx context.Context) {
	ctx, span := Open(ctx, Named("A1"))
	defer span.Close()
	a2(ctx)
}

func a2(ctx context.Context) {
	_, span := Open(ctx, Named("A2"))
	defer span.Close()
	time.Sleep(10 * time.Millisecond)
}
