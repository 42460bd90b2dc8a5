package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestInitTracing_Disabled(t *testing.T) {
	prev := Tracer
	t.Cleanup(func() { Tracer = prev })

	shutdown, err := InitTracing(TracingConfig{ServiceName: "microblog-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewSpan_RecordsErrorAndAttributes(t *testing.T) {
	rec := withRecorder(t)

	span, ctx := NewSpan(context.Background(), "FeedService.FollowingPosts", attribute.Int("user.id", 7))
	require.NotNil(t, ctx)
	assert.NotEmpty(t, span.TraceID())
	span.SetError(nil)
	span.SetError(errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "FeedService.FollowingPosts", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Int("user.id", 7))
}

func TestTraceRepositoryMethod(t *testing.T) {
	rec := withRecorder(t)

	_, span := TraceRepositoryMethod(context.Background(), "FollowingPosts", "posts")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "repository.FollowingPosts", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("db.sql.table", "posts"))
}

func TestRecordFollow(t *testing.T) {
	before := testutil.ToFloat64(FollowEvents.WithLabelValues("follow", "noop"))
	RecordFollow("follow", false)
	assert.Equal(t, before+1, testutil.ToFloat64(FollowEvents.WithLabelValues("follow", "noop")))

	before = testutil.ToFloat64(FollowEvents.WithLabelValues("unfollow", "changed"))
	RecordFollow("unfollow", true)
	assert.Equal(t, before+1, testutil.ToFloat64(FollowEvents.WithLabelValues("unfollow", "changed")))
}
