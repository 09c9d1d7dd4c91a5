package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localmedia", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
	assert.NotNil(t, Tracer())
}

func TestSessionSpanWithoutInit(t *testing.T) {
	ctx, span := StartSessionSpan(context.Background(), "conn-1", "127.0.0.1")
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	// No-op spans carry no IDs.
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))

	assert.NotPanics(t, func() {
		SetAttributes(ctx, StatusCode(206))
		RecordError(ctx, errors.New("boom"))
		RecordError(ctx, nil)
	})
	span.End()
}

func TestSendSpan(t *testing.T) {
	_, span := StartSendSpan(context.Background(), "raw", "/media/movie.mp4", 10, 20)
	require.NotNil(t, span)
	span.End()

	attrs := attribute.NewSet(sendAttributes("raw", "/media/movie.mp4", 10, 20)...)
	path, ok := attrs.Value(AttrContentPath)
	require.True(t, ok)
	assert.Equal(t, "/media/movie.mp4", path.AsString())
	kind, ok := attrs.Value(AttrContentKind)
	require.True(t, ok)
	assert.Equal(t, "raw", kind.AsString())
}

func TestByteWindow(t *testing.T) {
	attrs := ByteWindow(100, 50)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key(AttrContentStart), attrs[0].Key)
	assert.Equal(t, int64(100), attrs[0].Value.AsInt64())
	assert.Equal(t, int64(50), attrs[1].Value.AsInt64())
}

func TestInitProfilingDisabled(t *testing.T) {
	stop, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, stop())
}

func TestInitProfilingUnknownType(t *testing.T) {
	_, err := InitProfiling(ProfilingConfig{
		Enabled:      true,
		ProfileTypes: []string{"cpu", "wallclock"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallclock")
}

func TestProfileTypeNames(t *testing.T) {
	names := ProfileTypeNames()
	assert.Contains(t, names, "cpu")
	assert.Contains(t, names, "goroutines")
	assert.IsIncreasing(t, names)
}
