package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()
	originalLevel := Level(currentLevel.Load())
	originalFormat, _ := currentFormat.Load().(string)

	reconfigure()

	return buf, func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(int32(originalLevel))
		currentFormat.Store(originalFormat)
		reconfigure()
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		for _, want := range []string{"DEBUG", "INFO", "WARN", "ERROR", "debug message", "error message"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("WarnLevelFiltersDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("InvalidLevelIsIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetLevel("LOUD")
		Debug("hidden")
		Info("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "shown")
	})
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, l)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}

func TestTextFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	Info("Session finished", KeyStatus, 206, KeyPath, "/tmp/my movie.mp4", ByteWindow(100, 50))

	out := buf.String()
	assert.Contains(t, out, "[INFO] Session finished")
	assert.Contains(t, out, "status=206")
	assert.Contains(t, out, `path="/tmp/my movie.mp4"`)
	assert.Contains(t, out, "window.start=100")
	assert.Contains(t, out, "window.length=50")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestErrAttr(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	Warn("send failed", Err(errors.New("broken pipe")), Err(nil))

	assert.Contains(t, buf.String(), `error="broken pipe"`)
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")
	Info("json message", KeyURL, "http://localhost:1234/x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "json message", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "http://localhost:1234/x", entry[KeyURL])
}

func TestContextFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	lc := NewLogContext("conn-1", "127.0.0.1").WithRequest("GET", "bytes=0-99")
	ctx := WithContext(context.Background(), lc)

	DebugCtx(ctx, "range resolved", KeyStart, 0)

	out := buf.String()
	assert.Contains(t, out, "connection_id=conn-1")
	assert.Contains(t, out, "client_ip=127.0.0.1")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, `range="bytes=0-99"`)
	assert.Less(t, strings.Index(out, "connection_id"), strings.Index(out, "start=0"))
}

func TestContextWithoutLogContext(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	InfoCtx(context.Background(), "plain")
	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), "connection_id")
}

func TestLogContextClone(t *testing.T) {
	lc := NewLogContext("c", "10.0.0.1")
	traced := lc.WithTrace("trace", "span")

	assert.Empty(t, lc.TraceID)
	assert.Equal(t, "trace", traced.TraceID)
	assert.Equal(t, "c", traced.ConnectionID)

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
	assert.Zero(t, nilCtx.DurationMs())
}

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Info("concurrent", "n", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
}
