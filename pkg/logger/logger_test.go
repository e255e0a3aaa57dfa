package logger

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { globalLogger = prev })

	ctx := WithRequestID(WithTraceID(context.Background(), "t-1"), "r-1")
	Info(ctx, "order placed", "symbol", "BTC/USDT")

	out := buf.String()
	assert.Contains(t, out, `"trace_id":"t-1"`)
	assert.Contains(t, out, `"request_id":"r-1"`)
	assert.Contains(t, out, `"symbol":"BTC/USDT"`)
	assert.NotContains(t, out, "span_id")
	assert.Equal(t, "r-1", RequestID(ctx))
}

func TestInitFileOutput(t *testing.T) {
	prev := globalLogger
	prevDefault := slog.Default()
	t.Cleanup(func() {
		globalLogger = prev
		slog.SetDefault(prevDefault)
	})

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	err := Init(Config{Level: "debug", Format: "text", Output: "file", FilePath: path, MaxSize: 1})
	require.NoError(t, err)
	assert.True(t, Get().Enabled(context.Background(), slog.LevelDebug))
}
