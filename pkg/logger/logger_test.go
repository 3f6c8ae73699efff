package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := globalLogger
	SetGlobal(New(Config{Level: level, Format: "json"}, &buf))
	t.Cleanup(func() { SetGlobal(prev) })
	return &buf
}

func TestWithContext_InjectsTraceFields(t *testing.T) {
	buf := capture(t, "info")
	ctx := ContextWithTrace(context.Background(), "trace-1", "span-1")

	Info(ctx, "priced", "paths", 10)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "priced", line["msg"])
	assert.Equal(t, "trace-1", line["trace_id"])
	assert.Equal(t, "span-1", line["span_id"])
	assert.Equal(t, float64(10), line["paths"])
	assert.Equal(t, "trace-1", TraceID(ctx))
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "warn")

	Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogDuration(t *testing.T) {
	buf := capture(t, "debug")

	done := LogDuration(context.Background(), "simulation finished", "model", "vasicek")
	done()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "vasicek", line["model"])
	assert.Contains(t, line, "duration")
}
