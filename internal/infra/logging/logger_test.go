package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/runoshun/flow/internal/domain"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"unknown", slog.LevelInfo}, // default
		{"", slog.LevelInfo},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "task", "build")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "task=build")
}

// recordingExporter keeps exported OpenTelemetry log records.
type recordingExporter struct {
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func TestNewBridged(t *testing.T) {
	exp := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	prev := global.GetLoggerProvider()
	global.SetLoggerProvider(provider)
	t.Cleanup(func() { global.SetLoggerProvider(prev) })

	var buf bytes.Buffer
	logger := NewBridged(&buf, slog.LevelInfo).With("project", "app")

	logger.Debug("dropped")
	logger.Info("queued task", "task", "build")

	assert.Contains(t, buf.String(), "msg=\"queued task\"")
	assert.Contains(t, buf.String(), "project=app")
	assert.NotContains(t, buf.String(), "dropped")

	require.Len(t, exp.records, 1)
	assert.Equal(t, "queued task", exp.records[0].Body().AsString())
}

func TestObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(New(&buf, slog.LevelDebug))

	task := domain.NewTask("gulp build", domain.NoopJob{})
	task.Queue(7, nil)
	start := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	task.MarkRunning(start)
	task.MarkFinished(start.Add(2 * time.Second))

	obs.TaskAdded(domain.TaskEvent{Task: task})
	obs.TaskStarted(domain.TaskEvent{Task: task})
	obs.TaskFinished(domain.TaskFinishedEvent{Task: task, Error: true})

	out := buf.String()
	assert.Contains(t, out, "msg=\"task added\" id=7")
	assert.Contains(t, out, "msg=\"task started\" id=7")
	assert.Contains(t, out, "level=WARN msg=\"task done\"")
	assert.Contains(t, out, "duration=2s")
}
