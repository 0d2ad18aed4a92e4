// Package logging builds the application slog.Logger.
// Records go to a text handler and, when telemetry is enabled, also to the
// OpenTelemetry log pipeline through the otelslog bridge.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/runoshun/flow/internal/domain"
)

// InstrumentationName identifies flow in the OpenTelemetry log pipeline.
const InstrumentationName = "github.com/runoshun/flow"

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewBridged creates a logger that writes to w and to the global
// OpenTelemetry LoggerProvider.
func NewBridged(w io.Writer, level slog.Level) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	otel := otelslog.NewHandler(InstrumentationName)
	return slog.New(&fanout{level: level, handlers: []slog.Handler{text, otel}})
}

// fanout sends every record to all handlers.
type fanout struct {
	handlers []slog.Handler
	level    slog.Level
}

func (f *fanout) Enabled(_ context.Context, level slog.Level) bool {
	return level >= f.level
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &fanout{level: f.level, handlers: make([]slog.Handler, len(f.handlers))}
	for i, h := range f.handlers {
		next.handlers[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := &fanout{level: f.level, handlers: make([]slog.Handler, len(f.handlers))}
	for i, h := range f.handlers {
		next.handlers[i] = h.WithGroup(name)
	}
	return next
}

// Observer writes task lifecycle events to a logger.
type Observer struct {
	logger *slog.Logger
}

// NewObserver creates an Observer.
func NewObserver(logger *slog.Logger) *Observer {
	return &Observer{logger: logger}
}

// Ensure Observer implements domain.TaskObserver interface.
var _ domain.TaskObserver = (*Observer)(nil)

// TaskAdded logs the queued task and its predecessor.
func (o *Observer) TaskAdded(ev domain.TaskEvent) {
	v := ev.Task.Snapshot()
	o.logger.Debug("task added", "id", v.ID, "title", v.Title, "depends_on", v.PredecessorID)
}

// TaskStarted logs the start of a task.
func (o *Observer) TaskStarted(ev domain.TaskEvent) {
	v := ev.Task.Snapshot()
	o.logger.Debug("task started", "id", v.ID, "title", v.Title)
}

// TaskFinished logs the outcome of a task.
func (o *Observer) TaskFinished(ev domain.TaskFinishedEvent) {
	v := ev.Task.Snapshot()
	level := slog.LevelDebug
	if ev.Error {
		level = slog.LevelWarn
	}
	o.logger.Log(context.Background(), level, "task done",
		"id", v.ID,
		"title", v.Title,
		"status", string(v.Status),
		"errored", ev.Error,
		"duration", v.Duration(),
	)
}
