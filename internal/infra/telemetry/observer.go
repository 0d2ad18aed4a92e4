package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/runoshun/flow/internal/domain"
)

const meterName = "github.com/runoshun/flow"

// Observer records task lifecycle metrics.
type Observer struct {
	queued   metric.Int64Counter
	started  metric.Int64Counter
	finished metric.Int64Counter
	duration metric.Float64Histogram
}

// Ensure Observer implements domain.TaskObserver interface.
var _ domain.TaskObserver = (*Observer)(nil)

// NewObserver creates an Observer on the global MeterProvider.
func NewObserver() (*Observer, error) {
	return NewObserverWithMeter(otel.Meter(meterName))
}

// NewObserverWithMeter creates an Observer on meter.
func NewObserverWithMeter(meter metric.Meter) (*Observer, error) {
	queued, err := meter.Int64Counter("flow.tasks.queued",
		metric.WithDescription("Tasks registered with the scheduler"),
		metric.WithUnit("{task}"))
	if err != nil {
		return nil, err
	}
	started, err := meter.Int64Counter("flow.tasks.started",
		metric.WithDescription("Tasks whose job was started"),
		metric.WithUnit("{task}"))
	if err != nil {
		return nil, err
	}
	finished, err := meter.Int64Counter("flow.tasks.finished",
		metric.WithDescription("Tasks that reached a terminal state"),
		metric.WithUnit("{task}"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("flow.task.duration",
		metric.WithDescription("Time from job start to terminal state"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Observer{
		queued:   queued,
		started:  started,
		finished: finished,
		duration: duration,
	}, nil
}

// TaskAdded counts a queued task.
func (o *Observer) TaskAdded(ev domain.TaskEvent) {
	o.queued.Add(context.Background(), 1, metric.WithAttributes(projectAttr(ev.Project)))
}

// TaskStarted counts a started task.
func (o *Observer) TaskStarted(ev domain.TaskEvent) {
	o.started.Add(context.Background(), 1, metric.WithAttributes(projectAttr(ev.Project)))
}

// TaskFinished counts a finished task and records its duration.
func (o *Observer) TaskFinished(ev domain.TaskFinishedEvent) {
	v := ev.Task.Snapshot()
	attrs := metric.WithAttributes(
		projectAttr(ev.Project),
		attribute.String("task.status", string(v.Status)),
		attribute.Bool("task.errored", ev.Error),
	)
	o.finished.Add(context.Background(), 1, attrs)
	if v.Start != nil && v.End != nil {
		o.duration.Record(context.Background(), v.Duration().Seconds(), attrs)
	}
}

func projectAttr(p *domain.Project) attribute.KeyValue {
	name := ""
	if p != nil {
		name = p.Name
	}
	return attribute.String("project.name", name)
}
