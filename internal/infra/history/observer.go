package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/runoshun/flow/internal/domain"
)

// recordTimeout bounds a single history write.
const recordTimeout = 5 * time.Second

// Observer writes every finished task to a HistoryRepository.
type Observer struct {
	repo   domain.HistoryRepository
	logger *slog.Logger
	runID  string
}

// Ensure Observer implements domain.TaskObserver interface.
var _ domain.TaskObserver = (*Observer)(nil)

// NewObserver creates an Observer that tags records with runID.
func NewObserver(repo domain.HistoryRepository, runID string, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Observer{repo: repo, runID: runID, logger: logger}
}

// TaskAdded is a no-op.
func (o *Observer) TaskAdded(domain.TaskEvent) {}

// TaskStarted is a no-op.
func (o *Observer) TaskStarted(domain.TaskEvent) {}

// TaskFinished records the task. Failures are logged and otherwise ignored.
func (o *Observer) TaskFinished(ev domain.TaskFinishedEvent) {
	v := ev.Task.Snapshot()
	rec := domain.HistoryRecord{
		Start:    v.Start,
		End:      v.End,
		RunID:    o.runID,
		Project:  v.Project,
		Title:    v.Title,
		Status:   v.Status,
		TaskID:   v.ID,
		Errored:  ev.Error,
		LogLines: len(v.Logs),
	}
	if n := len(v.Logs); n > 0 {
		rec.LastLog = v.Logs[n-1].Message
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := o.repo.Record(ctx, rec); err != nil {
		o.logger.Warn("failed to record task history", "task", v.Title, "error", err)
	}
}
