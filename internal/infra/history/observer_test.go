package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/testutil"
)

func TestObserver_TaskFinished(t *testing.T) {
	repo := &testutil.MockHistoryRepository{}
	obs := NewObserver(repo, "run-42", nil)

	project := domain.NewProject("app", "/srv/app")
	task := domain.NewTask("gulp build", domain.NoopJob{})
	task.Queue(3, project)
	start := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	task.MarkRunning(start)
	task.AppendLog(domain.LogEntry{Message: "[12:00:00] -----STARTED-----"}, domain.LogEntry{Message: "[12:00:01] done"})
	task.MarkFinished(start.Add(time.Second))

	obs.TaskAdded(domain.TaskEvent{Project: project, Task: task})
	obs.TaskStarted(domain.TaskEvent{Project: project, Task: task})
	obs.TaskFinished(domain.TaskFinishedEvent{Project: project, Task: task})

	require.Len(t, repo.Records, 1)
	rec := repo.Records[0]
	assert.Equal(t, "run-42", rec.RunID)
	assert.Equal(t, 3, rec.TaskID)
	assert.Equal(t, "app", rec.Project)
	assert.Equal(t, domain.StatusFinished, rec.Status)
	assert.Equal(t, 2, rec.LogLines)
	assert.Equal(t, "[12:00:01] done", rec.LastLog)
	assert.False(t, rec.Errored)
}

type failingRepo struct{}

func (failingRepo) Record(context.Context, domain.HistoryRecord) error {
	return errors.New("disk full")
}

func (failingRepo) Recent(context.Context, int) ([]domain.HistoryRecord, error) {
	return nil, nil
}

func TestObserver_RecordFailureIsNotFatal(t *testing.T) {
	obs := NewObserver(failingRepo{}, "run", nil)
	task := domain.NewTask("a", domain.NoopJob{})
	task.Queue(1, nil)

	assert.NotPanics(t, func() {
		obs.TaskFinished(domain.TaskFinishedEvent{Task: task})
	})
}
