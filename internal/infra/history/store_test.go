package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), ".flow", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Second)
	require.NoError(t, store.Record(ctx, domain.HistoryRecord{
		RunID: "run-1", TaskID: 1, Project: "app", Title: "npm install",
		Status: domain.StatusFinished, Start: &start, End: &end, LogLines: 3, LastLog: "[12:00:04] -----FINISHED-----",
	}))
	require.NoError(t, store.Record(ctx, domain.HistoryRecord{
		RunID: "run-1", TaskID: 2, Project: "app", Title: "gulp serve",
		Status: domain.StatusStopped,
	}))
	require.NoError(t, store.Record(ctx, domain.HistoryRecord{
		RunID: "run-2", TaskID: 1, Project: "app", Title: "gulp lint",
		Status: domain.StatusFinished, Errored: true,
	}))

	records, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "gulp lint", records[0].Title)
	assert.True(t, records[0].Errored)
	assert.Equal(t, domain.StatusStopped, records[1].Status)
	assert.Nil(t, records[1].Start)

	all, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	first := all[2]
	assert.Equal(t, "run-1", first.RunID)
	require.NotNil(t, first.Start)
	assert.True(t, start.Equal(*first.Start))
	assert.True(t, end.Equal(*first.End))
	assert.Equal(t, 3, first.LogLines)
	assert.Equal(t, "[12:00:04] -----FINISHED-----", first.LastLog)
}

func TestStore_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, domain.HistoryRecord{RunID: "r", TaskID: 1, Title: "a", Status: domain.StatusFinished}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
