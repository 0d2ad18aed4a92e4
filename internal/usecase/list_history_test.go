package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/testutil"
	"github.com/runoshun/flow/internal/usecase"
)

func TestListHistory_Execute(t *testing.T) {
	t.Run("returns newest first with default limit", func(t *testing.T) {
		repo := &testutil.MockHistoryRepository{}
		for i := 1; i <= 25; i++ {
			repo.Records = append(repo.Records, domain.HistoryRecord{TaskID: i, Title: fmt.Sprintf("task %d", i)})
		}

		uc := usecase.NewListHistory(repo)
		out, err := uc.Execute(context.Background(), usecase.ListHistoryInput{})

		require.NoError(t, err)
		require.Len(t, out.Records, usecase.DefaultHistoryLimit)
		assert.Equal(t, 25, out.Records[0].TaskID)
	})

	t.Run("respects limit", func(t *testing.T) {
		repo := &testutil.MockHistoryRepository{Records: []domain.HistoryRecord{{TaskID: 1}, {TaskID: 2}}}

		uc := usecase.NewListHistory(repo)
		out, err := uc.Execute(context.Background(), usecase.ListHistoryInput{Limit: 1})

		require.NoError(t, err)
		assert.Equal(t, []domain.HistoryRecord{{TaskID: 2}}, out.Records)
	})

	t.Run("disabled", func(t *testing.T) {
		uc := usecase.NewListHistory(nil)

		_, err := uc.Execute(context.Background(), usecase.ListHistoryInput{})

		assert.ErrorIs(t, err, domain.ErrHistoryDisabled)
	})

	t.Run("store error", func(t *testing.T) {
		repo := &testutil.MockHistoryRepository{RecentErr: errors.New("database is locked")}

		uc := usecase.NewListHistory(repo)
		_, err := uc.Execute(context.Background(), usecase.ListHistoryInput{})

		assert.ErrorContains(t, err, "database is locked")
	})
}
