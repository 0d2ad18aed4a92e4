package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/flow/internal/domain"
)

// DefaultHistoryLimit is the number of records listed when no limit is given.
const DefaultHistoryLimit = 20

// ListHistoryInput contains the parameters for listing run history.
type ListHistoryInput struct {
	Limit int // Maximum number of records (0 = DefaultHistoryLimit)
}

// ListHistoryOutput contains the listed records, newest first.
type ListHistoryOutput struct {
	Records []domain.HistoryRecord
}

// ListHistory lists recently finished tasks.
type ListHistory struct {
	history domain.HistoryRepository
}

// NewListHistory creates a new ListHistory use case.
// history is nil when run history is disabled.
func NewListHistory(history domain.HistoryRepository) *ListHistory {
	return &ListHistory{history: history}
}

// Execute returns the most recent records.
func (uc *ListHistory) Execute(ctx context.Context, in ListHistoryInput) (*ListHistoryOutput, error) {
	if uc.history == nil {
		return nil, domain.ErrHistoryDisabled
	}

	limit := in.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	records, err := uc.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return &ListHistoryOutput{Records: records}, nil
}
