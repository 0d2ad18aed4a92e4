// Package errsink collects task failures so they can be reported after a run.
package errsink

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runoshun/flow/internal/domain"
)

// Entry is one collected failure.
// Fields are ordered to minimize memory padding.
type Entry struct {
	At      time.Time
	Err     error
	ID      string
	Title   string
	Message string
	TaskID  int
}

// Collector implements domain.ErrorSink.
type Collector struct {
	logger  *slog.Logger
	clock   domain.Clock
	entries []Entry
	mu      sync.Mutex
}

// Ensure Collector implements domain.ErrorSink interface.
var _ domain.ErrorSink = (*Collector)(nil)

// New creates a Collector that also logs every failure at error level.
func New(logger *slog.Logger, clock domain.Clock) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Collector{logger: logger, clock: clock}
}

// Add records err. Task identity is taken from a wrapped *domain.ExecutionError.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}

	e := Entry{
		ID:      uuid.NewString(),
		At:      c.clock.Now(),
		Err:     err,
		Message: err.Error(),
	}
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		e.TaskID = execErr.TaskID
		e.Title = execErr.Title
		e.Message = execErr.Err.Error()
	}

	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()

	c.logger.Error("task failed", "id", e.ID, "task_id", e.TaskID, "task", e.Title, "error", e.Message)
}

// List returns the collected entries in the order they were added.
func (c *Collector) List() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of collected entries.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
