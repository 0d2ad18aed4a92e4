// Package domain contains core business entities and interfaces.
package domain

import (
	"context"
	"slices"
	"sync"
	"time"
)

// LogEntry is a single line of task output.
type LogEntry struct {
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

// Result is the outcome of a job run.
// Err is set by the scheduler when the job failed.
type Result struct {
	Err      error
	Output   string
	ExitCode int
}

// TaskOutput is handed to a running job so it can report progress.
type TaskOutput interface {
	// Log appends text to the task log. Multi-line text becomes several entries.
	Log(text, level string)

	// SetDescription updates the informational description of the task.
	SetDescription(description string)

	// SetEstimation updates the informational estimation of the task.
	SetEstimation(estimation string)
}

// Job is the unit of work executed by a task.
type Job interface {
	Run(ctx context.Context, out TaskOutput) (Result, error)
}

// Stopper cancels the work behind a task.
type Stopper interface {
	Stop(ctx context.Context) error
}

// Task represents a runnable unit managed by the scheduler.
// Tasks are created by callers and registered with the scheduler, which
// assigns the ID and drives the status. A task is never reused once finished.
// Fields are ordered to minimize memory padding.
type Task struct {
	Start       *time.Time // When the job was started (nil = never started)
	End         *time.Time // When the task reached a terminal state (nil if never started)
	Job         Job        // Work to execute (required)
	Stopper     Stopper    // Cancels the job (required when Stoppable)
	Project     *Project   // Owning project (not owned)
	DependsOn   *Task      // Predecessor (nil = root task)
	Title       string     // Title (required)
	Description string     // Informational, updated while running
	Estimation  string     // Informational, updated while running
	Status      Status     // Current status
	Logs        []LogEntry // Timestamped output
	ID          int        // Assigned when the task is queued
	mu          sync.Mutex
	Stoppable   bool // Whether the user may cancel the task
	Finished    bool // Set once, when the task reaches a terminal state
}

// NewTask creates a task with the given title and job.
func NewTask(title string, job Job) *Task {
	return &Task{
		Title: title,
		Job:   job,
	}
}

// Validate checks the fields required for queueing.
func (t *Task) Validate() error {
	if t.Job == nil || t.Title == "" {
		return ErrInvalidTask
	}
	return nil
}

// IsRoot returns true if the task has no predecessor.
func (t *Task) IsRoot() bool {
	return t.DependsOn == nil
}

// PredecessorID returns the ID of the task this one depends on.
func (t *Task) PredecessorID() (int, bool) {
	if t.DependsOn == nil {
		return 0, false
	}
	return t.DependsOn.TaskID(), true
}

// TaskID returns the ID under the task lock.
func (t *Task) TaskID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ID
}

// CurrentStatus returns the status under the task lock.
func (t *Task) CurrentStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Status
}

// IsFinished reports whether the task reached a terminal state.
func (t *Task) IsFinished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Finished
}

// IsStoppable reports whether the user may cancel the task.
func (t *Task) IsStoppable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Stoppable && t.Stopper != nil
}

// Queue marks the task as registered with the scheduler.
func (t *Task) Queue(id int, project *Project) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ID = id
	t.Status = StatusQueued
	t.Project = project
	if t.Logs == nil {
		t.Logs = []LogEntry{}
	}
}

// MarkRunning records the start of the job. Only a queued task can start;
// it returns false otherwise.
func (t *Task) MarkRunning(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Finished || t.Status != StatusQueued {
		return false
	}
	t.Start = &now
	t.Status = StatusRunning
	return true
}

// MarkStopped records a user cancellation.
// It returns false if the task was already finished or stopped.
func (t *Task) MarkStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Finished || t.Status == StatusStopped {
		return false
	}
	t.Status = StatusStopped
	return true
}

// MarkFinished moves the task to its terminal state.
// It returns false if the task was already finished.
func (t *Task) MarkFinished(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Finished {
		return false
	}
	if t.Status != StatusStopped {
		t.Status = StatusFinished
	}
	// a task that never started has no end time
	if t.Start != nil {
		t.End = &now
	}
	t.Description = ""
	t.Finished = true
	return true
}

// AppendLog appends entries to the task log.
func (t *Task) AppendLog(entries ...LogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Logs = append(t.Logs, entries...)
}

// LogEntries returns a copy of the task log.
func (t *Task) LogEntries() []LogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.Logs)
}

// SetDescription updates the description.
func (t *Task) SetDescription(description string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Description = description
}

// SetEstimation updates the estimation.
func (t *Task) SetEstimation(estimation string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Estimation = estimation
}

// Snapshot returns a copy of the task state that is safe to read
// while the job keeps running.
func (t *Task) Snapshot() TaskView {
	predecessor, _ := t.PredecessorID()

	t.mu.Lock()
	defer t.mu.Unlock()

	v := TaskView{
		ID:            t.ID,
		PredecessorID: predecessor,
		Title:         t.Title,
		Description:   t.Description,
		Estimation:    t.Estimation,
		Status:        t.Status,
		Logs:          slices.Clone(t.Logs),
		Stoppable:     t.Stoppable,
		Finished:      t.Finished,
	}
	if t.Project != nil {
		v.Project = t.Project.Name
	}
	if t.Start != nil {
		start := *t.Start
		v.Start = &start
	}
	if t.End != nil {
		end := *t.End
		v.End = &end
	}
	return v
}

// TaskView is a read-only copy of a task.
// Fields are ordered to minimize memory padding.
type TaskView struct {
	Start         *time.Time
	End           *time.Time
	Project       string
	Title         string
	Description   string
	Estimation    string
	Status        Status
	Logs          []LogEntry
	ID            int
	PredecessorID int // 0 = root task
	Stoppable     bool
	Finished      bool
}

// Duration returns how long the task ran. Zero if it has not both started and ended.
func (v TaskView) Duration() time.Duration {
	if v.Start == nil || v.End == nil {
		return 0
	}
	return v.End.Sub(*v.Start)
}
