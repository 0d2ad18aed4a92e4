package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrInvalidTask       = errors.New("task job and title are required")
	ErrNotStoppable      = errors.New("this task cannot be cancelled")
	ErrTaskNotFound      = errors.New("task not found")
	ErrTreeCycle         = errors.New("command tree contains a cycle")
	ErrTreeTooDeep       = errors.New("command tree exceeds maximum depth")
	ErrEmptyExecutable   = errors.New("command executable cannot be empty")
	ErrNotGitRepository  = errors.New("not a git repository (or any of the parent directories)")
	ErrConfigExists      = errors.New("config file already exists")
	ErrUnsupportedFormat = errors.New("unsupported tree file format")
	ErrHistoryDisabled   = errors.New("run history is disabled")
	ErrNoGulpTasks       = errors.New("gulp reported no tasks")
)

// ExecutionError is a failure raised by a task's job.
// The scheduler absorbs it: it is logged into the task, handed to the
// error sink and reported through TaskFinished, never returned to callers.
type ExecutionError struct {
	Err    error
	Title  string
	TaskID int
}

// NewExecutionError wraps err with the identity of the task that raised it.
func NewExecutionError(task *Task, err error) *ExecutionError {
	return &ExecutionError{
		TaskID: task.ID,
		Title:  task.Title,
		Err:    err,
	}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task %d (%s): %v", e.TaskID, e.Title, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ExitError reports a process that terminated with a non-zero status.
type ExitError struct {
	Program string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Program, e.Code)
}
