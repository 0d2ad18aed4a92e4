package domain

import (
	"context"
	"time"
)

// CommandRunner turns a command into a runnable task for a project.
type CommandRunner interface {
	// Run returns a stoppable task whose job runs command in the project directory.
	Run(project *Project, command Command) *Task
}

// ProcessHost starts and stops operating system processes.
type ProcessHost interface {
	// Spawn starts cmd and streams its output line by line to the callbacks.
	Spawn(ctx context.Context, cmd *ExecCommand, onStdout, onStderr func(line string)) (Process, error)

	// Kill terminates a running process and waits for it to exit.
	Kill(ctx context.Context, p Process) error
}

// Process is a handle on a spawned process.
type Process interface {
	// Wait blocks until the process exits. A non-zero exit yields *ExitError.
	Wait() error

	// Pid returns the operating system process id.
	Pid() int
}

// CommandExecutor runs one-shot commands.
type CommandExecutor interface {
	// Execute runs the command and returns its combined output.
	Execute(cmd *ExecCommand) ([]byte, error)
}

// ErrorSink collects task failures for later reporting.
type ErrorSink interface {
	// Add records an error. It must not panic or block for long.
	Add(err error)
}

// TaskEvent describes a task lifecycle transition.
type TaskEvent struct {
	Project *Project
	Task    *Task
}

// TaskFinishedEvent describes a task reaching its terminal state.
type TaskFinishedEvent struct {
	Project *Project
	Task    *Task
	Error   bool
}

// TaskObserver receives task lifecycle notifications.
type TaskObserver interface {
	TaskAdded(ev TaskEvent)
	TaskStarted(ev TaskEvent)
	TaskFinished(ev TaskFinishedEvent)
}

// HistoryRecord is a persisted summary of a finished task.
// Fields are ordered to minimize memory padding.
type HistoryRecord struct {
	Start    *time.Time
	End      *time.Time
	RunID    string
	Project  string
	Title    string
	Status   Status
	LastLog  string
	TaskID   int
	Errored  bool
	LogLines int
}

// HistoryRepository persists finished task runs.
type HistoryRepository interface {
	// Record stores a finished task.
	Record(ctx context.Context, rec HistoryRecord) error

	// Recent returns the latest records, newest first.
	Recent(ctx context.Context, limit int) ([]HistoryRecord, error)
}

// TreeRepository loads and saves command tree files.
type TreeRepository interface {
	// Load reads the tree at path. Generated ids are written back to the file.
	Load(path string) (*CommandTree, error)

	// Save writes the tree to path.
	Save(path string, tree *CommandTree) error
}

// ProjectResolver resolves the project that contains a directory.
type ProjectResolver interface {
	Resolve(dir string) (*Project, error)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (project + global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigManager manages configuration files.
type ConfigManager interface {
	// GetProjectConfigInfo returns information about the project config file.
	GetProjectConfigInfo() ConfigInfo

	// GetGlobalConfigInfo returns information about the global config file.
	GetGlobalConfigInfo() ConfigInfo

	// InitProjectConfig creates the project config file with default content.
	InitProjectConfig() error

	// InitGlobalConfig creates the global config file with default content.
	InitGlobalConfig() error
}

// ConfigInfo contains information about a config file.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
