package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusQueued    Status = "queued"          // Registered, waiting to be started
	StatusRunning   Status = "running"         // Job is executing
	StatusFinished  Status = "finished"        // Job settled (successfully or with error)
	StatusStopped   Status = "stopped by user" // Cancelled by the user
	statusUndefined Status = ""
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusQueued,
		StatusRunning,
		StatusFinished,
		StatusStopped,
	}
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusStopped
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusRunning:
		return "Running"
	case StatusFinished:
		return "Finished"
	case StatusStopped:
		return "Stopped"
	case statusUndefined:
		return "New"
	default:
		return string(s)
	}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusFinished, StatusStopped:
		return true
	default:
		return false
	}
}
