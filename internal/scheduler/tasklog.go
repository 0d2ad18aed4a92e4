package scheduler

import (
	"regexp"
	"strings"
	"time"

	"github.com/runoshun/flow/internal/domain"
)

// Synthetic lifecycle lines written into every task log.
const (
	LogStarted           = "-----STARTED-----"
	LogFinished          = "-----FINISHED-----"
	LogFinishedWithError = "-----FINISHED WITH ERROR-----"
	LogStoppedByUser     = "-----STOPPED BY USER-----"
)

// timestampLayout is the clock prefix added to log lines (HH:MM:SS).
const timestampLayout = "15:04:05"

var (
	// emptyTagPattern matches text that is nothing but a bracketed tag, e.g. "[12:00:00] ".
	emptyTagPattern = regexp.MustCompile(`^\[(.*)\] $`)
	// timestampPattern matches lines that already carry a bracketed prefix.
	timestampPattern = regexp.MustCompile(`^\[(.*)\]`)
)

// FormatLogLines turns raw output into log entries.
// Each non-blank line becomes one entry; lines without a bracketed prefix get
// a "[HH:MM:SS] " timestamp, and a level adds "[level] " in front of the text.
// Re-logging formatted text never adds a second timestamp.
func FormatLogLines(text, level string, now time.Time) []domain.LogEntry {
	if emptyTagPattern.MatchString(text) {
		return nil
	}

	var entries []domain.LogEntry
	for _, part := range strings.Split(text, "\n") {
		line := strings.TrimSpace(part)
		if line == "" {
			continue
		}

		hasTimestamp := timestampPattern.MatchString(line)
		if level != "" {
			line = "[" + level + "] " + line
		}
		if !hasTimestamp {
			line = "[" + now.Format(timestampLayout) + "] " + line
		}
		entries = append(entries, domain.LogEntry{Message: line, Level: level})
	}
	return entries
}
