package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/runoshun/flow/internal/domain"
)

// statusPrinter is a domain.TaskObserver that prints one line per task
// transition.
type statusPrinter struct {
	w       io.Writer
	errored map[int]bool
	mu      sync.Mutex
}

var _ domain.TaskObserver = (*statusPrinter)(nil)

func newStatusPrinter(w io.Writer) *statusPrinter {
	return &statusPrinter{w: w, errored: make(map[int]bool)}
}

func (p *statusPrinter) TaskAdded(domain.TaskEvent) {}

func (p *statusPrinter) TaskStarted(ev domain.TaskEvent) {
	p.printf("%s %s\n", Styles.Running.Render("▶ started"), taskLabel(ev.Task.Snapshot()))
}

func (p *statusPrinter) TaskFinished(ev domain.TaskFinishedEvent) {
	view := ev.Task.Snapshot()

	var mark string
	switch {
	case view.Status == domain.StatusStopped:
		mark = Styles.Warning.Render("■ stopped")
	case ev.Error:
		mark = Styles.Error.Render("✖ failed")
	default:
		mark = Styles.Success.Render("✔ finished")
	}

	p.mu.Lock()
	p.errored[view.ID] = ev.Error
	p.mu.Unlock()

	suffix := ""
	if view.Start != nil {
		suffix = " " + Styles.Muted.Render("("+formatDuration(view.Duration())+")")
	}
	p.printf("%s %s%s\n", mark, taskLabel(view), suffix)
}

// Errored reports whether the task with id finished with an error.
func (p *statusPrinter) Errored(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errored[id]
}

func (p *statusPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func taskLabel(v domain.TaskView) string {
	return fmt.Sprintf("#%d %s", v.ID, v.Title)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
