package domain

import (
	"path/filepath"
	"slices"
	"sync"
)

// Project is a software project whose tooling is run as tasks.
type Project struct {
	Name  string
	Path  string // Working directory for commands
	url   string
	tasks []*Task
	mu    sync.RWMutex
}

// NewProject creates a project rooted at path. An empty name defaults to
// the base name of path.
func NewProject(name, path string) *Project {
	if name == "" {
		name = filepath.Base(path)
	}
	return &Project{Name: name, Path: path}
}

// AddTask appends a task to the project's task list.
func (p *Project) AddTask(t *Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, t)
}

// Tasks returns every task ever queued for the project, in queue order.
func (p *Project) Tasks() []*Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.tasks)
}

// URL returns the address the project was last seen serving on.
func (p *Project) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

// SetURL records the address the project is serving on.
func (p *Project) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}
