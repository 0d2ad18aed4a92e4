// Package scheduler runs tasks and starts their dependents as they finish.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/runoshun/flow/internal/domain"
)

const tracerName = "github.com/runoshun/flow/internal/scheduler"

// Manager owns the active tasks of the process. Tasks are registered with
// AddTask, started with StartTask, and removed once they reach a terminal
// state. Finishing a task (successfully, with error, or by user cancellation)
// starts every queued task that depends on it.
// Fields are ordered to minimize memory padding.
type Manager struct {
	baseCtx    context.Context
	sink       domain.ErrorSink
	clock      domain.Clock
	tracer     trace.Tracer
	logger     *slog.Logger
	active     map[int]*domain.Task
	dependents map[*domain.Task][]*domain.Task
	contexts   map[*domain.Task]context.Context
	idle       chan struct{}
	observers  []domain.TaskObserver
	nextID     int
	running    int
	mu         sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithErrorSink sets where job failures are reported.
func WithErrorSink(sink domain.ErrorSink) Option {
	return func(m *Manager) { m.sink = sink }
}

// WithObserver adds a lifecycle observer.
func WithObserver(o domain.TaskObserver) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

// WithClock sets the clock used for timestamps.
func WithClock(c domain.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithTracer sets the tracer used for task spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// WithContext sets the context used to start dependents of tasks that were
// never started themselves.
func WithContext(ctx context.Context) Option {
	return func(m *Manager) { m.baseCtx = ctx }
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		baseCtx:    context.Background(),
		sink:       discardSink{},
		clock:      domain.RealClock{},
		tracer:     otel.Tracer(tracerName),
		logger:     slog.New(slog.DiscardHandler),
		active:     make(map[int]*domain.Task),
		dependents: make(map[*domain.Task][]*domain.Task),
		contexts:   make(map[*domain.Task]context.Context),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddTask registers task for project without starting it.
// It fails with domain.ErrInvalidTask when the job or title is missing.
func (m *Manager) AddTask(project *domain.Project, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	task.Queue(id, project)
	m.active[id] = task
	if task.DependsOn != nil {
		m.dependents[task.DependsOn] = append(m.dependents[task.DependsOn], task)
	}
	m.mu.Unlock()

	if project != nil {
		project.AddTask(task)
	}

	m.logger.Info("queued task", "task", task.Title, "project", projectName(project), "id", id)
	for _, o := range m.observers {
		o.TaskAdded(domain.TaskEvent{Project: project, Task: task})
	}
	return nil
}

// StartTask runs the task's job on its own goroutine.
// The returned channel yields exactly one Result and is then closed. Job
// failures are never returned as errors: they are logged into the task,
// reported to the error sink and carried in Result.Err.
// A task that is no longer queued is not run; its channel is closed
// without a Result.
func (m *Manager) StartTask(ctx context.Context, task *domain.Task) <-chan domain.Result {
	done := make(chan domain.Result, 1)

	if !task.MarkRunning(m.clock.Now()) {
		m.logger.Debug("task not started", "task", task.Title, "status", string(task.CurrentStatus()))
		close(done)
		return done
	}

	m.mu.Lock()
	m.contexts[task] = ctx
	m.beginLocked()
	m.mu.Unlock()

	for _, o := range m.observers {
		o.TaskStarted(domain.TaskEvent{Project: task.Project, Task: task})
	}
	m.logger.Info("started task", "task", task.Title, "project", projectName(task.Project), "id", task.TaskID())
	m.AddTaskLog(task, LogStarted, "")

	go m.run(ctx, task, done)
	return done
}

func (m *Manager) run(ctx context.Context, task *domain.Task, done chan<- domain.Result) {
	defer m.end()
	defer close(done)

	ctx, span := m.tracer.Start(ctx, "flow.task",
		trace.WithAttributes(
			attribute.Int("task.id", task.TaskID()),
			attribute.String("task.title", task.Title),
			attribute.String("project.name", projectName(task.Project)),
		),
	)
	defer span.End()
	span.AddEvent("task.started")

	res, err := m.execute(ctx, task)
	if err == nil {
		m.AddTaskLog(task, LogFinished, "")
		m.logger.Info("task finished without error", "task", task.Title, "project", projectName(task.Project))
		span.AddEvent("task.finished")
		span.SetStatus(codes.Ok, "")
		m.FinishTask(task, false)
		done <- res
		return
	}

	m.AddTaskLog(task, LogFinishedWithError, "")
	m.AddTaskLog(task, err.Error(), "")

	execErr := domain.NewExecutionError(task, err)
	span.RecordError(execErr)
	span.SetStatus(codes.Error, err.Error())

	// a job killed by StopTask fails too; that is a cancellation, not an error
	stopped := task.CurrentStatus() == domain.StatusStopped
	if !stopped {
		m.sink.Add(execErr)
	}
	m.FinishTask(task, !stopped)

	view := task.Snapshot()
	m.logger.Info("task finished with error",
		"task", task.Title,
		"project", projectName(task.Project),
		"seconds", int(view.Duration().Seconds()),
	)
	m.logger.Error(err.Error(), "task", task.Title)

	res.Err = execErr
	done <- res
}

func (m *Manager) execute(ctx context.Context, task *domain.Task) (res domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return task.Job.Run(ctx, &taskOutput{manager: m, task: task})
}

// AddTaskLog appends text to the task log, one timestamped entry per line.
func (m *Manager) AddTaskLog(task *domain.Task, text, level string) {
	entries := FormatLogLines(text, level, m.clock.Now())
	if len(entries) == 0 {
		return
	}
	task.AppendLog(entries...)
}

// FinishTask moves the task to its terminal state, starts its dependents and
// removes it from the active set. Calls after the first are no-ops.
func (m *Manager) FinishTask(task *domain.Task, errored bool) {
	if !task.MarkFinished(m.clock.Now()) {
		return
	}

	// dependents are matched against the finished task, so start them first
	m.startDependingTasks(task)

	m.mu.Lock()
	if m.active[task.ID] == task {
		delete(m.active, task.ID)
	}
	delete(m.dependents, task)
	delete(m.contexts, task)
	m.mu.Unlock()

	for _, o := range m.observers {
		o.TaskFinished(domain.TaskFinishedEvent{Error: errored, Project: task.Project, Task: task})
	}
}

// startDependingTasks starts every queued, still active task that depends on task.
func (m *Manager) startDependingTasks(task *domain.Task) {
	m.mu.Lock()
	deps := slices.Clone(m.dependents[task])
	ctx, ok := m.contexts[task]
	if !ok {
		ctx = m.baseCtx
	}
	m.mu.Unlock()

	for _, dep := range deps {
		if !m.isActive(dep) || dep.CurrentStatus() != domain.StatusQueued {
			continue
		}
		m.StartTask(ctx, dep)
	}
}

// StopTask cancels a stoppable task. The task is finished (not errored) once
// its stopper returns, which also starts its dependents.
func (m *Manager) StopTask(ctx context.Context, task *domain.Task) error {
	if !task.IsStoppable() {
		return domain.ErrNotStoppable
	}
	if !task.MarkStopped() {
		return nil
	}

	m.logger.Info("task was cancelled by user", "task", task.Title, "project", projectName(task.Project))
	m.AddTaskLog(task, LogStoppedByUser, "")

	err := task.Stopper.Stop(ctx)
	m.FinishTask(task, false)
	if err != nil {
		return fmt.Errorf("stop task %d: %w", task.TaskID(), err)
	}
	return nil
}

// StartRoots starts every queued task in tasks that has no predecessor.
func (m *Manager) StartRoots(ctx context.Context, tasks []*domain.Task) []<-chan domain.Result {
	var results []<-chan domain.Result
	for _, t := range tasks {
		if t.IsRoot() && t.CurrentStatus() == domain.StatusQueued {
			results = append(results, m.StartTask(ctx, t))
		}
	}
	return results
}

// StopAll stops every active stoppable task. Tasks are stopped newest
// first so that queued dependents are finished before their predecessor
// would start them.
func (m *Manager) StopAll(ctx context.Context) error {
	var errs []error
	tasks := m.Tasks()
	slices.Reverse(tasks)
	for _, t := range tasks {
		if !t.IsStoppable() {
			continue
		}
		if err := m.StopTask(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tasks returns the active tasks in the order they were queued.
func (m *Manager) Tasks() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	tasks := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, m.active[id])
	}
	return tasks
}

// Get returns the active task with the given id.
func (m *Manager) Get(id int) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.active[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

// Wait blocks until no task is running or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	if m.running == 0 {
		m.mu.Unlock()
		return nil
	}
	idle := m.idle
	m.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) isActive(task *domain.Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[task.ID] == task
}

// beginLocked counts a started job. m.mu must be held.
func (m *Manager) beginLocked() {
	if m.running == 0 {
		m.idle = make(chan struct{})
	}
	m.running++
}

func (m *Manager) end() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running--
	if m.running == 0 {
		close(m.idle)
	}
}

func projectName(p *domain.Project) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// taskOutput binds a running job to its task.
type taskOutput struct {
	manager *Manager
	task    *domain.Task
}

func (o *taskOutput) Log(text, level string) {
	o.manager.AddTaskLog(o.task, text, level)
}

func (o *taskOutput) SetDescription(description string) {
	o.task.SetDescription(description)
}

func (o *taskOutput) SetEstimation(estimation string) {
	o.task.SetEstimation(estimation)
}

type discardSink struct{}

func (discardSink) Add(error) {}
