// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/runoshun/flow/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockErrorSink is a test double for domain.ErrorSink.
type MockErrorSink struct {
	errs []error
	mu   sync.Mutex
}

// Add records err.
func (m *MockErrorSink) Add(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

// Errors returns the recorded errors.
func (m *MockErrorSink) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}

// Len returns the number of recorded errors.
func (m *MockErrorSink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errs)
}

// RecordingObserver is a domain.TaskObserver that records every event as a
// string such as "added:1", "started:1" or "finished:1:error".
type RecordingObserver struct {
	events   []string
	finished []domain.TaskFinishedEvent
	mu       sync.Mutex
}

// TaskAdded records the event.
func (r *RecordingObserver) TaskAdded(ev domain.TaskEvent) {
	r.record(fmt.Sprintf("added:%d", ev.Task.TaskID()))
}

// TaskStarted records the event.
func (r *RecordingObserver) TaskStarted(ev domain.TaskEvent) {
	r.record(fmt.Sprintf("started:%d", ev.Task.TaskID()))
}

// TaskFinished records the event.
func (r *RecordingObserver) TaskFinished(ev domain.TaskFinishedEvent) {
	name := fmt.Sprintf("finished:%d", ev.Task.TaskID())
	if ev.Error {
		name += ":error"
	}
	r.mu.Lock()
	r.finished = append(r.finished, ev)
	r.mu.Unlock()
	r.record(name)
}

func (r *RecordingObserver) record(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns the recorded events in order.
func (r *RecordingObserver) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Finished returns the recorded finish events.
func (r *RecordingObserver) Finished() []domain.TaskFinishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TaskFinishedEvent(nil), r.finished...)
}

// Count returns how many times ev was recorded.
func (r *RecordingObserver) Count(ev string) int {
	n := 0
	for _, e := range r.Events() {
		if e == ev {
			n++
		}
	}
	return n
}

// BlockingJob is a job that runs until released or stopped. It doubles as
// the task's domain.Stopper.
type BlockingJob struct {
	Err     error // Returned when released
	release chan struct{}
	stopped chan struct{}
	started chan struct{}
	once    sync.Once
	stop    sync.Once
	mu      sync.Mutex
	runs    int
}

// NewBlockingJob creates a BlockingJob.
func NewBlockingJob() *BlockingJob {
	return &BlockingJob{
		release: make(chan struct{}),
		stopped: make(chan struct{}),
		started: make(chan struct{}),
	}
}

// Run blocks until Release or Stop is called.
func (j *BlockingJob) Run(ctx context.Context, out domain.TaskOutput) (domain.Result, error) {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	j.once.Do(func() { close(j.started) })

	select {
	case <-j.release:
		return domain.Result{Output: "released"}, j.Err
	case <-j.stopped:
		return domain.Result{ExitCode: -1}, errors.New("killed")
	case <-ctx.Done():
		return domain.Result{}, ctx.Err()
	}
}

// Stop unblocks Run with an error, like a killed process.
func (j *BlockingJob) Stop(context.Context) error {
	j.stop.Do(func() { close(j.stopped) })
	return nil
}

// Release lets Run return.
func (j *BlockingJob) Release() {
	close(j.release)
}

// Started is closed once Run has been entered.
func (j *BlockingJob) Started() <-chan struct{} {
	return j.started
}

// Runs returns how many times Run was called.
func (j *BlockingJob) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

// MockCommandRunner is a test double for domain.CommandRunner.
type MockCommandRunner struct {
	Commands []domain.Command
	// JobFor optionally supplies the job for a command; defaults to domain.NoopJob.
	// A job that is also a domain.Stopper becomes the task's stopper.
	JobFor func(cmd domain.Command) domain.Job
}

// Run returns a stoppable task for cmd.
func (m *MockCommandRunner) Run(_ *domain.Project, cmd domain.Command) *domain.Task {
	m.Commands = append(m.Commands, cmd)
	var job domain.Job = domain.NoopJob{}
	if m.JobFor != nil {
		job = m.JobFor(cmd)
	}
	task := domain.NewTask(cmd.String(), job)
	task.Stoppable = true
	if stopper, ok := job.(domain.Stopper); ok {
		task.Stopper = stopper
	} else {
		task.Stopper = stopperFunc(func(context.Context) error { return nil })
	}
	return task
}

type stopperFunc func(ctx context.Context) error

func (f stopperFunc) Stop(ctx context.Context) error { return f(ctx) }

// MockProcess is a test double for domain.Process.
type MockProcess struct {
	WaitErr error
	done    chan struct{}
	exit    sync.Once
	mu      sync.Mutex
	PID     int
	killed  bool
}

// NewMockProcess creates a process that exits when Exit or Kill is called.
func NewMockProcess(waitErr error) *MockProcess {
	return &MockProcess{WaitErr: waitErr, done: make(chan struct{}), PID: 4242}
}

// Wait blocks until the process exits.
func (p *MockProcess) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.killed {
		return &domain.ExitError{Program: "mock", Code: -1}
	}
	return p.WaitErr
}

// Pid returns the fake pid.
func (p *MockProcess) Pid() int {
	return p.PID
}

// Exit lets Wait return WaitErr.
func (p *MockProcess) Exit() {
	p.exit.Do(func() { close(p.done) })
}

// Killed reports whether the process was killed.
func (p *MockProcess) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// MockProcessHost is a test double for domain.ProcessHost.
// Spawn writes Stdout/Stderr lines to the callbacks and returns Process.
type MockProcessHost struct {
	Process  *MockProcess
	SpawnErr error
	Spawned  []*domain.ExecCommand
	Stdout   []string
	Stderr   []string
	// AutoExit makes the process exit right after writing its output.
	AutoExit bool
	mu       sync.Mutex
}

// Spawn records cmd and replays the configured output.
func (m *MockProcessHost) Spawn(_ context.Context, cmd *domain.ExecCommand, onStdout, onStderr func(string)) (domain.Process, error) {
	m.mu.Lock()
	m.Spawned = append(m.Spawned, cmd)
	m.mu.Unlock()
	if m.SpawnErr != nil {
		return nil, m.SpawnErr
	}
	for _, line := range m.Stdout {
		onStdout(line)
	}
	for _, line := range m.Stderr {
		onStderr(line)
	}
	if m.AutoExit {
		m.Process.Exit()
	}
	return m.Process, nil
}

// Kill marks the process as killed and lets Wait return.
func (m *MockProcessHost) Kill(_ context.Context, p domain.Process) error {
	mp, ok := p.(*MockProcess)
	if !ok {
		return errors.New("unknown process")
	}
	mp.mu.Lock()
	mp.killed = true
	mp.mu.Unlock()
	mp.Exit()
	return nil
}

// MockExecutor is a test double for domain.CommandExecutor.
type MockExecutor struct {
	ExecuteErr    error
	ExecutedCmd   *domain.ExecCommand
	ExecuteOutput []byte
}

// Execute records cmd and returns the configured output.
func (m *MockExecutor) Execute(cmd *domain.ExecCommand) ([]byte, error) {
	m.ExecutedCmd = cmd
	return m.ExecuteOutput, m.ExecuteErr
}

// MockTreeRepository is a test double for domain.TreeRepository.
type MockTreeRepository struct {
	Trees   map[string]*domain.CommandTree
	LoadErr error
	SaveErr error
}

// NewMockTreeRepository creates a MockTreeRepository with an initialized map.
func NewMockTreeRepository() *MockTreeRepository {
	return &MockTreeRepository{Trees: make(map[string]*domain.CommandTree)}
}

// Load returns the tree stored under path.
func (m *MockTreeRepository) Load(path string) (*domain.CommandTree, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	tree, ok := m.Trees[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return tree, nil
}

// Save stores the tree under path.
func (m *MockTreeRepository) Save(path string, tree *domain.CommandTree) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Trees[path] = tree
	return nil
}

// MockHistoryRepository is a test double for domain.HistoryRepository.
type MockHistoryRepository struct {
	RecentErr error
	Records   []domain.HistoryRecord
	mu        sync.Mutex
}

// Record appends rec.
func (m *MockHistoryRepository) Record(_ context.Context, rec domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, rec)
	return nil
}

// Recent returns up to limit records, newest first.
func (m *MockHistoryRepository) Recent(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HistoryRecord
	for i := len(m.Records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.Records[i])
	}
	return out, nil
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	LoadErr error
}

// Load returns the configured config.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Config == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.Config, nil
}

// LoadGlobal returns the configured config.
func (m *MockConfigLoader) LoadGlobal() (*domain.Config, error) {
	return m.Load()
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitProjectErr    error
	InitGlobalErr     error
	ProjectInfo       domain.ConfigInfo
	GlobalInfo        domain.ConfigInfo
	InitProjectCalled bool
	InitGlobalCalled  bool
}

// GetProjectConfigInfo returns the configured info.
func (m *MockConfigManager) GetProjectConfigInfo() domain.ConfigInfo {
	return m.ProjectInfo
}

// GetGlobalConfigInfo returns the configured info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalInfo
}

// InitProjectConfig records the call.
func (m *MockConfigManager) InitProjectConfig() error {
	m.InitProjectCalled = true
	return m.InitProjectErr
}

// InitGlobalConfig records the call.
func (m *MockConfigManager) InitGlobalConfig() error {
	m.InitGlobalCalled = true
	return m.InitGlobalErr
}
