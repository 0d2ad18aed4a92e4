// Package runner turns commands into tasks backed by operating system processes.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"runtime"
	"slices"
	"sync"

	"github.com/runoshun/flow/internal/domain"
)

// Output patterns that announce the address a dev server is listening on.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Local: (\S+)`),                    // browser-sync (gulp serve)
	regexp.MustCompile(`Application Available At: (\S+)`), // aurelia-cli (au run)
}

// errStoppedBeforeStart is returned by a job whose task was stopped while queued.
var errStoppedBeforeStart = errors.New("stopped before start")

// Client implements domain.CommandRunner interface.
type Client struct {
	host   domain.ProcessHost
	logger *slog.Logger
	goos   string
	shims  []string
}

// Option configures a Client.
type Option func(*Client)

// WithWindowsShims sets the executables that are run as "<name>.cmd" on Windows.
func WithWindowsShims(names []string) Option {
	return func(c *Client) { c.shims = slices.Clone(names) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithGOOS overrides the target operating system.
func WithGOOS(goos string) Option {
	return func(c *Client) { c.goos = goos }
}

// NewClient creates a new command runner client.
func NewClient(host domain.ProcessHost, opts ...Option) *Client {
	c := &Client{
		host:   host,
		logger: slog.New(slog.DiscardHandler),
		goos:   runtime.GOOS,
		shims:  slices.Clone(domain.DefaultWindowsShims),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure Client implements domain.CommandRunner interface.
var _ domain.CommandRunner = (*Client)(nil)

// Run returns a stoppable task that runs command in the project directory,
// or in the command's own directory when it has one.
func (c *Client) Run(project *domain.Project, command domain.Command) *domain.Task {
	root := ""
	if project != nil {
		root = project.Path
	}

	exec := command.Exec(root)
	exec.Program = domain.ProgramFor(command.Executable(), c.goos, c.shims)

	job := &ProcessJob{
		host:    c.host,
		cmd:     exec,
		project: project,
		logger:  c.logger,
	}
	task := domain.NewTask(command.String(), job)
	task.Stoppable = true
	task.Stopper = job
	return task
}

// ProcessJob runs one process. It is both the task's job and its stopper.
type ProcessJob struct {
	host    domain.ProcessHost
	cmd     *domain.ExecCommand
	project *domain.Project
	logger  *slog.Logger
	proc    domain.Process
	mu      sync.Mutex
	stopped bool
}

// Ensure ProcessJob implements domain interfaces.
var (
	_ domain.Job     = (*ProcessJob)(nil)
	_ domain.Stopper = (*ProcessJob)(nil)
)

// Run spawns the process, streams its output into the task log and waits
// for it to exit. Stdout lines are logged as-is, stderr lines at error level.
func (j *ProcessJob) Run(ctx context.Context, out domain.TaskOutput) (domain.Result, error) {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return domain.Result{}, errStoppedBeforeStart
	}
	proc, err := j.host.Spawn(ctx, j.cmd,
		func(line string) {
			j.detectURL(line, out)
			out.Log(line, "")
		},
		func(line string) {
			out.Log(line, "error")
		},
	)
	if err != nil {
		j.mu.Unlock()
		return domain.Result{ExitCode: -1}, err
	}
	j.proc = proc
	j.mu.Unlock()

	j.logger.Debug("spawned process", "program", j.cmd.Program, "pid", proc.Pid(), "dir", j.cmd.Dir)

	if err := proc.Wait(); err != nil {
		var exitErr *domain.ExitError
		if errors.As(err, &exitErr) {
			return domain.Result{ExitCode: exitErr.Code}, err
		}
		return domain.Result{ExitCode: -1}, err
	}
	return domain.Result{}, nil
}

// Stop kills the process. A job stopped before it was spawned never starts.
func (j *ProcessJob) Stop(ctx context.Context) error {
	j.mu.Lock()
	j.stopped = true
	proc := j.proc
	j.mu.Unlock()

	if proc == nil {
		return nil
	}
	return j.host.Kill(ctx, proc)
}

// detectURL records the address a dev server announces on stdout.
func (j *ProcessJob) detectURL(line string, out domain.TaskOutput) {
	if j.project == nil {
		return
	}
	for _, re := range urlPatterns {
		m := re.FindStringSubmatch(line)
		if len(m) != 2 {
			continue
		}
		j.project.SetURL(m[1])
		out.SetEstimation("")
		out.SetDescription("Project running at " + m[1])
		j.logger.Info("project is serving", "project", j.project.Name, "url", m[1])
		return
	}
}
