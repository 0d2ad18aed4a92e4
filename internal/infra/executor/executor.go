// Package executor provides command execution functionality.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/runoshun/flow/internal/domain"
)

// maxLineSize bounds a single output line read from a process.
const maxLineSize = 1024 * 1024

// DefaultDrainTimeout is how long output is still read after a process
// exits while a descendant keeps its pipes open.
const DefaultDrainTimeout = 2 * time.Second

// Client implements domain.CommandExecutor and domain.ProcessHost.
type Client struct {
	drainTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDrainTimeout overrides DefaultDrainTimeout.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Client) { c.drainTimeout = d }
}

// NewClient creates a new command executor client.
func NewClient(opts ...Option) *Client {
	c := &Client{drainTimeout: DefaultDrainTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure Client implements domain interfaces.
var (
	_ domain.CommandExecutor = (*Client)(nil)
	_ domain.ProcessHost     = (*Client)(nil)
)

// Execute runs the command and returns its combined output.
func (c *Client) Execute(cmd *domain.ExecCommand) ([]byte, error) {
	// #nosec G204 - cmd.Program and cmd.Args come from the user's workflow file
	execCmd := exec.Command(cmd.Program, cmd.Args...)
	if cmd.Dir != "" {
		execCmd.Dir = cmd.Dir
	}
	return execCmd.CombinedOutput()
}

// Process is a process started by Spawn.
type Process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	err     error
	program string
}

// Ensure Process implements domain.Process interface.
var _ domain.Process = (*Process)(nil)

// Wait blocks until the process exits and its output has been drained.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Spawn starts cmd and calls onStdout/onStderr for every output line.
// Callbacks run on reader goroutines; each stream is delivered in order.
// The process runs in its own process group. Cancelling ctx kills the group.
func (c *Client) Spawn(ctx context.Context, cmd *domain.ExecCommand, onStdout, onStderr func(string)) (domain.Process, error) {
	// #nosec G204 - cmd.Program and cmd.Args come from the user's workflow file
	execCmd := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	if cmd.Dir != "" {
		execCmd.Dir = cmd.Dir
	}
	setProcessGroup(execCmd)
	execCmd.Cancel = func() error { return killProcessGroup(execCmd.Process) }

	// The pipes are owned here rather than by exec.Cmd so that Wait never
	// closes them under the readers.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	execCmd.Stdout = stdoutW
	execCmd.Stderr = stderrW

	err = execCmd.Start()
	closeAll(stdoutW, stderrW)
	if err != nil {
		closeAll(stdoutR, stderrR)
		return nil, fmt.Errorf("start %s: %w", cmd.Program, err)
	}

	p := &Process{
		cmd:     execCmd,
		done:    make(chan struct{}),
		program: cmd.Program,
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go scanLines(&readers, stdoutR, onStdout)
	go scanLines(&readers, stderrR, onStderr)

	go func() {
		waitErr := execCmd.Wait()

		drained := make(chan struct{})
		go func() {
			readers.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(c.drainTimeout):
			// a detached descendant still holds the output pipes
			closeAll(stdoutR, stderrR)
			<-drained
		}
		closeAll(stdoutR, stderrR)

		p.err = exitError(cmd.Program, waitErr)
		close(p.done)
	}()

	return p, nil
}

// Kill terminates the process group and waits for the process to exit or
// ctx to end.
func (c *Client) Kill(ctx context.Context, proc domain.Process) error {
	p, ok := proc.(*Process)
	if !ok {
		return fmt.Errorf("kill: unsupported process type %T", proc)
	}

	if err := killProcessGroup(p.cmd.Process); err != nil {
		return fmt.Errorf("kill %s (pid %d): %w", p.program, p.Pid(), err)
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func scanLines(wg *sync.WaitGroup, r io.Reader, fn func(string)) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if fn != nil {
			fn(scanner.Text())
		}
	}
	// drain anything left after an overlong line so the process never blocks
	_, _ = io.Copy(io.Discard, r)
}

// exitError converts a non-zero exit into *domain.ExitError.
func exitError(program string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &domain.ExitError{Program: program, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("wait %s: %w", program, err)
}
