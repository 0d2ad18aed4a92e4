package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/scheduler"
)

const tracerName = "github.com/runoshun/flow/internal/usecase"

// DefaultStopTimeout bounds how long an interrupted run waits for its
// processes to exit.
const DefaultStopTimeout = 10 * time.Second

// FailureCounter reports how many task failures have been collected.
type FailureCounter interface {
	Len() int
}

// RunWorkflowInput contains the parameters for running a workflow.
type RunWorkflowInput struct {
	Project  *domain.Project // Project the tasks run in
	TreePath string          // Tree file to compile
	RunID    string          // Identifies the run; generated when empty
}

// RunWorkflowOutput contains the result of running a workflow.
type RunWorkflowOutput struct {
	RunID       string            // Identifier of the run
	Workflow    string            // Name of the compiled workflow
	Tasks       []domain.TaskView // Final state of every task, in step order
	Failed      int               // Number of tasks that failed
	Interrupted bool              // Whether the run was cancelled
}

// RunWorkflow compiles a command tree and runs it to completion.
type RunWorkflow struct {
	trees       domain.TreeRepository
	runner      domain.CommandRunner
	manager     *scheduler.Manager
	failures    FailureCounter
	logger      *slog.Logger
	stopTimeout time.Duration
}

// NewRunWorkflow creates a new RunWorkflow use case.
// failures may be nil, in which case Failed is always zero.
func NewRunWorkflow(
	trees domain.TreeRepository,
	runner domain.CommandRunner,
	manager *scheduler.Manager,
	failures FailureCounter,
	logger *slog.Logger,
) *RunWorkflow {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RunWorkflow{
		trees:       trees,
		runner:      runner,
		manager:     manager,
		failures:    failures,
		logger:      logger,
		stopTimeout: DefaultStopTimeout,
	}
}

// WithStopTimeout overrides DefaultStopTimeout.
func (uc *RunWorkflow) WithStopTimeout(d time.Duration) *RunWorkflow {
	uc.stopTimeout = d
	return uc
}

// Execute runs the workflow by:
// 1. Loading and validating the tree file
// 2. Compiling it and queueing every task in step order
// 3. Starting the root tasks and waiting until nothing is running
//
// Cancelling ctx stops every stoppable task instead of abandoning the
// processes; jobs themselves never see the cancellation.
func (uc *RunWorkflow) Execute(ctx context.Context, in RunWorkflowInput) (*RunWorkflowOutput, error) {
	tree, err := uc.trees.Load(in.TreePath)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow %s: %w", in.TreePath, err)
	}

	workflow, err := tree.CreateWorkflow(in.Project, uc.runner)
	if err != nil {
		return nil, fmt.Errorf("compile workflow: %w", err)
	}

	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "flow.workflow")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("workflow.name", tree.Name),
		attribute.Int("workflow.steps", workflow.StepCount()),
	)

	tasks := workflow.Tasks()
	for _, t := range tasks {
		if err := uc.manager.AddTask(in.Project, t); err != nil {
			return nil, fmt.Errorf("queue %q: %w", t.Title, err)
		}
	}

	before := uc.failed()
	runCtx := context.WithoutCancel(ctx)
	uc.manager.StartRoots(runCtx, workflow.Roots())

	interrupted := false
	if err := uc.manager.Wait(ctx); err != nil {
		interrupted = true
		uc.logger.Warn("run interrupted, stopping tasks", "run", runID, "reason", err)
		if err := uc.stop(runCtx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	out := &RunWorkflowOutput{
		RunID:       runID,
		Workflow:    tree.Name,
		Tasks:       make([]domain.TaskView, 0, len(tasks)),
		Failed:      uc.failed() - before,
		Interrupted: interrupted,
	}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, t.Snapshot())
	}

	if out.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d task(s) failed", out.Failed))
	}
	return out, nil
}

func (uc *RunWorkflow) stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, uc.stopTimeout)
	defer cancel()

	if err := uc.manager.StopAll(ctx); err != nil {
		uc.logger.Warn("failed to stop tasks", "error", err)
	}
	if err := uc.manager.Wait(ctx); err != nil {
		return fmt.Errorf("wait for stopped tasks: %w", err)
	}
	return nil
}

func (uc *RunWorkflow) failed() int {
	if uc.failures == nil {
		return 0
	}
	return uc.failures.Len()
}
