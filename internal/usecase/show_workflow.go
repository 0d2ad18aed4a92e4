package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/flow/internal/domain"
)

// ShowWorkflowInput contains the parameters for showing a workflow.
type ShowWorkflowInput struct {
	Project  *domain.Project
	TreePath string
}

// StepView describes one compiled step.
type StepView struct {
	Name      string
	Index     int // 1-based position in the phase
	DependsOn int // Index of the predecessor step (0 = root)
}

// PhaseView describes one compiled phase.
type PhaseView struct {
	Name  string
	Steps []StepView
}

// ShowWorkflowOutput contains the compiled workflow.
type ShowWorkflowOutput struct {
	Phases   []PhaseView
	Commands int // Number of commands in the tree
}

// ShowWorkflow compiles a tree file without running it.
type ShowWorkflow struct {
	trees  domain.TreeRepository
	runner domain.CommandRunner
}

// NewShowWorkflow creates a new ShowWorkflow use case.
func NewShowWorkflow(trees domain.TreeRepository, runner domain.CommandRunner) *ShowWorkflow {
	return &ShowWorkflow{
		trees:  trees,
		runner: runner,
	}
}

// Execute loads and compiles the tree. The tasks it creates are never queued.
func (uc *ShowWorkflow) Execute(_ context.Context, in ShowWorkflowInput) (*ShowWorkflowOutput, error) {
	tree, err := uc.trees.Load(in.TreePath)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}

	workflow, err := tree.CreateWorkflow(in.Project, uc.runner)
	if err != nil {
		return nil, fmt.Errorf("compile workflow: %w", err)
	}

	out := &ShowWorkflowOutput{Commands: tree.CommandCount()}
	for _, phase := range workflow.Phases {
		index := make(map[*domain.Task]int, len(phase.Steps))
		view := PhaseView{Name: phase.Name}
		for i, step := range phase.Steps {
			index[step.Task] = i + 1
			view.Steps = append(view.Steps, StepView{
				Name:      step.Name,
				Index:     i + 1,
				DependsOn: index[step.Task.DependsOn],
			})
		}
		out.Phases = append(out.Phases, view)
	}
	return out, nil
}
