package domain

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// DefaultTreeName is the name given to a root node without one.
const DefaultTreeName = "Workflow"

// MaxTreeDepth bounds how deep a command tree may nest.
const MaxTreeDepth = 1024

// TreeRecord is the plain serialized form of a CommandTree.
type TreeRecord struct {
	Command  *CommandRecord `json:"command,omitempty" yaml:"command,omitempty"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Children []*TreeRecord  `json:"children,omitempty" yaml:"children,omitempty"`
	ID       int            `json:"id,omitempty" yaml:"id,omitempty"`
	Tile     bool           `json:"tile,omitempty" yaml:"tile,omitempty"`
}

// CommandTree is a serializable n-ary tree of commands that compiles into
// a Workflow. A node without a command only groups its children.
type CommandTree struct {
	Command  *Command
	Name     string
	Children []*CommandTree
	ID       int
	Tile     bool // Shown as a launcher tile by front-ends
}

// NewTreeID returns a fresh positive tree node id.
func NewTreeID() int {
	return rand.IntN(math.MaxInt32) + 1
}

// NewCommandTree creates an empty root node.
func NewCommandTree() *CommandTree {
	return &CommandTree{
		ID:   NewTreeID(),
		Name: DefaultTreeName,
	}
}

// NewCommandNode creates a node that runs cmd.
func NewCommandNode(cmd Command) *CommandTree {
	return &CommandTree{
		ID:      NewTreeID(),
		Command: &cmd,
	}
}

// AddChild appends child and returns it.
func (t *CommandTree) AddChild(child *CommandTree) *CommandTree {
	t.Children = append(t.Children, child)
	return child
}

// FromObject deep-copies a plain tree record into a CommandTree.
// Nodes without an id get a fresh one, which is also written back onto rec
// so that saving rec keeps ids stable. Supplied ids are preserved.
// Records that are shared or cyclic are rejected with ErrTreeCycle.
func FromObject(rec *TreeRecord) (*CommandTree, error) {
	if rec == nil {
		return NewCommandTree(), nil
	}

	type frame struct {
		rec   *TreeRecord
		node  *CommandTree
		depth int
	}

	root := &CommandTree{}
	visited := make(map[*TreeRecord]struct{})
	stack := []frame{{rec: rec, node: root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[f.rec]; seen {
			return nil, ErrTreeCycle
		}
		visited[f.rec] = struct{}{}
		if f.depth > MaxTreeDepth {
			return nil, ErrTreeTooDeep
		}

		if f.rec.ID == 0 {
			f.rec.ID = NewTreeID()
		}
		f.node.ID = f.rec.ID
		f.node.Name = f.rec.Name
		f.node.Tile = f.rec.Tile
		if f.rec.Command != nil {
			cmd := CommandFromRecord(*f.rec.Command)
			f.node.Command = &cmd
		}

		for _, child := range f.rec.Children {
			if child == nil {
				continue
			}
			f.node.Children = append(f.node.Children, &CommandTree{})
		}
		// push in reverse so that children are visited in order
		i := len(f.node.Children) - 1
		for j := len(f.rec.Children) - 1; j >= 0; j-- {
			if f.rec.Children[j] == nil {
				continue
			}
			stack = append(stack, frame{rec: f.rec.Children[j], node: f.node.Children[i], depth: f.depth + 1})
			i--
		}
	}

	if root.Name == "" {
		root.Name = DefaultTreeName
	}
	return root, nil
}

// Walk visits the tree depth-first in pre-order. fn receives each node and
// its parent (nil for the root). Walking stops at the first error.
func (t *CommandTree) Walk(fn func(node, parent *CommandTree) error) error {
	type frame struct {
		node   *CommandTree
		parent *CommandTree
		depth  int
	}

	visited := make(map[*CommandTree]struct{})
	stack := []frame{{node: t}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[f.node]; seen {
			return ErrTreeCycle
		}
		visited[f.node] = struct{}{}
		if f.depth > MaxTreeDepth {
			return ErrTreeTooDeep
		}

		if err := fn(f.node, f.parent); err != nil {
			return err
		}

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			if child := f.node.Children[i]; child != nil {
				stack = append(stack, frame{node: child, parent: f.node, depth: f.depth + 1})
			}
		}
	}
	return nil
}

// Record exports the tree to its plain form.
func (t *CommandTree) Record() (*TreeRecord, error) {
	records := make(map[*CommandTree]*TreeRecord)
	var root *TreeRecord

	err := t.Walk(func(node, parent *CommandTree) error {
		rec := &TreeRecord{
			ID:   node.ID,
			Name: node.Name,
			Tile: node.Tile,
		}
		if node.Command != nil {
			cmd := node.Command.Record()
			rec.Command = &cmd
		}
		records[node] = rec
		if parent == nil {
			root = rec
			return nil
		}
		records[parent].Children = append(records[parent].Children, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// CreateWorkflow compiles the tree into a workflow with a single phase named
// after the tree. Every node with a command contributes one step whose task
// comes from runner; the task depends on its parent's task. Children of a
// node without a command, including the root, have no predecessor.
func (t *CommandTree) CreateWorkflow(project *Project, runner CommandRunner) (*Workflow, error) {
	workflow := NewWorkflow(project)
	phase := workflow.AddPhase(NewPhase(t.Name))

	// inherited maps a node to the step its children depend on
	inherited := make(map[*CommandTree]*Step)

	err := t.Walk(func(node, parent *CommandTree) error {
		var parentStep *Step
		if parent != nil {
			parentStep = inherited[parent]
		}

		if node.Command == nil {
			inherited[node] = nil
			return nil
		}

		step := phase.AddStep(createStep(project, runner, *node.Command))
		if parentStep != nil {
			step.Task.DependsOn = parentStep.Task
		}
		inherited[node] = step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return workflow, nil
}

func createStep(project *Project, runner CommandRunner, cmd Command) *Step {
	line := cmd.String()
	return NewStep(line, line, runner.Run(project, cmd))
}

// Validate reports nodes whose command has no executable.
func (t *CommandTree) Validate() error {
	var errs []error
	err := t.Walk(func(node, _ *CommandTree) error {
		if node.Command != nil && node.Command.Executable() == "" {
			errs = append(errs, fmt.Errorf("node %d: %w", node.ID, ErrEmptyExecutable))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}

// CommandCount returns the number of nodes that carry a command.
func (t *CommandTree) CommandCount() int {
	n := 0
	_ = t.Walk(func(node, _ *CommandTree) error {
		if node.Command != nil {
			n++
		}
		return nil
	})
	return n
}
