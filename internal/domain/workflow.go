package domain

// Step wraps exactly one task.
type Step struct {
	Task        *Task
	Name        string
	Description string
}

// NewStep creates a step around task.
func NewStep(name, description string, task *Task) *Step {
	return &Step{Name: name, Description: description, Task: task}
}

// Phase is a named, ordered group of steps.
type Phase struct {
	Name  string
	Steps []*Step
}

// NewPhase creates an empty phase.
func NewPhase(name string) *Phase {
	return &Phase{Name: name}
}

// AddStep appends step and returns it.
func (p *Phase) AddStep(step *Step) *Step {
	p.Steps = append(p.Steps, step)
	return step
}

// Workflow groups phases for a project. Grouping is presentational;
// ordering between tasks comes only from Task.DependsOn.
type Workflow struct {
	Project *Project
	Phases  []*Phase
}

// NewWorkflow creates an empty workflow for project.
func NewWorkflow(project *Project) *Workflow {
	return &Workflow{Project: project}
}

// AddPhase appends phase and returns it.
func (w *Workflow) AddPhase(phase *Phase) *Phase {
	w.Phases = append(w.Phases, phase)
	return phase
}

// Tasks returns every step's task in phase and step order.
func (w *Workflow) Tasks() []*Task {
	var tasks []*Task
	for _, phase := range w.Phases {
		for _, step := range phase.Steps {
			tasks = append(tasks, step.Task)
		}
	}
	return tasks
}

// Roots returns the tasks that have no predecessor.
func (w *Workflow) Roots() []*Task {
	var roots []*Task
	for _, t := range w.Tasks() {
		if t.IsRoot() {
			roots = append(roots, t)
		}
	}
	return roots
}

// StepCount returns the number of steps across all phases.
func (w *Workflow) StepCount() int {
	n := 0
	for _, phase := range w.Phases {
		n += len(phase.Steps)
	}
	return n
}
