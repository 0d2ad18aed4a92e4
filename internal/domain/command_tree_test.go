package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner hands out plain tasks and remembers the commands it saw.
type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) Run(_ *Project, cmd Command) *Task {
	r.commands = append(r.commands, cmd.String())
	task := NewTask(cmd.String(), NoopJob{})
	task.Stoppable = true
	return task
}

func node(exe string, args ...string) *CommandTree {
	return NewCommandNode(NewCommand(exe, args...))
}

func TestCommandTree_CreateWorkflow_SiblingsAreIndependent(t *testing.T) {
	tree := NewCommandTree()
	tree.Name = "Build"
	tree.AddChild(node("gulp", "lint"))
	tree.AddChild(node("gulp", "test"))

	runner := &fakeRunner{}
	wf, err := tree.CreateWorkflow(NewProject("app", "/srv/app"), runner)
	require.NoError(t, err)

	require.Len(t, wf.Phases, 1)
	phase := wf.Phases[0]
	assert.Equal(t, "Build", phase.Name)
	require.Len(t, phase.Steps, 2)
	assert.Equal(t, "gulp lint", phase.Steps[0].Name)
	assert.Equal(t, "gulp lint", phase.Steps[0].Description)
	assert.Nil(t, phase.Steps[0].Task.DependsOn)
	assert.Nil(t, phase.Steps[1].Task.DependsOn)
	assert.Len(t, wf.Roots(), 2)
	assert.Equal(t, []string{"gulp lint", "gulp test"}, runner.commands)
}

func TestCommandTree_CreateWorkflow_NestedDependsOnParent(t *testing.T) {
	tree := NewCommandTree()
	install := tree.AddChild(node("npm", "install"))
	build := install.AddChild(node("gulp", "build"))
	build.AddChild(node("gulp", "serve"))
	install.AddChild(node("gulp", "test"))

	wf, err := tree.CreateWorkflow(nil, &fakeRunner{})
	require.NoError(t, err)

	tasks := wf.Tasks()
	require.Len(t, tasks, 4)
	byTitle := make(map[string]*Task)
	for _, task := range tasks {
		byTitle[task.Title] = task
	}

	assert.Nil(t, byTitle["npm install"].DependsOn)
	assert.Same(t, byTitle["npm install"], byTitle["gulp build"].DependsOn)
	assert.Same(t, byTitle["gulp build"], byTitle["gulp serve"].DependsOn)
	assert.Same(t, byTitle["npm install"], byTitle["gulp test"].DependsOn)
	assert.Equal(t, []*Task{byTitle["npm install"]}, wf.Roots())
}

func TestCommandTree_CreateWorkflow_GroupNodesStartNewRoots(t *testing.T) {
	tree := NewCommandTree()
	install := tree.AddChild(node("npm", "install"))
	group := install.AddChild(&CommandTree{ID: 7, Name: "checks"})
	group.AddChild(node("gulp", "lint"))

	wf, err := tree.CreateWorkflow(nil, &fakeRunner{})
	require.NoError(t, err)

	tasks := wf.Tasks()
	require.Len(t, tasks, 2)
	assert.Nil(t, tasks[1].DependsOn, "children of a grouping node have no predecessor")
	assert.Equal(t, tasks, wf.Roots())
	assert.Equal(t, 2, wf.StepCount())
}

func TestCommandTree_CreateWorkflow_Empty(t *testing.T) {
	wf, err := NewCommandTree().CreateWorkflow(nil, &fakeRunner{})
	require.NoError(t, err)

	require.Len(t, wf.Phases, 1)
	assert.Equal(t, DefaultTreeName, wf.Phases[0].Name)
	assert.Empty(t, wf.Tasks())
}

func TestCommandTree_CreateWorkflow_Cycle(t *testing.T) {
	tree := NewCommandTree()
	child := tree.AddChild(node("gulp"))
	child.AddChild(tree)

	_, err := tree.CreateWorkflow(nil, &fakeRunner{})

	assert.ErrorIs(t, err, ErrTreeCycle)
}

func TestFromObject_IDs(t *testing.T) {
	rec := &TreeRecord{
		ID:   42,
		Name: "Dev",
		Children: []*TreeRecord{
			{Command: &CommandRecord{Executable: "gulp", Arguments: []string{"watch"}}, Tile: true},
			{ID: 9, Command: &CommandRecord{LegacyCommand: "au", LegacyArgs: []string{"run"}}},
		},
	}

	tree, err := FromObject(rec)
	require.NoError(t, err)

	assert.Equal(t, 42, tree.ID, "supplied id is preserved")
	assert.Equal(t, "Dev", tree.Name)
	require.Len(t, tree.Children, 2)

	generated := tree.Children[0]
	assert.Positive(t, generated.ID)
	assert.Equal(t, generated.ID, rec.Children[0].ID, "generated id is written back")
	assert.True(t, generated.Tile)
	assert.Equal(t, "gulp watch", generated.Command.String())

	assert.Equal(t, 9, tree.Children[1].ID)
	assert.Equal(t, "au run", tree.Children[1].Command.String())
}

func TestFromObject_DeepCopies(t *testing.T) {
	rec := &TreeRecord{Children: []*TreeRecord{{Name: "child"}}}

	tree, err := FromObject(rec)
	require.NoError(t, err)

	rec.Children[0].Name = "changed"
	assert.Equal(t, "child", tree.Children[0].Name)
	assert.Equal(t, DefaultTreeName, tree.Name)
}

func TestFromObject_Nil(t *testing.T) {
	tree, err := FromObject(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultTreeName, tree.Name)
	assert.Empty(t, tree.Children)
}

func TestFromObject_RejectsCycles(t *testing.T) {
	shared := &TreeRecord{Name: "shared"}
	tests := []struct {
		name string
		rec  func() *TreeRecord
	}{
		{"self reference", func() *TreeRecord {
			r := &TreeRecord{}
			r.Children = []*TreeRecord{r}
			return r
		}},
		{"shared child", func() *TreeRecord {
			return &TreeRecord{Children: []*TreeRecord{shared, shared}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromObject(tt.rec())
			assert.ErrorIs(t, err, ErrTreeCycle)
		})
	}
}

func TestFromObject_TooDeep(t *testing.T) {
	root := &TreeRecord{}
	cur := root
	for range MaxTreeDepth + 1 {
		next := &TreeRecord{}
		cur.Children = []*TreeRecord{next}
		cur = next
	}

	_, err := FromObject(root)

	assert.ErrorIs(t, err, ErrTreeTooDeep)
}

func TestCommandTree_RecordRoundTrip(t *testing.T) {
	tree := NewCommandTree()
	tree.Name = "Release"
	build := tree.AddChild(node("gulp", "build"))
	build.Tile = true
	build.AddChild(node("gulp", "deploy", "--env", "prod"))

	rec, err := tree.Record()
	require.NoError(t, err)

	back, err := FromObject(rec)
	require.NoError(t, err)

	assert.Equal(t, tree, back)
}

func TestCommandTree_Walk_Order(t *testing.T) {
	tree := NewCommandTree()
	a := tree.AddChild(&CommandTree{Name: "a"})
	a.AddChild(&CommandTree{Name: "a1"})
	tree.AddChild(&CommandTree{Name: "b"})

	var order []string
	err := tree.Walk(func(n, parent *CommandTree) error {
		if parent == nil {
			order = append(order, "root")
			return nil
		}
		order = append(order, n.Name)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"root", "a", "a1", "b"}, order)
}

func TestCommandTree_Validate(t *testing.T) {
	tree := NewCommandTree()
	tree.AddChild(node("gulp"))
	assert.NoError(t, tree.Validate())

	tree.AddChild(node(""))
	assert.ErrorIs(t, tree.Validate(), ErrEmptyExecutable)
}

func TestCommandTree_CommandCount(t *testing.T) {
	tree := NewCommandTree()
	group := tree.AddChild(&CommandTree{Name: "group"})
	group.AddChild(node("gulp", "a"))
	group.AddChild(node("gulp", "b"))

	assert.Equal(t, 2, tree.CommandCount())
}
