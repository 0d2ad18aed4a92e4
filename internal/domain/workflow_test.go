package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflow_TasksAndRoots(t *testing.T) {
	a := NewTask("a", NoopJob{})
	b := NewTask("b", NoopJob{})
	b.DependsOn = a
	c := NewTask("c", NoopJob{})

	wf := NewWorkflow(nil)
	build := wf.AddPhase(NewPhase("build"))
	build.AddStep(NewStep("a", "", a))
	build.AddStep(NewStep("b", "", b))
	wf.AddPhase(NewPhase("check")).AddStep(NewStep("c", "", c))

	assert.Equal(t, []*Task{a, b, c}, wf.Tasks())
	assert.Equal(t, []*Task{a, c}, wf.Roots())
	assert.Equal(t, 3, wf.StepCount())
}

func TestNewProject(t *testing.T) {
	assert.Equal(t, "app", NewProject("", "/srv/app").Name)
	assert.Equal(t, "custom", NewProject("custom", "/srv/app").Name)
}

func TestProject_URLAndTasks(t *testing.T) {
	p := NewProject("app", "/srv/app")
	assert.Empty(t, p.URL())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.AddTask(NewTask("t", NoopJob{}))
		}()
	}
	wg.Wait()
	p.SetURL("http://localhost:9000")

	assert.Len(t, p.Tasks(), 10)
	assert.Equal(t, "http://localhost:9000", p.URL())
}
