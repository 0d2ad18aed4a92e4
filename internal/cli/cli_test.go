package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/app"
	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/testutil"
)

const testTreePath = "/srv/app/.flow/workflow.yaml"

// newTestContainer creates a container backed by mocks. Jobs are no-ops
// unless fail names a command line that should fail.
func newTestContainer(t *testing.T, tree *domain.CommandTree, fail ...string) *app.Container {
	t.Helper()

	trees := testutil.NewMockTreeRepository()
	if tree != nil {
		trees.Trees[testTreePath] = tree
	}
	runner := &testutil.MockCommandRunner{JobFor: func(cmd domain.Command) domain.Job {
		for _, f := range fail {
			if cmd.String() == f {
				return domain.FuncJob(func(context.Context, domain.TaskOutput) (domain.Result, error) {
					return domain.Result{ExitCode: 1}, errors.New("exit status 1")
				})
			}
		}
		return domain.FuncJob(func(_ context.Context, out domain.TaskOutput) (domain.Result, error) {
			out.Log("done: "+cmd.String(), "")
			return domain.Result{}, nil
		})
	}}
	clock := &testutil.MockClock{NowTime: time.Date(2026, 1, 2, 12, 0, 0, 0, time.Local)}

	return app.NewWithDeps(
		app.Config{ProjectDir: "/srv/app", TreePath: testTreePath, RunID: "0123456789abcdef"},
		domain.NewProject("app", "/srv/app"),
		trees,
		runner,
		clock,
		slog.New(slog.DiscardHandler),
	)
}

// executeCommand runs cmd with args and returns its output.
func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// buildTree builds:
//
//	Build
//	├─ npm install
//	│  └─ gulp build
//	└─ gulp lint
func buildTree() *domain.CommandTree {
	tree := domain.NewCommandTree()
	tree.Name = "Build"
	install := tree.AddChild(domain.NewCommandNode(domain.NewCommand("npm", "install")))
	install.AddChild(domain.NewCommandNode(domain.NewCommand("gulp", "build")))
	tree.AddChild(domain.NewCommandNode(domain.NewCommand("gulp", "lint")))
	return tree
}

func requireNoErr(t *testing.T, out string, err error) {
	t.Helper()
	require.NoError(t, err, out)
}
