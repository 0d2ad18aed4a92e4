package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/runoshun/flow/internal/domain"
)

// GulpTreeName names the root of a tree created from gulp tasks.
const GulpTreeName = "Gulp"

// ImportGulpTasksInput contains the parameters for importing gulp tasks.
type ImportGulpTasksInput struct {
	GulpfileDir string // Directory containing the gulpfile
	WorkDir     string // Recorded on imported commands; relative to the project root, empty for the root itself
	TreePath    string // Tree file to create or update
}

// ImportGulpTasksOutput contains the result of an import.
type ImportGulpTasksOutput struct {
	TreePath string   // Tree file that was written
	Tasks    []string // Tasks reported by gulp
	Added    int      // Tasks that were not in the tree yet
}

// ImportGulpTasks asks gulp for its task list and records one
// "gulp <task>" command per task in a tree file.
type ImportGulpTasks struct {
	executor domain.CommandExecutor
	trees    domain.TreeRepository
	logger   *slog.Logger
	goos     string
	shims    []string
}

// NewImportGulpTasks creates a new ImportGulpTasks use case.
func NewImportGulpTasks(
	executor domain.CommandExecutor,
	trees domain.TreeRepository,
	shims []string,
	logger *slog.Logger,
) *ImportGulpTasks {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ImportGulpTasks{
		executor: executor,
		trees:    trees,
		logger:   logger,
		goos:     runtime.GOOS,
		shims:    slices.Clone(shims),
	}
}

// WithGOOS overrides the operating system used to pick the gulp executable.
func (uc *ImportGulpTasks) WithGOOS(goos string) *ImportGulpTasks {
	uc.goos = goos
	return uc
}

// Execute runs "gulp --tasks-simple" and merges the tasks into the tree file.
// Existing nodes keep their ids; tasks already present are not duplicated.
func (uc *ImportGulpTasks) Execute(_ context.Context, in ImportGulpTasksInput) (*ImportGulpTasksOutput, error) {
	cmd := domain.NewCommand("gulp", "--tasks-simple").Exec(in.GulpfileDir)
	cmd.Program = domain.ProgramFor("gulp", uc.goos, uc.shims)

	output, err := uc.executor.Execute(cmd)
	if err != nil {
		return nil, fmt.Errorf("list gulp tasks: %w", err)
	}

	names := parseGulpTasks(string(output))
	if len(names) == 0 {
		return nil, domain.ErrNoGulpTasks
	}

	tree, err := uc.trees.Load(in.TreePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		tree = domain.NewCommandTree()
		tree.Name = GulpTreeName
	case err != nil:
		return nil, fmt.Errorf("load workflow: %w", err)
	}

	existing := make(map[string]struct{}, len(tree.Children))
	for _, child := range tree.Children {
		if child.Command != nil {
			existing[commandKey(*child.Command)] = struct{}{}
		}
	}

	added := 0
	for _, name := range names {
		command := domain.NewCommand("gulp", name).WithDir(in.WorkDir)
		key := commandKey(command)
		if _, ok := existing[key]; ok {
			continue
		}
		existing[key] = struct{}{}
		tree.AddChild(domain.NewCommandNode(command))
		added++
	}

	if err := uc.trees.Save(in.TreePath, tree); err != nil {
		return nil, fmt.Errorf("save workflow: %w", err)
	}
	uc.logger.Info("imported gulp tasks", "path", in.TreePath, "tasks", len(names), "added", added)

	return &ImportGulpTasksOutput{
		TreePath: in.TreePath,
		Tasks:    names,
		Added:    added,
	}, nil
}

// commandKey identifies a command together with the directory it runs in.
func commandKey(c domain.Command) string {
	return c.Dir() + "\x00" + c.String()
}

// parseGulpTasks returns the non-empty lines of gulp's simple task listing.
func parseGulpTasks(output string) []string {
	var names []string
	for _, line := range strings.FieldsFunc(output, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
