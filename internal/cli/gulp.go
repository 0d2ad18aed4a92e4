package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/flow/internal/app"
	"github.com/runoshun/flow/internal/usecase"
)

// newGulpCommand creates the gulp command.
func newGulpCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gulp",
		Short: "Work with gulp projects",
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newGulpImportCommand(c))

	return cmd
}

// newGulpImportCommand creates the gulp import subcommand.
func newGulpImportCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Dir    string
		Output string
	}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Add the tasks of a gulpfile to a workflow tree",
		Long: `Run "gulp --tasks-simple" and add one "gulp <task>" command per task
to the workflow tree file. Tasks already in the tree are kept as they are.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireContainer(c); err != nil {
				return err
			}

			dir, workDir, err := gulpfileDir(c.Project.Path, opts.Dir)
			if err != nil {
				return err
			}
			treePath := c.Config.TreePath
			if opts.Output != "" {
				abs, err := filepath.Abs(opts.Output)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", opts.Output, err)
				}
				treePath = abs
			}

			out, err := c.ImportGulpTasksUseCase().Execute(cmd.Context(), usecase.ImportGulpTasksInput{
				GulpfileDir: dir,
				WorkDir:     workDir,
				TreePath:    treePath,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d gulp tasks (%d new) into %s\n", len(out.Tasks), out.Added, out.TreePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Directory containing the gulpfile (default: project root)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Tree file to update (default: [workflow] file)")

	return cmd
}

// gulpfileDir resolves the --dir flag. It returns the absolute directory and
// the same directory relative to the project root ("" for the root itself).
func gulpfileDir(root, flag string) (string, string, error) {
	if flag == "" {
		return root, "", nil
	}
	abs, err := filepath.Abs(flag)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", flag, err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// outside the project the absolute path is recorded
		return abs, abs, nil
	}
	if rel == "." {
		return abs, "", nil
	}
	return abs, rel, nil
}
