package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runoshun/flow/internal/app"
	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/usecase"
)

// newRunCommand creates the run command.
func newRunCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Logs bool
	}

	cmd := &cobra.Command{
		Use:   "run [tree-file]",
		Short: "Run a workflow",
		Long: `Run every command of a workflow tree file.

The tree file defaults to [workflow] file from the configuration
(.flow/workflow.yaml). Press Ctrl+C to stop every running task.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireContainer(c); err != nil {
				return err
			}
			treePath, err := resolveTreePath(c, args)
			if err != nil {
				return err
			}

			printer := newStatusPrinter(cmd.OutOrStdout())
			uc := c.RunWorkflowUseCase(printer)
			out, err := uc.Execute(cmd.Context(), usecase.RunWorkflowInput{
				Project:  c.Project,
				TreePath: treePath,
				RunID:    c.Config.RunID,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.Logs {
				printLogs(cmd, out.Tasks)
			}

			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, Styles.Header.Render(fmt.Sprintf("%s (run %s)", out.Workflow, out.RunID)))
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tDURATION\tTITLE")
			for _, t := range out.Tasks {
				status := t.Status.Display()
				if printer.Errored(t.ID) {
					status = "Failed"
				}
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, status, formatDuration(t.Duration()), t.Title)
			}
			_ = tw.Flush()

			if out.Interrupted {
				return ErrInterrupted
			}
			if out.Failed > 0 {
				return fmt.Errorf("%d of %d: %w", out.Failed, len(out.Tasks), ErrTasksFailed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Logs, "logs", false, "Print the log of every task after the run")

	return cmd
}

// printLogs writes each task's log under a header.
func printLogs(cmd *cobra.Command, tasks []domain.TaskView) {
	w := cmd.OutOrStdout()
	for _, t := range tasks {
		_, _ = fmt.Fprintln(w, Styles.Header.Render(taskLabel(t)))
		for _, entry := range t.Logs {
			line := entry.Message
			if entry.Level == "error" {
				line = Styles.Error.Render(line)
			}
			_, _ = fmt.Fprintln(w, "  "+line)
		}
	}
}

// resolveTreePath returns the tree file named on the command line, or the
// configured default.
func resolveTreePath(c *app.Container, args []string) (string, error) {
	if len(args) == 0 {
		return c.Config.TreePath, nil
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", args[0], err)
	}
	return path, nil
}
