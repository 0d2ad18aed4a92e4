package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/flow/internal/app"
	"github.com/runoshun/flow/internal/usecase"
)

// newTreeCommand creates the tree command.
func newTreeCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [tree-file]",
		Short: "Show the steps of a workflow without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireContainer(c); err != nil {
				return err
			}
			treePath, err := resolveTreePath(c, args)
			if err != nil {
				return err
			}

			out, err := c.ShowWorkflowUseCase().Execute(cmd.Context(), usecase.ShowWorkflowInput{
				Project:  c.Project,
				TreePath: treePath,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, phase := range out.Phases {
				_, _ = fmt.Fprintln(w, Styles.Header.Render(fmt.Sprintf("%s (%d commands)", phase.Name, len(phase.Steps))))
				for _, step := range phase.Steps {
					line := fmt.Sprintf("  %d. %s", step.Index, step.Name)
					if step.DependsOn > 0 {
						line += " " + Styles.Muted.Render(fmt.Sprintf("(after %d)", step.DependsOn))
					}
					_, _ = fmt.Fprintln(w, line)
				}
			}
			return nil
		},
	}
}
