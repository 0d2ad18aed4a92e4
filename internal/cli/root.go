// Package cli provides the command-line interface for flow.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/flow/internal/app"
)

// Command group IDs.
const (
	groupWorkflow = "workflow"
	groupSetup    = "setup"
)

// Errors reported through the exit code.
var (
	ErrTasksFailed = errors.New("tasks failed")
	ErrInterrupted = errors.New("interrupted")
)

// NewRootCommand creates the root command for flow.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "flow",
		Short: "Run project build tooling as dependency-ordered tasks",
		Long: `flow runs the commands of a project workflow tree.

Every command in the tree becomes a task. Root tasks start immediately and
each task starts once the command above it has finished, whether it
succeeded, failed or was stopped.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil or partial (e.g. in tests)
			if c == nil || c.ConfigLoader == nil {
				return nil
			}

			cfg, err := c.ConfigLoader.Load()
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				return nil
			}

			for _, w := range cfg.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupWorkflow, Title: "Workflow Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	runCmd := newRunCommand(c)
	runCmd.GroupID = groupWorkflow

	treeCmd := newTreeCommand(c)
	treeCmd.GroupID = groupWorkflow

	historyCmd := newHistoryCommand(c)
	historyCmd.GroupID = groupWorkflow

	gulpCmd := newGulpCommand(c)
	gulpCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	root.AddCommand(
		runCmd,
		treeCmd,
		historyCmd,
		gulpCmd,
		configCmd,
	)

	return root
}

// requireContainer fails commands that need a project.
func requireContainer(c *app.Container) error {
	if c == nil {
		return errors.New("no project: flow must be run inside a project directory")
	}
	return nil
}
