package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/flow/internal/app"
	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/usecase"
)

// newHistoryCommand creates the history command.
func newHistoryCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Limit int
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently finished tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireContainer(c); err != nil {
				return err
			}

			out, err := c.ListHistoryUseCase().Execute(cmd.Context(), usecase.ListHistoryInput{Limit: opts.Limit})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(out.Records) == 0 {
				_, _ = fmt.Fprintln(w, "No runs recorded yet.")
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tDURATION\tTITLE")
			for _, rec := range out.Records {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					shortRunID(rec.RunID),
					formatStart(rec.Start),
					recordStatus(rec),
					formatDuration(recordDuration(rec)),
					rec.Title,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", usecase.DefaultHistoryLimit, "Maximum number of records")

	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStart(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func recordStatus(rec domain.HistoryRecord) string {
	if rec.Errored {
		return "Failed"
	}
	return rec.Status.Display()
}

func recordDuration(rec domain.HistoryRecord) time.Duration {
	if rec.Start == nil || rec.End == nil {
		return 0
	}
	return rec.End.Sub(*rec.Start)
}
