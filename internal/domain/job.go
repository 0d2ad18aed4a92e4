package domain

import (
	"context"
	"strings"
)

// FuncJob adapts a plain function to the Job interface.
type FuncJob func(ctx context.Context, out TaskOutput) (Result, error)

// Run calls f.
func (f FuncJob) Run(ctx context.Context, out TaskOutput) (Result, error) {
	return f(ctx, out)
}

// NoopJob completes immediately without doing anything.
type NoopJob struct{}

// Run returns an empty result.
func (NoopJob) Run(context.Context, TaskOutput) (Result, error) {
	return Result{}, nil
}

// SequenceJob runs jobs one after another and stops at the first error.
type SequenceJob struct {
	Jobs []Job
}

// Run executes each job in order. Outputs are joined by newlines and the
// exit code of the last job that ran is reported.
func (s SequenceJob) Run(ctx context.Context, out TaskOutput) (Result, error) {
	var outputs []string
	var res Result
	for _, job := range s.Jobs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r, err := job.Run(ctx, out)
		if r.Output != "" {
			outputs = append(outputs, r.Output)
		}
		res.ExitCode = r.ExitCode
		res.Output = strings.Join(outputs, "\n")
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
