package batch

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ConvertFunc performs one job.
type ConvertFunc func(ctx context.Context, job Job) error

// Outcome is the result of one job.
type Outcome struct {
	Job      Job
	Err      error
	Duration time.Duration
}

// Runner runs jobs with bounded parallelism. A failing job never stops its
// siblings; cancelling the context skips jobs that have not started.
type Runner struct {
	Jobs    int
	Convert ConvertFunc
	Logger  *zap.Logger
}

// Run executes every job and returns one outcome per job, in input order.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := r.Jobs
	if limit < 1 {
		limit = 1
	}

	outcomes := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = r.run(ctx, job, log)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (r *Runner) run(ctx context.Context, job Job, log *zap.Logger) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Job: job, Err: err}
	}
	start := time.Now()
	err := r.Convert(ctx, job)
	out := Outcome{Job: job, Err: err, Duration: time.Since(start)}
	if err != nil {
		log.Error("conversion failed", zap.String("input", job.Input), zap.Error(err))
	} else {
		log.Info("conversion done", zap.String("input", job.Input),
			zap.String("output", job.OutputDir), zap.Duration("duration", out.Duration))
	}
	return out
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
