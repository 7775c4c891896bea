package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/logocluster/internal/model"
)

// Sink receives every finished outcome. Record is only ever called from
// the Runner's aggregating goroutine.
type Sink interface {
	Record(ctx context.Context, outcome *model.Outcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, outcome *model.Outcome) error

// Record implements Sink.
func (f SinkFunc) Record(ctx context.Context, outcome *model.Outcome) error {
	return f(ctx, outcome)
}

// RunResult is the aggregate of a run.
type RunResult struct {
	// Items are the hashed logos in input order.
	Items []model.LogoItem

	// Summary holds the per-status counts for the processed domains.
	Summary model.Summary
}

// Runner processes a domain list and aggregates the outcomes.
type Runner struct {
	batch  *BatchProcessor
	sinks  []Sink
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSinks adds sinks fed with every outcome in completion order.
func WithSinks(sinks ...Sink) RunnerOption {
	return func(r *Runner) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner on top of batch.
func NewRunner(batch *BatchProcessor, opts ...RunnerOption) *Runner {
	r := &Runner{batch: batch}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

type indexedOutcome struct {
	outcome *model.Outcome
	index   int
}

// Run processes domains and returns the hashed logos and summary. The
// result reflects every domain that finished even when ctx is cancelled
// or a sink fails; the first such error is returned alongside it.
func (r *Runner) Run(ctx context.Context, domains []string) (*RunResult, error) {
	start := time.Now()
	outcomes := make(chan indexedOutcome, r.batch.concurrency)

	type aggregate struct {
		result  *RunResult
		sinkErr error
	}
	done := make(chan aggregate, 1)

	go func() {
		res := &RunResult{}
		byIndex := make(map[int]model.LogoItem)
		var sinkErr error
		for o := range outcomes {
			res.Summary.Record(o.outcome)
			if item, ok := o.outcome.LogoItem(); ok {
				byIndex[o.index] = item
			}
			for _, sink := range r.sinks {
				if err := sink.Record(ctx, o.outcome); err != nil {
					r.logger.Error("failed to record outcome", "domain", o.outcome.Domain, "error", err)
					if sinkErr == nil {
						sinkErr = fmt.Errorf("failed to record %s: %w", o.outcome.Domain, err)
					}
				}
			}
			r.logger.Info("domain processed",
				"domain", o.outcome.Domain,
				"status", o.outcome.Status,
				"logo", o.outcome.LogoURL,
			)
		}
		for i := range domains {
			if item, ok := byIndex[i]; ok {
				res.Items = append(res.Items, item)
			}
		}
		done <- aggregate{result: res, sinkErr: sinkErr}
	}()

	batchErr := r.batch.ProcessBatchWithCallback(ctx, domains, func(o *model.Outcome, i int) {
		outcomes <- indexedOutcome{outcome: o, index: i}
	})
	close(outcomes)
	agg := <-done

	agg.result.Summary.Duration = time.Since(start)
	if batchErr != nil {
		return agg.result, batchErr
	}
	return agg.result, agg.sinkErr
}
