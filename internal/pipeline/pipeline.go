package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/nao1215/logocluster/internal/locate"
	"github.com/nao1215/logocluster/internal/model"
)

// Task is the per-domain state passed between steps.
type Task struct {
	// Outcome is the result being built for the domain.
	Outcome *model.Outcome

	// Candidates are the ranked logo candidates for the home URL.
	Candidates []locate.Candidate

	// Logo is the decoded image of the accepted candidate. It is released
	// once hashed.
	Logo image.Image
}

// NewTask creates a Task for domain.
func NewTask(domain string) *Task {
	return &Task{Outcome: model.NewOutcome(domain)}
}

// finished reports whether no further step applies to the task.
func (t *Task) finished() bool {
	switch t.Outcome.Status {
	case model.StatusNoLogo, model.StatusUnreadable, model.StatusError:
		return true
	default:
		return false
	}
}

// Step is one stage of per-domain processing.
type Step interface {
	// Do runs the step. Expected failures are recorded on the task's
	// outcome; a returned error marks the domain as ERROR.
	Do(ctx context.Context, task *Task) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline runs steps in order for a single domain.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs the steps until one finishes the task, fails or the
// context is cancelled. Failures and panics are recorded on the outcome
// as ERROR and returned.
func (p *Pipeline) Execute(ctx context.Context, task *Task) error {
	for _, step := range p.steps {
		if task.finished() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			task.Outcome.SetError("context", err.Error())
			return err
		}

		if err := p.runStep(ctx, step, task); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"domain", task.Outcome.Domain,
				"error", err,
			)
			task.Outcome.SetError(step.Name(), err.Error())
			task.Logo = nil
			return err
		}
		p.logger.Debug("step completed",
			"step", step.Name(),
			"domain", task.Outcome.Domain,
			"status", task.Outcome.Status,
		)
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.Do(ctx, task)
}
