// Package pipeline runs an ordered list of named steps, short-circuits on
// the first error, and makes sure every returned error is a coded
// GemkitError naming the step that failed. Both the runtime installer and
// the workspace bootstrapper are expressed as pipelines.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
)

// StepFunc is the body of a step.
type StepFunc func(ctx context.Context) error

// Step is one named unit of work.
type Step struct {
	Name string
	Run  StepFunc
}

// Pipeline executes steps sequentially.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// New creates a pipeline over steps. A nil logger discards step logs.
func New(logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes the steps in order.
//
// Behavior:
//   - ctx is checked before each step; cancellation stops the run with
//     E_INTERNAL and the name of the step that did not start
//   - the first failing step stops the run
//   - a *GemkitError keeps its code and message; "step" is added to its
//     details unless already present
//   - any other error is wrapped as E_INTERNAL "internal error" with the
//     step name in details
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Debug("pipeline started", "steps", strings.Join(p.Steps(), ","))
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return errors.WrapWithDetails(errors.EInternal, "interrupted", err, map[string]string{"step": step.Name})
		}

		p.logger.Debug("step started", "step", step.Name)
		if err := step.Run(ctx); err != nil {
			return wrapStepError(err, step.Name)
		}
		p.logger.Debug("step finished", "step", step.Name)
	}
	return nil
}

func wrapStepError(err error, stepName string) error {
	if err == nil {
		return nil
	}

	if ge, ok := errors.AsGemkitError(err); ok {
		if _, has := ge.Details["step"]; has {
			return err
		}
		details := map[string]string{"step": stepName}
		for k, v := range ge.Details {
			details[k] = v
		}
		return errors.WrapWithDetails(ge.Code, ge.Msg, ge.Cause, details)
	}

	return errors.WrapWithDetails(
		errors.EInternal,
		"internal error",
		err,
		map[string]string{"step": stepName},
	)
}
