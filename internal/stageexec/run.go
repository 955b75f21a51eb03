// Package stageexec executes a single stage invocation: oracle gate,
// collaborator execution, structured logging.
package stageexec

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/stage"
)

// Options controls a single stage execution.
type Options struct {
	Logger  *slog.Logger
	Handler stage.Handler
	Unit    stage.Unit
}

// Run gates a stage invocation on the completion oracle and executes it.
// Handlers persist their own checkpoints before Execute returns, so a
// completed Run always leaves a resumable session behind. A unit whose
// artifact already exists is skipped. Partial artifacts are treated as not
// done and rebuilt.
func Run(ctx context.Context, opts Options) (stage.Outcome, error) {
	if opts.Handler == nil {
		return stage.OutcomeSkipped, errors.New("stage handler required")
	}

	name := opts.Handler.Name()
	stageCtx := services.WithStage(ctx, name)
	if opts.Unit.Kind == stage.KindPartition {
		stageCtx = services.WithPartition(stageCtx, opts.Unit.ID)
	}
	logger := logging.WithContext(stageCtx, opts.Logger)

	state, err := opts.Handler.Completion(stageCtx, opts.Unit)
	if err != nil {
		return stage.OutcomeSkipped, services.Wrap(services.ErrExternalTool, name, "completion check", opts.Unit.String(), err)
	}
	if state.Done() {
		logger.Info(
			"stage skipped",
			logging.String(logging.FieldEventType, "stage_skip"),
			logging.String("unit", opts.Unit.String()),
			logging.String("completion", state.String()),
		)
		return stage.OutcomeSkipped, nil
	}

	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("unit", opts.Unit.String()),
		logging.String("completion", state.String()),
	)
	started := time.Now()

	if err := opts.Handler.Execute(stageCtx, opts.Unit); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted", logging.String("unit", opts.Unit.String()))
			return stage.OutcomeSkipped, err
		}
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("unit", opts.Unit.String()),
			logging.Error(err),
		)
		return stage.OutcomeSkipped, tagged(name, opts.Unit, err)
	}

	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("unit", opts.Unit.String()),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return stage.OutcomeCompleted, nil
}

// tagged wraps an execution error with stage and unit context unless the
// handler already classified it with one of the services sentinels.
func tagged(name string, unit stage.Unit, err error) error {
	for _, marker := range []error{
		services.ErrExternalTool,
		services.ErrPrecondition,
		services.ErrValidation,
		services.ErrConfiguration,
		services.ErrNotFound,
	} {
		if errors.Is(err, marker) {
			return err
		}
	}
	return services.Wrap(services.ErrExternalTool, name, "execute", unit.String(), err)
}
