package reconstruct

import (
	"context"
	"errors"
	"log/slog"

	"parallax/internal/completion"
	"parallax/internal/config"
	"parallax/internal/fileutil"
	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/services/engine"
	"parallax/internal/session"
	"parallax/internal/stage"
	"parallax/internal/workspace"
)

const alignStage = "align"

// Aligner loads the tagged frames into the engine's source partition,
// matches features across them, and estimates camera poses. The resulting
// aligned camera count is the session's evidence of completion.
type Aligner struct {
	ws     *workspace.Workspace
	cfg    config.Engine
	store  *session.Store
	engine engine.Session
	logger *slog.Logger
}

// NewAligner constructs the alignment stage handler.
func NewAligner(ws *workspace.Workspace, cfg config.Engine, store *session.Store, eng engine.Session, logger *slog.Logger) *Aligner {
	return &Aligner{
		ws:     ws,
		cfg:    cfg,
		store:  store,
		engine: eng,
		logger: logging.NewComponentLogger(logger, alignStage),
	}
}

func (a *Aligner) Name() string { return alignStage }

// Completion reports Complete once any partition carries aligned cameras.
func (a *Aligner) Completion(ctx context.Context, _ stage.Unit) (completion.State, error) {
	parts, err := a.store.Partitions(ctx)
	if err != nil {
		return completion.Missing, err
	}
	return completion.Alignment(parts), nil
}

// Execute loads frames into the source partition if not yet present, then
// matches and aligns. The photo load and the alignment are separately
// resumable: a run killed between them re-enters here and skips the load.
func (a *Aligner) Execute(ctx context.Context, _ stage.Unit) error {
	frames, err := fileutil.SortedFilesWithExt(a.ws.FramesDir(), ".jpg")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, alignStage, "scan", "listing frames", err)
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrPrecondition, alignStage, "scan", "no frames to align", nil)
	}

	source, err := a.store.PartitionByLabel(ctx, session.SourceLabel)
	switch {
	case errors.Is(err, session.ErrPartitionNotFound):
		source, err = a.loadSource(ctx, frames)
		if err != nil {
			return err
		}
	case err != nil:
		return services.Wrap(services.ErrExternalTool, alignStage, "session", "loading source partition", err)
	}

	opts := engine.MatchOptions{
		Downscale:     a.cfg.MatchDownscale,
		KeypointLimit: a.cfg.KeypointLimit,
		TiepointLimit: a.cfg.TiepointLimit,
	}
	if err := a.engine.MatchPhotos(ctx, source.Label, opts, progressLogger(a.logger, "match")); err != nil {
		return services.Wrap(services.ErrExternalTool, alignStage, "match", "matching photos", err)
	}

	aligned, err := a.engine.AlignCameras(ctx, source.Label, progressLogger(a.logger, "align"))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, alignStage, "align", "aligning cameras", err)
	}
	if aligned == 0 {
		return services.Wrap(services.ErrExternalTool, alignStage, "align", "no cameras aligned", nil)
	}

	source.AlignedCount = aligned
	if err := a.store.Update(ctx, source); err != nil {
		return services.Wrap(services.ErrExternalTool, alignStage, "session", "recording alignment", err)
	}
	a.logger.Info("cameras aligned",
		logging.Int("cameras", source.CameraCount),
		logging.Int("aligned", aligned))
	return nil
}

func (a *Aligner) loadSource(ctx context.Context, frames []string) (*session.Partition, error) {
	cameras, err := a.engine.AddPhotos(ctx, session.SourceLabel, frames, progressLogger(a.logger, "add-photos"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, alignStage, "add-photos", "loading frames", err)
	}
	if err := a.engine.ConfigureSphericalSensor(ctx, session.SourceLabel); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, alignStage, "set-sensor", "configuring spherical sensor", err)
	}
	source := &session.Partition{
		Label:       session.SourceLabel,
		Enabled:     true,
		EndIndex:    cameras,
		CameraCount: cameras,
	}
	if err := a.store.AddPartition(ctx, source); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, alignStage, "session", "recording source partition", err)
	}
	a.logger.Info("frames loaded", logging.Int("cameras", cameras))
	return source, nil
}
