package reconstruct

import (
	"context"
	"log/slog"

	"parallax/internal/completion"
	"parallax/internal/config"
	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/services/engine"
	"parallax/internal/session"
	"parallax/internal/stage"
)

const depthStage = "depth"

// DepthBuilder generates depth maps for one partition per unit.
type DepthBuilder struct {
	cfg    config.Engine
	store  *session.Store
	engine engine.Session
	logger *slog.Logger
}

// NewDepthBuilder constructs the depth map stage handler.
func NewDepthBuilder(cfg config.Engine, store *session.Store, eng engine.Session, logger *slog.Logger) *DepthBuilder {
	return &DepthBuilder{
		cfg:    cfg,
		store:  store,
		engine: eng,
		logger: logging.NewComponentLogger(logger, depthStage),
	}
}

func (d *DepthBuilder) Name() string { return depthStage }

func (d *DepthBuilder) Completion(ctx context.Context, unit stage.Unit) (completion.State, error) {
	p, err := d.store.PartitionByLabel(ctx, unit.ID)
	if err != nil {
		return completion.Missing, err
	}
	return completion.Depth(p), nil
}

func (d *DepthBuilder) Execute(ctx context.Context, unit stage.Unit) error {
	p, err := d.store.PartitionByLabel(ctx, unit.ID)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, depthStage, "session", "loading partition "+unit.ID, err)
	}
	if !p.Workable() {
		return services.Wrap(services.ErrPrecondition, depthStage, "gate", "partition "+unit.ID+" has no aligned cameras", nil)
	}

	opts := engine.DepthOptions{
		Downscale: d.cfg.DepthDownscale,
		Filter:    d.cfg.DepthFilter,
		Reuse:     d.cfg.ReuseDepth,
	}
	if err := d.engine.BuildDepthMaps(ctx, p.Label, opts, progressLogger(d.logger, "depth")); err != nil {
		return services.Wrap(services.ErrExternalTool, depthStage, "build", "building depth maps for "+p.Label, err)
	}

	p.DepthBuilt = true
	if err := d.store.Update(ctx, p); err != nil {
		return services.Wrap(services.ErrExternalTool, depthStage, "session", "recording depth for "+p.Label, err)
	}
	return nil
}
