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

const modelStage = "model"

// ModelBuilder reconstructs a surface model from one partition's depth data.
type ModelBuilder struct {
	cfg    config.Engine
	store  *session.Store
	engine engine.Session
	logger *slog.Logger
}

// NewModelBuilder constructs the surface model stage handler.
func NewModelBuilder(cfg config.Engine, store *session.Store, eng engine.Session, logger *slog.Logger) *ModelBuilder {
	return &ModelBuilder{
		cfg:    cfg,
		store:  store,
		engine: eng,
		logger: logging.NewComponentLogger(logger, modelStage),
	}
}

func (m *ModelBuilder) Name() string { return modelStage }

// Completion reads Partial when a model was built but carries no faces; the
// stage then rebuilds instead of skipping.
func (m *ModelBuilder) Completion(ctx context.Context, unit stage.Unit) (completion.State, error) {
	p, err := m.store.PartitionByLabel(ctx, unit.ID)
	if err != nil {
		return completion.Missing, err
	}
	return completion.Model(p), nil
}

func (m *ModelBuilder) Execute(ctx context.Context, unit stage.Unit) error {
	p, err := m.store.PartitionByLabel(ctx, unit.ID)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, modelStage, "session", "loading partition "+unit.ID, err)
	}
	if !p.DepthBuilt {
		return services.Wrap(services.ErrPrecondition, modelStage, "gate", "partition "+unit.ID+" has no depth maps", nil)
	}

	faces, err := m.engine.BuildModel(ctx, p.Label, engine.ModelOptions{FaceCount: m.cfg.MeshFaceCount}, progressLogger(m.logger, "model"))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, modelStage, "build", "building model for "+p.Label, err)
	}

	p.ModelBuilt = true
	p.FaceCount = faces
	if err := m.store.Update(ctx, p); err != nil {
		return services.Wrap(services.ErrExternalTool, modelStage, "session", "recording model for "+p.Label, err)
	}
	if faces == 0 {
		m.logger.Warn("model has no faces; stage will rerun",
			logging.String(logging.FieldPartition, p.Label))
	} else {
		m.logger.Info("model built",
			logging.String(logging.FieldPartition, p.Label),
			logging.Int("faces", faces))
	}
	return nil
}
