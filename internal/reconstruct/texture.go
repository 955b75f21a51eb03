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

const textureStage = "texture"

// TextureBuilder maps UVs and blends a texture atlas for one partition.
type TextureBuilder struct {
	cfg    config.Engine
	store  *session.Store
	engine engine.Session
	logger *slog.Logger
}

// NewTextureBuilder constructs the texture stage handler.
func NewTextureBuilder(cfg config.Engine, store *session.Store, eng engine.Session, logger *slog.Logger) *TextureBuilder {
	return &TextureBuilder{
		cfg:    cfg,
		store:  store,
		engine: eng,
		logger: logging.NewComponentLogger(logger, textureStage),
	}
}

func (t *TextureBuilder) Name() string { return textureStage }

func (t *TextureBuilder) Completion(ctx context.Context, unit stage.Unit) (completion.State, error) {
	p, err := t.store.PartitionByLabel(ctx, unit.ID)
	if err != nil {
		return completion.Missing, err
	}
	return completion.Texture(p), nil
}

func (t *TextureBuilder) Execute(ctx context.Context, unit stage.Unit) error {
	p, err := t.store.PartitionByLabel(ctx, unit.ID)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, textureStage, "session", "loading partition "+unit.ID, err)
	}
	if !p.HasModel() {
		return services.Wrap(services.ErrPrecondition, textureStage, "gate", "partition "+unit.ID+" has no surface model", nil)
	}

	opts := engine.TextureOptions{
		Size:  t.cfg.TextureSize,
		Blend: t.cfg.BlendMode,
	}
	textures, err := t.engine.BuildTexture(ctx, p.Label, opts, progressLogger(t.logger, "texture"))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, textureStage, "build", "building texture for "+p.Label, err)
	}

	p.TextureCount = textures
	if err := t.store.Update(ctx, p); err != nil {
		return services.Wrap(services.ErrExternalTool, textureStage, "session", "recording texture for "+p.Label, err)
	}
	t.logger.Info("texture built",
		logging.String(logging.FieldPartition, p.Label),
		logging.Int("textures", textures))
	return nil
}
