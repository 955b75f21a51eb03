// Package export implements the quality-tier export stage: qualifying
// partition models are merged into a transient partition, optionally
// decimated to the tier's face budget, written out in the configured
// interchange format, and the merged partition removed. Tiers are
// independent; one tier failing never blocks another.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"parallax/internal/completion"
	"parallax/internal/config"
	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/services/engine"
	"parallax/internal/session"
	"parallax/internal/stage"
	"parallax/internal/workspace"
)

const stageName = "export"

// MergedLabel names the transient partition a tier export merges into.
func MergedLabel(tierLabel string) string {
	return "Merged_" + tierLabel
}

// TierExporter emits one model file per quality tier. The unit ID selects
// the tier by label.
type TierExporter struct {
	ws     *workspace.Workspace
	cfg    config.Engine
	tiers  []config.Tier
	store  *session.Store
	engine engine.Session
	logger *slog.Logger
}

// NewTierExporter constructs the export stage handler.
func NewTierExporter(ws *workspace.Workspace, cfg config.Engine, tiers []config.Tier, store *session.Store, eng engine.Session, logger *slog.Logger) *TierExporter {
	return &TierExporter{
		ws:     ws,
		cfg:    cfg,
		tiers:  tiers,
		store:  store,
		engine: eng,
		logger: logging.NewComponentLogger(logger, stageName),
	}
}

func (e *TierExporter) Name() string { return stageName }

// Completion reports Complete when the tier's output file exists non-empty.
func (e *TierExporter) Completion(_ context.Context, unit stage.Unit) (completion.State, error) {
	return completion.Export(e.ws.ExportPath(unit.ID, e.cfg.ExportFormat)), nil
}

// Execute merges qualifying partition models, decimates to the tier's
// ratio, exports, and releases the merged partition.
func (e *TierExporter) Execute(ctx context.Context, unit stage.Unit) error {
	tier, err := e.tier(unit.ID)
	if err != nil {
		return err
	}

	sources, err := e.qualifyingPartitions(ctx)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "session", "listing partitions", err)
	}
	if len(sources) == 0 {
		return services.Wrap(services.ErrPrecondition, stageName, "gate", "no partitions with models for tier "+tier.Label, nil)
	}

	merged := MergedLabel(tier.Label)
	if err := e.engine.MergeChunks(ctx, sources, merged); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "merge", "merging models for tier "+tier.Label, err)
	}
	defer e.release(ctx, merged)

	stats, err := e.engine.Stats(ctx, merged)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "stats", "inspecting merged model for tier "+tier.Label, err)
	}
	if stats.Faces == 0 {
		return services.Wrap(services.ErrPrecondition, stageName, "merge", "merge produced no faces for tier "+tier.Label, nil)
	}

	if tier.Ratio > 0 && tier.Ratio < 1 {
		target := int(float64(stats.Faces) * tier.Ratio)
		e.logger.Info("decimating merged model",
			logging.String(logging.FieldTier, tier.Label),
			logging.Int("faces", stats.Faces),
			logging.Int("target_faces", target))
		if err := e.engine.DecimateModel(ctx, merged, target, progressLogger(e.logger, "decimate")); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "decimate", "decimating tier "+tier.Label, err)
		}
	}

	opts := engine.ExportOptions{
		Path:        e.ws.ExportPath(tier.Label, e.cfg.ExportFormat),
		Format:      e.cfg.ExportFormat,
		Compression: e.cfg.CompressionLevel,
	}
	if err := e.engine.ExportModel(ctx, merged, opts, progressLogger(e.logger, "export")); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "write", "exporting tier "+tier.Label, err)
	}

	e.logger.Info("tier exported",
		logging.String(logging.FieldTier, tier.Label),
		logging.String("path", opts.Path),
		logging.Int("source_partitions", len(sources)))
	return nil
}

func progressLogger(logger *slog.Logger, operation string) engine.Progress {
	tracker := logging.NewProgressTracker()
	return func(percent float64) {
		if tracker.ShouldLog(percent) {
			logger.Info("progress",
				logging.String("operation", operation),
				logging.Float64("percent", tracker.Percent()))
		}
	}
}

func (e *TierExporter) tier(label string) (config.Tier, error) {
	for _, t := range e.tiers {
		if strings.EqualFold(t.Label, label) {
			return t, nil
		}
	}
	return config.Tier{}, services.Wrap(services.ErrValidation, stageName, "tier", fmt.Sprintf("unknown tier %q", label), nil)
}

func (e *TierExporter) qualifyingPartitions(ctx context.Context) ([]string, error) {
	parts, err := e.store.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, p := range parts {
		if p.Workable() && p.HasModel() {
			labels = append(labels, p.Label)
		}
	}
	return labels, nil
}

// release removes the transient merged partition. Failure to remove is
// logged, not fatal: the next merge overwrites the same label.
func (e *TierExporter) release(ctx context.Context, merged string) {
	if err := e.engine.RemoveChunk(ctx, merged); err != nil {
		e.logger.Warn("failed to remove merged partition",
			logging.String(logging.FieldPartition, merged),
			logging.Error(err))
	}
}
