// Package archive implements long-term storage: per-tier archives of the
// exported models plus one archive of the entire project directory.
// Archives are label-identified; an existing base file or any multi-volume
// segment marks a label done.
package archive

import (
	"context"
	"log/slog"
	"path/filepath"

	"parallax/internal/completion"
	"parallax/internal/config"
	"parallax/internal/fileutil"
	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/services/sevenzip"
	"parallax/internal/stage"
	"parallax/internal/workspace"
)

const stageName = "archive"

// FullProjectLabel names the archive covering the whole project directory.
func FullProjectLabel(project string) string {
	return project + "_full_project"
}

// ObjLabel names the archive holding a tier's OBJ and material files.
func ObjLabel(tierLabel string) string { return tierLabel + "_obj" }

// GLBLabel names the archive holding a tier's GLB export.
func GLBLabel(tierLabel string) string { return tierLabel + "_glb" }

// Labels returns every archive label for the configured tiers plus the
// full-project label, in archiving order.
func Labels(project string, tiers []config.Tier) []string {
	var labels []string
	for _, tier := range tiers {
		labels = append(labels, ObjLabel(tier.Label), GLBLabel(tier.Label))
	}
	return append(labels, FullProjectLabel(project))
}

// Archiver compresses one labelled input set per unit. The unit ID is the
// archive label.
type Archiver struct {
	ws     *workspace.Workspace
	tiers  []config.Tier
	client sevenzip.Compressor
	logger *slog.Logger
}

// NewArchiver constructs the archive stage handler.
func NewArchiver(ws *workspace.Workspace, tiers []config.Tier, client sevenzip.Compressor, logger *slog.Logger) *Archiver {
	return &Archiver{
		ws:     ws,
		tiers:  tiers,
		client: client,
		logger: logging.NewComponentLogger(logger, stageName),
	}
}

func (a *Archiver) Name() string { return stageName }

// Completion reports Complete when the label's base archive or any volume
// segment already exists.
func (a *Archiver) Completion(_ context.Context, unit stage.Unit) (completion.State, error) {
	return completion.ArchiveLabel(a.ws.ArchiveDir(), unit.ID), nil
}

// Execute compresses the label's existing source files. A label with no
// sources on disk is skipped with a warning, never a failure: a tier that
// was abandoned upstream simply has nothing to archive.
func (a *Archiver) Execute(ctx context.Context, unit stage.Unit) error {
	inputs := a.inputs(unit.ID)
	if len(inputs) == 0 {
		a.logger.Warn("nothing to archive for label",
			logging.String("label", unit.ID))
		return services.Wrap(services.ErrPrecondition, stageName, "gate", "no source files for label "+unit.ID, nil)
	}

	archivePath := filepath.Join(a.ws.ArchiveDir(), unit.ID+".7z")
	a.logger.Info("archiving",
		logging.String("label", unit.ID),
		logging.Int("inputs", len(inputs)))
	if err := a.client.Compress(ctx, archivePath, inputs); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "7z", "compressing label "+unit.ID, err)
	}
	return nil
}

// inputs resolves the label to its source paths, keeping only those that
// exist on disk.
func (a *Archiver) inputs(label string) []string {
	var candidates []string
	switch {
	case label == FullProjectLabel(a.ws.Project):
		candidates = []string{a.ws.Root}
	default:
		for _, tier := range a.tiers {
			switch label {
			case ObjLabel(tier.Label):
				candidates = []string{
					a.ws.ExportPath(tier.Label, "obj"),
					a.ws.MaterialPath(tier.Label),
				}
			case GLBLabel(tier.Label):
				candidates = []string{a.ws.ExportPath(tier.Label, "glb")}
			}
		}
	}
	var inputs []string
	for _, path := range candidates {
		if fileutil.Exists(path) {
			inputs = append(inputs, path)
		}
	}
	return inputs
}
