// Package tagging implements the panoramic-metadata stage: every extracted
// frame gets its equirectangular projection tags so the reconstruction
// engine treats it as a 360° image.
package tagging

import (
	"context"
	"log/slog"

	"parallax/internal/completion"
	"parallax/internal/fileutil"
	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/services/exiftool"
	"parallax/internal/stage"
	"parallax/internal/workspace"
)

const stageName = "tag"

// Tagger writes panoramic metadata onto the project's frames in bounded
// batches. Completion probes one representative frame and lets its state
// stand for the whole set.
type Tagger struct {
	ws        *workspace.Workspace
	client    exiftool.Tagger
	batchSize int
	logger    *slog.Logger
}

// NewTagger constructs the metadata tagging stage handler.
func NewTagger(ws *workspace.Workspace, client exiftool.Tagger, batchSize int, logger *slog.Logger) *Tagger {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Tagger{
		ws:        ws,
		client:    client,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, stageName),
	}
}

func (t *Tagger) Name() string { return stageName }

// Completion samples the last sorted frame's panorama-viewer flag. A probe
// failure reads as Missing so the stage re-tags rather than skipping.
func (t *Tagger) Completion(ctx context.Context, _ stage.Unit) (completion.State, error) {
	return completion.Tagged(ctx, t.client, t.ws.FramesDir()), nil
}

// Execute tags every frame in batches bounded by the configured size.
func (t *Tagger) Execute(ctx context.Context, _ stage.Unit) error {
	frames, err := fileutil.SortedFilesWithExt(t.ws.FramesDir(), ".jpg")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "scan", "listing frames", err)
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrPrecondition, stageName, "scan", "no frames to tag", nil)
	}

	t.logger.Info("tagging frames",
		logging.Int("frames", len(frames)),
		logging.Int("batch_size", t.batchSize))

	for start := 0; start < len(frames); start += t.batchSize {
		end := start + t.batchSize
		if end > len(frames) {
			end = len(frames)
		}
		if err := t.client.TagBatch(ctx, frames[start:end]); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "exiftool",
				"tagging batch starting at frame "+frames[start], err)
		}
	}
	return nil
}
