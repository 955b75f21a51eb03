// Package extraction implements the frame-extraction stage: one source video
// becomes a sequence of numbered still frames in the project's frames
// directory.
package extraction

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"parallax/internal/completion"
	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/services/ffmpeg"
	"parallax/internal/stage"
	"parallax/internal/workspace"
)

const stageName = "extract"

// VideoBase returns the frame-name prefix for a source video path.
func VideoBase(videoPath string) string {
	name := filepath.Base(videoPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Extractor runs ffmpeg against one source video per unit. The unit ID is
// the video's path; frames land in the workspace frames directory as
// <base>_0001.jpg onward.
type Extractor struct {
	ws     *workspace.Workspace
	client ffmpeg.Extractor
	logger *slog.Logger
}

// NewExtractor constructs the frame-extraction stage handler.
func NewExtractor(ws *workspace.Workspace, client ffmpeg.Extractor, logger *slog.Logger) *Extractor {
	return &Extractor{
		ws:     ws,
		client: client,
		logger: logging.NewComponentLogger(logger, stageName),
	}
}

func (e *Extractor) Name() string { return stageName }

// Completion reports Complete when at least one frame for the video's base
// name already exists. Frame files are the only completion evidence.
func (e *Extractor) Completion(_ context.Context, unit stage.Unit) (completion.State, error) {
	return completion.Frames(e.ws.FramePattern(VideoBase(unit.ID))), nil
}

// Execute extracts frames and verifies at least one frame materialized.
func (e *Extractor) Execute(ctx context.Context, unit stage.Unit) error {
	base := VideoBase(unit.ID)
	e.logger.Info("extracting frames",
		logging.String("video", filepath.Base(unit.ID)))

	if err := e.client.ExtractFrames(ctx, unit.ID, e.ws.FrameTemplate(base)); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "ffmpeg", "extracting "+base, err)
	}
	if completion.Frames(e.ws.FramePattern(base)) != completion.Complete {
		return services.Wrap(services.ErrExternalTool, stageName, "verify", "no frames produced for "+base, nil)
	}
	return nil
}

// DiscoverVideos lists the source videos in dir whose extension is in
// extensions, sorted by name. Extensions are matched case-insensitively and
// include the leading dot.
func DiscoverVideos(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			videos = append(videos, filepath.Join(dir, entry.Name()))
		}
	}
	return videos, nil
}
