// Package reconstruct implements the engine-driven reconstruction stages:
// camera alignment over the full frame set, then per-partition depth maps,
// surface models, and textures. Every stage records its result in the
// session store before returning so a killed run resumes at the first
// incomplete stage.
package reconstruct

import (
	"log/slog"

	"parallax/internal/logging"
	"parallax/internal/services/engine"
)

// progressLogger adapts an engine progress stream onto deduplicated log
// lines. One tracker per invocation.
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
