// Package completion implements the completion oracle: pure reads of
// persisted state that decide whether a stage's output already exists.
// Nothing here has side effects and nothing is cached; state only changes
// between checks through the pipeline's own writes.
package completion

import (
	"context"
	"path/filepath"

	"parallax/internal/fileutil"
	"parallax/internal/session"
)

// State is the tri-state completion result. Partial marks an artifact that
// exists but is unusable (for example a model with zero faces); executors
// treat it as not done and rebuild.
type State int

const (
	Missing State = iota
	Partial
	Complete
)

func (s State) String() string {
	switch s {
	case Complete:
		return "complete"
	case Partial:
		return "partial"
	default:
		return "missing"
	}
}

// Done reports whether the stage can be skipped.
func (s State) Done() bool { return s == Complete }

// MetadataProbe reads the panorama-viewer flag from one file.
type MetadataProbe interface {
	ProbePanorama(ctx context.Context, path string) (bool, error)
}

// Frames reports whether frame extraction already produced output for a
// video, judged by at least one file matching the frame naming pattern.
func Frames(pattern string) State {
	if fileutil.HasMatch(pattern) {
		return Complete
	}
	return Missing
}

// Tagged reports whether the frame pool already carries panoramic metadata.
// One representative file (the last in sorted order) stands in for the whole
// batch; a probe failure reads as untagged so tagging proceeds.
func Tagged(ctx context.Context, probe MetadataProbe, framesDir string) State {
	files, err := fileutil.SortedFilesWithExt(framesDir, ".jpg")
	if err != nil || len(files) == 0 {
		return Missing
	}
	sample := files[len(files)-1]
	tagged, err := probe.ProbePanorama(ctx, sample)
	if err != nil || !tagged {
		return Missing
	}
	return Complete
}

// Alignment reports whether the session holds at least one partition with
// transformed cameras.
func Alignment(partitions []*session.Partition) State {
	for _, p := range partitions {
		if p.Aligned() {
			return Complete
		}
	}
	return Missing
}

// Partitioning reports the split state of the session. The split counts only
// the copied partitions, never the source: a lingering source means an earlier
// split was interrupted before retirement, so the stage must re-enter and
// finish it. Split partitions alongside a live source report Partial.
func Partitioning(partitions []*session.Partition, target int) State {
	split := 0
	source := false
	for _, p := range partitions {
		if p.Label == session.SourceLabel {
			source = true
			continue
		}
		split++
	}
	switch {
	case !source && split >= target:
		return Complete
	case split > 0:
		return Partial
	default:
		return Missing
	}
}

// Depth reports whether a partition's depth data exists.
func Depth(p *session.Partition) State {
	if p != nil && p.DepthBuilt {
		return Complete
	}
	return Missing
}

// Model reports whether a partition carries a usable surface model. A model
// built with zero faces is Partial: present, but no downstream stage can
// consume it.
func Model(p *session.Partition) State {
	if p == nil || !p.ModelBuilt {
		return Missing
	}
	if p.FaceCount == 0 {
		return Partial
	}
	return Complete
}

// Texture reports whether a partition's model has been textured.
func Texture(p *session.Partition) State {
	if p != nil && p.TextureCount > 0 {
		return Complete
	}
	return Missing
}

// Export reports whether a tier's output artifact exists. An empty file is
// Partial: likely a crash mid-write, and the tier must re-export.
func Export(path string) State {
	if fileutil.NonEmpty(path) {
		return Complete
	}
	if fileutil.Exists(path) {
		return Partial
	}
	return Missing
}

// ArchiveLabel reports whether an archive exists for a label, counting the
// base file or any multi-volume segment.
func ArchiveLabel(archiveDir, label string) State {
	base := filepath.Join(archiveDir, label+".7z")
	if fileutil.Exists(base) || fileutil.HasMatch(base+".*") {
		return Complete
	}
	return Missing
}
