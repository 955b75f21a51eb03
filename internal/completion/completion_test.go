package completion_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"parallax/internal/completion"
	"parallax/internal/session"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFrames(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "clip1_*.jpg")

	if got := completion.Frames(pattern); got != completion.Missing {
		t.Fatalf("empty dir = %v, want missing", got)
	}
	writeFile(t, filepath.Join(dir, "clip1_0001.jpg"), "x")
	if got := completion.Frames(pattern); got != completion.Complete {
		t.Fatalf("with frame = %v, want complete", got)
	}
}

type stubProbe struct {
	tagged bool
	err    error
	path   string
}

func (s *stubProbe) ProbePanorama(ctx context.Context, path string) (bool, error) {
	s.path = path
	return s.tagged, s.err
}

func TestTagged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clip1_0001.jpg"), "x")
	writeFile(t, filepath.Join(dir, "clip1_0002.jpg"), "x")

	probe := &stubProbe{tagged: true}
	if got := completion.Tagged(context.Background(), probe, dir); got != completion.Complete {
		t.Fatalf("tagged = %v, want complete", got)
	}
	if filepath.Base(probe.path) != "clip1_0002.jpg" {
		t.Fatalf("sampled %q, want last sorted file", probe.path)
	}

	probe = &stubProbe{tagged: false}
	if got := completion.Tagged(context.Background(), probe, dir); got != completion.Missing {
		t.Fatalf("untagged = %v, want missing", got)
	}
}

func TestTaggedProbeFailureFailsOpen(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clip1_0001.jpg"), "x")

	probe := &stubProbe{err: errors.New("cannot read metadata")}
	if got := completion.Tagged(context.Background(), probe, dir); got != completion.Missing {
		t.Fatalf("probe failure = %v, want missing (forces tagging)", got)
	}
}

func TestTaggedNoFrames(t *testing.T) {
	if got := completion.Tagged(context.Background(), &stubProbe{tagged: true}, t.TempDir()); got != completion.Missing {
		t.Fatalf("no frames = %v, want missing", got)
	}
}

func TestAlignment(t *testing.T) {
	none := []*session.Partition{{Label: "MainChunk", CameraCount: 10}}
	if got := completion.Alignment(none); got != completion.Missing {
		t.Fatalf("unaligned = %v", got)
	}
	aligned := []*session.Partition{{Label: "MainChunk", CameraCount: 10, AlignedCount: 9}}
	if got := completion.Alignment(aligned); got != completion.Complete {
		t.Fatalf("aligned = %v", got)
	}
	if got := completion.Alignment(nil); got != completion.Missing {
		t.Fatalf("empty session = %v", got)
	}
}

func TestPartitioning(t *testing.T) {
	split := func(n int) []*session.Partition {
		parts := make([]*session.Partition, n)
		for i := range parts {
			parts[i] = &session.Partition{Label: fmt.Sprintf("GPU-%d", i)}
		}
		return parts
	}
	if got := completion.Partitioning(split(3), 8); got != completion.Partial {
		t.Fatalf("3/8 = %v", got)
	}
	if got := completion.Partitioning(split(8), 8); got != completion.Complete {
		t.Fatalf("8/8 = %v", got)
	}
	if got := completion.Partitioning(split(9), 8); got != completion.Complete {
		t.Fatalf("9/8 = %v", got)
	}
	if got := completion.Partitioning(nil, 8); got != completion.Missing {
		t.Fatalf("empty session = %v", got)
	}
	only := []*session.Partition{{Label: session.SourceLabel}}
	if got := completion.Partitioning(only, 8); got != completion.Missing {
		t.Fatalf("source only = %v", got)
	}
	// All copies made but the source not yet retired: the split is unfinished.
	lingering := append(split(8), &session.Partition{Label: session.SourceLabel})
	if got := completion.Partitioning(lingering, 8); got != completion.Partial {
		t.Fatalf("unretired source = %v", got)
	}
}

func TestModelTriState(t *testing.T) {
	if got := completion.Model(&session.Partition{}); got != completion.Missing {
		t.Fatalf("no model = %v", got)
	}
	empty := &session.Partition{ModelBuilt: true, FaceCount: 0}
	if got := completion.Model(empty); got != completion.Partial {
		t.Fatalf("empty model = %v, want partial", got)
	}
	full := &session.Partition{ModelBuilt: true, FaceCount: 100}
	if got := completion.Model(full); got != completion.Complete {
		t.Fatalf("model = %v", got)
	}
	if completion.Partial.Done() {
		t.Fatal("partial must not be done")
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo_low.glb")

	if got := completion.Export(path); got != completion.Missing {
		t.Fatalf("missing = %v", got)
	}
	writeFile(t, path, "")
	if got := completion.Export(path); got != completion.Partial {
		t.Fatalf("empty file = %v, want partial", got)
	}
	writeFile(t, path, "glTF")
	if got := completion.Export(path); got != completion.Complete {
		t.Fatalf("non-empty = %v", got)
	}
}

func TestArchiveLabel(t *testing.T) {
	dir := t.TempDir()

	if got := completion.ArchiveLabel(dir, "low_glb"); got != completion.Missing {
		t.Fatalf("missing = %v", got)
	}
	writeFile(t, filepath.Join(dir, "low_glb.7z"), "x")
	if got := completion.ArchiveLabel(dir, "low_glb"); got != completion.Complete {
		t.Fatalf("base archive = %v", got)
	}

	other := t.TempDir()
	writeFile(t, filepath.Join(other, "full_obj.7z.001"), "x")
	if got := completion.ArchiveLabel(other, "full_obj"); got != completion.Complete {
		t.Fatalf("volume segment = %v", got)
	}
}
