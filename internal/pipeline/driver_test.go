package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"parallax/internal/completion"
	"parallax/internal/config"
	"parallax/internal/pipeline"
	"parallax/internal/services"
	"parallax/internal/services/engine"
	"parallax/internal/testsupport"
	"parallax/internal/workspace"
)

// frameWriter fakes ffmpeg by materializing numbered frames.
type frameWriter struct {
	frames int
	calls  int
}

func (f *frameWriter) ExtractFrames(_ context.Context, _, outputTemplate string) error {
	f.calls++
	for i := 1; i <= f.frames; i++ {
		if err := os.WriteFile(fmt.Sprintf(outputTemplate, i), []byte("jpeg"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// fakeTagger flips its panorama flag once a batch lands.
type fakeTagger struct {
	tagged  bool
	batches int
}

func (f *fakeTagger) ProbePanorama(_ context.Context, _ string) (bool, error) {
	return f.tagged, nil
}

func (f *fakeTagger) TagBatch(_ context.Context, _ []string) error {
	f.batches++
	f.tagged = true
	return nil
}

// fakeCompressor records archives and creates the archive file.
type fakeCompressor struct {
	calls []string
}

func (f *fakeCompressor) Compress(_ context.Context, archivePath string, _ []string) error {
	f.calls = append(f.calls, archivePath)
	return os.WriteFile(archivePath, []byte("7z"), 0o644)
}

type fixture struct {
	cfg        *config.Config
	driver     *pipeline.Driver
	eng        *testsupport.Engine
	extractor  *frameWriter
	tagger     *fakeTagger
	compressor *fakeCompressor
	videosDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Partitioning.Count = 2

	eng := testsupport.NewEngine()
	extractor := &frameWriter{frames: 6}
	tagger := &fakeTagger{}
	compressor := &fakeCompressor{}

	driver, err := pipeline.New(cfg, nil,
		pipeline.WithExtractor(extractor),
		pipeline.WithTagger(tagger),
		pipeline.WithCompressor(compressor),
		pipeline.WithEngineFactory(func(_ *workspace.Workspace) (engine.Session, error) {
			return eng, nil
		}),
	)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	videosDir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(videosDir, "clip1.mp4"), "video")

	return &fixture{
		cfg:        cfg,
		driver:     driver,
		eng:        eng,
		extractor:  extractor,
		tagger:     tagger,
		compressor: compressor,
		videosDir:  videosDir,
	}
}

func (f *fixture) run(t *testing.T) error {
	t.Helper()
	return f.driver.Run(context.Background(), pipeline.RunOptions{
		Project:   "tour",
		VideosDir: f.videosDir,
	})
}

func TestDriverRunsFullPipeline(t *testing.T) {
	f := newFixture(t)
	if err := f.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if f.extractor.calls != 1 {
		t.Fatalf("expected one extraction, got %d", f.extractor.calls)
	}
	if f.tagger.batches == 0 {
		t.Fatal("expected frames tagged")
	}

	// 6 cameras over 2 partitions, depth/model/texture per partition.
	for _, prefix := range []string{"build-depth", "build-model", "build-texture"} {
		if calls := f.eng.CallsWithPrefix(prefix); len(calls) != 2 {
			t.Fatalf("%s: expected 2 calls, got %v", prefix, calls)
		}
	}

	ws, err := workspace.New(f.cfg.Paths.BaseDir, "tour")
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	for _, tier := range f.cfg.Export.Tiers {
		path := ws.ExportPath(tier.Label, f.cfg.Engine.ExportFormat)
		if completion.Export(path) != completion.Complete {
			t.Fatalf("expected export for tier %s at %s", tier.Label, path)
		}
	}
}

func TestDriverSecondRunSkipsEverything(t *testing.T) {
	f := newFixture(t)
	if err := f.run(t); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstCalls := len(f.eng.Calls())
	firstExtractions := f.extractor.calls

	if err := f.run(t); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if f.extractor.calls != firstExtractions {
		t.Fatalf("expected extraction skipped on resume, got %d calls", f.extractor.calls)
	}
	// Only the document open touches the engine on a fully complete project.
	newCalls := f.eng.Calls()[firstCalls:]
	if len(newCalls) != 1 || newCalls[0] != "ensure-document" {
		t.Fatalf("expected only ensure-document on resume, got %v", newCalls)
	}
}

func TestDriverTierFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.eng.FailOn = "export Merged_medium"

	err := f.run(t)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected export failure surfaced, got %v", err)
	}

	ws, werr := workspace.New(f.cfg.Paths.BaseDir, "tour")
	if werr != nil {
		t.Fatalf("workspace.New: %v", werr)
	}
	format := f.cfg.Engine.ExportFormat
	if completion.Export(ws.ExportPath("full", format)) != completion.Complete {
		t.Fatal("expected full tier exported despite medium failure")
	}
	if completion.Export(ws.ExportPath("low", format)) != completion.Complete {
		t.Fatal("expected low tier exported despite medium failure")
	}
	if completion.Export(ws.ExportPath("medium", format)) == completion.Complete {
		t.Fatal("expected medium tier missing after failure")
	}
}

func TestDriverHaltsMainChainOnAlignmentFailure(t *testing.T) {
	f := newFixture(t)
	f.eng.FailOn = "align-cameras"

	err := f.run(t)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected alignment failure, got %v", err)
	}
	if calls := f.eng.CallsWithPrefix("copy"); len(calls) != 0 {
		t.Fatalf("expected no partitioning after failed alignment, got %v", calls)
	}
}

func TestDriverExcludesConcurrentRuns(t *testing.T) {
	f := newFixture(t)
	ws, err := workspace.New(f.cfg.Paths.BaseDir, "tour")
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	if err := ws.Ensure(); err != nil {
		t.Fatalf("ws.Ensure: %v", err)
	}

	lock := flock.New(ws.LockPath())
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquiring lock: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	if err := f.run(t); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

func TestDriverArchiveSkipsExistingLabels(t *testing.T) {
	f := newFixture(t)
	if err := f.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ctx := context.Background()
	if err := f.driver.Archive(ctx, "tour"); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	firstCalls := len(f.compressor.calls)
	if firstCalls == 0 {
		t.Fatal("expected archives created")
	}

	if err := f.driver.Archive(ctx, "tour"); err != nil {
		t.Fatalf("second Archive: %v", err)
	}
	if len(f.compressor.calls) != firstCalls {
		t.Fatalf("expected no re-archiving, got %v", f.compressor.calls)
	}
}

func TestDriverStatusReportsArtifacts(t *testing.T) {
	f := newFixture(t)
	if err := f.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := f.driver.Status(context.Background(), "tour")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(report.Partitions) != f.cfg.Partitioning.Count {
		t.Fatalf("expected %d partitions in report, got %d", f.cfg.Partitioning.Count, len(report.Partitions))
	}
	for _, tier := range report.Tiers {
		if tier.State != completion.Complete {
			t.Fatalf("expected tier %s complete, got %v", tier.Label, tier.State)
		}
	}
}

func TestDriverStatusUnknownProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.driver.Status(context.Background(), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
