package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"parallax/internal/archive"
	"parallax/internal/completion"
	"parallax/internal/services"
	"parallax/internal/stage"
	"parallax/internal/testsupport"
)

// fakeCompressor records compress calls and creates the archive file.
type fakeCompressor struct {
	calls [][]string
	err   error
}

func (f *fakeCompressor) Compress(_ context.Context, archivePath string, inputs []string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, append([]string{archivePath}, inputs...))
	return os.WriteFile(archivePath, []byte("7z"), 0o644)
}

func TestArchiverCompressesTierExports(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	ws := testsupport.NewWorkspace(t, cfg, "tour")
	testsupport.WriteFile(t, ws.ExportPath("low", "glb"), "model")
	client := &fakeCompressor{}

	handler := archive.NewArchiver(ws, cfg.Export.Tiers, client, nil)
	unit := stage.Unit{Kind: stage.KindTier, ID: archive.GLBLabel("low")}

	state, err := handler.Completion(ctx, unit)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if state != completion.Missing {
		t.Fatalf("expected Missing before archiving, got %v", state)
	}

	if err := handler.Execute(ctx, unit); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected one compress call, got %v", client.calls)
	}
	wantArchive := filepath.Join(ws.ArchiveDir(), "low_glb.7z")
	if client.calls[0][0] != wantArchive {
		t.Fatalf("archive path: got %s, want %s", client.calls[0][0], wantArchive)
	}

	state, err = handler.Completion(ctx, unit)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if state != completion.Complete {
		t.Fatalf("expected Complete after archiving, got %v", state)
	}
}

func TestArchiverVolumeSegmentCountsAsComplete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ws := testsupport.NewWorkspace(t, cfg, "tour")
	testsupport.WriteFile(t, filepath.Join(ws.ArchiveDir(), "tour_full_project.7z.001"), "seg")

	handler := archive.NewArchiver(ws, cfg.Export.Tiers, &fakeCompressor{}, nil)
	unit := stage.Unit{Kind: stage.KindProject, ID: archive.FullProjectLabel("tour")}
	state, err := handler.Completion(context.Background(), unit)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if state != completion.Complete {
		t.Fatalf("expected volume segment to mark label complete, got %v", state)
	}
}

func TestArchiverSkipsLabelWithoutSources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ws := testsupport.NewWorkspace(t, cfg, "tour")
	client := &fakeCompressor{}

	handler := archive.NewArchiver(ws, cfg.Export.Tiers, client, nil)
	err := handler.Execute(context.Background(), stage.Unit{Kind: stage.KindTier, ID: archive.ObjLabel("medium")})
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected no compression, got %v", client.calls)
	}
}

func TestArchiverObjLabelIncludesMaterial(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ws := testsupport.NewWorkspace(t, cfg, "tour")
	testsupport.WriteFile(t, ws.ExportPath("full", "obj"), "obj")
	testsupport.WriteFile(t, ws.MaterialPath("full"), "mtl")
	client := &fakeCompressor{}

	handler := archive.NewArchiver(ws, cfg.Export.Tiers, client, nil)
	if err := handler.Execute(context.Background(), stage.Unit{Kind: stage.KindTier, ID: archive.ObjLabel("full")}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(client.calls) != 1 || len(client.calls[0]) != 3 {
		t.Fatalf("expected obj and mtl inputs, got %v", client.calls)
	}
}

func TestLabelsCoverTiersAndProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	labels := archive.Labels("tour", cfg.Export.Tiers)
	// Two labels per tier plus the full-project label.
	if len(labels) != len(cfg.Export.Tiers)*2+1 {
		t.Fatalf("unexpected labels: %v", labels)
	}
	if labels[len(labels)-1] != "tour_full_project" {
		t.Fatalf("expected full-project label last, got %v", labels)
	}
}
