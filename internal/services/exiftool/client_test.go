package exiftool_test

import (
	"context"
	"errors"
	"testing"

	"parallax/internal/services/exiftool"
)

type fakeExecutor struct {
	calls  [][]string
	stdout []string
	err    error
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return f.err
	}
	if onLine != nil {
		for _, line := range f.stdout {
			onLine(line)
		}
	}
	return nil
}

func newClient(t *testing.T, fake *fakeExecutor) *exiftool.Client {
	t.Helper()
	client, err := exiftool.New("exiftool", "equirectangular", exiftool.WithExecutor(fake))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestProbePanoramaTrue(t *testing.T) {
	fake := &fakeExecutor{stdout: []string{"True"}}
	client := newClient(t, fake)

	tagged, err := client.ProbePanorama(context.Background(), "frame.jpg")
	if err != nil {
		t.Fatalf("ProbePanorama: %v", err)
	}
	if !tagged {
		t.Fatal("expected tagged=true")
	}
	args := fake.calls[0]
	if args[0] != "-s3" || args[1] != "-UsePanoramaViewer" || args[2] != "frame.jpg" {
		t.Fatalf("probe args = %v", args)
	}
}

func TestProbePanoramaAbsent(t *testing.T) {
	fake := &fakeExecutor{stdout: []string{""}}
	client := newClient(t, fake)

	tagged, err := client.ProbePanorama(context.Background(), "frame.jpg")
	if err != nil {
		t.Fatalf("ProbePanorama: %v", err)
	}
	if tagged {
		t.Fatal("expected tagged=false")
	}
}

func TestProbePanoramaError(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("cannot read")}
	client := newClient(t, fake)

	if _, err := client.ProbePanorama(context.Background(), "frame.jpg"); err == nil {
		t.Fatal("expected probe error")
	}
}

func TestTagBatchArgs(t *testing.T) {
	fake := &fakeExecutor{}
	client := newClient(t, fake)

	files := []string{"a.jpg", "b.jpg"}
	if err := client.TagBatch(context.Background(), files); err != nil {
		t.Fatalf("TagBatch: %v", err)
	}
	args := fake.calls[0]
	want := []string{"-overwrite_original", "-ProjectionType=equirectangular", "-UsePanoramaViewer=True", "a.jpg", "b.jpg"}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestTagBatchEmptyNoExec(t *testing.T) {
	fake := &fakeExecutor{}
	client := newClient(t, fake)

	if err := client.TagBatch(context.Background(), nil); err != nil {
		t.Fatalf("TagBatch: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatal("empty batch must not invoke exiftool")
	}
}
