package sevenzip_test

import (
	"context"
	"testing"

	"parallax/internal/services/sevenzip"
)

type fakeExecutor struct {
	calls [][]string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	f.calls = append(f.calls, args)
	return nil
}

func TestCompressArgs(t *testing.T) {
	fake := &fakeExecutor{}
	client, err := sevenzip.New("7z", 9, "5g", sevenzip.WithExecutor(fake))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := client.Compress(context.Background(), "/archive/low_glb.7z", []string{"/exports/demo_low.glb"}); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	want := []string{"a", "-mx=9", "-v5g", "/archive/low_glb.7z", "/exports/demo_low.glb"}
	if len(fake.calls) != 1 || len(fake.calls[0]) != len(want) {
		t.Fatalf("calls = %v", fake.calls)
	}
	for i, arg := range want {
		if fake.calls[0][i] != arg {
			t.Fatalf("args[%d] = %q, want %q", i, fake.calls[0][i], arg)
		}
	}
}

func TestCompressWithoutVolumeCap(t *testing.T) {
	fake := &fakeExecutor{}
	client, err := sevenzip.New("7z", 5, "", sevenzip.WithExecutor(fake))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Compress(context.Background(), "x.7z", []string{"a"}); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	for _, arg := range fake.calls[0] {
		if len(arg) > 1 && arg[:2] == "-v" {
			t.Fatalf("unexpected volume flag in %v", fake.calls[0])
		}
	}
}

func TestCompressValidation(t *testing.T) {
	client, err := sevenzip.New("7z", 9, "5g", sevenzip.WithExecutor(&fakeExecutor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Compress(context.Background(), "", []string{"a"}); err == nil {
		t.Fatal("expected error for empty archive path")
	}
	if err := client.Compress(context.Background(), "x.7z", nil); err == nil {
		t.Fatal("expected error for empty inputs")
	}
	if _, err := sevenzip.New("7z", 12, "5g"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
