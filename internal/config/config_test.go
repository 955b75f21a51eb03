package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parallax/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Extraction.FrameRate != 2.0 {
		t.Fatalf("frame rate = %v, want 2.0", cfg.Extraction.FrameRate)
	}
	if cfg.Partitioning.Count != 8 {
		t.Fatalf("partition count = %d, want 8", cfg.Partitioning.Count)
	}
	if len(cfg.Export.Tiers) != 3 {
		t.Fatalf("tiers = %d, want 3", len(cfg.Export.Tiers))
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Engine.Binary != "metashape" {
		t.Fatalf("engine binary = %q", cfg.Engine.Binary)
	}
	if cfg.Tagging.BatchSize != 200 {
		t.Fatalf("batch size = %d", cfg.Tagging.BatchSize)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parallax.toml")
	content := `
[paths]
base_dir = "` + filepath.Join(dir, "projects") + `"

[extraction]
frame_rate = 4.0
video_extensions = ["MP4", ".insv"]

[engine]
depth_filter = "Aggressive"
export_format = "OBJ"

[[export.tiers]]
label = "full"

[[export.tiers]]
label = "preview"
ratio = 0.05
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Extraction.FrameRate != 4.0 {
		t.Fatalf("frame rate = %v", cfg.Extraction.FrameRate)
	}
	wantExts := []string{".mp4", ".insv"}
	if len(cfg.Extraction.VideoExtensions) != len(wantExts) {
		t.Fatalf("extensions = %v", cfg.Extraction.VideoExtensions)
	}
	for i, ext := range wantExts {
		if cfg.Extraction.VideoExtensions[i] != ext {
			t.Fatalf("extensions = %v, want %v", cfg.Extraction.VideoExtensions, wantExts)
		}
	}
	if cfg.Engine.DepthFilter != "aggressive" {
		t.Fatalf("depth filter = %q", cfg.Engine.DepthFilter)
	}
	if cfg.Engine.ExportFormat != "obj" {
		t.Fatalf("export format = %q", cfg.Engine.ExportFormat)
	}
	if len(cfg.Export.Tiers) != 2 || cfg.Export.Tiers[1].Ratio != 0.05 {
		t.Fatalf("tiers = %#v", cfg.Export.Tiers)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero frame rate", func(c *config.Config) { c.Extraction.FrameRate = -1 }, "frame_rate"},
		{"bad filter", func(c *config.Config) { c.Engine.DepthFilter = "fuzzy" }, "depth_filter"},
		{"bad format", func(c *config.Config) { c.Engine.ExportFormat = "fbx" }, "export_format"},
		{"zero partitions", func(c *config.Config) { c.Partitioning.Count = 0 }, "partitioning.count"},
		{"duplicate tier", func(c *config.Config) {
			c.Export.Tiers = []config.Tier{{Label: "full"}, {Label: "full"}}
		}, "duplicate"},
		{"ratio out of range", func(c *config.Config) {
			c.Export.Tiers = []config.Tier{{Label: "half", Ratio: 1.5}}
		}, "ratio"},
		{"empty tier label", func(c *config.Config) {
			c.Export.Tiers = []config.Tier{{Label: "  "}}
		}, "label"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q missing %q", err.Error(), tc.want)
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := config.ExpandPath("~/photogrammetry")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "photogrammetry") {
		t.Fatalf("expanded = %q", got)
	}
}
