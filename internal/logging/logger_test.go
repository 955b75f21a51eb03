package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parallax/internal/config"
	"parallax/internal/logging"
	"parallax/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("pipeline start", logging.String("project", "demo"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "parallax.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "pipeline start") {
		t.Fatalf("log file missing entry: %s", data)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithProject(context.Background(), "demo")
	ctx = services.WithStage(ctx, "align")

	fields := logging.ContextFields(ctx)
	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		keys[f.Key] = true
	}
	if !keys[logging.FieldProject] || !keys[logging.FieldStage] {
		t.Fatalf("missing context fields: %v", keys)
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logger := logging.WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	logger.Info("should not panic")
}
