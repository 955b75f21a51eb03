// Package testsupport provides helpers shared by package tests: temp-dir
// configs, session stores, workspaces, and stub collaborator binaries.
package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"parallax/internal/config"
	"parallax/internal/session"
	"parallax/internal/workspace"
)

// NewConfig returns a validated default configuration rooted in a temp
// directory so tests never touch the real filesystem layout.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.BaseDir = filepath.Join(base, "projects")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	return &cfg
}

// NewWorkspace creates and materializes a project workspace under the
// config's base directory.
func NewWorkspace(t *testing.T, cfg *config.Config, project string) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(cfg.Paths.BaseDir, project)
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	if err := ws.Ensure(); err != nil {
		t.Fatalf("workspace.Ensure: %v", err)
	}
	return ws
}

// OpenSessionStore opens a throwaway session store and closes it on cleanup.
func OpenSessionStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// WriteFile creates a file (and parent directories) with the given content.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// WriteStubBinary writes an executable shell script into dir and returns its
// path. The script prints the given output and exits zero.
func WriteStubBinary(t *testing.T, dir, name, output string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\nprintf '%s\\n' " + shellQuote(output) + "\n"
	if output == "" {
		script = "#!/bin/sh\nexit 0\n"
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteStubBinary: %v", err)
	}
	return path
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
