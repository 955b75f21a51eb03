package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"parallax/internal/fileutil"
)

// Workspace describes the on-disk layout of a single project. All stage
// artifacts live beneath Root; the layout is created on first run and never
// deleted by the pipeline.
type Workspace struct {
	Project string
	Root    string
}

// New builds the workspace for a project under the configured base directory.
func New(baseDir, project string) (*Workspace, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, errors.New("project name required")
	}
	if strings.ContainsAny(project, `/\`) {
		return nil, fmt.Errorf("project name %q must not contain path separators", project)
	}
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("base directory required")
	}
	return &Workspace{Project: project, Root: filepath.Join(baseDir, project)}, nil
}

// FramesDir holds the extracted frame images, one subdirectory-free pool
// named <videoBase>_NNNN.jpg.
func (w *Workspace) FramesDir() string { return filepath.Join(w.Root, "frames") }

// DocumentPath is the reconstruction engine's own persisted document.
func (w *Workspace) DocumentPath() string {
	return filepath.Join(w.Root, w.Project+".psx")
}

// SessionDBPath is the pipeline's checkpoint database.
func (w *Workspace) SessionDBPath() string { return filepath.Join(w.Root, "session.db") }

// ExportsDir holds exported models.
func (w *Workspace) ExportsDir() string { return filepath.Join(w.Root, "exports") }

// GLBDir holds binary GLB exports, one per quality tier.
func (w *Workspace) GLBDir() string { return filepath.Join(w.ExportsDir(), "glb_exports") }

// ArchiveDir holds compressed archives of exported artifacts.
func (w *Workspace) ArchiveDir() string { return filepath.Join(w.Root, "archive") }

// LockPath is the per-project run lock file.
func (w *Workspace) LockPath() string { return filepath.Join(w.Root, "parallax.lock") }

// ExportPath returns the output path for a quality tier in the given format.
// GLB exports live under GLBDir; OBJ exports sit directly in ExportsDir with
// their companion material file alongside.
func (w *Workspace) ExportPath(tierLabel, format string) string {
	name := w.Project + "_" + tierLabel
	switch strings.ToLower(format) {
	case "obj":
		return filepath.Join(w.ExportsDir(), name+".obj")
	default:
		return filepath.Join(w.GLBDir(), name+".glb")
	}
}

// MaterialPath returns the companion MTL path for an OBJ export.
func (w *Workspace) MaterialPath(tierLabel string) string {
	return filepath.Join(w.ExportsDir(), w.Project+"_"+tierLabel+".mtl")
}

// FramePattern returns the glob matching extracted frames for a video base name.
func (w *Workspace) FramePattern(videoBase string) string {
	return filepath.Join(w.FramesDir(), videoBase+"_*.jpg")
}

// FrameTemplate returns the ffmpeg output template for a video base name.
func (w *Workspace) FrameTemplate(videoBase string) string {
	return filepath.Join(w.FramesDir(), videoBase+"_%04d.jpg")
}

// Ensure creates every directory the pipeline writes to.
func (w *Workspace) Ensure() error {
	for _, dir := range []string{w.Root, w.FramesDir(), w.ExportsDir(), w.GLBDir(), w.ArchiveDir()} {
		if err := fileutil.EnsureDir(dir); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
