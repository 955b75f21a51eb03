package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"parallax/internal/services/engine"
)

// Engine is an in-memory engine.Session. It records every operation as a
// human-readable call string and tracks chunk state so stage handlers can be
// tested without the real reconstruction binary.
type Engine struct {
	mu     sync.Mutex
	calls  []string
	chunks map[string]engine.ChunkStats

	// FailOn makes any call whose record starts with the given prefix
	// return an error.
	FailOn string

	// Per-operation results. Zero values fall back to sensible defaults.
	AlignedCameras int
	ModelFaces     int
	TextureCount   int
}

// NewEngine returns a fake engine with no chunks.
func NewEngine() *Engine {
	return &Engine{chunks: make(map[string]engine.ChunkStats)}
}

// Calls returns a copy of the recorded call strings in order.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// CallsWithPrefix returns the recorded calls starting with prefix.
func (e *Engine) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range e.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// SetChunk seeds chunk state directly.
func (e *Engine) SetChunk(label string, stats engine.ChunkStats) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks[label] = stats
}

// HasChunk reports whether the chunk currently exists.
func (e *Engine) HasChunk(label string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.chunks[label]
	return ok
}

func (e *Engine) record(call string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	if e.FailOn != "" && strings.HasPrefix(call, e.FailOn) {
		return errors.New("scripted failure: " + call)
	}
	return nil
}

func (e *Engine) EnsureDocument(_ context.Context) error {
	return e.record("ensure-document")
}

func (e *Engine) AddPhotos(_ context.Context, chunk string, images []string, _ engine.Progress) (int, error) {
	if err := e.record(fmt.Sprintf("add-photos %s %d", chunk, len(images))); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.chunks[chunk]
	stats.Cameras += len(images)
	e.chunks[chunk] = stats
	return len(images), nil
}

func (e *Engine) ConfigureSphericalSensor(_ context.Context, chunk string) error {
	return e.record("configure-sensor " + chunk)
}

func (e *Engine) MatchPhotos(_ context.Context, chunk string, _ engine.MatchOptions, _ engine.Progress) error {
	return e.record("match-photos " + chunk)
}

func (e *Engine) AlignCameras(_ context.Context, chunk string, _ engine.Progress) (int, error) {
	if err := e.record("align-cameras " + chunk); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.chunks[chunk]
	aligned := e.AlignedCameras
	if aligned == 0 {
		aligned = stats.Cameras
	}
	stats.Aligned = aligned
	e.chunks[chunk] = stats
	return aligned, nil
}

func (e *Engine) CopyChunk(_ context.Context, source, target string, start, end int) error {
	if err := e.record(fmt.Sprintf("copy %s %s %d:%d", source, target, start, end)); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks[target] = engine.ChunkStats{Cameras: end - start, Aligned: end - start}
	return nil
}

func (e *Engine) BuildDepthMaps(_ context.Context, chunk string, _ engine.DepthOptions, _ engine.Progress) error {
	return e.record("build-depth " + chunk)
}

func (e *Engine) BuildModel(_ context.Context, chunk string, _ engine.ModelOptions, _ engine.Progress) (int, error) {
	if err := e.record("build-model " + chunk); err != nil {
		return 0, err
	}
	faces := e.ModelFaces
	if faces == 0 {
		faces = 100000
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.chunks[chunk]
	stats.Faces = faces
	e.chunks[chunk] = stats
	return faces, nil
}

func (e *Engine) BuildTexture(_ context.Context, chunk string, _ engine.TextureOptions, _ engine.Progress) (int, error) {
	if err := e.record("build-texture " + chunk); err != nil {
		return 0, err
	}
	textures := e.TextureCount
	if textures == 0 {
		textures = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.chunks[chunk]
	stats.Textures = textures
	e.chunks[chunk] = stats
	return textures, nil
}

func (e *Engine) MergeChunks(_ context.Context, sources []string, target string) error {
	if err := e.record("merge " + target + " <- " + strings.Join(sources, ",")); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var merged engine.ChunkStats
	for _, src := range sources {
		stats := e.chunks[src]
		merged.Cameras += stats.Cameras
		merged.Aligned += stats.Aligned
		merged.Faces += stats.Faces
		merged.Textures += stats.Textures
	}
	e.chunks[target] = merged
	return nil
}

func (e *Engine) DecimateModel(_ context.Context, chunk string, targetFaces int, _ engine.Progress) error {
	if err := e.record(fmt.Sprintf("decimate %s %d", chunk, targetFaces)); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.chunks[chunk]
	stats.Faces = targetFaces
	e.chunks[chunk] = stats
	return nil
}

// ExportModel records the call and writes a placeholder file at the export
// path so completion probes observe a non-empty artifact.
func (e *Engine) ExportModel(_ context.Context, chunk string, opts engine.ExportOptions, _ engine.Progress) error {
	if err := e.record("export " + chunk + " " + opts.Path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(opts.Path, []byte("model"), 0o644)
}

func (e *Engine) RemoveChunk(_ context.Context, chunk string) error {
	if err := e.record("remove " + chunk); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.chunks, chunk)
	return nil
}

func (e *Engine) Stats(_ context.Context, chunk string) (engine.ChunkStats, error) {
	if err := e.record("stats " + chunk); err != nil {
		return engine.ChunkStats{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	stats, ok := e.chunks[chunk]
	if !ok {
		return engine.ChunkStats{}, fmt.Errorf("chunk %q not found", chunk)
	}
	return stats, nil
}
