package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"parallax/internal/services/runner"
)

// MatchOptions parameterize feature matching.
type MatchOptions struct {
	Downscale     int
	KeypointLimit int
	TiepointLimit int
}

// DepthOptions parameterize depth map generation.
type DepthOptions struct {
	Downscale int
	Filter    string
	Reuse     bool
}

// ModelOptions parameterize surface reconstruction from depth data.
type ModelOptions struct {
	FaceCount string
}

// TextureOptions parameterize UV mapping and texture blending.
type TextureOptions struct {
	Size  int
	Blend string
}

// ExportOptions parameterize model export.
type ExportOptions struct {
	Path        string
	Format      string
	Compression int
}

// ChunkStats reports the engine's view of one chunk.
type ChunkStats struct {
	Cameras  int
	Aligned  int
	Faces    int
	Textures int
}

// Progress receives percentage updates from long-running engine operations.
type Progress func(percent float64)

// Session defines the engine operations the stage handlers consume.
type Session interface {
	EnsureDocument(ctx context.Context) error
	AddPhotos(ctx context.Context, chunk string, images []string, progress Progress) (int, error)
	ConfigureSphericalSensor(ctx context.Context, chunk string) error
	MatchPhotos(ctx context.Context, chunk string, opts MatchOptions, progress Progress) error
	AlignCameras(ctx context.Context, chunk string, progress Progress) (int, error)
	CopyChunk(ctx context.Context, source, target string, start, end int) error
	BuildDepthMaps(ctx context.Context, chunk string, opts DepthOptions, progress Progress) error
	BuildModel(ctx context.Context, chunk string, opts ModelOptions, progress Progress) (int, error)
	BuildTexture(ctx context.Context, chunk string, opts TextureOptions, progress Progress) (int, error)
	MergeChunks(ctx context.Context, sources []string, target string) error
	DecimateModel(ctx context.Context, chunk string, targetFaces int, progress Progress) error
	ExportModel(ctx context.Context, chunk string, opts ExportOptions, progress Progress) error
	RemoveChunk(ctx context.Context, chunk string) error
	Stats(ctx context.Context, chunk string) (ChunkStats, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec runner.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client drives the reconstruction engine's headless CLI. Every operation
// runs against the engine document named at construction; the engine
// persists its own state in that document after each operation.
type Client struct {
	binary   string
	document string
	exec     runner.Executor
}

// New constructs an engine client bound to a document path.
func New(binary, documentPath string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("engine binary required")
	}
	if strings.TrimSpace(documentPath) == "" {
		return nil, errors.New("engine document path required")
	}
	client := &Client{
		binary:   binary,
		document: documentPath,
		exec:     runner.Command{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// EnsureDocument creates the engine document if missing, otherwise opens it.
func (c *Client) EnsureDocument(ctx context.Context) error {
	_, err := c.run(ctx, "ensure-document", nil, nil)
	return err
}

// AddPhotos loads images into a chunk and returns the camera count.
func (c *Client) AddPhotos(ctx context.Context, chunk string, images []string, progress Progress) (int, error) {
	args := []string{"--chunk", chunk}
	args = append(args, images...)
	results, err := c.run(ctx, "add-photos", args, progress)
	if err != nil {
		return 0, err
	}
	return resultInt(results, "cameras")
}

// ConfigureSphericalSensor sets the chunk's sensor to spherical projection
// and leaves it unfixed for calibration.
func (c *Client) ConfigureSphericalSensor(ctx context.Context, chunk string) error {
	_, err := c.run(ctx, "set-sensor", []string{
		"--chunk", chunk,
		"--type", "spherical",
		"--fixed=false",
	}, nil)
	return err
}

// MatchPhotos runs feature matching on the chunk.
func (c *Client) MatchPhotos(ctx context.Context, chunk string, opts MatchOptions, progress Progress) error {
	_, err := c.run(ctx, "match", []string{
		"--chunk", chunk,
		"--downscale", strconv.Itoa(opts.Downscale),
		"--keypoint-limit", strconv.Itoa(opts.KeypointLimit),
		"--tiepoint-limit", strconv.Itoa(opts.TiepointLimit),
	}, progress)
	return err
}

// AlignCameras aligns the chunk's cameras and returns how many received
// transforms.
func (c *Client) AlignCameras(ctx context.Context, chunk string, progress Progress) (int, error) {
	results, err := c.run(ctx, "align", []string{"--chunk", chunk}, progress)
	if err != nil {
		return 0, err
	}
	return resultInt(results, "aligned")
}

// CopyChunk deep-copies source into target, preserving alignment and tie
// points, then restricts the copy's working camera set to [start, end).
func (c *Client) CopyChunk(ctx context.Context, source, target string, start, end int) error {
	_, err := c.run(ctx, "copy-chunk", []string{
		"--source", source,
		"--target", target,
		"--cameras", fmt.Sprintf("%d:%d", start, end),
	}, nil)
	return err
}

// BuildDepthMaps generates depth maps for the chunk.
func (c *Client) BuildDepthMaps(ctx context.Context, chunk string, opts DepthOptions, progress Progress) error {
	args := []string{
		"--chunk", chunk,
		"--downscale", strconv.Itoa(opts.Downscale),
		"--filter", opts.Filter,
	}
	if opts.Reuse {
		args = append(args, "--reuse")
	}
	_, err := c.run(ctx, "depth", args, progress)
	return err
}

// BuildModel builds a surface model from depth data and returns its face count.
func (c *Client) BuildModel(ctx context.Context, chunk string, opts ModelOptions, progress Progress) (int, error) {
	results, err := c.run(ctx, "model", []string{
		"--chunk", chunk,
		"--source", "depth",
		"--face-count", opts.FaceCount,
	}, progress)
	if err != nil {
		return 0, err
	}
	return resultInt(results, "faces")
}

// BuildTexture builds UV mapping and texture for the chunk's model and
// returns the resulting texture count.
func (c *Client) BuildTexture(ctx context.Context, chunk string, opts TextureOptions, progress Progress) (int, error) {
	results, err := c.run(ctx, "texture", []string{
		"--chunk", chunk,
		"--size", strconv.Itoa(opts.Size),
		"--blend", opts.Blend,
	}, progress)
	if err != nil {
		return 0, err
	}
	return resultInt(results, "textures")
}

// MergeChunks merges the sources' geometry and textures into a new chunk.
// Markers are excluded from the merge.
func (c *Client) MergeChunks(ctx context.Context, sources []string, target string) error {
	if len(sources) == 0 {
		return errors.New("merge requires at least one source chunk")
	}
	_, err := c.run(ctx, "merge", []string{
		"--chunks", strings.Join(sources, ","),
		"--target", target,
		"--merge-markers=false",
	}, nil)
	return err
}

// DecimateModel reduces the chunk's model to the target face count.
func (c *Client) DecimateModel(ctx context.Context, chunk string, targetFaces int, progress Progress) error {
	_, err := c.run(ctx, "decimate", []string{
		"--chunk", chunk,
		"--faces", strconv.Itoa(targetFaces),
	}, progress)
	return err
}

// ExportModel writes the chunk's model in the requested interchange format
// with textures, UVs, and normals embedded.
func (c *Client) ExportModel(ctx context.Context, chunk string, opts ExportOptions, progress Progress) error {
	if strings.TrimSpace(opts.Path) == "" {
		return errors.New("export path required")
	}
	_, err := c.run(ctx, "export", []string{
		"--chunk", chunk,
		"--path", opts.Path,
		"--format", opts.Format,
		"--save-texture",
		"--save-uv",
		"--save-normals",
		"--compression", strconv.Itoa(opts.Compression),
	}, progress)
	return err
}

// RemoveChunk deletes a chunk from the document.
func (c *Client) RemoveChunk(ctx context.Context, chunk string) error {
	_, err := c.run(ctx, "remove-chunk", []string{"--chunk", chunk}, nil)
	return err
}

// Stats reads the engine's counters for a chunk.
func (c *Client) Stats(ctx context.Context, chunk string) (ChunkStats, error) {
	results, err := c.run(ctx, "stats", []string{"--chunk", chunk}, nil)
	if err != nil {
		return ChunkStats{}, err
	}
	stats := ChunkStats{}
	if stats.Cameras, err = resultInt(results, "cameras"); err != nil {
		return ChunkStats{}, err
	}
	if stats.Aligned, err = resultInt(results, "aligned"); err != nil {
		return ChunkStats{}, err
	}
	stats.Faces, _ = resultInt(results, "faces")
	stats.Textures, _ = resultInt(results, "textures")
	return stats, nil
}

func (c *Client) run(ctx context.Context, op string, args []string, progress Progress) (map[string]string, error) {
	full := append([]string{op, "--document", c.document}, args...)
	results := make(map[string]string)

	err := c.exec.Run(ctx, c.binary, full, func(line string) {
		if percent, ok := parseProgress(line); ok {
			if progress != nil {
				progress(percent)
			}
			return
		}
		if key, value, ok := parseResult(line); ok {
			results[key] = value
		}
	})
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", op, err)
	}
	return results, nil
}

func resultInt(results map[string]string, key string) (int, error) {
	raw, ok := results[key]
	if !ok {
		return 0, fmt.Errorf("engine output missing %q", key)
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("engine output %s=%q: %w", key, raw, err)
	}
	return value, nil
}
