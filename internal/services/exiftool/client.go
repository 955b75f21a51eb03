package exiftool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parallax/internal/services/runner"
)

// Tagger defines the behaviour required by the metadata tagging handler.
type Tagger interface {
	ProbePanorama(ctx context.Context, path string) (bool, error)
	TagBatch(ctx context.Context, files []string) error
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

// Client wraps exiftool panoramic metadata operations.
type Client struct {
	binary     string
	projection string
	exec       runner.Executor
}

// New constructs an exiftool client writing the given projection type.
func New(binary, projection string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	projection = strings.TrimSpace(projection)
	if projection == "" {
		return nil, errors.New("projection type required")
	}
	client := &Client{
		binary:     binary,
		projection: projection,
		exec:       runner.Command{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ProbePanorama reads the panorama-viewer flag from a single representative
// file. The result stands in for the whole batch.
func (c *Client) ProbePanorama(ctx context.Context, path string) (bool, error) {
	out, err := runner.Output(ctx, c.exec, c.binary, []string{"-s3", "-UsePanoramaViewer", path})
	if err != nil {
		return false, fmt.Errorf("exiftool probe %s: %w", path, err)
	}
	return strings.TrimSpace(out) == "True", nil
}

// TagBatch sets the projection type and panorama-viewer flag in place on the
// given files. The caller bounds the batch size.
func (c *Client) TagBatch(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	args := []string{
		"-overwrite_original",
		"-ProjectionType=" + c.projection,
		"-UsePanoramaViewer=True",
	}
	args = append(args, files...)
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return fmt.Errorf("exiftool tag batch of %d: %w", len(files), err)
	}
	return nil
}
