package sevenzip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parallax/internal/services/runner"
)

// Compressor defines the behaviour required by the archive stage.
type Compressor interface {
	Compress(ctx context.Context, archivePath string, inputs []string) error
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

// Client wraps 7z archive creation. Archives above the volume size are
// split into numbered segments (archive.7z.001, .002, ...).
type Client struct {
	binary     string
	level      int
	volumeSize string
	exec       runner.Executor
}

// New constructs a 7z client with the given compression level and volume cap.
func New(binary string, level int, volumeSize string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "7z"
	}
	if level < 0 || level > 9 {
		return nil, errors.New("compression level must be between 0 and 9")
	}
	client := &Client{
		binary:     binary,
		level:      level,
		volumeSize: strings.TrimSpace(volumeSize),
		exec:       runner.Command{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Compress creates archivePath from the input paths.
func (c *Client) Compress(ctx context.Context, archivePath string, inputs []string) error {
	if strings.TrimSpace(archivePath) == "" {
		return errors.New("archive path required")
	}
	if len(inputs) == 0 {
		return errors.New("at least one input path required")
	}

	args := []string{"a", fmt.Sprintf("-mx=%d", c.level)}
	if c.volumeSize != "" {
		args = append(args, "-v"+c.volumeSize)
	}
	args = append(args, archivePath)
	args = append(args, inputs...)

	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return fmt.Errorf("7z compress %s: %w", archivePath, err)
	}
	return nil
}
