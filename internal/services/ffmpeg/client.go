package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"parallax/internal/services/runner"
)

// Extractor defines the behaviour required by the frame extraction handler.
type Extractor interface {
	ExtractFrames(ctx context.Context, videoPath, outputTemplate string) error
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

// Client wraps ffmpeg frame extraction.
type Client struct {
	binary    string
	frameRate float64
	quality   int
	exec      runner.Executor
}

// New constructs an ffmpeg client. frameRate is the output sampling rate in
// frames per second; quality is the constant quality factor (-qscale:v).
func New(binary string, frameRate float64, quality int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if frameRate <= 0 {
		return nil, errors.New("frame rate must be positive")
	}
	client := &Client{
		binary:    binary,
		frameRate: frameRate,
		quality:   quality,
		exec:      runner.Command{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ExtractFrames decodes videoPath into sequentially numbered images matching
// outputTemplate (e.g. frames/clip1_%04d.jpg).
func (c *Client) ExtractFrames(ctx context.Context, videoPath, outputTemplate string) error {
	if strings.TrimSpace(videoPath) == "" {
		return errors.New("video path required")
	}
	if strings.TrimSpace(outputTemplate) == "" {
		return errors.New("output template required")
	}

	args := []string{
		"-hide_banner",
		"-y",
		"-i", videoPath,
		"-qscale:v", strconv.Itoa(c.quality),
		"-vf", fmt.Sprintf("fps=%s", formatRate(c.frameRate)),
		outputTemplate,
	}
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return fmt.Errorf("ffmpeg extract %s: %w", videoPath, err)
	}
	return nil
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
