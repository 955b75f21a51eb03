package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// BaseDir is the root under which one directory per project is created.
	BaseDir string `toml:"base_dir"`
	LogDir  string `toml:"log_dir"`
}

// Extraction contains frame-extraction settings.
type Extraction struct {
	FrameRate       float64  `toml:"frame_rate"`
	Quality         int      `toml:"quality"`
	VideoExtensions []string `toml:"video_extensions"`
}

// Tagging contains panoramic metadata injection settings.
type Tagging struct {
	// BatchSize bounds the number of files passed to a single exiftool
	// invocation to respect argv limits.
	BatchSize  int    `toml:"batch_size"`
	Projection string `toml:"projection"`
}

// Engine contains reconstruction engine settings.
type Engine struct {
	Binary           string `toml:"binary"`
	MatchDownscale   int    `toml:"match_downscale"`
	KeypointLimit    int    `toml:"keypoint_limit"`
	TiepointLimit    int    `toml:"tiepoint_limit"`
	DepthDownscale   int    `toml:"depth_downscale"`
	DepthFilter      string `toml:"depth_filter"`
	ReuseDepth       bool   `toml:"reuse_depth"`
	MeshFaceCount    string `toml:"mesh_face_count"`
	TextureSize      int    `toml:"texture_size"`
	BlendMode        string `toml:"blend_mode"`
	ExportFormat     string `toml:"export_format"`
	CompressionLevel int    `toml:"compression_level"`
}

// Partitioning contains dataset partitioning settings.
type Partitioning struct {
	Count int `toml:"count"`
}

// Tier names one export quality variant. A zero Ratio means no decimation.
type Tier struct {
	Label string  `toml:"label"`
	Ratio float64 `toml:"ratio"`
}

// Export contains quality-tier export settings.
type Export struct {
	Tiers []Tier `toml:"tiers"`
}

// Archive contains archive collaborator settings.
type Archive struct {
	Binary     string `toml:"binary"`
	Level      int    `toml:"level"`
	VolumeSize string `toml:"volume_size"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Parallax.
//
// Configuration sections by subsystem:
//   - Paths: project base directory and log directory
//   - Extraction: ffmpeg frame extraction
//   - Tagging: exiftool panoramic metadata injection
//   - Engine: reconstruction engine parameters
//   - Partitioning: dataset split count
//   - Export: quality tiers
//   - Archive: 7z archiver settings
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Extraction   Extraction   `toml:"extraction"`
	Tagging      Tagging      `toml:"tagging"`
	Engine       Engine       `toml:"engine"`
	Partitioning Partitioning `toml:"partitioning"`
	Export       Export       `toml:"export"`
	Archive      Archive      `toml:"archive"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/parallax/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("parallax.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BaseDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
