package config

import (
	"errors"
	"fmt"
	"strings"
)

var depthFilters = map[string]struct{}{
	"none":       {},
	"mild":       {},
	"moderate":   {},
	"aggressive": {},
}

var meshFaceCounts = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

var blendModes = map[string]struct{}{
	"mosaic":  {},
	"average": {},
	"max":     {},
	"min":     {},
}

var exportFormats = map[string]struct{}{
	"glb": {},
	"obj": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateTagging(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.FrameRate <= 0 {
		return errors.New("extraction.frame_rate must be positive")
	}
	if c.Extraction.Quality < 1 || c.Extraction.Quality > 31 {
		return errors.New("extraction.quality must be between 1 and 31")
	}
	if len(c.Extraction.VideoExtensions) == 0 {
		return errors.New("extraction.video_extensions must not be empty")
	}
	return nil
}

func (c *Config) validateTagging() error {
	if c.Tagging.BatchSize < 1 {
		return errors.New("tagging.batch_size must be at least 1")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if _, ok := depthFilters[c.Engine.DepthFilter]; !ok {
		return fmt.Errorf("engine.depth_filter: unsupported value %q", c.Engine.DepthFilter)
	}
	if _, ok := meshFaceCounts[c.Engine.MeshFaceCount]; !ok {
		return fmt.Errorf("engine.mesh_face_count: unsupported value %q", c.Engine.MeshFaceCount)
	}
	if _, ok := blendModes[c.Engine.BlendMode]; !ok {
		return fmt.Errorf("engine.blend_mode: unsupported value %q", c.Engine.BlendMode)
	}
	if _, ok := exportFormats[c.Engine.ExportFormat]; !ok {
		return fmt.Errorf("engine.export_format: unsupported value %q", c.Engine.ExportFormat)
	}
	if c.Engine.CompressionLevel < 0 || c.Engine.CompressionLevel > 10 {
		return errors.New("engine.compression_level must be between 0 and 10")
	}
	if c.Partitioning.Count < 1 {
		return errors.New("partitioning.count must be at least 1")
	}
	return nil
}

func (c *Config) validateExport() error {
	seen := make(map[string]struct{}, len(c.Export.Tiers))
	for _, tier := range c.Export.Tiers {
		label := strings.TrimSpace(tier.Label)
		if label == "" {
			return errors.New("export.tiers: tier label must not be empty")
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("export.tiers: duplicate tier label %q", label)
		}
		seen[label] = struct{}{}
		if tier.Ratio < 0 || tier.Ratio > 1 {
			return fmt.Errorf("export.tiers: tier %q ratio must be in (0,1] or omitted", label)
		}
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.Level < 0 || c.Archive.Level > 9 {
		return errors.New("archive.level must be between 0 and 9")
	}
	return nil
}
