package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeTagging()
	c.normalizeEngine()
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		c.Paths.BaseDir = defaultBaseDir
	}
	if c.Paths.BaseDir, err = expandPath(c.Paths.BaseDir); err != nil {
		return fmt.Errorf("paths.base_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	if c.Extraction.FrameRate == 0 {
		c.Extraction.FrameRate = defaultFrameRate
	}
	if c.Extraction.Quality == 0 {
		c.Extraction.Quality = defaultFrameQuality
	}
	if len(c.Extraction.VideoExtensions) == 0 {
		c.Extraction.VideoExtensions = defaultVideoExtensions()
	}
	normalized := make([]string, 0, len(c.Extraction.VideoExtensions))
	for _, ext := range c.Extraction.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Extraction.VideoExtensions = normalized
}

func (c *Config) normalizeTagging() {
	if c.Tagging.BatchSize == 0 {
		c.Tagging.BatchSize = defaultTagBatchSize
	}
	if strings.TrimSpace(c.Tagging.Projection) == "" {
		c.Tagging.Projection = defaultProjection
	}
}

func (c *Config) normalizeEngine() {
	if strings.TrimSpace(c.Engine.Binary) == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	if c.Engine.MatchDownscale == 0 {
		c.Engine.MatchDownscale = defaultMatchDownscale
	}
	if c.Engine.KeypointLimit == 0 {
		c.Engine.KeypointLimit = defaultKeypointLimit
	}
	if c.Engine.TiepointLimit == 0 {
		c.Engine.TiepointLimit = defaultTiepointLimit
	}
	if c.Engine.DepthDownscale == 0 {
		c.Engine.DepthDownscale = defaultDepthDownscale
	}
	c.Engine.DepthFilter = strings.ToLower(strings.TrimSpace(c.Engine.DepthFilter))
	if c.Engine.DepthFilter == "" {
		c.Engine.DepthFilter = defaultDepthFilter
	}
	c.Engine.MeshFaceCount = strings.ToLower(strings.TrimSpace(c.Engine.MeshFaceCount))
	if c.Engine.MeshFaceCount == "" {
		c.Engine.MeshFaceCount = defaultMeshFaceCount
	}
	if c.Engine.TextureSize == 0 {
		c.Engine.TextureSize = defaultTextureSize
	}
	c.Engine.BlendMode = strings.ToLower(strings.TrimSpace(c.Engine.BlendMode))
	if c.Engine.BlendMode == "" {
		c.Engine.BlendMode = defaultBlendMode
	}
	c.Engine.ExportFormat = strings.ToLower(strings.TrimSpace(c.Engine.ExportFormat))
	if c.Engine.ExportFormat == "" {
		c.Engine.ExportFormat = defaultExportFormat
	}
	if c.Engine.CompressionLevel == 0 {
		c.Engine.CompressionLevel = defaultCompression
	}
	if c.Partitioning.Count == 0 {
		c.Partitioning.Count = defaultPartitionCount
	}
	if len(c.Export.Tiers) == 0 {
		c.Export.Tiers = defaultTiers()
	}
	for i := range c.Export.Tiers {
		c.Export.Tiers[i].Label = strings.TrimSpace(c.Export.Tiers[i].Label)
	}
}

func (c *Config) normalizeArchive() {
	if strings.TrimSpace(c.Archive.Binary) == "" {
		c.Archive.Binary = defaultArchiveBinary
	}
	if c.Archive.Level == 0 {
		c.Archive.Level = defaultArchiveLevel
	}
	if strings.TrimSpace(c.Archive.VolumeSize) == "" {
		c.Archive.VolumeSize = defaultVolumeSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
