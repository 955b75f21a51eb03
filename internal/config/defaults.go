package config

const (
	defaultBaseDir        = "~/photogrammetry"
	defaultLogDir         = "~/.local/share/parallax/logs"
	defaultFrameRate      = 2.0
	defaultFrameQuality   = 2
	defaultTagBatchSize   = 200
	defaultProjection     = "equirectangular"
	defaultEngineBinary   = "metashape"
	defaultMatchDownscale = 2
	defaultKeypointLimit  = 160000
	defaultTiepointLimit  = 40000
	defaultDepthDownscale = 1
	defaultDepthFilter    = "mild"
	defaultMeshFaceCount  = "low"
	defaultTextureSize    = 8192
	defaultBlendMode      = "mosaic"
	defaultExportFormat   = "glb"
	defaultCompression    = 6
	defaultPartitionCount = 8
	defaultArchiveBinary  = "7z"
	defaultArchiveLevel   = 9
	defaultVolumeSize     = "5g"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

func defaultVideoExtensions() []string {
	return []string{".mp4", ".mov", ".360"}
}

func defaultTiers() []Tier {
	return []Tier{
		{Label: "full"},
		{Label: "medium", Ratio: 0.15},
		{Label: "low", Ratio: 0.03},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir: defaultBaseDir,
			LogDir:  defaultLogDir,
		},
		Extraction: Extraction{
			FrameRate:       defaultFrameRate,
			Quality:         defaultFrameQuality,
			VideoExtensions: defaultVideoExtensions(),
		},
		Tagging: Tagging{
			BatchSize:  defaultTagBatchSize,
			Projection: defaultProjection,
		},
		Engine: Engine{
			Binary:           defaultEngineBinary,
			MatchDownscale:   defaultMatchDownscale,
			KeypointLimit:    defaultKeypointLimit,
			TiepointLimit:    defaultTiepointLimit,
			DepthDownscale:   defaultDepthDownscale,
			DepthFilter:      defaultDepthFilter,
			ReuseDepth:       true,
			MeshFaceCount:    defaultMeshFaceCount,
			TextureSize:      defaultTextureSize,
			BlendMode:        defaultBlendMode,
			ExportFormat:     defaultExportFormat,
			CompressionLevel: defaultCompression,
		},
		Partitioning: Partitioning{
			Count: defaultPartitionCount,
		},
		Export: Export{
			Tiers: defaultTiers(),
		},
		Archive: Archive{
			Binary:     defaultArchiveBinary,
			Level:      defaultArchiveLevel,
			VolumeSize: defaultVolumeSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
