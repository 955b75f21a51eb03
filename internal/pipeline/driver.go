// Package pipeline drives the full reconstruction workflow: frame
// extraction, panoramic tagging, alignment, partitioning, per-partition
// depth/model/texture builds, and quality-tier exports. The driver owns the
// session store for the duration of a run and excludes concurrent runs on
// the same project with a file lock.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"parallax/internal/archive"
	"parallax/internal/config"
	"parallax/internal/export"
	"parallax/internal/extraction"
	"parallax/internal/logging"
	"parallax/internal/partition"
	"parallax/internal/reconstruct"
	"parallax/internal/services"
	"parallax/internal/services/engine"
	"parallax/internal/services/exiftool"
	"parallax/internal/services/ffmpeg"
	"parallax/internal/services/sevenzip"
	"parallax/internal/session"
	"parallax/internal/stage"
	"parallax/internal/stageexec"
	"parallax/internal/tagging"
	"parallax/internal/workspace"
)

// EngineFactory builds an engine session bound to a workspace document.
type EngineFactory func(ws *workspace.Workspace) (engine.Session, error)

// Option configures the driver.
type Option func(*Driver)

// WithExtractor overrides the frame extraction client.
func WithExtractor(extractor ffmpeg.Extractor) Option {
	return func(d *Driver) {
		if extractor != nil {
			d.extractor = extractor
		}
	}
}

// WithTagger overrides the metadata tagging client.
func WithTagger(tagger exiftool.Tagger) Option {
	return func(d *Driver) {
		if tagger != nil {
			d.tagger = tagger
		}
	}
}

// WithCompressor overrides the archive client.
func WithCompressor(compressor sevenzip.Compressor) Option {
	return func(d *Driver) {
		if compressor != nil {
			d.compressor = compressor
		}
	}
}

// WithEngineFactory overrides how engine sessions are constructed.
func WithEngineFactory(factory EngineFactory) Option {
	return func(d *Driver) {
		if factory != nil {
			d.engineFactory = factory
		}
	}
}

// Driver sequences the pipeline stages through the stage executor.
type Driver struct {
	cfg    *config.Config
	logger *slog.Logger

	extractor     ffmpeg.Extractor
	tagger        exiftool.Tagger
	compressor    sevenzip.Compressor
	engineFactory EngineFactory
}

// New constructs a driver with production collaborator clients.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	extractor, err := ffmpeg.New("ffmpeg", cfg.Extraction.FrameRate, cfg.Extraction.Quality)
	if err != nil {
		return nil, err
	}
	tagger, err := exiftool.New("exiftool", cfg.Tagging.Projection)
	if err != nil {
		return nil, err
	}
	compressor, err := sevenzip.New(cfg.Archive.Binary, cfg.Archive.Level, cfg.Archive.VolumeSize)
	if err != nil {
		return nil, err
	}

	driver := &Driver{
		cfg:        cfg,
		logger:     logger,
		extractor:  extractor,
		tagger:     tagger,
		compressor: compressor,
		engineFactory: func(ws *workspace.Workspace) (engine.Session, error) {
			return engine.New(cfg.Engine.Binary, ws.DocumentPath())
		},
	}
	for _, opt := range opts {
		opt(driver)
	}
	return driver, nil
}

// RunOptions parameterize one pipeline run.
type RunOptions struct {
	Project string
	// VideosDir holds the source videos. Optional on resume: extraction is
	// skipped when empty and previously extracted frames carry the run.
	VideosDir string
}

// Run executes the pipeline for a project. Already-complete stages are
// skipped, so re-invoking after a crash or failure resumes at the first
// incomplete stage. The first failure in the main chain halts the run;
// partition and tier failures are isolated to their unit.
func (d *Driver) Run(ctx context.Context, opts RunOptions) error {
	ws, err := workspace.New(d.cfg.Paths.BaseDir, opts.Project)
	if err != nil {
		return services.Wrap(services.ErrValidation, "run", "workspace", "invalid project", err)
	}
	if err := ws.Ensure(); err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "workspace", "creating project directories", err)
	}

	unlock, err := d.acquireLock(ws)
	if err != nil {
		return err
	}
	defer unlock()

	runID := uuid.NewString()
	ctx = services.WithProject(ctx, opts.Project)
	ctx = services.WithRequestID(ctx, runID)
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("run started", logging.String("videos_dir", opts.VideosDir))

	store, err := session.Open(ws.SessionDBPath())
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "session", "opening session store", err)
	}
	defer store.Close()

	eng, err := d.engineFactory(ws)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "engine", "constructing engine session", err)
	}

	if err := d.extractAndTag(ctx, ws, opts.VideosDir); err != nil {
		return err
	}

	if err := eng.EnsureDocument(ctx); err != nil {
		return services.Wrap(services.ErrExternalTool, "run", "engine", "opening engine document", err)
	}

	if err := d.reconstruct(ctx, ws, store, eng); err != nil {
		return err
	}

	if err := d.exportTiers(ctx, ws, store, eng); err != nil {
		return err
	}

	logger.Info("run finished")
	return nil
}

// extractAndTag runs per-video extraction followed by project-wide tagging.
func (d *Driver) extractAndTag(ctx context.Context, ws *workspace.Workspace, videosDir string) error {
	if videosDir != "" {
		videos, err := extraction.DiscoverVideos(videosDir, d.cfg.Extraction.VideoExtensions)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "extract", "discover", "listing videos in "+videosDir, err)
		}
		if len(videos) == 0 {
			d.logger.Warn("no source videos found", logging.String("videos_dir", videosDir))
		}
		extractor := extraction.NewExtractor(ws, d.extractor, d.logger)
		for _, video := range videos {
			unit := stage.Unit{Kind: stage.KindVideo, ID: video}
			if _, err := stageexec.Run(ctx, stageexec.Options{Logger: d.logger, Handler: extractor, Unit: unit}); err != nil {
				return err
			}
		}
	}

	tagger := tagging.NewTagger(ws, d.tagger, d.cfg.Tagging.BatchSize, d.logger)
	unit := stage.Unit{Kind: stage.KindProject, ID: ws.Project}
	_, err := stageexec.Run(ctx, stageexec.Options{Logger: d.logger, Handler: tagger, Unit: unit})
	return err
}

// reconstruct runs alignment and partitioning, then the per-partition depth,
// model, and texture chains. A failing partition skips its remaining stages;
// its siblings continue.
func (d *Driver) reconstruct(ctx context.Context, ws *workspace.Workspace, store *session.Store, eng engine.Session) error {
	projectUnit := stage.Unit{Kind: stage.KindProject, ID: ws.Project}

	aligner := reconstruct.NewAligner(ws, d.cfg.Engine, store, eng, d.logger)
	if _, err := stageexec.Run(ctx, stageexec.Options{Logger: d.logger, Handler: aligner, Unit: projectUnit}); err != nil {
		return err
	}

	partitioner := partition.NewPartitioner(d.cfg, store, eng, d.logger)
	if _, err := stageexec.Run(ctx, stageexec.Options{Logger: d.logger, Handler: partitioner, Unit: projectUnit}); err != nil {
		return err
	}

	parts, err := store.Partitions(ctx)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "run", "session", "listing partitions", err)
	}

	handlers := []stage.Handler{
		reconstruct.NewDepthBuilder(d.cfg.Engine, store, eng, d.logger),
		reconstruct.NewModelBuilder(d.cfg.Engine, store, eng, d.logger),
		reconstruct.NewTextureBuilder(d.cfg.Engine, store, eng, d.logger),
	}
	for _, p := range parts {
		if !p.Workable() {
			d.logger.Info("skipping partition",
				logging.String(logging.FieldPartition, p.Label),
				logging.Bool("enabled", p.Enabled),
				logging.Int("cameras", p.CameraCount))
			continue
		}
		unit := stage.Unit{Kind: stage.KindPartition, ID: p.Label}
		for _, handler := range handlers {
			if _, err := stageexec.Run(ctx, stageexec.Options{Logger: d.logger, Handler: handler, Unit: unit}); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				d.logger.Error("partition abandoned for this run",
					logging.String(logging.FieldPartition, p.Label),
					logging.Error(err))
				break
			}
		}
	}
	return nil
}

// exportTiers emits one model per configured quality tier. Tier failures
// are isolated: remaining tiers still run.
func (d *Driver) exportTiers(ctx context.Context, ws *workspace.Workspace, store *session.Store, eng engine.Session) error {
	exporter := export.NewTierExporter(ws, d.cfg.Engine, d.cfg.Export.Tiers, store, eng, d.logger)
	var failed []error
	for _, tier := range d.cfg.Export.Tiers {
		unit := stage.Unit{Kind: stage.KindTier, ID: tier.Label}
		if _, err := stageexec.Run(ctx, stageexec.Options{Logger: d.logger, Handler: exporter, Unit: unit}); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if !services.Fatal(err) {
				d.logger.Warn("tier abandoned",
					logging.String(logging.FieldTier, tier.Label),
					logging.Error(err))
				continue
			}
			d.logger.Error("tier export failed",
				logging.String(logging.FieldTier, tier.Label),
				logging.Error(err))
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}

// Archive compresses tier exports and the full project directory into
// labelled archives. Runs independently of the pipeline so completed
// projects can be archived long after reconstruction.
func (d *Driver) Archive(ctx context.Context, project string) error {
	ws, err := workspace.New(d.cfg.Paths.BaseDir, project)
	if err != nil {
		return services.Wrap(services.ErrValidation, "archive", "workspace", "invalid project", err)
	}
	if err := ws.Ensure(); err != nil {
		return services.Wrap(services.ErrConfiguration, "archive", "workspace", "creating project directories", err)
	}

	unlock, err := d.acquireLock(ws)
	if err != nil {
		return err
	}
	defer unlock()

	ctx = services.WithProject(ctx, project)
	ctx = services.WithRequestID(ctx, uuid.NewString())

	archiver := archive.NewArchiver(ws, d.cfg.Export.Tiers, d.compressor, d.logger)
	var failed []error
	for _, label := range archive.Labels(project, d.cfg.Export.Tiers) {
		unit := stage.Unit{Kind: stage.KindProject, ID: label}
		if _, err := stageexec.Run(ctx, stageexec.Options{Logger: d.logger, Handler: archiver, Unit: unit}); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if !services.Fatal(err) {
				continue
			}
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}

// acquireLock takes the per-project run lock. A held lock means another
// driver is active on this project; the caller backs off instead of racing.
func (d *Driver) acquireLock(ws *workspace.Workspace) (func(), error) {
	lock := flock.New(ws.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "lock", "acquiring project lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "run", "lock", "another run is active for project "+ws.Project, nil)
	}
	return func() { _ = lock.Unlock() }, nil
}
