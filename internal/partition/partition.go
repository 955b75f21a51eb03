// Package partition splits the aligned source dataset into a fixed number of
// disjoint camera ranges so later reconstruction stages can process each
// range independently.
package partition

import (
	"context"
	"fmt"
	"log/slog"

	"parallax/internal/completion"
	"parallax/internal/config"
	"parallax/internal/logging"
	"parallax/internal/services"
	"parallax/internal/services/engine"
	"parallax/internal/session"
	"parallax/internal/stage"
)

const stageName = "partition"

// Label returns the canonical name for the partition at the given index.
func Label(index int) string {
	return fmt.Sprintf("GPU-%d", index)
}

// Partitioner copies the aligned source partition into count disjoint target
// partitions and retires the source. Each copy preserves the shared alignment
// so downstream depth and model builds stay mutually consistent.
type Partitioner struct {
	count  int
	store  *session.Store
	engine engine.Session
	logger *slog.Logger
}

// NewPartitioner constructs the partitioning stage handler.
func NewPartitioner(cfg *config.Config, store *session.Store, eng engine.Session, logger *slog.Logger) *Partitioner {
	return &Partitioner{
		count:  cfg.Partitioning.Count,
		store:  store,
		engine: eng,
		logger: logging.NewComponentLogger(logger, stageName),
	}
}

func (p *Partitioner) Name() string { return stageName }

// Completion reports Complete only once the configured number of split
// partitions exists and the source has been retired. Counting the source
// would let an interrupted split pass the gate with the source still live,
// and downstream stages would then process its cameras twice.
func (p *Partitioner) Completion(ctx context.Context, _ stage.Unit) (completion.State, error) {
	parts, err := p.store.Partitions(ctx)
	if err != nil {
		return completion.Missing, err
	}
	return completion.Partitioning(parts, p.count), nil
}

// Execute plans contiguous camera ranges over the source partition, copies
// each range into its own partition, then removes the source. Ranges that
// receive zero cameras are recorded disabled so downstream stages skip them.
func (p *Partitioner) Execute(ctx context.Context, _ stage.Unit) error {
	source, err := p.store.PartitionByLabel(ctx, session.SourceLabel)
	if err != nil {
		return services.Wrap(services.ErrPrecondition, stageName, "load source", "aligned source partition not found", err)
	}
	if !source.Aligned() {
		return services.Wrap(services.ErrPrecondition, stageName, "load source", "source partition has no aligned cameras", nil)
	}

	ranges := Plan(source.CameraCount, p.count)
	p.logger.Info("splitting aligned dataset",
		logging.Int("cameras", source.CameraCount),
		logging.Int("partitions", len(ranges)))

	for i, r := range ranges {
		label := Label(i)
		if _, err := p.store.PartitionByLabel(ctx, label); err == nil {
			// Already copied on a previous run.
			continue
		}
		if err := p.engine.CopyChunk(ctx, source.Label, label, r.Start, r.End); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "copy", fmt.Sprintf("copying cameras %d:%d into %s", r.Start, r.End, label), err)
		}
		part := &session.Partition{
			Label:       label,
			Enabled:     r.Count() > 0,
			StartIndex:  r.Start,
			EndIndex:    r.End,
			CameraCount: r.Count(),
		}
		if part.Enabled {
			// Every camera in a copied range keeps its alignment.
			part.AlignedCount = r.Count()
		}
		if err := p.store.AddPartition(ctx, part); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "record", "persisting partition "+label, err)
		}
		p.logger.Info("partition created",
			logging.String(logging.FieldPartition, label),
			logging.Int("cameras", part.CameraCount),
			logging.Bool("enabled", part.Enabled))
	}

	if err := p.engine.RemoveChunk(ctx, source.Label); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "remove source", "removing "+source.Label, err)
	}
	if err := p.store.RemovePartition(ctx, source.Label); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "remove source", "retiring "+source.Label, err)
	}
	return nil
}
