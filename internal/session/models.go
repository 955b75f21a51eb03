package session

import "time"

// SourceLabel names the partition that holds the full aligned dataset before
// partitioning splits it.
const SourceLabel = "MainChunk"

// Partition is one named subdivision of the project's aligned input data.
// Partitions are pairwise disjoint over their camera ranges but every copy
// retains the shared alignment reference, so downstream stages can process
// them in isolation.
type Partition struct {
	ID           int64
	Label        string
	Enabled      bool
	StartIndex   int
	EndIndex     int
	CameraCount  int
	AlignedCount int
	DepthBuilt   bool
	ModelBuilt   bool
	FaceCount    int
	TextureCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Aligned reports whether the partition carries transformed cameras.
func (p *Partition) Aligned() bool {
	return p != nil && p.AlignedCount > 0
}

// HasModel reports whether the partition carries a non-empty surface model.
func (p *Partition) HasModel() bool {
	return p != nil && p.ModelBuilt && p.FaceCount > 0
}

// Workable reports whether downstream stages should process the partition.
// Disabled or empty partitions are skipped, never fatal.
func (p *Partition) Workable() bool {
	return p != nil && p.Enabled && p.CameraCount > 0 && p.Aligned()
}
