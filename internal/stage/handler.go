package stage

import (
	"context"
	"strings"

	"parallax/internal/completion"
)

// Kind classifies the unit of work a stage operates on.
type Kind string

const (
	KindProject   Kind = "project"
	KindVideo     Kind = "video"
	KindPartition Kind = "partition"
	KindTier      Kind = "tier"
)

// Unit identifies one unit of work for a stage: the whole project, one
// source video, one partition, or one export tier.
type Unit struct {
	Kind Kind
	ID   string
}

func (u Unit) String() string {
	id := strings.TrimSpace(u.ID)
	if id == "" {
		return string(u.Kind)
	}
	return string(u.Kind) + " " + id
}

// Handler describes the contract the pipeline driver needs from each stage.
// Completion must be a pure read of persisted state; Execute performs the
// stage's operation against its external collaborator and persists the
// resulting artifact state before returning.
type Handler interface {
	Name() string
	Completion(ctx context.Context, unit Unit) (completion.State, error)
	Execute(ctx context.Context, unit Unit) error
}

// Outcome reports how the executor resolved a stage invocation.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeCompleted
)

func (o Outcome) String() string {
	if o == OutcomeSkipped {
		return "skipped"
	}
	return "completed"
}
