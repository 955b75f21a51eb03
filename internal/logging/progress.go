package logging

import "math"

// ProgressTracker suppresses repetitive progress logs from collaborator
// processes that report percentages on an arbitrary, possibly non-monotonic
// schedule. One tracker is created per stage invocation; there is no shared
// state between concurrent invocations.
type ProgressTracker struct {
	lastPercent float64
	seen        bool
}

// NewProgressTracker constructs a tracker with no progress observed yet.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

// ShouldLog reports whether a progress value should be emitted. Values are
// rounded to one decimal before comparison; consecutive identical rounded
// values are suppressed.
func (t *ProgressTracker) ShouldLog(percent float64) bool {
	if t == nil {
		return true
	}
	rounded := math.Round(percent*10) / 10
	if t.seen && rounded == t.lastPercent {
		return false
	}
	t.lastPercent = rounded
	t.seen = true
	return true
}

// Percent returns the last rounded value the tracker admitted.
func (t *ProgressTracker) Percent() float64 {
	if t == nil || !t.seen {
		return 0
	}
	return t.lastPercent
}

// Reset clears the tracker state for reuse within a new operation.
func (t *ProgressTracker) Reset() {
	if t == nil {
		return
	}
	t.lastPercent = 0
	t.seen = false
}
