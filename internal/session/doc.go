// Package session persists the pipeline's view of the reconstruction
// engine's processing state: the ordered set of partitions and their derived
// artifacts. The store is the crash-safety checkpoint; every mutating stage
// commits its state change here before the next stage runs, so a restarted
// run resumes from the first incomplete stage.
package session
