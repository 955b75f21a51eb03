// Package logging builds the slog loggers used across the pipeline and
// provides the standardized attribute keys, context-derived fields, and the
// progress deduplication tracker shared by stage handlers.
package logging
