package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks a collaborator process that exited non-zero or
	// otherwise failed. Fatal to the unit being processed.
	ErrExternalTool = errors.New("external tool error")
	// ErrPrecondition marks a stage attempted without its required inputs
	// (for example no enabled partitions with models). Handled locally by
	// skipping the unit with a warning.
	ErrPrecondition  = errors.New("precondition not met")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether a stage error must halt the unit's remaining stages.
// Precondition failures are skippable; everything else is fatal.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrPrecondition)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
