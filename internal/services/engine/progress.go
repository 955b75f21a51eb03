package engine

import (
	"strconv"
	"strings"
)

// parseProgress extracts a percentage from engine stdout lines of the form
// "progress: 42.5". The schedule is arbitrary and possibly non-monotonic;
// callers are expected to deduplicate before logging.
func parseProgress(line string) (float64, bool) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, "progress:")
	if !ok {
		return 0, false
	}
	percent, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return 0, false
	}
	return percent, true
}

// parseResult extracts a key=value result line. Keys are plain identifiers;
// anything with whitespace before the '=' is ignored.
func parseResult(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	key, value, ok := strings.Cut(trimmed, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
