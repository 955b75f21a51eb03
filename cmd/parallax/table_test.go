package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Tier", "Faces"},
		[][]string{{"full", "1000000"}, {"low", "30000"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, needle := range []string{"Tier", "Faces", "full", "30000"} {
		if !strings.Contains(out, needle) {
			t.Fatalf("expected table to contain %q, got:\n%s", needle, out)
		}
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil, nil); out != "" {
		t.Fatalf("expected empty render, got %q", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B", "C"},
		[][]string{{"only"}},
		nil,
	)
	if !strings.Contains(out, "only") {
		t.Fatalf("expected padded row, got:\n%s", out)
	}
}
