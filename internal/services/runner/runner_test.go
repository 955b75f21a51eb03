package runner_test

import (
	"context"
	"strings"
	"testing"

	"parallax/internal/services/runner"
)

func TestCommandStreamsLines(t *testing.T) {
	var lines []string
	err := runner.Command{}.Run(context.Background(), "sh",
		[]string{"-c", "echo one; echo two"},
		func(line string) { lines = append(lines, line) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestCommandNonZeroExit(t *testing.T) {
	err := runner.Command{}.Run(context.Background(), "sh", []string{"-c", "exit 3"}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "wait command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOutputReturnsFirstLine(t *testing.T) {
	out, err := runner.Output(context.Background(), runner.Command{}, "sh",
		[]string{"-c", "echo True"})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if out != "True" {
		t.Fatalf("out = %q", out)
	}
}
