// Package runner provides the shared command execution layer used by every
// collaborator client. Commands stream stdout and stderr line by line so
// progress output can be forwarded while the process runs.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Executor abstracts command execution for testability. Clients hold an
// Executor instead of calling os/exec directly so tests can inject fakes.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Command is the production Executor backed by exec.CommandContext. Context
// cancellation kills the child process.
type Command struct{}

// Run starts the binary and forwards every output line to onLine. A nil
// onLine forwards lines to stderr. A non-zero exit surfaces as an error.
func (Command) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	forward := func(line string) {
		if onLine != nil {
			onLine(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// Output runs the binary and captures trimmed stdout, for small probe
// commands that return a single value.
func Output(ctx context.Context, exec Executor, binary string, args []string) (string, error) {
	var lines []string
	err := exec.Run(ctx, binary, args, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}
