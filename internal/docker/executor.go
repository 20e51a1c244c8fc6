// Package docker builds and tests the service image through the docker CLI.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Executor runs shell commands
type Executor interface {
	Run(ctx context.Context, cmd string, args []string) error
}

// DefaultExecutor implements Executor using os/exec
type DefaultExecutor struct {
	workDir string
	logger  *slog.Logger
	dryRun  bool
	stdout  io.Writer
	stderr  io.Writer
}

// NewExecutor creates a new command executor
func NewExecutor(workDir string, logger *slog.Logger, dryRun bool) *DefaultExecutor {
	return &DefaultExecutor{
		workDir: workDir,
		logger:  logger,
		dryRun:  dryRun,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// SetOutput redirects command output, dry-run lines included.
func (e *DefaultExecutor) SetOutput(stdout, stderr io.Writer) {
	e.stdout = stdout
	e.stderr = stderr
}

// Run executes a command and waits for completion
func (e *DefaultExecutor) Run(ctx context.Context, cmd string, args []string) error {
	e.logger.Debug("executing command",
		"cmd", cmd,
		"args", args,
		"workdir", e.workDir,
	)

	if e.dryRun {
		fmt.Fprintf(e.stdout, "[dry-run] %s %s\n", cmd, strings.Join(args, " "))
		return nil
	}

	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = e.workDir
	c.Stdout = e.stdout
	c.Stderr = e.stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", cmd, strings.Join(args, " "), err)
	}
	return nil
}
