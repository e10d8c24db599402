// Package process provides the command runner adapter used to drive the DHCP server process.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"dhcp-leasewatch/internal/pkg/logging"
	"dhcp-leasewatch/internal/port"
)

// RunnerAdapter implements the CommandRunner port with os/exec.
// When Sudo is set every command is prefixed with "sudo -n".
type RunnerAdapter struct {
	Sudo bool
}

// Ensure RunnerAdapter implements the CommandRunner port
var _ port.CommandRunner = (*RunnerAdapter)(nil)

// NewRunnerAdapter creates a new command runner adapter.
func NewRunnerAdapter(sudo bool) *RunnerAdapter {
	return &RunnerAdapter{Sudo: sudo}
}

// Run executes name with args and returns its exit code. Output is logged at debug level.
func (r *RunnerAdapter) Run(ctx context.Context, stdin io.Reader, name string, args ...string) (int, error) {
	if r.Sudo {
		args = append([]string{"-n", name}, args...)
		name = "sudo"
	}
	logger := logging.WithComponent("process").WithField("command", name+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		logger.WithField("output", strings.TrimSpace(string(output))).Debug("Command output")
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		logger.Debug("Command succeeded")
		return 0, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		logger.WithField("rc", exitErr.ExitCode()).Debug("Command failed")
		return exitErr.ExitCode(), nil
	default:
		return -1, fmt.Errorf("failed to run %s: %w", name, err)
	}
}
