package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/xyproto/flapcheck/internal/domain/harness"
	"github.com/xyproto/flapcheck/internal/ports"
)

// Runner executes compiled artifacts as local subprocesses under a
// wall-clock bound.
type Runner struct {
	timeLimit time.Duration
}

// ensure Runner implements ports.Runner.
var _ ports.Runner = (*Runner)(nil)

// NewRunner creates an execution driver. A zero timeLimit disables the
// bound.
func NewRunner(timeLimit time.Duration) *Runner {
	if timeLimit < 0 {
		timeLimit = 0
	}
	return &Runner{timeLimit: timeLimit}
}

// Run executes the artifact and captures its exit code and both output
// streams. On exceeding the time bound the subprocess is killed and
// reclaimed, and the Outcome comes back with TimedOut set.
func (r *Runner) Run(ctx context.Context, artifactPath string) (*harness.Outcome, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if r.timeLimit > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.timeLimit)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, artifactPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Lets Wait return even if the program leaked its output pipes to a
	// child that outlives it.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()

	outcome := &harness.Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && r.timeLimit > 0 && ctx.Err() == nil {
		outcome.TimedOut = true
		outcome.ExitCode = -1
		return outcome, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		return nil, fmt.Errorf("run artifact %s: %w", artifactPath, err)
	}

	return outcome, nil
}

// Close is a no-op; local subprocesses hold no shared resources.
func (r *Runner) Close() error {
	return nil
}
