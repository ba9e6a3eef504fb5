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

// Compiler drives the external compiler binary as a local subprocess.
type Compiler struct {
	binary string
}

// ensure Compiler implements ports.Compiler.
var _ ports.Compiler = (*Compiler)(nil)

// NewCompiler creates a compile driver for the given compiler binary.
func NewCompiler(binary string) (*Compiler, error) {
	if binary == "" {
		return nil, fmt.Errorf("compiler binary must be configured")
	}
	return &Compiler{binary: binary}, nil
}

// Compile invokes `<compiler> <source> -o <artifact>` once and captures its
// outcome. A nonzero compiler exit is a regular Outcome, not an error; only
// a compiler that cannot be spawned at all produces an error.
func (c *Compiler) Compile(ctx context.Context, sourcePath, artifactPath string) (*harness.Outcome, error) {
	cmd := exec.CommandContext(ctx, c.binary, sourcePath, "-o", artifactPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	outcome := &harness.Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		return nil, fmt.Errorf("run compiler %s: %w", c.binary, err)
	}

	return outcome, nil
}
