package ports

import (
	"context"

	"github.com/xyproto/flapcheck/internal/domain/harness"
)

// Compiler invokes the external compiler on one fixture source.
//
// A nonzero Outcome.ExitCode signals a compile failure; an error return
// signals that the compiler could not be run at all.
type Compiler interface {
	Compile(ctx context.Context, sourcePath, artifactPath string) (*harness.Outcome, error)
}
