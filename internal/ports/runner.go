package ports

import (
	"context"

	"github.com/xyproto/flapcheck/internal/domain/harness"
)

// Runner executes a compiled artifact under process-level supervision.
//
// Implementations must enforce their configured wall-clock bound and
// reclaim the subprocess on expiry; a timed-out run is reported through
// Outcome.TimedOut, not through the error return.
type Runner interface {
	Run(ctx context.Context, artifactPath string) (*harness.Outcome, error)
	Close() error
}
