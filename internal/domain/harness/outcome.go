package harness

import "time"

// Outcome captures what a single subprocess invocation produced.
type Outcome struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	// TimedOut is set when the process exceeded its wall-clock bound and
	// was forcibly terminated. A timed-out Outcome carries whatever output
	// the process emitted before termination.
	TimedOut bool
	Duration time.Duration
}
