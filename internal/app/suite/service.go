package suite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/xyproto/flapcheck/internal/domain/harness"
	"github.com/xyproto/flapcheck/internal/fixture"
	"github.com/xyproto/flapcheck/internal/logging"
	"github.com/xyproto/flapcheck/internal/ports"
)

// Options controls one suite run.
type Options struct {
	// ArtifactDir receives the compiled binary for each test, keyed by
	// test name.
	ArtifactDir string
	// Jobs bounds how many tests run concurrently. Values below one mean
	// sequential execution. Reports are always delivered in discovery
	// order regardless of Jobs.
	Jobs int
}

// Service runs fixture test cases through the compile/execute/match
// pipeline and classifies each with exactly one verdict.
type Service struct {
	compiler ports.Compiler
	runner   ports.Runner
}

// NewService constructs a Service with the provided drivers.
func NewService(compiler ports.Compiler, runner ports.Runner) *Service {
	return &Service{compiler: compiler, runner: runner}
}

// Run processes every case and returns the aggregated summary.
//
// onReport, when provided, observes one report per case, in discovery
// order, as soon as it and all its predecessors are decided. No verdict
// aborts the run; only context cancellation cuts it short, in which case
// the summary covers the cases decided before the cut.
func (s *Service) Run(ctx context.Context, cases []harness.TestCase, opts Options, onReport func(harness.Report)) (harness.Summary, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = 1
	}

	stream := newOrderedStream(len(cases), onReport)
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup

	scheduled := 0
	for idx, tc := range cases {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		scheduled++
		go func(idx int, tc harness.TestCase) {
			defer wg.Done()
			defer func() { <-sem }()

			stream.deliver(idx, s.runCase(ctx, tc, opts.ArtifactDir))
		}(idx, tc)
	}

	wg.Wait()
	summary := stream.finish(scheduled)

	if ctx.Err() != nil && scheduled < len(cases) {
		return summary, fmt.Errorf("suite interrupted: %w", ctx.Err())
	}

	return summary, nil
}

func (s *Service) runCase(ctx context.Context, tc harness.TestCase, artifactDir string) harness.Report {
	report := harness.Report{Case: tc}
	artifactPath := filepath.Join(artifactDir, tc.Name)

	compiled, err := s.compiler.Compile(ctx, tc.SourcePath, artifactPath)
	if err != nil {
		report.Err = fmt.Errorf("compile %s: %w", tc.Name, err)
		return report
	}
	if compiled.ExitCode != 0 {
		report.Verdict = harness.VerdictCompileFailed
		report.ExitCode = compiled.ExitCode
		return report
	}

	outcome, err := s.runner.Run(ctx, artifactPath)
	if err != nil {
		report.Err = fmt.Errorf("run %s: %w", tc.Name, err)
		return report
	}

	report.ExitCode = outcome.ExitCode
	logging.Logger.Debug("test executed",
		"name", tc.Name,
		"exit_code", outcome.ExitCode,
		"timed_out", outcome.TimedOut,
		"duration", outcome.Duration)

	if outcome.TimedOut {
		report.Verdict = harness.VerdictTimeout
		return report
	}

	expected, err := fixture.LoadExpected(tc)
	if err != nil {
		report.Err = err
		return report
	}

	report.Verdict = classify(outcome, expected)
	return report
}

// classify applies the exit-code-driven comparison policy on top of the
// wildcard matcher.
func classify(outcome *harness.Outcome, expected []byte) harness.Verdict {
	if outcome.ExitCode != 0 {
		if fixture.Match(outcome.Stderr, expected) {
			return harness.VerdictPassed
		}
		// Older fixtures recorded expected error text on stdout.
		if fixture.Match(outcome.Stdout, expected) {
			return harness.VerdictPassed
		}
		return harness.VerdictRunFailed
	}

	if fixture.Match(outcome.Stdout, expected) {
		return harness.VerdictPassed
	}
	return harness.VerdictOutputMismatch
}

// orderedStream buffers out-of-order reports from parallel workers and
// releases them strictly in discovery order.
type orderedStream struct {
	mu       sync.Mutex
	reports  []harness.Report
	ready    []bool
	next     int
	summary  harness.Summary
	onReport func(harness.Report)
}

func newOrderedStream(size int, onReport func(harness.Report)) *orderedStream {
	return &orderedStream{
		reports:  make([]harness.Report, size),
		ready:    make([]bool, size),
		onReport: onReport,
	}
}

func (o *orderedStream) deliver(idx int, report harness.Report) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.reports[idx] = report
	o.ready[idx] = true

	for o.next < len(o.ready) && o.ready[o.next] {
		released := o.reports[o.next]
		o.summary.Record(released)
		if o.onReport != nil {
			o.onReport(released)
		}
		o.next++
	}
}

func (o *orderedStream) finish(scheduled int) harness.Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Workers have all returned; anything still unflushed would mean a
	// delivery gap before an undecided slot, which cannot happen once
	// every scheduled case has reported.
	if o.next < scheduled {
		logging.Logger.Error("report stream finished with undelivered slots",
			"delivered", o.next,
			"scheduled", scheduled)
	}

	return o.summary
}
