package report

import (
	"fmt"
	"io"

	"github.com/xyproto/flapcheck/internal/domain/harness"
)

// Console streams failure lines as verdicts arrive and prints the final
// summary block.
type Console struct {
	w io.Writer
}

// NewConsole creates a reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Report emits a single line for every non-passing report, so a human
// watching a long run sees failures as they occur.
func (c *Console) Report(r harness.Report) {
	switch {
	case r.Faulted():
		fmt.Fprintf(c.w, "ERROR: %s (%v)\n", r.Case.Name, r.Err)
	case r.Verdict == harness.VerdictPassed:
	case r.Verdict == harness.VerdictRunFailed:
		fmt.Fprintf(c.w, "%s: %s (exit %d)\n", r.Verdict, r.Case.Name, r.ExitCode)
	default:
		fmt.Fprintf(c.w, "%s: %s\n", r.Verdict, r.Case.Name)
	}
}

// PrintSummary writes the totals block. Timeouts count as runtime errors
// in the headline numbers; the per-test stream already named them TIMEOUT.
func (c *Console) PrintSummary(s harness.Summary) {
	fmt.Fprintf(c.w, "\nSummary: %d/%d passed (%d%%)\n", s.Passed, s.Total, s.PassPercent())
	fmt.Fprintf(c.w, "  %d compile errors\n", s.CompileFailures)
	fmt.Fprintf(c.w, "  %d runtime errors\n", s.RunFailures)
	fmt.Fprintf(c.w, "  %d output mismatches\n", s.OutputMismatches)
	if s.Faults > 0 {
		fmt.Fprintf(c.w, "  %d harness errors\n", s.Faults)
	}
}
