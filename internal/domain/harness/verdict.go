package harness

// Verdict is the single classification assigned to a considered test case.
type Verdict string

const (
	VerdictPassed         Verdict = "PASSED"
	VerdictCompileFailed  Verdict = "FAIL_COMPILE"
	VerdictRunFailed      Verdict = "FAIL_RUN"
	VerdictOutputMismatch Verdict = "FAIL_OUTPUT"
	VerdictTimeout        Verdict = "TIMEOUT"
)

// Report ties a test case to its verdict.
//
// Err is reserved for harness-internal faults (an unreadable expected
// fixture, a compiler binary that cannot be spawned). A faulted Report has
// no meaningful Verdict and is counted apart from the test categories.
type Report struct {
	Case     TestCase
	Verdict  Verdict
	ExitCode int
	Err      error
}

// Faulted reports whether the harness itself failed on this test case.
func (r Report) Faulted() bool {
	return r.Err != nil
}
