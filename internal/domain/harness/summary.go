package harness

// Summary accumulates per-category counters over a suite run.
//
// Timeouts are tracked separately but belong to the runtime-failure bucket
// for the headline counts, so the invariant is
//
//	Passed + CompileFailures + RunFailures + OutputMismatches + Faults == Total
//
// where RunFailures already includes Timeouts.
type Summary struct {
	Passed           int
	CompileFailures  int
	RunFailures      int
	Timeouts         int
	OutputMismatches int
	Faults           int
	Total            int
}

// Record folds one report into the counters.
func (s *Summary) Record(report Report) {
	s.Total++

	if report.Faulted() {
		s.Faults++
		return
	}

	switch report.Verdict {
	case VerdictPassed:
		s.Passed++
	case VerdictCompileFailed:
		s.CompileFailures++
	case VerdictRunFailed:
		s.RunFailures++
	case VerdictTimeout:
		s.RunFailures++
		s.Timeouts++
	case VerdictOutputMismatch:
		s.OutputMismatches++
	}
}

// PassPercent returns the truncated integer pass percentage.
func (s Summary) PassPercent() int {
	if s.Total == 0 {
		return 0
	}
	return 100 * s.Passed / s.Total
}

// AllPassed reports whether every considered test passed and no
// harness-internal fault occurred.
func (s Summary) AllPassed() bool {
	return s.Passed == s.Total
}
