package crucible

import (
	"github.com/crucible-ci/crucible/reporting"
	"github.com/crucible-ci/crucible/types"
)

// Helper function to convert bool to int
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// getResultString returns a short string representing the test result
func getResultString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	case types.TestStatusError:
		return "✗ error"
	default:
		return "✗ fail"
	}
}

// caseStatus derives the display status of a report test case. Warnings do
// not fail a test, so a case whose only fault is a warning still passes.
func caseStatus(tc *reporting.ReportTestCase) types.TestStatus {
	switch {
	case tc.Skipped:
		return types.TestStatusSkip
	case tc.Fault == nil:
		return types.TestStatusPass
	case tc.Fault.Label == "warning":
		return types.TestStatusPass
	case tc.Fault.Label == "error":
		return types.TestStatusError
	default:
		return types.TestStatusFail
	}
}

// suiteStatus derives the display status of a suite from its frozen counters.
func suiteStatus(c reporting.Counters) types.TestStatus {
	switch {
	case c.Failures > 0:
		return types.TestStatusFail
	case c.Errors > 0:
		return types.TestStatusError
	case c.Skipped > 0 && c.Skipped == c.Tests:
		return types.TestStatusSkip
	default:
		return types.TestStatusPass
	}
}
