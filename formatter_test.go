package crucible

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-ci/crucible/reporting"
	"github.com/crucible-ci/crucible/runner"
	"github.com/crucible-ci/crucible/types"
)

func sampleSummaryReport() *reporting.Report {
	pass := &reporting.ReportTestCase{
		Name:       "TestPut",
		Assertions: 1,
		Duration:   500 * time.Millisecond,
	}
	fail := &reporting.ReportTestCase{
		Name:       "TestGet",
		Assertions: 1,
		Duration:   time.Second,
		Fault: &reporting.Fault{
			Label: "failure",
			Type:  "TestFailure",
			Body:  "expected 2, got 3\nstore_test.go:12",
		},
	}
	skip := &reporting.ReportTestCase{
		Name:    "TestEvict",
		Skipped: true,
	}
	inner := &reporting.ReportSuite{
		Name: "store",
		Counters: reporting.Counters{
			Tests: 3, Assertions: 2, Failures: 1, Skipped: 1,
			Duration: 1500 * time.Millisecond,
		},
		Children: []reporting.Node{pass, fail, skip},
	}
	return &reporting.Report{Suites: []*reporting.ReportSuite{
		{
			Name: "all",
			Counters: reporting.Counters{
				Tests: 3, Assertions: 2, Failures: 1, Skipped: 1,
				Duration: 1500 * time.Millisecond,
			},
			Children: []reporting.Node{inner},
		},
	}}
}

func TestFormatResultsRendersTree(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleResultFormatter(log.New(), &buf, 0)

	require.NoError(t, f.FormatResults(sampleSummaryReport(), runner.RunStats{Total: 3, Passed: 1, Failed: 1, Skipped: 1}))
	out := buf.String()

	assert.Contains(t, out, "Test Results (1.5s)")
	assert.Contains(t, out, "all")
	assert.Contains(t, out, "store")
	assert.Contains(t, out, "TestPut")
	assert.Contains(t, out, "TestGet")
	assert.Contains(t, out, "TestEvict")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "✓ pass")
	assert.Contains(t, out, "✗ fail")
	assert.Contains(t, out, "- skip")
	// Only the first line of the fault body lands in the error column.
	assert.Contains(t, out, "expected 2, got 3")
	assert.NotContains(t, out, "store_test.go:12")
}

func TestFormatResultsConstrainsRowLength(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleResultFormatter(log.New(), &buf, 40)

	require.NoError(t, f.FormatResults(sampleSummaryReport(), runner.RunStats{}))

	for _, line := range strings.Split(buf.String(), "\n") {
		visible := stripansi.Strip(line)
		assert.LessOrEqual(t, len([]rune(visible)), 40, "line %q exceeds the allowed width", visible)
	}
}

func TestFormatResultsEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleResultFormatter(log.New(), &buf, 0)

	require.NoError(t, f.FormatResults(&reporting.Report{}, runner.RunStats{}))
	assert.Contains(t, buf.String(), "TOTAL")
}

func TestTreePrefix(t *testing.T) {
	assert.Equal(t, "", treePrefix(0, false))
	assert.Equal(t, "├─ ", treePrefix(1, false))
	assert.Equal(t, "└─ ", treePrefix(1, true))
	assert.Equal(t, "   ├─ ", treePrefix(2, false))
	assert.Equal(t, "      └─ ", treePrefix(3, true))
}

func TestCaseStatus(t *testing.T) {
	assert.Equal(t, types.TestStatusPass, caseStatus(&reporting.ReportTestCase{}))
	assert.Equal(t, types.TestStatusSkip, caseStatus(&reporting.ReportTestCase{Skipped: true}))
	assert.Equal(t, types.TestStatusPass, caseStatus(&reporting.ReportTestCase{Fault: &reporting.Fault{Label: "warning"}}))
	assert.Equal(t, types.TestStatusError, caseStatus(&reporting.ReportTestCase{Fault: &reporting.Fault{Label: "error"}}))
	assert.Equal(t, types.TestStatusFail, caseStatus(&reporting.ReportTestCase{Fault: &reporting.Fault{Label: "failure"}}))
}

func TestSuiteStatus(t *testing.T) {
	assert.Equal(t, types.TestStatusPass, suiteStatus(reporting.Counters{Tests: 2}))
	assert.Equal(t, types.TestStatusFail, suiteStatus(reporting.Counters{Tests: 2, Failures: 1}))
	assert.Equal(t, types.TestStatusError, suiteStatus(reporting.Counters{Tests: 2, Errors: 1}))
	assert.Equal(t, types.TestStatusSkip, suiteStatus(reporting.Counters{Tests: 2, Skipped: 2}))
	assert.Equal(t, types.TestStatusPass, suiteStatus(reporting.Counters{Tests: 2, Skipped: 1}))
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, types.TestStatusPass, overallStatus(reporting.Counters{Tests: 1}))
	assert.Equal(t, types.TestStatusFail, overallStatus(reporting.Counters{Tests: 1, Errors: 1}))
	assert.Equal(t, types.TestStatusSkip, overallStatus(reporting.Counters{Tests: 1, Skipped: 1}))
	assert.Equal(t, types.TestStatusPass, overallStatus(reporting.Counters{}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.0s", formatDuration(0))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "90.0s", formatDuration(90*time.Second))
}
