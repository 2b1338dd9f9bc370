package crucible

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/crucible-ci/crucible/reporting"
	"github.com/crucible-ci/crucible/runner"
	"github.com/crucible-ci/crucible/types"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(report *reporting.Report, stats runner.RunStats) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger    log.Logger
	out       io.Writer
	rowLength int // Maximum rendered row width, 0 leaves the table unconstrained
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter. A zero
// rowLength renders at the table's natural width.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer, rowLength int) *ConsoleResultFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleResultFormatter{
		logger:    logger,
		out:       out,
		rowLength: rowLength,
	}
}

// FormatResults formats and displays the test results.
func (f *ConsoleResultFormatter) FormatResults(report *reporting.Report, stats runner.RunStats) error {
	f.logger.Info("Printing results...")
	totals := report.Totals()

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", formatDuration(totals.Duration)))

	// Configure columns
	t.AppendHeader(table.Row{
		"Type", "Name", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Error",
	})

	// Set column configurations for better readability
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, suite := range report.Suites {
		f.appendSuite(t, suite, 0)
		t.AppendSeparator()
	}

	overall := overallStatus(totals)

	// Update the table style setting based on result status
	if overall == types.TestStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else if overall == types.TestStatusSkip {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	// Add summary footer
	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(totals.Duration),
		totals.Tests,
		totals.Tests - totals.Failures - totals.Errors - totals.Skipped,
		totals.Failures + totals.Errors,
		totals.Skipped,
		getResultString(overall),
		"",
	})

	if f.rowLength > 0 {
		t.SetAllowedRowLength(f.rowLength)
	}

	t.Render()
	return nil
}

// appendSuite adds one suite row followed by its children in arrival order.
func (f *ConsoleResultFormatter) appendSuite(t table.Writer, suite *reporting.ReportSuite, depth int) {
	c := suite.Counters
	t.AppendRow(table.Row{
		"Suite",
		fmt.Sprintf("%s%s", treePrefix(depth, false), suite.Name),
		formatDuration(c.Duration),
		"-", // Don't count the suite itself as a test
		c.Tests - c.Failures - c.Errors - c.Skipped,
		c.Failures + c.Errors,
		c.Skipped,
		getResultString(suiteStatus(c)),
		"",
	})

	for i, child := range suite.Children {
		last := i == len(suite.Children)-1
		switch node := child.(type) {
		case *reporting.ReportSuite:
			f.appendSuite(t, node, depth+1)
		case *reporting.ReportTestCase:
			f.appendTestCase(t, node, depth+1, last)
		}
	}
}

func (f *ConsoleResultFormatter) appendTestCase(t table.Writer, tc *reporting.ReportTestCase, depth int, last bool) {
	status := caseStatus(tc)
	errorMsg := ""
	if tc.Fault != nil {
		errorMsg = firstLine(tc.Fault.Body)
	}

	t.AppendRow(table.Row{
		"Test",
		fmt.Sprintf("%s%s", treePrefix(depth, last), tc.Name),
		formatDuration(tc.Duration),
		"1", // Count actual test
		boolToInt(status == types.TestStatusPass),
		boolToInt(status == types.TestStatusFail || status == types.TestStatusError),
		boolToInt(status == types.TestStatusSkip),
		getResultString(status),
		errorMsg,
	})
}

// treePrefix draws the tree branch for a row nested depth levels deep. The
// top level carries no prefix.
func treePrefix(depth int, last bool) string {
	if depth == 0 {
		return ""
	}
	branch := "├─ "
	if last {
		branch = "└─ "
	}
	return strings.Repeat("   ", depth-1) + branch
}

// overallStatus condenses the run totals into a single verdict for styling.
func overallStatus(c reporting.Counters) types.TestStatus {
	switch {
	case c.Failures > 0 || c.Errors > 0:
		return types.TestStatusFail
	case c.Tests > 0 && c.Skipped == c.Tests:
		return types.TestStatusSkip
	default:
		return types.TestStatusPass
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
