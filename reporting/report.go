// Package reporting builds an aggregated report tree from the test run's
// event stream and serializes it as JUnit-style XML. The builder is a
// subscriber-style state machine: one frame per open suite, at most one open
// test case at a time, counters rolled up from children to parents at
// suite-close time.
package reporting

import "time"

// Counters are the per-suite aggregate statistics. A suite's counters equal
// the sum of its direct and transitive children's counters at the moment the
// suite closes; the sum is computed once and never revisited.
type Counters struct {
	Tests      int
	Assertions int
	Errors     int
	Warnings   int
	Failures   int
	Skipped    int
	Duration   time.Duration
}

// Add accumulates other into c.
func (c *Counters) Add(other Counters) {
	c.Tests += other.Tests
	c.Assertions += other.Assertions
	c.Errors += other.Errors
	c.Warnings += other.Warnings
	c.Failures += other.Failures
	c.Skipped += other.Skipped
	c.Duration += other.Duration
}

// Node is a child of a report suite: either a nested suite or a test case,
// kept in arrival order.
type Node interface {
	reportNode()
}

// ReportSuite is a suite node of the report tree.
type ReportSuite struct {
	Name     string
	File     string // Source location, empty when unknown
	Counters Counters
	Children []Node
}

func (s *ReportSuite) reportNode() {}

// Fault is the error/failure/warning annotation attached to a test case. At
// most one per case.
type Fault struct {
	Label string // Element name: "error", "failure" or "warning"
	Type  string // Class/type name of the originating failure
	Body  string // Trimmed descriptive text plus stack trace
}

// ReportTestCase is a test-case node of the report tree.
type ReportTestCase struct {
	Name      string
	Class     string // Short declaring-unit name
	ClassName string // Dot-separated qualified name
	File      string // Empty when the source location lookup failed
	Line      int

	Assertions int
	Duration   time.Duration

	Fault     *Fault
	Skipped   bool   // Renders an empty skipped marker element
	SystemOut string // Captured output, ANSI-stripped
}

func (t *ReportTestCase) reportNode() {}

// Report is the finished tree: the top-level suites under the document root.
type Report struct {
	Suites []*ReportSuite
}

// Totals sums the top-level suite counters.
func (r *Report) Totals() Counters {
	var total Counters
	for _, suite := range r.Suites {
		total.Add(suite.Counters)
	}
	return total
}
