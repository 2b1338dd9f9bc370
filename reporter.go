package crucible

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/crucible-ci/crucible/reporting"
	"github.com/crucible-ci/crucible/runner"
)

// RunReporter publishes the results of one test run: the JUnit XML file when
// a path is configured, and the console summary table.
type RunReporter struct {
	log       log.Logger
	junitPath string
	formatter ResultFormatter
}

// NewRunReporter creates a new RunReporter. An empty junitPath disables the
// XML report; a nil formatter disables the console table.
func NewRunReporter(logger log.Logger, junitPath string, formatter ResultFormatter) *RunReporter {
	return &RunReporter{
		log:       logger,
		junitPath: junitPath,
		formatter: formatter,
	}
}

// Report writes the configured outputs for the finished run.
func (r *RunReporter) Report(report *reporting.Report, stats runner.RunStats) error {
	if r.junitPath != "" {
		if err := reporting.WriteXMLFile(r.junitPath, report); err != nil {
			return fmt.Errorf("failed to write JUnit report to '%s': %w", r.junitPath, err)
		}
		r.log.Info("Wrote JUnit report", "path", r.junitPath)
	}

	if r.formatter != nil {
		if err := r.formatter.FormatResults(report, stats); err != nil {
			return fmt.Errorf("failed to format results: %w", err)
		}
	}
	return nil
}
