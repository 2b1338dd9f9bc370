// Package runner drives the filtered test iterator and publishes the event
// stream the report builder consumes. Suites are walked depth first; each
// suite level gets its own filtered iterator so suite start/finish events
// nest with stack discipline.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucible-ci/crucible/events"
	"github.com/crucible-ci/crucible/filters"
	"github.com/crucible-ci/crucible/metrics"
	"github.com/crucible-ci/crucible/types"
)

// Throwable kind labels attached to fault events.
const (
	KindTestFailure    = "TestFailure"
	KindExecutionError = "ExecutionError"
)

// RunStats summarizes one run.
type RunStats struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Errored  int
	Duration time.Duration
}

// HasFailures reports whether any test failed or errored.
func (s RunStats) HasFailures() bool {
	return s.Failed > 0 || s.Errored > 0
}

// Result returns the run verdict label used in metrics.
func (s RunStats) Result() string {
	if s.HasFailures() {
		return "fail"
	}
	return "pass"
}

// Runner executes a suite tree. Construct with NewRunner; Run may be called
// repeatedly (interval mode), each call under a fresh run ID.
type Runner struct {
	log      log.Logger
	bus      *events.Bus
	filters  *filters.Factory
	executor Executor
	tracer   trace.Tracer
}

// Config holds configuration for creating a new Runner.
type Config struct {
	Log      log.Logger
	Bus      *events.Bus
	Filters  *filters.Factory
	Executor Executor
}

// NewRunner creates a new runner instance.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Filters == nil {
		cfg.Filters = filters.NewFactory()
	}
	return &Runner{
		log:      cfg.Log,
		bus:      cfg.Bus,
		filters:  cfg.Filters,
		executor: cfg.Executor,
		tracer:   otel.Tracer("test runner"),
	}, nil
}

// Run executes every test in the suite tree that passes the filters,
// publishing the event stream as it goes. Returns the aggregated stats of
// the run.
func (r *Runner) Run(ctx context.Context, suite *types.Suite) (RunStats, error) {
	runID := uuid.New().String()
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run %s", runID))
	defer span.End()

	start := time.Now()
	r.log.Info("Starting test run", "run_id", runID, "suite", suite.Name, "tests", suite.Count())

	var stats RunStats
	if err := r.runSuite(ctx, runID, suite, &stats); err != nil {
		return stats, err
	}
	stats.Duration = time.Since(start)

	metrics.RecordRun(runID, stats.Result(), stats.Total, stats.Failed+stats.Errored, stats.Duration)
	r.log.Info("Test run complete", "run_id", runID, "total", stats.Total,
		"passed", stats.Passed, "failed", stats.Failed, "skipped", stats.Skipped,
		"errored", stats.Errored, "duration", stats.Duration)
	return stats, nil
}

func (r *Runner) runSuite(ctx context.Context, runID string, suite *types.Suite, stats *RunStats) error {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("suite %s", suite.Name))
	defer span.End()

	events.Publish(r.bus, events.SuiteStarted{Name: suite.Name, File: suite.File})

	iterator := r.filters.Build(types.NewSliceIterator(suite.Items), suite)
	for {
		item, ok := iterator.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r.runItem(ctx, runID, item, stats)
	}

	for _, child := range suite.Children {
		if err := r.runSuite(ctx, runID, child, stats); err != nil {
			return err
		}
	}

	events.Publish(r.bus, events.SuiteFinished{Name: suite.Name})
	return nil
}

// runItem executes one test unit and translates its result into outcome
// events. Execution failures become errored outcomes rather than aborting
// the run.
func (r *Runner) runItem(ctx context.Context, runID string, item *types.TestItem, stats *RunStats) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", item.Name))
	defer span.End()

	events.Publish(r.bus, events.TestPrepared{Item: item})
	stats.Total++

	if item.Script {
		// Script tests need the external script interpreter, which runs out
		// of process; they are reported as skipped here.
		stats.Skipped++
		events.Publish(r.bus, events.TestSkipped{Message: "script test requires the script interpreter"})
		events.Publish(r.bus, events.TestFinished{})
		metrics.RecordTest(runID, item.Name, types.TestStatusSkip)
		return
	}

	result, err := r.executor.Run(ctx, item)
	if err != nil {
		r.log.Error("Test execution failed", "test", item.Name, "err", err)
		metrics.RecordErrorDetails("runner.execute", err)
		stats.Errored++
		events.Publish(r.bus, events.TestErrored{Throwable: events.Throwable{
			Message: err.Error(),
			Kind:    KindExecutionError,
		}})
		events.Publish(r.bus, events.TestFinished{})
		metrics.RecordTest(runID, item.Name, types.TestStatusError)
		return
	}

	switch result.Status {
	case types.TestStatusPass:
		stats.Passed++
		events.Publish(r.bus, events.AssertionMade{Count: 1})
		events.Publish(r.bus, events.TestPassed{})
	case types.TestStatusFail:
		stats.Failed++
		events.Publish(r.bus, events.AssertionMade{Count: 1})
		message, trace := splitFailure(result.Message)
		events.Publish(r.bus, events.TestFailed{Throwable: events.Throwable{
			Message: message,
			Trace:   trace,
			Kind:    KindTestFailure,
		}})
	case types.TestStatusSkip:
		stats.Skipped++
		events.Publish(r.bus, events.TestSkipped{Message: result.Message})
	default:
		stats.Errored++
		events.Publish(r.bus, events.TestErrored{Throwable: events.Throwable{
			Message: result.Message,
			Kind:    KindExecutionError,
		}})
	}

	events.Publish(r.bus, events.TestFinished{Output: result.Output})
	metrics.RecordTest(runID, item.Name, result.Status)
}

// splitFailure separates the first line of the failure text from the rest,
// so the fault body does not repeat itself.
func splitFailure(s string) (message, trace string) {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx], strings.TrimSpace(s[idx+1:])
	}
	return s, ""
}
