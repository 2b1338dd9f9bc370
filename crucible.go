package crucible

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/crucible-ci/crucible/configuration"
	"github.com/crucible-ci/crucible/discovery"
	"github.com/crucible-ci/crucible/events"
	"github.com/crucible-ci/crucible/exitcodes"
	"github.com/crucible-ci/crucible/filters"
	"github.com/crucible-ci/crucible/registry"
	"github.com/crucible-ci/crucible/reporting"
	"github.com/crucible-ci/crucible/runner"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// crucible implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &crucible{}

// crucible is the test harness service: it resolves the configuration once
// at startup and then runs the suite on the configured schedule.
type crucible struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry

	resolved *configuration.Resolved
	filters  *filters.Factory
	executor runner.Executor
	reporter *RunReporter

	scheduler TestScheduler

	lastStats  runner.RunStats
	lastReport *reporting.Report

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*crucible, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating crucible with config",
		"testDir", config.TestDir,
		"configFile", config.ConfigFile,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	reg, err := registry.NewRegistry(registry.Config{
		Log:        config.Log,
		ConfigFile: config.ConfigFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	executor, err := runner.NewGoTestExecutor(runner.ExecutorConfig{
		Log:      config.Log,
		WorkDir:  config.TestDir,
		GoBinary: config.GoBinary,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test executor: %w", err)
	}

	factory := filters.NewFactory()
	if len(config.ExcludeGroups) > 0 {
		factory.AddExcludeGroupFilter(config.ExcludeGroups)
	}
	if len(config.IncludeGroups) > 0 {
		factory.AddIncludeGroupFilter(config.IncludeGroups)
	}
	if config.Filter != "" {
		factory.AddNameFilter(config.Filter)
	}

	c := &crucible{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		filters:          factory,
		executor:         executor,
		scheduler:        NewDefaultTestScheduler(config.RunInterval, config.RunOnce, config.Log),
		shutdownCallback: shutdownCallback,
	}
	c.scheduler.RegisterCallback(c.runTests)
	config.Log.Info("crucible.New: created registry and test executor")
	return c, nil
}

// Start resolves the configuration and runs the tests on the configured
// schedule. Start implements the cliapp.Lifecycle interface.
func (c *crucible) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			c.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	c.ctx = ctx

	if err := c.resolve(); err != nil {
		c.config.Log.Error("Runtime error resolving configuration", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	if c.config.RunOnce {
		c.config.Log.Info("Starting crucible in run-once mode")
	} else {
		c.config.Log.Info("Starting crucible in continuous mode", "interval", c.config.RunInterval)
	}

	// The scheduler runs the tests once immediately; a runtime error from
	// that first run aborts startup.
	if err := c.scheduler.Start(ctx); err != nil {
		c.config.Log.Error("Runtime error running tests", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	// If in run-once mode, trigger shutdown and return
	if c.config.RunOnce {
		c.config.Log.Info("Tests completed, exiting (run-once mode)")

		if failed, reason := c.failed(); failed {
			c.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			// Return exit code 1 for test failures (assertions failed)
			return NewTestFailureError(reason)
		}

		// Only need to call this when we're in run-once mode and all tests passed
		go func() {
			c.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	c.config.Log.Debug("crucible started successfully")
	return nil
}

// resolve runs the two-source configuration resolution and builds the
// run-output plumbing that depends on resolved values.
func (c *crucible) resolve() error {
	bus := events.NewBus()
	events.Subscribe(bus, func(ev events.BootstrapFinished) {
		c.config.Log.Info("Bootstrap script finished", "path", ev.Path)
	})

	resolved, err := configuration.Resolve(c.config.CLI, c.registry.FileConfig(), configuration.Deps{
		Log:    c.config.Log,
		Bus:    bus,
		Loader: discovery.NewLoader(c.config.Log, c.config.TestDir),
	})
	if err != nil {
		return err
	}
	c.resolved = resolved

	if resolved.TooFewColumnsRequested() {
		c.config.Log.Warn("Requested width is below the minimum",
			"minimum", configuration.MinColumns)
	}

	out := io.Writer(os.Stdout)
	if resolved.OutputToStderr() {
		out = os.Stderr
	}
	rowLength := 0
	if !resolved.MaxColumns() {
		rowLength = resolved.Columns()
	}
	formatter := NewConsoleResultFormatter(c.config.Log, out, rowLength)
	c.reporter = NewRunReporter(c.config.Log, c.config.LogJUnit, formatter)
	return nil
}

// runTests runs the resolved suite once and reports the results. Called by
// the scheduler; a non-nil return is a runtime error, not a test failure.
func (c *crucible) runTests() error {
	if !c.resolved.HasTestSuite() {
		c.config.Log.Warn("No test suite resolved, nothing to run")
		c.lastStats = runner.RunStats{}
		c.lastReport = &reporting.Report{}
		return nil
	}
	suite, err := c.resolved.TestSuite()
	if err != nil {
		return NewRuntimeError(err)
	}

	// Each run gets a fresh bus and report builder so interval runs do not
	// accumulate into one report.
	bus := events.NewBus()
	builder := reporting.NewReportBuilder(bus, reporting.Options{
		Log:         c.config.Log,
		ReportRisky: c.resolved.ReportRisky(),
	})

	r, err := runner.NewRunner(runner.Config{
		Log:      c.config.Log,
		Bus:      bus,
		Filters:  c.filters,
		Executor: c.executor,
	})
	if err != nil {
		return NewRuntimeError(err)
	}

	stats, err := r.Run(c.ctx, suite)
	if err != nil {
		// This is a runtime error (not a test failure)
		c.config.Log.Error("Runtime error running tests", "error", err)
		return NewRuntimeError(err)
	}

	report := builder.Report()
	c.lastStats = stats
	c.lastReport = report

	if err := c.reporter.Report(report, stats); err != nil {
		c.config.Log.Error("Failed to report results", "error", err)
	}

	c.config.Log.Info("Test run completed",
		"status", stats.Result(),
		"total", stats.Total,
		"failed", stats.Failed,
		"errored", stats.Errored,
		"skipped", stats.Skipped)
	return nil
}

// failed evaluates the last run against the configured failure conditions
// and returns the reason the run should exit non-zero.
func (c *crucible) failed() (bool, string) {
	if c.lastReport == nil {
		return false, ""
	}
	totals := c.lastReport.Totals()

	switch {
	case c.lastStats.HasFailures():
		return true, fmt.Sprintf("%d of %d tests failed", c.lastStats.Failed+c.lastStats.Errored, c.lastStats.Total)
	case c.resolved.FailOnEmptyTestSuite() && totals.Tests == 0:
		return true, "test suite was empty"
	case (c.resolved.FailOnSkipped() || c.resolved.FailOnIncomplete()) && totals.Skipped > 0:
		return true, fmt.Sprintf("%d tests were skipped", totals.Skipped)
	case c.resolved.FailOnWarning() && totals.Warnings > 0:
		return true, fmt.Sprintf("%d tests raised warnings", totals.Warnings)
	case c.resolved.FailOnRisky() && totals.Errors > 0:
		return true, fmt.Sprintf("%d tests were recorded as errors", totals.Errors)
	}
	return false, ""
}

// Stop stops the crucible service.
// Stop implements the cliapp.Lifecycle interface.
func (c *crucible) Stop(ctx context.Context) error {
	c.config.Log.Info("Stopping crucible")

	if err := c.scheduler.Stop(); err != nil {
		return err
	}

	c.config.Log.Info("crucible stopped successfully")
	return nil
}

// Stopped returns true if the crucible service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (c *crucible) Stopped() bool {
	return c.scheduler.Stopped()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (c *crucible) WaitForShutdown(ctx context.Context) error {
	return c.scheduler.WaitForShutdown(ctx)
}
