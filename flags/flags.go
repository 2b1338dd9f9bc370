package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "CRUCIBLE"

var (
	Configuration = &cli.StringFlag{
		Name:    "configuration",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIGURATION"),
		Usage:   "Path to the configuration file (eg. 'crucible.yaml')",
	}
	TestSuite = &cli.StringSliceFlag{
		Name:    "testsuite",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TESTSUITE"),
		Usage:   "Only run the named suite group(s) declared in the configuration file",
	}
	ExcludeTestSuite = &cli.StringSliceFlag{
		Name:    "exclude-testsuite",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXCLUDE_TESTSUITE"),
		Usage:   "Exclude the named suite group(s) declared in the configuration file",
	}
	Group = &cli.StringSliceFlag{
		Name:    "group",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GROUP"),
		Usage:   "Only run tests tagged with the given group label(s)",
	}
	ExcludeGroup = &cli.StringSliceFlag{
		Name:    "exclude-group",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXCLUDE_GROUP"),
		Usage:   "Exclude tests tagged with the given group label(s)",
	}
	Filter = &cli.StringFlag{
		Name:    "filter",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FILTER"),
		Usage:   "Only run tests whose name matches the given pattern",
	}
	Bootstrap = &cli.StringFlag{
		Name:    "bootstrap",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BOOTSTRAP"),
		Usage:   "Executable hook to run before test resolution",
	}
	CacheResult = &cli.BoolFlag{
		Name:    "cache-result",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CACHE_RESULT"),
		Usage:   "Cache test results between runs",
	}
	CacheDirectory = &cli.StringFlag{
		Name:    "cache-directory",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CACHE_DIRECTORY"),
		Usage:   "Directory for cached artifacts; created when missing",
	}
	CoverageCacheDirectory = &cli.StringFlag{
		Name:    "coverage-cache-directory",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COVERAGE_CACHE_DIRECTORY"),
		Usage:   "Directory for the coverage cache; defaults to a subpath of the cache directory",
	}
	ResultCacheFile = &cli.StringFlag{
		Name:    "result-cache-file",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RESULT_CACHE_FILE"),
		Usage:   "File the test-result cache is stored in",
	}
	CoverageInclude = &cli.StringSliceFlag{
		Name:    "coverage-include",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COVERAGE_INCLUDE"),
		Usage:   "Directories added to the coverage inclusion filter",
	}
	PathCoverage = &cli.BoolFlag{
		Name:    "path-coverage",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PATH_COVERAGE"),
		Usage:   "Collect path coverage instead of line coverage",
	}
	IgnoreDeprecated = &cli.BoolFlag{
		Name:    "ignore-deprecated",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "IGNORE_DEPRECATED"),
		Usage:   "Exclude deprecated code units from coverage",
	}
	DisableCoverageIgnore = &cli.BoolFlag{
		Name:    "disable-coverage-ignore",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DISABLE_COVERAGE_IGNORE"),
		Usage:   "Disable coverage ignore directives in source files",
	}
	Columns = &cli.StringFlag{
		Name:    "columns",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COLUMNS"),
		Usage:   "Output width in columns, or 'max' to use the full terminal width",
	}
	LogJUnit = &cli.StringFlag{
		Name:    "log-junit",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOG_JUNIT"),
		Usage:   "Write a JUnit XML report to the given file",
	}
	Stderr = &cli.BoolFlag{
		Name:    "stderr",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STDERR"),
		Usage:   "Write run output to stderr instead of stdout",
	}
	FailOnEmptyTestSuite = &cli.BoolFlag{
		Name:    "fail-on-empty-testsuite",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_EMPTY_TESTSUITE"),
		Usage:   "Treat an empty test suite as a failure",
	}
	FailOnIncomplete = &cli.BoolFlag{
		Name:    "fail-on-incomplete",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_INCOMPLETE"),
		Usage:   "Treat incomplete tests as failures",
	}
	FailOnRisky = &cli.BoolFlag{
		Name:    "fail-on-risky",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_RISKY"),
		Usage:   "Treat risky tests as failures",
	}
	FailOnSkipped = &cli.BoolFlag{
		Name:    "fail-on-skipped",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_SKIPPED"),
		Usage:   "Treat skipped tests as failures",
	}
	FailOnWarning = &cli.BoolFlag{
		Name:    "fail-on-warning",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_WARNING"),
		Usage:   "Treat warnings as failures",
	}
	ReportRisky = &cli.BoolFlag{
		Name:    "report-risky",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_RISKY"),
		Usage:   "Record risky tests as report faults",
	}
	LoadExtensions = &cli.BoolFlag{
		Name:    "load-extensions",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOAD_EXTENSIONS"),
		Usage:   "Load plugin extensions",
	}
	ExtensionDirectory = &cli.StringFlag{
		Name:    "extension-directory",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXTENSION_DIRECTORY"),
		Usage:   "Directory plugin extensions are loaded from",
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   "go",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GO_BINARY"),
		Usage:   "Path to the Go binary to use for running tests",
	}
	TestDir = &cli.StringFlag{
		Name:    "testdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TESTDIR"),
		Usage:   "Directory tests are executed from; defaults to the working directory",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Configuration,
	TestSuite,
	ExcludeTestSuite,
	Group,
	ExcludeGroup,
	Filter,
	Bootstrap,
	CacheResult,
	CacheDirectory,
	CoverageCacheDirectory,
	ResultCacheFile,
	CoverageInclude,
	PathCoverage,
	IgnoreDeprecated,
	DisableCoverageIgnore,
	Columns,
	LogJUnit,
	Stderr,
	FailOnEmptyTestSuite,
	FailOnIncomplete,
	FailOnRisky,
	FailOnSkipped,
	FailOnWarning,
	ReportRisky,
	LoadExtensions,
	ExtensionDirectory,
	GoBinary,
	TestDir,
	RunInterval,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
