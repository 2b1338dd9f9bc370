package crucible

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/crucible-ci/crucible/configuration"
	"github.com/crucible-ci/crucible/flags"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the application configuration
type Config struct {
	ConfigFile    string        // Path to the configuration file, empty when none was given
	TestDir       string        // Directory tests run from
	GoBinary      string        // Go binary used to execute tests
	RunInterval   time.Duration // Interval between test runs
	RunOnce       bool          // Indicates if the service should exit after one test run
	LogJUnit      string        // Path the JUnit XML report is written to, empty to skip
	IncludeGroups []string      // Only run tests tagged with these groups
	ExcludeGroups []string      // Skip tests tagged with these groups
	Filter        string        // Only run tests whose name matches this pattern

	// CLI is the command-line configuration source handed to resolution.
	// Fields are pointers set only for flags the user explicitly gave, so
	// that file-configuration values are not shadowed by flag defaults.
	CLI configuration.CLI

	Log log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	configFile := ctx.String(flags.Configuration.Name)
	if configFile != "" {
		var err error
		configFile, err = filepath.Abs(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for configuration file '%s': %w", ctx.String(flags.Configuration.Name), err)
		}
	}

	testDir := ctx.String(flags.TestDir.Name)
	if testDir == "" {
		testDir = "."
	}
	absTestDir, err := filepath.Abs(testDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for test directory '%s': %w", testDir, err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &Config{
		ConfigFile:    configFile,
		TestDir:       absTestDir,
		GoBinary:      ctx.String(flags.GoBinary.Name),
		RunInterval:   runInterval,
		RunOnce:       runOnce,
		LogJUnit:      ctx.String(flags.LogJUnit.Name),
		IncludeGroups: ctx.StringSlice(flags.Group.Name),
		ExcludeGroups: ctx.StringSlice(flags.ExcludeGroup.Name),
		Filter:        ctx.String(flags.Filter.Name),
		CLI:           cliSource(ctx),
		Log:           log,
	}, nil
}

// cliSource translates the parsed command line into the resolution input.
// Only explicitly set flags produce pointer values; everything else stays
// nil so the file configuration can supply it.
func cliSource(ctx *cli.Context) configuration.CLI {
	return configuration.CLI{
		Argument:      ctx.Args().First(),
		IncludeSuites: ctx.StringSlice(flags.TestSuite.Name),
		ExcludeSuites: ctx.StringSlice(flags.ExcludeTestSuite.Name),

		Bootstrap: stringIfSet(ctx, flags.Bootstrap.Name),

		CacheEnabled:           boolIfSet(ctx, flags.CacheResult.Name),
		CacheDirectory:         stringIfSet(ctx, flags.CacheDirectory.Name),
		CoverageCacheDirectory: stringIfSet(ctx, flags.CoverageCacheDirectory.Name),
		ResultCacheFile:        stringIfSet(ctx, flags.ResultCacheFile.Name),

		CoverageInclude: ctx.StringSlice(flags.CoverageInclude.Name),

		Columns: stringIfSet(ctx, flags.Columns.Name),

		PathCoverage:          boolIfSet(ctx, flags.PathCoverage.Name),
		IgnoreDeprecated:      boolIfSet(ctx, flags.IgnoreDeprecated.Name),
		DisableCoverageIgnore: boolIfSet(ctx, flags.DisableCoverageIgnore.Name),

		FailOnEmptyTestSuite: boolIfSet(ctx, flags.FailOnEmptyTestSuite.Name),
		FailOnIncomplete:     boolIfSet(ctx, flags.FailOnIncomplete.Name),
		FailOnRisky:          boolIfSet(ctx, flags.FailOnRisky.Name),
		FailOnSkipped:        boolIfSet(ctx, flags.FailOnSkipped.Name),
		FailOnWarning:        boolIfSet(ctx, flags.FailOnWarning.Name),

		OutputToStderr: boolIfSet(ctx, flags.Stderr.Name),
		ReportRisky:    boolIfSet(ctx, flags.ReportRisky.Name),

		LoadExtensions:     boolIfSet(ctx, flags.LoadExtensions.Name),
		ExtensionDirectory: stringIfSet(ctx, flags.ExtensionDirectory.Name),
	}
}

func stringIfSet(ctx *cli.Context, name string) *string {
	if !ctx.IsSet(name) {
		return nil
	}
	v := ctx.String(name)
	return &v
}

func boolIfSet(ctx *cli.Context, name string) *bool {
	if !ctx.IsSet(name) {
		return nil
	}
	v := ctx.Bool(name)
	return &v
}
