package configuration

import (
	"github.com/crucible-ci/crucible/coverage"
	"github.com/crucible-ci/crucible/types"
)

// MinColumns is the floor the terminal width is clamped to.
const MinColumns = 16

// DefaultColumns is the terminal width used when neither source requests
// one.
const DefaultColumns = 80

// DefaultResultCacheName is the bare relative fallback for the test-result
// cache file.
const DefaultResultCacheName = ".crucible.result.cache"

// Resolved is the effective run configuration: constructed once by Resolve,
// then read-only. Optional fields are gated by Has predicates; their
// accessors fail with the field-specific error when unset instead of
// returning an empty placeholder.
type Resolved struct {
	suite     *types.Suite
	bootstrap string

	cacheEnabled           bool
	cacheDirectory         string
	coverageCacheDirectory string
	resultCacheFile        string

	coverageFilter *coverage.Filter

	pathCoverage          bool
	ignoreDeprecated      bool
	disableCoverageIgnore bool

	failOnEmptyTestSuite bool
	failOnIncomplete     bool
	failOnRisky          bool
	failOnSkipped        bool
	failOnWarning        bool

	outputToStderr bool
	reportRisky    bool

	columns       int
	maxColumns    bool
	tooFewColumns bool

	loadExtensions     bool
	extensionDirectory string
}

// HasTestSuite reports whether a suite was resolved.
func (r *Resolved) HasTestSuite() bool {
	return r.suite != nil
}

// TestSuite returns the resolved suite, or ErrNoTestSuite when none was
// resolvable from either source.
func (r *Resolved) TestSuite() (*types.Suite, error) {
	if r.suite == nil {
		return nil, ErrNoTestSuite
	}
	return r.suite, nil
}

// HasBootstrap reports whether a bootstrap was configured.
func (r *Resolved) HasBootstrap() bool {
	return r.bootstrap != ""
}

// Bootstrap returns the bootstrap path, or ErrNoBootstrap when neither
// source supplied one.
func (r *Resolved) Bootstrap() (string, error) {
	if r.bootstrap == "" {
		return "", ErrNoBootstrap
	}
	return r.bootstrap, nil
}

// CacheEnabled reports whether result caching is on.
func (r *Resolved) CacheEnabled() bool {
	return r.cacheEnabled
}

// HasCacheDirectory reports whether the cache directory resolved.
func (r *Resolved) HasCacheDirectory() bool {
	return r.cacheDirectory != ""
}

// CacheDirectory returns the cache directory, or ErrNoCacheDirectory when it
// did not resolve.
func (r *Resolved) CacheDirectory() (string, error) {
	if r.cacheDirectory == "" {
		return "", ErrNoCacheDirectory
	}
	return r.cacheDirectory, nil
}

// HasCoverageCacheDirectory reports whether a coverage cache directory
// resolved.
func (r *Resolved) HasCoverageCacheDirectory() bool {
	return r.coverageCacheDirectory != ""
}

// CoverageCacheDirectory returns the coverage cache directory, or
// ErrNoCoverageCacheDirectory when it did not resolve.
func (r *Resolved) CoverageCacheDirectory() (string, error) {
	if r.coverageCacheDirectory == "" {
		return "", ErrNoCoverageCacheDirectory
	}
	return r.coverageCacheDirectory, nil
}

// ResultCacheFile returns the test-result cache file path. Always
// resolvable through the fallback rules.
func (r *Resolved) ResultCacheFile() string {
	return r.resultCacheFile
}

// CoverageFilter returns the coverage filter built during resolution. By
// contract it must not be mutated after resolution.
func (r *Resolved) CoverageFilter() *coverage.Filter {
	return r.coverageFilter
}

// PathCoverage reports whether path coverage was requested.
func (r *Resolved) PathCoverage() bool { return r.pathCoverage }

// IgnoreDeprecated reports whether deprecated code units are excluded from
// coverage.
func (r *Resolved) IgnoreDeprecated() bool { return r.ignoreDeprecated }

// DisableCoverageIgnore reports whether coverage ignore directives are
// disabled.
func (r *Resolved) DisableCoverageIgnore() bool { return r.disableCoverageIgnore }

// FailOnEmptyTestSuite reports the fail-on-empty flag.
func (r *Resolved) FailOnEmptyTestSuite() bool { return r.failOnEmptyTestSuite }

// FailOnIncomplete reports the fail-on-incomplete flag.
func (r *Resolved) FailOnIncomplete() bool { return r.failOnIncomplete }

// FailOnRisky reports the fail-on-risky flag.
func (r *Resolved) FailOnRisky() bool { return r.failOnRisky }

// FailOnSkipped reports the fail-on-skipped flag.
func (r *Resolved) FailOnSkipped() bool { return r.failOnSkipped }

// FailOnWarning reports the fail-on-warning flag.
func (r *Resolved) FailOnWarning() bool { return r.failOnWarning }

// OutputToStderr reports whether run output goes to stderr.
func (r *Resolved) OutputToStderr() bool { return r.outputToStderr }

// ReportRisky reports whether risky outcomes are recorded as report faults.
func (r *Resolved) ReportRisky() bool { return r.reportRisky }

// Columns returns the resolved terminal width. Zero when MaxColumns is set.
func (r *Resolved) Columns() int { return r.columns }

// MaxColumns reports whether the sentinel "max" width was requested.
func (r *Resolved) MaxColumns() bool { return r.maxColumns }

// TooFewColumnsRequested reports whether the requested width was clamped to
// the floor. Informational only.
func (r *Resolved) TooFewColumnsRequested() bool { return r.tooFewColumns }

// LoadExtensions reports whether plugin extensions are loaded.
func (r *Resolved) LoadExtensions() bool { return r.loadExtensions }

// HasExtensionDirectory reports whether a plugin extension directory was
// configured.
func (r *Resolved) HasExtensionDirectory() bool {
	return r.extensionDirectory != ""
}

// ExtensionDirectory returns the plugin extension directory, or
// ErrNoExtensionDirectory when neither source supplied one.
func (r *Resolved) ExtensionDirectory() (string, error) {
	if r.extensionDirectory == "" {
		return "", ErrNoExtensionDirectory
	}
	return r.extensionDirectory, nil
}
