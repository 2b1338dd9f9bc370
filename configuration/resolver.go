// Package configuration merges the CLI and file configuration sources into
// one immutable, validated snapshot. Each field follows the same two-tier
// precedence: the CLI value wins when explicitly present, else the file
// value, else a hardcoded default.
package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/crucible-ci/crucible/coverage"
	"github.com/crucible-ci/crucible/discovery"
	"github.com/crucible-ci/crucible/events"
	"github.com/crucible-ci/crucible/types"
)

// Resolve merges the two sources into the effective run configuration. It
// is a pure function over its inputs plus the side effects its collaborators
// perform (bootstrap execution, cache directory creation, file discovery);
// callers construct it once per process and pass the result by reference.
func Resolve(cli CLI, file *types.FileConfig, deps Deps) (*Resolved, error) {
	deps.applyDefaults()
	if file == nil {
		file = &types.FileConfig{}
	}

	r := &Resolved{}

	bootstrap, err := resolveBootstrap(cli, file, deps)
	if err != nil {
		return nil, err
	}
	r.bootstrap = bootstrap

	suite, err := resolveSuite(cli, file, deps)
	if err != nil {
		return nil, err
	}
	r.suite = suite

	resolveCaches(r, cli, file, deps)

	r.coverageFilter = buildCoverageFilter(cli, file, deps)

	resolveColumns(r, cli, file)

	r.cacheEnabled = boolOr(cli.CacheEnabled, file.Cache.CacheEnabled())
	r.pathCoverage = boolOr(cli.PathCoverage, file.Coverage.PathCoverage)
	r.ignoreDeprecated = boolOr(cli.IgnoreDeprecated, file.Coverage.IgnoreDeprecated)
	r.disableCoverageIgnore = boolOr(cli.DisableCoverageIgnore, file.Coverage.DisableIgnoreDirectives)
	r.failOnEmptyTestSuite = boolOr(cli.FailOnEmptyTestSuite, file.Settings.FailOnEmptyTestSuite)
	r.failOnIncomplete = boolOr(cli.FailOnIncomplete, file.Settings.FailOnIncomplete)
	r.failOnRisky = boolOr(cli.FailOnRisky, file.Settings.FailOnRisky)
	r.failOnSkipped = boolOr(cli.FailOnSkipped, file.Settings.FailOnSkipped)
	r.failOnWarning = boolOr(cli.FailOnWarning, file.Settings.FailOnWarning)
	r.outputToStderr = boolOr(cli.OutputToStderr, file.Settings.OutputToStderr)
	r.reportRisky = boolOr(cli.ReportRisky, file.Settings.ReportRisky)
	r.loadExtensions = boolOr(cli.LoadExtensions, file.Extensions.LoadExtensions())
	r.extensionDirectory = stringOr(cli.ExtensionDirectory, file.Extensions.Directory)

	return r, nil
}

// resolveBootstrap reads and executes the bootstrap hook when either source
// supplies one. Resolution does not continue past a bootstrap failure.
func resolveBootstrap(cli CLI, file *types.FileConfig, deps Deps) (string, error) {
	path := stringOr(cli.Bootstrap, file.Bootstrap)
	if path == "" {
		return "", nil
	}

	path = resolveAgainstConfig(path, file)
	f, err := os.Open(path)
	if err != nil {
		return "", &InvalidBootstrapError{Path: path, Err: err}
	}
	f.Close()

	if err := deps.Bootstrap.Run(path); err != nil {
		return "", &BootstrapError{Path: path, Err: err}
	}

	deps.Log.Debug("Bootstrap finished", "path", path)
	if deps.Bus != nil {
		events.Publish(deps.Bus, events.BootstrapFinished{Path: path})
	}
	return path, nil
}

func resolveSuite(cli CLI, file *types.FileConfig, deps Deps) (*types.Suite, error) {
	suffixes := file.Suffixes
	if len(suffixes) == 0 {
		suffixes = discovery.DefaultSuffixes
	}

	if cli.Argument != "" {
		return resolveArgumentSuite(cli.Argument, suffixes, deps)
	}
	return resolveGroupSuite(cli, file, suffixes, deps)
}

// resolveArgumentSuite builds the suite from a direct file/directory
// argument.
func resolveArgumentSuite(argument string, suffixes []string, deps Deps) (*types.Suite, error) {
	path, err := filepath.Abs(argument)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %q: %w", argument, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &TestFileNotFoundError{Path: argument}
	}

	if info.IsDir() {
		files, err := deps.Discoverer.FindFiles(path, suffixes)
		if err != nil {
			return nil, err
		}
		suite, err := deps.Loader.FromFiles(filepath.Base(path), files)
		if err != nil {
			return nil, err
		}
		suite.File = path
		return suite, nil
	}

	if strings.HasSuffix(path, discovery.ScriptSuffix) {
		return deps.Loader.FromScript(path), nil
	}

	result := deps.Loader.FromFile(path)
	if !result.Ok() {
		return nil, &FatalLoadError{Diagnostic: result.Diagnostic}
	}
	return result.Suite, nil
}

// resolveGroupSuite builds a suite from the file configuration's declared
// suite groups. Returns a nil suite when no group is selected; the field
// then stays unset.
func resolveGroupSuite(cli CLI, file *types.FileConfig, suffixes []string, deps Deps) (*types.Suite, error) {
	include := cli.IncludeSuites
	if len(include) == 0 && file.DefaultSuite != "" {
		include = []string{file.DefaultSuite}
	}

	var selected []types.SuiteGroupConfig
	for _, group := range file.Suites {
		if len(include) > 0 && !slices.Contains(include, group.Name) {
			continue
		}
		if slices.Contains(cli.ExcludeSuites, group.Name) {
			continue
		}
		selected = append(selected, group)
	}
	if len(selected) == 0 {
		return nil, nil
	}

	rootName := "crucible"
	if file.Path != "" {
		rootName = strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	}
	root := &types.Suite{Name: rootName, File: file.Path}

	for _, group := range selected {
		groupSuffixes := group.Suffixes
		if len(groupSuffixes) == 0 {
			groupSuffixes = suffixes
		}

		var files []string
		for _, dir := range group.Directories {
			found, err := deps.Discoverer.FindFiles(resolveAgainstConfig(dir, file), groupSuffixes)
			if err != nil {
				return nil, fmt.Errorf("suite group %q: %w", group.Name, err)
			}
			files = append(files, found...)
		}
		for _, declared := range group.Files {
			files = append(files, resolveAgainstConfig(declared, file))
		}

		child, err := deps.Loader.FromFiles(group.Name, files)
		if err != nil {
			return nil, fmt.Errorf("suite group %q: %w", group.Name, err)
		}
		root.AddChild(child)
	}
	return root, nil
}

// resolveCaches applies the cache directory, coverage cache directory and
// result cache file rules. Creating the cache directory is a side effect of
// accepting its candidate path.
func resolveCaches(r *Resolved, cli CLI, file *types.FileConfig, deps Deps) {
	coverageOverride := stringOr(cli.CoverageCacheDirectory, file.Cache.CoverageDirectory)
	resultOverride := stringOr(cli.ResultCacheFile, file.Cache.ResultFile)

	cacheDir := stringOr(cli.CacheDirectory, file.Cache.Directory)
	if cacheDir != "" {
		cacheDir = resolveAgainstConfig(cacheDir, file)
		if err := deps.MkdirAll(cacheDir, 0755); err != nil {
			deps.Log.Warn("Cannot create cache directory", "dir", cacheDir, "err", err)
			cacheDir = ""
		}
	}

	if cacheDir != "" {
		r.cacheDirectory = cacheDir
		r.coverageCacheDirectory = coverageOverride
		if r.coverageCacheDirectory == "" {
			r.coverageCacheDirectory = filepath.Join(cacheDir, "coverage")
		}
		r.resultCacheFile = resultOverride
		if r.resultCacheFile == "" {
			r.resultCacheFile = filepath.Join(cacheDir, "test-results")
		}
		return
	}

	r.coverageCacheDirectory = coverageOverride

	switch {
	case resultOverride != "":
		r.resultCacheFile = resultOverride
	case file.Path != "":
		r.resultCacheFile = filepath.Join(filepath.Dir(file.Path), DefaultResultCacheName)
	default:
		if exe, err := deps.Executable(); err == nil {
			r.resultCacheFile = filepath.Join(filepath.Dir(exe), DefaultResultCacheName)
		} else {
			r.resultCacheFile = DefaultResultCacheName
		}
	}
}

// buildCoverageFilter constructs a fresh filter: CLI include directories
// first, then the file configuration's declarations through the mapper when
// an explicit file inclusion list is present.
func buildCoverageFilter(cli CLI, file *types.FileConfig, deps Deps) *coverage.Filter {
	filter := coverage.NewFilter()
	for _, dir := range cli.CoverageInclude {
		filter.IncludeDirectory(dir)
	}
	if len(file.Coverage.IncludeFiles) > 0 {
		deps.Mapper.Map(filter, file.Coverage.IncludeDirectories, file.Coverage.IncludeFiles)
	}
	return filter
}

// resolveColumns clamps numeric widths to the floor and records the clamp;
// the "max" sentinel defers width detection to the consumer.
func resolveColumns(r *Resolved, cli CLI, file *types.FileConfig) {
	raw := stringOr(cli.Columns, file.Columns)
	if raw == "max" {
		r.maxColumns = true
		return
	}
	columns := DefaultColumns
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			columns = n
		}
	}
	if columns < MinColumns {
		columns = MinColumns
		r.tooFewColumns = true
	}
	r.columns = columns
}

// resolveAgainstConfig anchors a relative path at the configuration file's
// directory when one was loaded.
func resolveAgainstConfig(path string, file *types.FileConfig) string {
	if filepath.IsAbs(path) || file.Path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(file.Path), path)
}
