package configuration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-ci/crucible/coverage"
	"github.com/crucible-ci/crucible/events"
	"github.com/crucible-ci/crucible/types"
)

func boolPtr(b bool) *bool       { return &b }
func strPtr(s string) *string    { return &s }
func noDeps() Deps               { return Deps{Bootstrap: &stubBootstrap{}} }
func emptyFile() *types.FileConfig { return &types.FileConfig{} }

type stubBootstrap struct {
	ran []string
	err error
}

func (s *stubBootstrap) Run(path string) error {
	s.ran = append(s.ran, path)
	return s.err
}

type recordingMapper struct {
	calls int
	dirs  []string
	files []string
}

func (m *recordingMapper) Map(filter *coverage.Filter, dirs, files []string) {
	m.calls++
	m.dirs = dirs
	m.files = files
	coverage.NewMapper().Map(filter, dirs, files)
}

func TestBooleanFlagPrecedence(t *testing.T) {
	tests := []struct {
		name string
		cli  *bool
		file bool
		want bool
	}{
		{name: "cli true wins over file false", cli: boolPtr(true), file: false, want: true},
		{name: "cli false wins over file true", cli: boolPtr(false), file: true, want: false},
		{name: "file value when cli unset", cli: nil, file: true, want: true},
		{name: "default when both unset", cli: nil, file: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := emptyFile()
			file.Settings.FailOnWarning = tt.file
			r, err := Resolve(CLI{FailOnWarning: tt.cli}, file, noDeps())
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.FailOnWarning())
		})
	}
}

func TestAllFlagsFollowPrecedence(t *testing.T) {
	file := emptyFile()
	file.Settings = types.SettingsConfig{
		FailOnEmptyTestSuite: true,
		FailOnIncomplete:     true,
		FailOnRisky:          true,
		FailOnSkipped:        true,
		FailOnWarning:        true,
		OutputToStderr:       true,
		ReportRisky:          true,
	}
	file.Coverage.PathCoverage = true
	file.Coverage.IgnoreDeprecated = true
	file.Coverage.DisableIgnoreDirectives = true

	r, err := Resolve(CLI{FailOnRisky: boolPtr(false), PathCoverage: boolPtr(false)}, file, noDeps())
	require.NoError(t, err)

	assert.True(t, r.FailOnEmptyTestSuite())
	assert.True(t, r.FailOnIncomplete())
	assert.False(t, r.FailOnRisky()) // CLI override
	assert.True(t, r.FailOnSkipped())
	assert.True(t, r.FailOnWarning())
	assert.True(t, r.OutputToStderr())
	assert.True(t, r.ReportRisky())
	assert.False(t, r.PathCoverage()) // CLI override
	assert.True(t, r.IgnoreDeprecated())
	assert.True(t, r.DisableCoverageIgnore())
}

func TestColumnsResolution(t *testing.T) {
	tests := []struct {
		name      string
		cli       *string
		file      string
		want      int
		wantMax   bool
		wantClamp bool
	}{
		{name: "too few columns clamps to floor", cli: strPtr("5"), want: 16, wantClamp: true},
		{name: "regular width unchanged", cli: strPtr("80"), want: 80},
		{name: "floor itself is not clamped", cli: strPtr("16"), want: 16},
		{name: "max sentinel", cli: strPtr("max"), wantMax: true},
		{name: "file value when cli unset", file: "120", want: 120},
		{name: "default when both unset", want: 80},
		{name: "cli wins over file", cli: strPtr("40"), file: "120", want: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := emptyFile()
			file.Columns = tt.file
			r, err := Resolve(CLI{Columns: tt.cli}, file, noDeps())
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Columns())
			assert.Equal(t, tt.wantMax, r.MaxColumns())
			assert.Equal(t, tt.wantClamp, r.TooFewColumnsRequested())
		})
	}
}

func TestUnsetOptionalFieldAccessors(t *testing.T) {
	r, err := Resolve(CLI{}, emptyFile(), noDeps())
	require.NoError(t, err)

	assert.False(t, r.HasTestSuite())
	_, err = r.TestSuite()
	assert.ErrorIs(t, err, ErrNoTestSuite)

	assert.False(t, r.HasBootstrap())
	_, err = r.Bootstrap()
	assert.ErrorIs(t, err, ErrNoBootstrap)

	assert.False(t, r.HasCacheDirectory())
	_, err = r.CacheDirectory()
	assert.ErrorIs(t, err, ErrNoCacheDirectory)

	assert.False(t, r.HasCoverageCacheDirectory())
	_, err = r.CoverageCacheDirectory()
	assert.ErrorIs(t, err, ErrNoCoverageCacheDirectory)

	assert.False(t, r.HasExtensionDirectory())
	_, err = r.ExtensionDirectory()
	assert.ErrorIs(t, err, ErrNoExtensionDirectory)
}

func TestSetOptionalFieldAccessorsNeverError(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "all.txtar")
	require.NoError(t, os.WriteFile(script, []byte("# script\n"), 0644))

	bootstrap := filepath.Join(dir, "bootstrap.sh")
	require.NoError(t, os.WriteFile(bootstrap, []byte("#!/bin/sh\n"), 0755))

	r, err := Resolve(CLI{
		Argument:           script,
		Bootstrap:          strPtr(bootstrap),
		CacheDirectory:     strPtr(filepath.Join(dir, "cache")),
		ExtensionDirectory: strPtr(filepath.Join(dir, "ext")),
	}, emptyFile(), noDeps())
	require.NoError(t, err)

	suite, err := r.TestSuite()
	require.NoError(t, err)
	assert.Equal(t, 1, suite.Count())

	got, err := r.Bootstrap()
	require.NoError(t, err)
	assert.Equal(t, bootstrap, got)

	cacheDir, err := r.CacheDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), cacheDir)

	covDir, err := r.CoverageCacheDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache", "coverage"), covDir)

	extDir, err := r.ExtensionDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ext"), extDir)
}

func TestBootstrap(t *testing.T) {
	dir := t.TempDir()
	bootstrap := filepath.Join(dir, "bootstrap.sh")
	require.NoError(t, os.WriteFile(bootstrap, []byte("#!/bin/sh\n"), 0755))

	t.Run("unreadable bootstrap fails resolution", func(t *testing.T) {
		_, err := Resolve(CLI{Bootstrap: strPtr(filepath.Join(dir, "absent.sh"))}, emptyFile(), noDeps())
		var invalid *InvalidBootstrapError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("execution failure wraps the cause", func(t *testing.T) {
		cause := errors.New("exit status 3")
		deps := Deps{Bootstrap: &stubBootstrap{err: cause}}
		_, err := Resolve(CLI{Bootstrap: strPtr(bootstrap)}, emptyFile(), deps)
		var bootErr *BootstrapError
		require.ErrorAs(t, err, &bootErr)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("success publishes BootstrapFinished", func(t *testing.T) {
		bus := events.NewBus()
		var finished []string
		events.Subscribe(bus, func(ev events.BootstrapFinished) {
			finished = append(finished, ev.Path)
		})

		runner := &stubBootstrap{}
		r, err := Resolve(CLI{Bootstrap: strPtr(bootstrap)}, emptyFile(), Deps{Bootstrap: runner, Bus: bus})
		require.NoError(t, err)
		assert.Equal(t, []string{bootstrap}, runner.ran)
		assert.Equal(t, []string{bootstrap}, finished)
		assert.True(t, r.HasBootstrap())
	})

	t.Run("file config supplies bootstrap relative to itself", func(t *testing.T) {
		file := emptyFile()
		file.Path = filepath.Join(dir, "crucible.yaml")
		file.Bootstrap = "bootstrap.sh"

		runner := &stubBootstrap{}
		_, err := Resolve(CLI{}, file, Deps{Bootstrap: runner})
		require.NoError(t, err)
		assert.Equal(t, []string{bootstrap}, runner.ran)
	})
}

func writeTestModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"),
		[]byte("module example.com/mod\n\ngo 1.26.0\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_test.go"),
		[]byte("package mod\n\nimport \"testing\"\n\nfunc TestA(t *testing.T) {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_test.go"),
		[]byte("package mod\n\nimport \"testing\"\n\nfunc TestB(t *testing.T) {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "smoke.txtar"),
		[]byte("# script\n"), 0644))
	return dir
}

func TestSuiteSelectionDirectArgument(t *testing.T) {
	dir := writeTestModule(t)

	t.Run("missing path", func(t *testing.T) {
		_, err := Resolve(CLI{Argument: filepath.Join(dir, "nope")}, emptyFile(), noDeps())
		var notFound *TestFileNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("directory discovers by suffix", func(t *testing.T) {
		r, err := Resolve(CLI{Argument: dir}, emptyFile(), noDeps())
		require.NoError(t, err)
		suite, err := r.TestSuite()
		require.NoError(t, err)
		// Two test functions plus one script file.
		assert.Equal(t, 3, suite.Count())
	})

	t.Run("single script file", func(t *testing.T) {
		r, err := Resolve(CLI{Argument: filepath.Join(dir, "smoke.txtar")}, emptyFile(), noDeps())
		require.NoError(t, err)
		suite, err := r.TestSuite()
		require.NoError(t, err)
		require.Len(t, suite.Items, 1)
		assert.True(t, suite.Items[0].Script)
	})

	t.Run("single test file goes through the loader", func(t *testing.T) {
		r, err := Resolve(CLI{Argument: filepath.Join(dir, "a_test.go")}, emptyFile(), noDeps())
		require.NoError(t, err)
		suite, err := r.TestSuite()
		require.NoError(t, err)
		require.Len(t, suite.Items, 1)
		assert.Equal(t, "TestA", suite.Items[0].Name)
	})

	t.Run("unloadable file is a fatal load failure", func(t *testing.T) {
		empty := filepath.Join(dir, "empty_test.go")
		require.NoError(t, os.WriteFile(empty, []byte("package mod\n"), 0644))
		_, err := Resolve(CLI{Argument: empty}, emptyFile(), noDeps())
		var fatal *FatalLoadError
		require.ErrorAs(t, err, &fatal)
		assert.Contains(t, fatal.Diagnostic, "no test functions")
	})
}

func TestSuiteSelectionGroups(t *testing.T) {
	dir := writeTestModule(t)
	file := emptyFile()
	file.Path = filepath.Join(dir, "crucible.yaml")
	file.Suites = []types.SuiteGroupConfig{
		{Name: "unit", Directories: []string{"."}, Suffixes: []string{"_test.go"}},
		{Name: "scripts", Files: []string{"smoke.txtar"}},
	}

	t.Run("all groups by default", func(t *testing.T) {
		r, err := Resolve(CLI{}, file, noDeps())
		require.NoError(t, err)
		suite, err := r.TestSuite()
		require.NoError(t, err)
		require.Len(t, suite.Children, 2)
		assert.Equal(t, "unit", suite.Children[0].Name)
		assert.Equal(t, 2, suite.Children[0].Count())
		assert.Equal(t, "scripts", suite.Children[1].Name)
		assert.Equal(t, 1, suite.Children[1].Count())
	})

	t.Run("include selects by name", func(t *testing.T) {
		r, err := Resolve(CLI{IncludeSuites: []string{"scripts"}}, file, noDeps())
		require.NoError(t, err)
		suite, err := r.TestSuite()
		require.NoError(t, err)
		require.Len(t, suite.Children, 1)
		assert.Equal(t, "scripts", suite.Children[0].Name)
	})

	t.Run("exclude removes by name", func(t *testing.T) {
		r, err := Resolve(CLI{ExcludeSuites: []string{"scripts"}}, file, noDeps())
		require.NoError(t, err)
		suite, err := r.TestSuite()
		require.NoError(t, err)
		require.Len(t, suite.Children, 1)
		assert.Equal(t, "unit", suite.Children[0].Name)
	})

	t.Run("default suite from file config", func(t *testing.T) {
		withDefault := *file
		withDefault.DefaultSuite = "scripts"
		r, err := Resolve(CLI{}, &withDefault, noDeps())
		require.NoError(t, err)
		suite, err := r.TestSuite()
		require.NoError(t, err)
		require.Len(t, suite.Children, 1)
		assert.Equal(t, "scripts", suite.Children[0].Name)
	})

	t.Run("nothing selected leaves suite unset", func(t *testing.T) {
		r, err := Resolve(CLI{IncludeSuites: []string{"ghost"}}, file, noDeps())
		require.NoError(t, err)
		assert.False(t, r.HasTestSuite())
	})
}

func TestCacheResolution(t *testing.T) {
	t.Run("cache directory creation is attempted before acceptance", func(t *testing.T) {
		dir := t.TempDir()
		var created []string
		deps := noDeps()
		deps.MkdirAll = func(path string, perm os.FileMode) error {
			created = append(created, path)
			return os.MkdirAll(path, perm)
		}

		r, err := Resolve(CLI{CacheDirectory: strPtr(filepath.Join(dir, "cache"))}, emptyFile(), deps)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "cache")}, created)
		assert.True(t, r.HasCacheDirectory())
	})

	t.Run("resolved cache directory anchors subpaths", func(t *testing.T) {
		dir := t.TempDir()
		cache := filepath.Join(dir, "cache")
		r, err := Resolve(CLI{CacheDirectory: strPtr(cache)}, emptyFile(), noDeps())
		require.NoError(t, err)

		covDir, err := r.CoverageCacheDirectory()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cache, "coverage"), covDir)
		assert.Equal(t, filepath.Join(cache, "test-results"), r.ResultCacheFile())
	})

	t.Run("explicit overrides win over subpath defaults", func(t *testing.T) {
		dir := t.TempDir()
		r, err := Resolve(CLI{
			CacheDirectory:         strPtr(filepath.Join(dir, "cache")),
			CoverageCacheDirectory: strPtr(filepath.Join(dir, "cov")),
			ResultCacheFile:        strPtr(filepath.Join(dir, "results")),
		}, emptyFile(), noDeps())
		require.NoError(t, err)

		covDir, err := r.CoverageCacheDirectory()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "cov"), covDir)
		assert.Equal(t, filepath.Join(dir, "results"), r.ResultCacheFile())
	})

	t.Run("failed creation leaves cache directory unset", func(t *testing.T) {
		deps := noDeps()
		deps.MkdirAll = func(string, os.FileMode) error { return fmt.Errorf("read-only filesystem") }

		r, err := Resolve(CLI{CacheDirectory: strPtr("/cache")}, emptyFile(), deps)
		require.NoError(t, err)
		assert.False(t, r.HasCacheDirectory())
		assert.False(t, r.HasCoverageCacheDirectory())
	})

	t.Run("result cache falls back to the config file directory", func(t *testing.T) {
		file := emptyFile()
		file.Path = "/etc/crucible/crucible.yaml"
		r, err := Resolve(CLI{}, file, noDeps())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/etc/crucible", DefaultResultCacheName), r.ResultCacheFile())
	})

	t.Run("result cache falls back to the executable directory", func(t *testing.T) {
		deps := noDeps()
		deps.Executable = func() (string, error) { return "/opt/bin/crucible", nil }
		r, err := Resolve(CLI{}, emptyFile(), deps)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/opt/bin", DefaultResultCacheName), r.ResultCacheFile())
	})

	t.Run("result cache bare default", func(t *testing.T) {
		deps := noDeps()
		deps.Executable = func() (string, error) { return "", fmt.Errorf("unknown") }
		r, err := Resolve(CLI{}, emptyFile(), deps)
		require.NoError(t, err)
		assert.Equal(t, DefaultResultCacheName, r.ResultCacheFile())
	})
}

func TestCoverageFilterConstruction(t *testing.T) {
	t.Run("cli include directories are added first", func(t *testing.T) {
		r, err := Resolve(CLI{CoverageInclude: []string{"src", "lib"}}, emptyFile(), noDeps())
		require.NoError(t, err)
		filter := r.CoverageFilter()
		require.NotNil(t, filter)
		assert.Equal(t, []string{"src", "lib"}, filter.Directories())
	})

	t.Run("mapper runs only with a non-empty file inclusion list", func(t *testing.T) {
		mapper := &recordingMapper{}
		deps := noDeps()
		deps.Mapper = mapper

		file := emptyFile()
		file.Coverage.IncludeDirectories = []string{"pkg"}
		_, err := Resolve(CLI{}, file, deps)
		require.NoError(t, err)
		assert.Zero(t, mapper.calls)

		file.Coverage.IncludeFiles = []string{"main.go"}
		r, err := Resolve(CLI{}, file, deps)
		require.NoError(t, err)
		assert.Equal(t, 1, mapper.calls)
		assert.True(t, r.CoverageFilter().Covers("main.go"))
		assert.True(t, r.CoverageFilter().Covers("pkg/thing.go"))
	})

	t.Run("filter is fresh per resolution", func(t *testing.T) {
		first, err := Resolve(CLI{}, emptyFile(), noDeps())
		require.NoError(t, err)
		second, err := Resolve(CLI{}, emptyFile(), noDeps())
		require.NoError(t, err)
		assert.NotSame(t, first.CoverageFilter(), second.CoverageFilter())
	})
}

func TestCacheEnabledPrecedence(t *testing.T) {
	// Default true, file may disable, CLI wins.
	r, err := Resolve(CLI{}, emptyFile(), noDeps())
	require.NoError(t, err)
	assert.True(t, r.CacheEnabled())

	file := emptyFile()
	disabled := false
	file.Cache.Enabled = &disabled
	r, err = Resolve(CLI{}, file, noDeps())
	require.NoError(t, err)
	assert.False(t, r.CacheEnabled())

	r, err = Resolve(CLI{CacheEnabled: boolPtr(true)}, file, noDeps())
	require.NoError(t, err)
	assert.True(t, r.CacheEnabled())
}
