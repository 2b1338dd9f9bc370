package types

// FileConfig represents the complete file configuration. It is the second
// configuration source: CLI values take precedence over it field by field.
type FileConfig struct {
	// Path is the location the configuration was loaded from. Set by the
	// loader, not by the file itself.
	Path string `yaml:"-"`

	Bootstrap    string             `yaml:"bootstrap,omitempty"`
	DefaultSuite string             `yaml:"default_suite,omitempty"`
	Suffixes     []string           `yaml:"suffixes,omitempty"`
	Columns      string             `yaml:"columns,omitempty"`
	Suites       []SuiteGroupConfig `yaml:"suites"`
	Cache        CacheConfig        `yaml:"cache,omitempty"`
	Coverage     CoverageConfig     `yaml:"coverage,omitempty"`
	Settings     SettingsConfig     `yaml:"settings,omitempty"`
	Extensions   ExtensionsConfig   `yaml:"extensions,omitempty"`
}

// SuiteGroupConfig declares a named group of test sources.
type SuiteGroupConfig struct {
	Name        string   `yaml:"name"`
	Directories []string `yaml:"directories,omitempty"`
	Files       []string `yaml:"files,omitempty"`
	Suffixes    []string `yaml:"suffixes,omitempty"`
}

// CacheConfig declares result and coverage cache locations.
type CacheConfig struct {
	Enabled           *bool  `yaml:"enabled,omitempty"`
	Directory         string `yaml:"directory,omitempty"`
	CoverageDirectory string `yaml:"coverage_directory,omitempty"`
	ResultFile        string `yaml:"result_file,omitempty"`
}

// CacheEnabled resolves the enabled flag, defaulting to true.
func (c CacheConfig) CacheEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// CoverageConfig declares coverage inclusion lists and coverage behavior
// defaults.
type CoverageConfig struct {
	IncludeDirectories      []string `yaml:"include_directories,omitempty"`
	IncludeFiles            []string `yaml:"include_files,omitempty"`
	PathCoverage            bool     `yaml:"path_coverage,omitempty"`
	IgnoreDeprecated        bool     `yaml:"ignore_deprecated,omitempty"`
	DisableIgnoreDirectives bool     `yaml:"disable_ignore_directives,omitempty"`
}

// SettingsConfig carries the boolean feature-flag defaults.
type SettingsConfig struct {
	FailOnEmptyTestSuite bool `yaml:"fail_on_empty_test_suite,omitempty"`
	FailOnIncomplete     bool `yaml:"fail_on_incomplete,omitempty"`
	FailOnRisky          bool `yaml:"fail_on_risky,omitempty"`
	FailOnSkipped        bool `yaml:"fail_on_skipped,omitempty"`
	FailOnWarning        bool `yaml:"fail_on_warning,omitempty"`
	OutputToStderr       bool `yaml:"output_to_stderr,omitempty"`
	ReportRisky          bool `yaml:"report_risky,omitempty"`
}

// ExtensionsConfig declares plugin extension loading.
type ExtensionsConfig struct {
	Load      *bool  `yaml:"load,omitempty"`
	Directory string `yaml:"directory,omitempty"`
}

// LoadExtensions resolves the load flag, defaulting to true.
func (e ExtensionsConfig) LoadExtensions() bool {
	if e.Load == nil {
		return true
	}
	return *e.Load
}
