package configuration

// CLI is the command-line configuration source. Optional fields are
// pointers set only when the flag was explicitly given; a set CLI value wins
// over the file configuration for the same field.
type CLI struct {
	// Argument is the direct test file/directory argument, empty when the
	// run targets configured suite groups instead.
	Argument string

	// IncludeSuites and ExcludeSuites pick suite groups by name when no
	// direct argument is given. An empty include list admits every group.
	IncludeSuites []string
	ExcludeSuites []string

	Bootstrap *string

	CacheEnabled           *bool
	CacheDirectory         *string
	CoverageCacheDirectory *string
	ResultCacheFile        *string

	// CoverageInclude lists directories added to the coverage filter before
	// the file configuration's declarations are mapped in.
	CoverageInclude []string

	// Columns is the requested terminal width: a number or the sentinel
	// "max".
	Columns *string

	PathCoverage          *bool
	IgnoreDeprecated      *bool
	DisableCoverageIgnore *bool

	FailOnEmptyTestSuite *bool
	FailOnIncomplete     *bool
	FailOnRisky          *bool
	FailOnSkipped        *bool
	FailOnWarning        *bool

	OutputToStderr *bool
	ReportRisky    *bool

	LoadExtensions     *bool
	ExtensionDirectory *string
}

// stringOr applies the two-tier precedence for string fields: the CLI value
// when explicitly set, else the file value.
func stringOr(cli *string, file string) string {
	if cli != nil {
		return *cli
	}
	return file
}

// boolOr applies the two-tier precedence for boolean fields.
func boolOr(cli *bool, file bool) bool {
	if cli != nil {
		return *cli
	}
	return file
}
