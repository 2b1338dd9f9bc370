// Package types contains shared types used across the crucible testing harness.
package types

import "strings"

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass  TestStatus = "pass"
	TestStatusFail  TestStatus = "fail"
	TestStatusSkip  TestStatus = "skip"
	TestStatusError TestStatus = "error"
)

// String implements the Stringer interface for TestStatus
func (s TestStatus) String() string {
	return string(s)
}

// TestItem identifies a single runnable test unit: a test function inside a
// package, or a standalone script test file.
type TestItem struct {
	Name    string   // Test function name (or script file base name)
	Package string   // Import path of the declaring package
	File    string   // Source file the test was discovered in, if known
	Line    int      // Line of the test declaration, 0 when unknown
	Groups  []string // Group labels attached via the group directive
	Script  bool     // True for standalone script test files
}

// HasAnyGroup reports whether the item carries at least one of the given
// group labels.
func (t *TestItem) HasAnyGroup(groups []string) bool {
	for _, g := range groups {
		for _, have := range t.Groups {
			if g == have {
				return true
			}
		}
	}
	return false
}

// ClassName returns the dot-separated package path, the form JUnit-style
// consumers expect in the classname attribute.
func (t *TestItem) ClassName() string {
	return strings.ReplaceAll(t.Package, "/", ".")
}
