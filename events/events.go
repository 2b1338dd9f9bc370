// Package events defines the typed event stream a test run emits and the
// bus it is delivered on. Events are published in strict chronological
// order; suite start/finish events nest with stack discipline.
package events

import "github.com/crucible-ci/crucible/types"

// SuiteStarted signals that a suite has been opened at the next nesting depth.
type SuiteStarted struct {
	Name string
	File string // Source location of the suite, empty when unknown
}

// SuiteFinished signals that the most recently opened suite has been closed.
type SuiteFinished struct {
	Name string
}

// TestPrepared signals that a test is about to run.
type TestPrepared struct {
	Item *types.TestItem
}

// AssertionMade reports one or more assertions performed by the running
// test. Count carries the assertion's weight: a combinatorial constraint may
// count as more than one.
type AssertionMade struct {
	Count int
}

// TestFinished signals that the currently running test has completed,
// whatever its outcome. Output carries captured output, if any.
type TestFinished struct {
	Output string
}

// TestPassed reports a clean pass.
type TestPassed struct{}

// Throwable describes the failure payload attached to fault outcomes.
type Throwable struct {
	Message string
	Trace   string
	Kind    string // Class/type name of the originating failure
}

// TestPassedWithWarning reports a pass that raised a warning.
type TestPassedWithWarning struct {
	Throwable
}

// TestConsideredRisky reports a test flagged as risky. It still counts as
// passed unless risky reporting is enabled on the consumer.
type TestConsideredRisky struct {
	Throwable
}

// TestErrored reports an unexpected error during the test.
type TestErrored struct {
	Throwable
}

// TestFailed reports an assertion failure.
type TestFailed struct {
	Throwable
}

// TestSkipped reports a skipped test.
type TestSkipped struct {
	Message string
}

// TestAborted reports a test aborted as incomplete.
type TestAborted struct {
	Message string
}

// BootstrapFinished signals that the bootstrap hook executed successfully.
type BootstrapFinished struct {
	Path string
}
