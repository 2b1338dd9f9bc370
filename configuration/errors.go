package configuration

import (
	"errors"
	"fmt"
)

// Unset optional fields. Each accessor that wraps an optional field fails
// with the error unique to that field when the field was never resolvable;
// callers check the corresponding Has predicate to recover.
var (
	ErrNoTestSuite              = errors.New("test suite not configured")
	ErrNoBootstrap              = errors.New("bootstrap not configured")
	ErrNoCacheDirectory         = errors.New("cache directory not configured")
	ErrNoCoverageCacheDirectory = errors.New("coverage cache directory not configured")
	ErrNoExtensionDirectory     = errors.New("extension directory not configured")
)

// TestFileNotFoundError reports that the direct test argument does not
// resolve to an existing file or directory. Fatal to resolution.
type TestFileNotFoundError struct {
	Path string
}

func (e *TestFileNotFoundError) Error() string {
	return fmt.Sprintf("test file or directory %q does not exist", e.Path)
}

// InvalidBootstrapError reports an unreadable bootstrap file. Fatal to
// resolution.
type InvalidBootstrapError struct {
	Path string
	Err  error
}

func (e *InvalidBootstrapError) Error() string {
	return fmt.Sprintf("cannot read bootstrap %q: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *InvalidBootstrapError) Unwrap() error {
	return e.Err
}

// BootstrapError wraps an arbitrary failure raised while the bootstrap
// executed. Fatal to resolution.
type BootstrapError struct {
	Path string
	Err  error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap %q failed: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// FatalLoadError carries the one-line diagnostic of an unrecoverable test
// load failure. The top-level entry point decides whether to terminate the
// process; resolution itself never exits.
type FatalLoadError struct {
	Diagnostic string
}

func (e *FatalLoadError) Error() string {
	return e.Diagnostic
}
