package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/crucible-ci/crucible/types"
)

// Test execution constants
const (
	// DefaultTestTimeout is the default timeout for individual tests
	DefaultTestTimeout = 10 * time.Minute

	// Default go binary name
	DefaultGoBinary = "go"

	// Test command arguments
	TestCommand = "test"
	JSONFlag    = "-json"
	VerboseFlag = "-v"
	TimeoutFlag = "-timeout"
	CountFlag   = "-count"
	RunFlag     = "-run"

	// Test count to disable caching
	DisableCacheCount = "1"
)

// Result is the outcome of executing one test unit.
type Result struct {
	Status   types.TestStatus
	Message  string // Trimmed failure/skip text, empty on a clean pass
	Output   string // Full captured output
	Duration time.Duration
}

// Executor runs a single test unit to completion.
type Executor interface {
	Run(ctx context.Context, item *types.TestItem) (*Result, error)
}

var _ Executor = (*GoTestExecutor)(nil)

// GoTestExecutor shells out to the go toolchain, one process per test
// function, and reads the result back from the -json event stream.
type GoTestExecutor struct {
	log      log.Logger
	workDir  string
	goBinary string
	timeout  time.Duration
}

// ExecutorConfig holds configuration for creating a GoTestExecutor.
type ExecutorConfig struct {
	Log      log.Logger
	WorkDir  string // Directory the go command runs in
	GoBinary string // Path to the go binary, defaults to "go"
	Timeout  time.Duration
}

// NewGoTestExecutor creates an executor.
func NewGoTestExecutor(cfg ExecutorConfig) (*GoTestExecutor, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.GoBinary == "" {
		cfg.GoBinary = DefaultGoBinary
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTestTimeout
	}
	return &GoTestExecutor{
		log:      cfg.Log,
		workDir:  cfg.WorkDir,
		goBinary: cfg.GoBinary,
		timeout:  cfg.Timeout,
	}, nil
}

// Run executes the test function and parses its JSON event stream.
func (e *GoTestExecutor) Run(ctx context.Context, item *types.TestItem) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if item.Package == "" {
		return nil, fmt.Errorf("test item %q has no package", item.Name)
	}

	args := e.buildTestArgs(item)
	e.log.Debug("Running test", "test", item.Name, "package", item.Package, "args", args)

	cmd := exec.CommandContext(ctx, e.goBinary, args...)
	cmd.Dir = e.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := parseStream(&stdout, item.Name)
	result.Duration = duration

	if runErr != nil {
		exitErr := &exec.ExitError{}
		switch {
		case errors.As(runErr, &exitErr) && exitErr.ExitCode() == 1 && result.Status == types.TestStatusFail:
			// Expected exit for a failing test; the parsed result stands.
		case errors.As(runErr, &exitErr) && exitErr.ExitCode() == 2:
			result.Status = types.TestStatusError
			result.Message = fmt.Sprintf("test compilation failed: %s", stderr.String())
		case errors.As(runErr, &exitErr):
			result.Status = types.TestStatusError
			result.Message = fmt.Sprintf("test execution failed with exit code %d: %s", exitErr.ExitCode(), stderr.String())
		default:
			return nil, fmt.Errorf("failed to run test %s: %w", item.Name, runErr)
		}
	}

	return result, nil
}

func (e *GoTestExecutor) buildTestArgs(item *types.TestItem) []string {
	args := []string{TestCommand, JSONFlag, VerboseFlag}
	if e.timeout > 0 {
		args = append(args, TimeoutFlag, e.timeout.String())
	}
	args = append(args, CountFlag, DisableCacheCount)
	args = append(args, item.Package)
	args = append(args, RunFlag, fmt.Sprintf("^%s$", item.Name))
	return args
}
