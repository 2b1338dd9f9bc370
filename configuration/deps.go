package configuration

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/ethereum/go-ethereum/log"

	"github.com/crucible-ci/crucible/coverage"
	"github.com/crucible-ci/crucible/discovery"
	"github.com/crucible-ci/crucible/events"
	"github.com/crucible-ci/crucible/types"
)

// BootstrapRunner executes the bootstrap hook.
type BootstrapRunner interface {
	Run(path string) error
}

// FileDiscoverer finds test files under a directory by filename suffix.
type FileDiscoverer interface {
	FindFiles(dir string, suffixes []string) ([]string, error)
}

// SuiteLoader builds suites from test files or resolves a single file into a
// suite, reporting unrecoverable failures through a LoadResult.
type SuiteLoader interface {
	FromFiles(name string, files []string) (*types.Suite, error)
	FromScript(path string) *types.Suite
	FromFile(path string) discovery.LoadResult
}

// CoverageMapper populates the coverage filter from the file configuration's
// inclusion declarations.
type CoverageMapper interface {
	Map(filter *coverage.Filter, directories []string, files []string)
}

// Deps carries the collaborators resolution consumes. Zero-valued fields are
// replaced with production defaults.
type Deps struct {
	Log        log.Logger
	Bus        *events.Bus
	Bootstrap  BootstrapRunner
	Discoverer FileDiscoverer
	Loader     SuiteLoader
	Mapper     CoverageMapper

	// MkdirAll is the directory-creation side effect of cache resolution.
	MkdirAll func(path string, perm os.FileMode) error

	// Executable locates the currently running binary, used as a fallback
	// anchor for the result cache file.
	Executable func() (string, error)
}

func (d *Deps) applyDefaults() {
	if d.Log == nil {
		d.Log = log.New()
	}
	if d.Bootstrap == nil {
		d.Bootstrap = &ExecBootstrapRunner{}
	}
	if d.Discoverer == nil {
		d.Discoverer = discovery.NewDiscoverer(d.Log)
	}
	if d.Loader == nil {
		d.Loader = discovery.NewLoader(d.Log, ".")
	}
	if d.Mapper == nil {
		d.Mapper = coverage.NewMapper()
	}
	if d.MkdirAll == nil {
		d.MkdirAll = os.MkdirAll
	}
	if d.Executable == nil {
		d.Executable = os.Executable
	}
}

// ExecBootstrapRunner runs the bootstrap file as a command.
type ExecBootstrapRunner struct{}

// Run executes the bootstrap and waits for it to finish.
func (r *ExecBootstrapRunner) Run(path string) error {
	cmd := exec.Command(path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("executing %s: %w", path, err)
	}
	return nil
}
