// Package registry loads and serves the file configuration.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/crucible-ci/crucible/types"
)

// Registry manages the file configuration and suite-group lookups.
type Registry struct {
	config Config
	file   *types.FileConfig
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log        log.Logger
	ConfigFile string
}

// NewRegistry loads the file configuration and returns a registry over it.
// A registry created without a config file serves an empty configuration;
// every field then falls through to CLI values and hardcoded defaults.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{config: cfg, file: &types.FileConfig{}}

	if cfg.ConfigFile != "" {
		file, err := loadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration file: %w", err)
		}
		if err := validate(file); err != nil {
			return nil, fmt.Errorf("invalid configuration file: %w", err)
		}
		r.file = file
	}

	cfg.Log.Debug("Registry loaded", "suiteGroups", len(r.file.Suites))
	return r, nil
}

// FileConfig returns the loaded file configuration.
func (r *Registry) FileConfig() *types.FileConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file
}

// SuiteGroup returns the declared suite group with the given name.
func (r *Registry) SuiteGroup(name string) (types.SuiteGroupConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, group := range r.file.Suites {
		if group.Name == name {
			return group, true
		}
	}
	return types.SuiteGroupConfig{}, false
}

// SelectGroups returns the declared suite groups honoring the optional
// include and exclude name lists. An empty include list admits every group.
func (r *Registry) SelectGroups(include, exclude []string) []types.SuiteGroupConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var selected []types.SuiteGroupConfig
	for _, group := range r.file.Suites {
		if len(include) > 0 && !slices.Contains(include, group.Name) {
			continue
		}
		if slices.Contains(exclude, group.Name) {
			continue
		}
		selected = append(selected, group)
	}
	return selected
}

// loadConfig loads a file configuration from a YAML file.
func loadConfig(path string) (*types.FileConfig, error) {
	log.Debug("Reading configuration file", "path", path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg types.FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Path = absPath

	return &cfg, nil
}

func validate(cfg *types.FileConfig) error {
	seen := make(map[string]bool)
	for _, group := range cfg.Suites {
		if group.Name == "" {
			return fmt.Errorf("suite group without a name")
		}
		if seen[group.Name] {
			return fmt.Errorf("duplicate suite group %q", group.Name)
		}
		seen[group.Name] = true
		if len(group.Directories) == 0 && len(group.Files) == 0 {
			return fmt.Errorf("suite group %q declares no directories or files", group.Name)
		}
	}
	if cfg.DefaultSuite != "" && !seen[cfg.DefaultSuite] {
		return fmt.Errorf("default suite %q is not declared", cfg.DefaultSuite)
	}
	return nil
}
