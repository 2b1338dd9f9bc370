// Package coverage holds the code-coverage inclusion filter populated during
// configuration resolution and consumed by an external coverage engine.
package coverage

import (
	"path/filepath"
	"strings"
)

// Filter collects directory and file inclusion declarations. It is mutable
// while configuration resolution runs and must not be mutated afterwards.
type Filter struct {
	directories []string
	files       map[string]struct{}
}

// NewFilter creates an empty filter.
func NewFilter() *Filter {
	return &Filter{files: make(map[string]struct{})}
}

// IncludeDirectory adds a directory whose files are covered.
func (f *Filter) IncludeDirectory(dir string) {
	f.directories = append(f.directories, filepath.Clean(dir))
}

// IncludeFile adds a single covered file.
func (f *Filter) IncludeFile(path string) {
	f.files[filepath.Clean(path)] = struct{}{}
}

// IsEmpty reports whether no inclusion was declared.
func (f *Filter) IsEmpty() bool {
	return len(f.directories) == 0 && len(f.files) == 0
}

// Covers reports whether path falls under a declared directory or matches a
// declared file.
func (f *Filter) Covers(path string) bool {
	path = filepath.Clean(path)
	if _, ok := f.files[path]; ok {
		return true
	}
	for _, dir := range f.directories {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Directories returns the declared directories in insertion order.
func (f *Filter) Directories() []string {
	return f.directories
}

// Files returns the declared files.
func (f *Filter) Files() []string {
	out := make([]string, 0, len(f.files))
	for path := range f.files {
		out = append(out, path)
	}
	return out
}
