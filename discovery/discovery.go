// Package discovery locates test files and loads test units from them.
// Files are discovered recursively by filename suffix; units are read out of
// Go test files with go/ast, or taken whole for script test files.
package discovery

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/mod/modfile"

	"github.com/crucible-ci/crucible/types"
)

// GroupDirective is the comment directive attaching group labels to a test
// function: //crucible:groups smoke,slow
const GroupDirective = "//crucible:groups"

// ScriptSuffix marks standalone script test files.
const ScriptSuffix = ".txtar"

// DefaultSuffixes are the filename suffixes discovered when the
// configuration declares none.
var DefaultSuffixes = []string{"_test.go", ScriptSuffix}

// Discoverer finds test files under a directory.
type Discoverer struct {
	log log.Logger
}

// NewDiscoverer creates a discoverer.
func NewDiscoverer(logger log.Logger) *Discoverer {
	if logger == nil {
		logger = log.New()
	}
	return &Discoverer{log: logger}
}

// FindFiles returns the paths under dir whose names end in one of the given
// suffixes, recursively, in lexical order.
func (d *Discoverer) FindFiles(dir string, suffixes []string) ([]string, error) {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		for _, suffix := range suffixes {
			if strings.HasSuffix(entry.Name(), suffix) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering test files in %s: %w", dir, err)
	}

	sort.Strings(files)
	d.log.Debug("Discovered test files", "dir", dir, "suffixes", suffixes, "count", len(files))
	return files, nil
}

// Loader builds suites from test files or named units.
type Loader struct {
	log     log.Logger
	workDir string
}

// NewLoader creates a loader rooted at workDir. workDir is used to resolve
// package import paths against the enclosing go.mod.
func NewLoader(logger log.Logger, workDir string) *Loader {
	if logger == nil {
		logger = log.New()
	}
	return &Loader{log: logger, workDir: workDir}
}

// LoadResult distinguishes a successfully loaded suite from an unrecoverable
// load failure. On failure Suite is nil and Diagnostic carries a one-line
// message; the entry point decides whether to terminate.
type LoadResult struct {
	Suite      *types.Suite
	Diagnostic string
}

// Ok reports whether the load succeeded.
func (r LoadResult) Ok() bool {
	return r.Suite != nil
}

// FromFiles builds a suite from the given test files. Go test files
// contribute their test functions; script files contribute one item each.
func (l *Loader) FromFiles(name string, files []string) (*types.Suite, error) {
	suite := &types.Suite{Name: name}
	for _, file := range files {
		items, err := l.itemsFromFile(file)
		if err != nil {
			return nil, err
		}
		suite.Items = append(suite.Items, items...)
	}
	return suite, nil
}

// FromScript builds a single-item suite from one script test file.
func (l *Loader) FromScript(path string) *types.Suite {
	item := scriptItem(path)
	return &types.Suite{
		Name:  item.Name,
		File:  path,
		Items: []types.TestItem{item},
	}
}

// FromFile resolves a single test file into a suite. Unlike FromFiles it
// never returns a structured error: an unreadable file, a parse failure or a
// file with no test functions is an unrecoverable load failure reported via
// the diagnostic.
func (l *Loader) FromFile(path string) LoadResult {
	items, err := l.itemsFromFile(path)
	if err != nil {
		return LoadResult{Diagnostic: fmt.Sprintf("cannot load test file %q: %v", path, err)}
	}
	if len(items) == 0 {
		return LoadResult{Diagnostic: fmt.Sprintf("no test functions found in %q", path)}
	}
	return LoadResult{Suite: &types.Suite{
		Name:  strings.TrimSuffix(filepath.Base(path), ".go"),
		File:  path,
		Items: items,
	}}
}

func (l *Loader) itemsFromFile(path string) ([]types.TestItem, error) {
	if strings.HasSuffix(path, ScriptSuffix) {
		return []types.TestItem{scriptItem(path)}, nil
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	pkgPath, err := l.packagePath(path)
	if err != nil {
		l.log.Debug("Could not resolve package path, using directory", "file", path, "err", err)
		pkgPath = filepath.ToSlash(filepath.Dir(path))
	}

	var items []types.TestItem
	for _, decl := range f.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		// Test functions start with "Test" and are not TestMain.
		if !strings.HasPrefix(funcDecl.Name.Name, "Test") || funcDecl.Name.Name == "TestMain" {
			continue
		}
		position := fset.Position(funcDecl.Pos())
		items = append(items, types.TestItem{
			Name:    funcDecl.Name.Name,
			Package: pkgPath,
			File:    path,
			Line:    position.Line,
			Groups:  groupsFromDoc(funcDecl.Doc),
		})
	}
	return items, nil
}

// packagePath resolves a test file's import path against the go.mod of the
// loader's working directory.
func (l *Loader) packagePath(file string) (string, error) {
	goModPath := filepath.Join(l.workDir, "go.mod")
	goModContent, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}

	modFile, err := modfile.Parse(goModPath, goModContent, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod: %w", err)
	}
	moduleName := modFile.Module.Mod.Path
	if moduleName == "" {
		return "", fmt.Errorf("could not find module name in go.mod")
	}

	absFile, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	absWork, err := filepath.Abs(l.workDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absWork, filepath.Dir(absFile))
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("file %s is not inside module %s", file, moduleName)
	}
	if rel == "." {
		return moduleName, nil
	}
	return moduleName + "/" + filepath.ToSlash(rel), nil
}

func scriptItem(path string) types.TestItem {
	return types.TestItem{
		Name:   strings.TrimSuffix(filepath.Base(path), ScriptSuffix),
		File:   path,
		Script: true,
	}
}

// groupsFromDoc extracts group labels from the group directive in a test
// function's doc comment.
func groupsFromDoc(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	for _, comment := range doc.List {
		if !strings.HasPrefix(comment.Text, GroupDirective) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(comment.Text, GroupDirective))
		if raw == "" {
			return nil
		}
		var groups []string
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
		return groups
	}
	return nil
}
