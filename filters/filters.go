// Package filters composes inclusion/exclusion predicates around a test
// iterator. Filters are registered on a Factory in execution order and
// folded around a base iterator on demand; an item must satisfy every
// registered filter to be yielded.
package filters

import (
	"regexp"
	"strings"

	"github.com/crucible-ci/crucible/types"
)

// Kind identifies a filter kind.
type Kind string

const (
	KindExcludeGroup Kind = "exclude-group"
	KindIncludeGroup Kind = "include-group"
	KindName         Kind = "name"
)

// spec is one registered filter: a kind plus its construction argument.
// Specs are immutable once added; insertion order is wrapping order.
type spec struct {
	kind    Kind
	groups  []string
	pattern string
}

// Factory holds an ordered registration of filter kinds and builds a nested
// filter chain around a base iterator on demand.
type Factory struct {
	specs []spec
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{}
}

// AddExcludeGroupFilter registers a filter rejecting items tagged with any
// of the given groups. Arguments are trusted; no validation happens here.
func (f *Factory) AddExcludeGroupFilter(groups []string) {
	f.specs = append(f.specs, spec{kind: KindExcludeGroup, groups: groups})
}

// AddIncludeGroupFilter registers a filter admitting only items tagged with
// at least one of the given groups.
func (f *Factory) AddIncludeGroupFilter(groups []string) {
	f.specs = append(f.specs, spec{kind: KindIncludeGroup, groups: groups})
}

// AddNameFilter registers a filter admitting only items whose name matches
// the pattern.
func (f *Factory) AddNameFilter(pattern string) {
	f.specs = append(f.specs, spec{kind: KindName, pattern: pattern})
}

// Empty reports whether no filter was registered.
func (f *Factory) Empty() bool {
	return len(f.specs) == 0
}

// Build folds the registered filters left-to-right around base: the first
// registered filter wraps the base iterator and is the innermost predicate,
// each subsequent filter wraps around it. With no registered filters the
// base iterator is returned unchanged.
func (f *Factory) Build(base types.Iterator, suite *types.Suite) types.Iterator {
	it := base
	for _, s := range f.specs {
		switch s.kind {
		case KindExcludeGroup:
			it = NewExcludeGroupIterator(it, s.groups, suite)
		case KindIncludeGroup:
			it = NewIncludeGroupIterator(it, s.groups, suite)
		case KindName:
			it = NewNameIterator(it, s.pattern, suite)
		}
	}
	return it
}

// filterIterator yields only the inner iterator's items accepted by the
// predicate, preserving relative order. It shares the inner iterator's
// contract: lazy, finite, single pass.
type filterIterator struct {
	inner  types.Iterator
	accept func(*types.TestItem) bool
}

func (it *filterIterator) Next() (*types.TestItem, bool) {
	for {
		item, ok := it.inner.Next()
		if !ok {
			return nil, false
		}
		if it.accept(item) {
			return item, true
		}
	}
}

// NewExcludeGroupIterator wraps inner, dropping items tagged with any of the
// given groups.
func NewExcludeGroupIterator(inner types.Iterator, groups []string, _ *types.Suite) types.Iterator {
	return &filterIterator{inner: inner, accept: func(item *types.TestItem) bool {
		return !item.HasAnyGroup(groups)
	}}
}

// NewIncludeGroupIterator wraps inner, yielding only items tagged with at
// least one of the given groups.
func NewIncludeGroupIterator(inner types.Iterator, groups []string, _ *types.Suite) types.Iterator {
	return &filterIterator{inner: inner, accept: func(item *types.TestItem) bool {
		return item.HasAnyGroup(groups)
	}}
}

// NewNameIterator wraps inner, yielding only items whose name matches the
// pattern. The pattern is compiled as a regular expression; a pattern that
// does not compile is matched as a literal substring instead.
func NewNameIterator(inner types.Iterator, pattern string, _ *types.Suite) types.Iterator {
	re, err := regexp.Compile(pattern)
	accept := func(item *types.TestItem) bool {
		if err != nil {
			return strings.Contains(item.Name, pattern)
		}
		return re.MatchString(item.Name)
	}
	return &filterIterator{inner: inner, accept: accept}
}
